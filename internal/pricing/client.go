// Package pricing fetches USD spot prices from a CoinGecko-compatible service.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolNotifier/internal/metrics"
	"poolNotifier/internal/model"
)

const (
	DefaultBaseURL      = "https://api.coingecko.com/api/v3"
	DefaultMaxAttempts  = 5
	DefaultRetryBackoff = 500 * time.Millisecond
	DefaultAPIKeyHeader = "x-cg-pro-api-key"

	vsCurrency = "usd"
)

// Source returns USD prices for price-provider ids.
type Source interface {
	FetchPrices(ctx context.Context, ids []string) (model.PriceQuote, error)
}

// HTTPDoer is the transport the client sends requests through.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls the price client.
type Config struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Client queries the /simple/price endpoint. Prices are never cached.
type Client struct {
	cfg    Config
	http   HTTPDoer
	logger *zap.Logger
}

// NewClient builds a Client. doer is usually an *http.Client created once at startup.
func NewClient(cfg Config, doer HTTPDoer, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = DefaultAPIKeyHeader
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: doer, logger: logger}
}

type priceEntry struct {
	USD *decimal.Decimal `json:"usd"`
}

// FetchPrices issues one request for ids, retrying transient failures.
func (c *Client) FetchPrices(ctx context.Context, ids []string) (model.PriceQuote, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return model.PriceQuote{}, nil
	}

	var body map[string]priceEntry
	attempts, err := withRetry(ctx, c.cfg.MaxAttempts, c.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		body, err = c.request(ctx, ids)
		if err != nil {
			c.logger.Warn("price fetch failed", zap.Strings("ids", ids), zap.Error(err))
			if errors.Is(err, ErrUnauthorized) {
				metrics.PriceAttempt("unauthorized")
			} else {
				metrics.PriceAttempt("error")
			}
			return err
		}
		metrics.PriceAttempt("ok")
		return nil
	})
	if err != nil {
		return nil, err
	}

	quote := make(model.PriceQuote, len(ids))
	for _, id := range ids {
		entry, ok := body[id]
		if !ok || entry.USD == nil {
			return nil, &MissingPriceQuoteError{ID: id}
		}
		quote[id] = *entry.USD
	}

	c.logger.Debug("prices fetched", zap.Strings("ids", ids), zap.Int("attempts", attempts))
	return quote, nil
}

func (c *Client) request(ctx context.Context, ids []string) (map[string]priceEntry, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", vsCurrency)
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/simple/price?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create price request")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(c.cfg.APIKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "price request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read price response")
	}

	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("price service returned status %d: %s", resp.StatusCode, snippet(data))
	}

	var body map[string]priceEntry
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, errors.Wrap(err, "decode price response")
	}
	for id, entry := range body {
		if entry.USD != nil && entry.USD.IsNegative() {
			return nil, fmt.Errorf("negative price for %s: %s", id, entry.USD)
		}
	}
	return body, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func snippet(data []byte) string {
	const max = 200
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
