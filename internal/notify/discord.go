package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"poolNotifier/internal/model"
)

const (
	// discordContentLimit is the maximum length of a webhook content field.
	discordContentLimit = 2000
	defaultSendTimeout  = 10 * time.Second
)

// HTTPDoer is the transport used by the webhook client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookConfig configures a Discord webhook sender.
type WebhookConfig struct {
	Name    string
	URL     string
	Rate    float64 // sends per second, <= 0 means unlimited
	Timeout time.Duration
}

// Webhook posts to a Discord webhook URL. Sends pass a rate limiter and a
// circuit breaker; failures are returned and never retried.
type Webhook struct {
	cfg     WebhookConfig
	http    HTTPDoer
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewWebhook(cfg WebhookConfig, doer HTTPDoer, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}
	if cfg.Name == "" {
		cfg.Name = "discord"
	}
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("webhook circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Webhook{
		cfg:     cfg,
		http:    doer,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Author      *embedAuthor `json:"author,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
}

type embedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// SendMessage posts msg as a single embed.
func (w *Webhook) SendMessage(ctx context.Context, msg model.NotificationMessage) error {
	return w.post(ctx, webhookPayload{Embeds: []embed{toEmbed(msg)}})
}

// SendText posts text as message content, truncated to the Discord limit.
func (w *Webhook) SendText(ctx context.Context, text string) error {
	return w.post(ctx, webhookPayload{Content: truncate(text, discordContentLimit)})
}

func (w *Webhook) post(ctx context.Context, payload webhookPayload) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "webhook rate limiter")
	}
	_, err := w.breaker.Execute(func() (interface{}, error) {
		return nil, w.do(ctx, payload)
	})
	if err != nil {
		return errors.Wrapf(err, "%s webhook", w.cfg.Name)
	}
	return nil
}

func (w *Webhook) do(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal webhook payload")
	}

	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "webhook request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(data))
	}
	return nil
}

func toEmbed(msg model.NotificationMessage) embed {
	e := embed{
		Title:       msg.Title,
		Description: msg.Description,
		URL:         msg.URL,
		Color:       msg.Color,
	}
	if !msg.Timestamp.IsZero() {
		e.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339)
	}
	if msg.Author.Name != "" {
		e.Author = &embedAuthor{Name: msg.Author.Name, URL: msg.Author.URL, IconURL: msg.Author.IconURL}
	}
	for _, f := range msg.Fields {
		e.Fields = append(e.Fields, embedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if msg.Footer.Text != "" {
		e.Footer = &embedFooter{Text: msg.Footer.Text, IconURL: msg.Footer.IconURL}
	}
	return e
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
