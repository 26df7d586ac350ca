package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		BaseURL:      url,
		MaxAttempts:  5,
		RetryBackoff: time.Millisecond,
	}, &http.Client{Timeout: 5 * time.Second}, nil)
}

func TestFetchPricesSuccess(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"usd-coin":{"usd":1.0},"tether":{"usd":0.9987}}`))
	}))
	defer server.Close()

	quote, err := newTestClient(server.URL).FetchPrices(context.Background(), []string{"usd-coin", "tether", "usd-coin"})
	require.NoError(t, err)
	assert.True(t, quote["usd-coin"].Equal(decimal.NewFromInt(1)))
	assert.True(t, quote["tether"].Equal(decimal.RequireFromString("0.9987")))
	assert.Contains(t, gotQuery, "ids=usd-coin%2Ctether")
	assert.Contains(t, gotQuery, "vs_currencies=usd")
}

func TestFetchPricesUnauthorizedFailsFast(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchPrices(context.Background(), []string{"usd-coin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, errors.Is(err, ErrPriceFetchExhausted))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchPricesExhaustsAfterFiveAttempts(t *testing.T) {
	responses := []func(w http.ResponseWriter){
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) },
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusTooManyRequests) },
		func(w http.ResponseWriter) { _, _ = w.Write([]byte(`not json`)) },
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusUnauthorized) },
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusBadGateway) },
	}
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		responses[(int(n)-1)%len(responses)](w)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchPrices(context.Background(), []string{"usd-coin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceFetchExhausted)
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 5, exhausted.Attempts)
}

func TestFetchPricesRecoversAfterTransientFailure(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"dai":{"usd":"1.001"}}`))
	}))
	defer server.Close()

	quote, err := newTestClient(server.URL).FetchPrices(context.Background(), []string{"dai"})
	require.NoError(t, err)
	assert.Equal(t, "1.001", quote["dai"].String())
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetchPricesMissingQuote(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"usd-coin":{"usd":1}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchPrices(context.Background(), []string{"usd-coin", "tether"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingPriceQuote)

	var missing *MissingPriceQuoteError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "tether", missing.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchPricesSendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get(DefaultAPIKeyHeader))
		_, _ = w.Write([]byte(`{"usd-coin":{"usd":1}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"}, server.Client(), nil)
	_, err := client.FetchPrices(context.Background(), []string{"usd-coin"})
	require.NoError(t, err)
}

func TestFetchPricesEmptyIDs(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, nil, nil)
	quote, err := client.FetchPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quote)
}
