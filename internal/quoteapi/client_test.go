package quoteapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketdesk/indicators-cli/internal/indicator"
	"github.com/marketdesk/indicators-cli/internal/ratelimit"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Options{
		BaseURL:           srv.URL,
		Key:               "test-key",
		RequestsPerSecond: 1000, // no pacing in tests
	})
	return c, srv
}

func TestClient_Quote_DecodesFields(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote/AAPL", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`{
			"price": 187.25,
			"high_52_weeks": 199.62,
			"low_52_weeks": 124.17,
			"market_cap": 2910000000000
		}`))
	})

	q, err := c.Quote(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, indicator.Some(187.25), q.Price)
	assert.Equal(t, indicator.Some(199.62), q.High52W)
	assert.Equal(t, indicator.Some(124.17), q.Low52W)
	assert.Equal(t, indicator.Some(2.91e12), q.MarketCap)
	assert.False(t, q.PERatio.Valid, "omitted P/E must stay unavailable")
	assert.Equal(t, "AAPL", q.Symbol)
}

func TestClient_InvalidKey_DisablesForRun(t *testing.T) {
	hits := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"error","code":"invalid_key","message":"API key not recognized"}`))
	})

	_, err := c.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrKeyRejected)
	assert.False(t, c.Enabled())

	// Later calls must not touch the network again.
	_, err = c.Quote(context.Background(), "MSFT")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, 1, hits)
}

func TestClient_CreditsExhausted_ImposesCooldown(t *testing.T) {
	window := ratelimit.NewWindow(5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","code":"credits_exhausted","message":"plan limit reached"}`))
	}))
	defer srv.Close()

	c := New(Options{
		BaseURL:           srv.URL,
		Key:               "test-key",
		Window:            window,
		Cooldown:          time.Minute,
		RequestsPerSecond: 1000,
	})

	_, err := c.Quote(context.Background(), "AAPL")

	assert.Error(t, err)
	assert.True(t, c.Enabled(), "credit exhaustion is not a credential failure")
	assert.False(t, window.CooldownUntil().IsZero(), "exhausted credits must start a cooldown")
}

func TestClient_ServerErrorRetriesOnce(t *testing.T) {
	hits := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"price": 42.5}`))
	})

	q, err := c.Quote(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, indicator.Some(42.5), q.Price)
	assert.Equal(t, 2, hits)
}

func TestClient_UnauthorizedStatus_Disables(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Quote(context.Background(), "AAPL")

	assert.ErrorIs(t, err, ErrKeyRejected)
	assert.False(t, c.Enabled())
}

func TestClient_EmptyKeyStartsDisabled(t *testing.T) {
	c := New(Options{BaseURL: "https://api.quotefeed.io/v1"})
	assert.False(t, c.Enabled())

	_, err := c.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestClient_Technical_ReturnsRawBody(t *testing.T) {
	payload := `{"symbol":"AAPL","indicators":{"RSI_14":55.3,"EMA20":187.2}}`
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/technical/AAPL", r.URL.Path)
		_, _ = w.Write([]byte(payload))
	})

	body, err := c.Technical(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.JSONEq(t, payload, body)
}
