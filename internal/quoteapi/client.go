// Package quoteapi is the client for the upstream quote and technical
// indicator API. The upstream meters by key: exhausted credits come back as
// a JSON error body, and an invalid key disables the API path for the rest
// of the run.
package quoteapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/marketdesk/indicators-cli/internal/ratelimit"
	"github.com/marketdesk/indicators-cli/internal/resilience"
)

// ErrKeyRejected is the terminal credential failure. Once returned, the
// client disables itself and every later call short-circuits.
var ErrKeyRejected = eris.New("quoteapi: api key rejected")

// ErrDisabled is returned by calls made after the client disabled itself.
var ErrDisabled = eris.New("quoteapi: client disabled")

// Error codes the upstream puts in its JSON error body.
const (
	codeInvalidKey       = "invalid_key"
	codeCreditsExhausted = "credits_exhausted"
)

// apiError is the upstream's JSON error body.
type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Options configures the client.
type Options struct {
	BaseURL string
	Key     string
	Timeout time.Duration

	// Window is the shared rolling-window limiter; a credits-exhausted
	// response imposes Cooldown on it so later batch items back off too.
	Window   *ratelimit.Window
	Cooldown time.Duration

	// RequestsPerSecond smooths request spacing under the window quota.
	RequestsPerSecond float64
}

// Client talks to the quote API. Safe for concurrent use.
type Client struct {
	baseURL  string
	key      string
	client   *http.Client
	pacer    *rate.Limiter
	window   *ratelimit.Window
	cooldown time.Duration

	disabled    atomic.Bool
	disableOnce sync.Once
}

// New creates a Client. An empty key produces a client that reports
// Enabled() == false without ever hitting the network.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	c := &Client{
		baseURL:  opts.BaseURL,
		key:      opts.Key,
		client:   &http.Client{Timeout: opts.Timeout},
		pacer:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		window:   opts.Window,
		cooldown: opts.Cooldown,
	}
	if opts.Key == "" {
		c.disabled.Store(true)
	}
	return c
}

// Enabled reports whether the API path is usable: a key is configured and
// has not been rejected.
func (c *Client) Enabled() bool {
	return !c.disabled.Load()
}

// markDisabled latches the client off. The credential failure is logged
// once, not per item.
func (c *Client) markDisabled(symbol string) {
	c.disabled.Store(true)
	c.disableOnce.Do(func() {
		zap.L().Error("quoteapi: api key rejected, disabling API path for the rest of the run",
			zap.String("first_symbol", symbol),
		)
	})
}

// get performs one authenticated GET and maps the upstream's error body to
// classified errors.
func (c *Client) get(ctx context.Context, path, symbol string) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "quoteapi: pacing")
	}
	if c.window != nil {
		if err := c.window.Acquire(ctx); err != nil {
			return nil, eris.Wrap(err, "quoteapi: acquire slot")
		}
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, eris.Wrapf(err, "quoteapi: bad url %s", path)
	}
	q := u.Query()
	q.Set("apikey", c.key)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "quoteapi: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, resilience.NewClassifiedError(
			eris.Wrap(err, "quoteapi: request"),
			resilience.Classify(err),
		)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "quoteapi: read body")
	}

	// The upstream reports errors in the body, sometimes under a 200.
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Status == "error" {
		return nil, c.mapError(apiErr, resp.StatusCode, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.mapStatus(resp.StatusCode, symbol)
	}
	return body, nil
}

// mapError branches on the upstream's declared error code, not on message
// text.
func (c *Client) mapError(apiErr apiError, statusCode int, symbol string) error {
	switch apiErr.Code {
	case codeInvalidKey:
		c.markDisabled(symbol)
		return eris.Wrapf(ErrKeyRejected, "quoteapi: %s", apiErr.Message)
	case codeCreditsExhausted:
		if c.window != nil && c.cooldown > 0 {
			c.window.ImposeCooldown(c.cooldown)
		}
		zap.L().Warn("quoteapi: credits exhausted, cooling down",
			zap.String("symbol", symbol),
			zap.Duration("cooldown", c.cooldown),
		)
		return resilience.NewClassifiedError(
			eris.Errorf("quoteapi: credits exhausted: %s", apiErr.Message),
			resilience.KindRateLimited,
		)
	default:
		return c.mapStatus(statusCode, symbol)
	}
}

func (c *Client) mapStatus(statusCode int, symbol string) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		c.markDisabled(symbol)
		return eris.Wrapf(ErrKeyRejected, "quoteapi: status %d", statusCode)
	case statusCode == http.StatusTooManyRequests:
		if c.window != nil && c.cooldown > 0 {
			c.window.ImposeCooldown(c.cooldown)
		}
		return resilience.NewClassifiedError(
			eris.Errorf("quoteapi: rate limited (429) for %s", symbol),
			resilience.KindRateLimited,
		)
	case resilience.IsRetryableHTTPStatus(statusCode):
		return resilience.NewClassifiedError(
			eris.Errorf("quoteapi: status %d for %s", statusCode, symbol),
			resilience.KindServer,
		)
	default:
		return eris.Errorf("quoteapi: status %d for %s", statusCode, symbol)
	}
}

// retryCfg is the brief in-item retry: a rate or server blip gets one more
// try, a rejected key or hard failure escalates immediately.
func retryCfg() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
		ShouldRetry:    resilience.IsRetryable,
		OnRetry:        resilience.RetryLogger("quoteapi", "get"),
	}
}

// Quote fetches current price and fundamentals for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	body, err := resilience.DoVal(ctx, retryCfg(), func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, "/quote/"+url.PathEscape(symbol), symbol)
	})
	if err != nil {
		return nil, err
	}
	q, err := decodeQuote(body)
	if err != nil {
		return nil, eris.Wrapf(err, "quoteapi: decode quote for %s", symbol)
	}
	q.Symbol = symbol
	return q, nil
}

// Technical fetches the raw technical-indicator JSON payload for a symbol.
// The caller decodes it; keeping it raw lets the fetch chain treat API
// content like any other page body.
func (c *Client) Technical(ctx context.Context, symbol string) (string, error) {
	body, err := resilience.DoVal(ctx, retryCfg(), func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, "/technical/"+url.PathEscape(symbol), symbol)
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}
