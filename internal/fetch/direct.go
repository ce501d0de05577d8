package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marketdesk/indicators-cli/internal/headers"
	"github.com/marketdesk/indicators-cli/internal/ratelimit"
	"github.com/marketdesk/indicators-cli/internal/resilience"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 2 << 20

// DirectOptions configures the direct HTTP strategy.
type DirectOptions struct {
	Timeout    time.Duration
	MaxRetries int

	// Limiter gates requests for API-backed targets. Nil for plain scrape
	// targets.
	Limiter *ratelimit.Window

	// Cooldown is imposed on the limiter when the upstream answers 429.
	Cooldown time.Duration
}

// Direct fetches pages with plain HTTP GETs, rotating browser fingerprints
// between attempts. Retry behavior follows the shared policy: timeouts and
// 429s back off and retry, 403s retry under a fresh identity, DNS and
// connection failures escalate immediately.
type Direct struct {
	client  *http.Client
	rotator *headers.Rotator
	opts    DirectOptions
}

// NewDirect creates the direct HTTP strategy.
func NewDirect(rotator *headers.Rotator, opts DirectOptions) *Direct {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	return &Direct{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		rotator: rotator,
		opts:    opts,
	}
}

func (d *Direct) Name() string  { return "direct_http" }
func (d *Direct) Enabled() bool { return true }

// Fetch GETs the target, retrying per the shared policy, and returns the
// raw body.
func (d *Direct) Fetch(ctx context.Context, target Target) (*Content, error) {
	cfg := resilience.RetryConfig{
		MaxAttempts:    d.opts.MaxRetries,
		InitialBackoff: 2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
		ShouldRetry:    d.shouldRetry,
		OnRetry:        resilience.RetryLogger("fetch", "direct_http"),
	}

	body, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		return d.attempt(ctx, target)
	})
	if err != nil {
		return nil, err
	}
	return &Content{Body: body, Source: d.Name()}, nil
}

// shouldRetry keeps 403s in-strategy (the next attempt uses a different
// identity profile) on top of the default timeout/rate-limit retries.
func (d *Direct) shouldRetry(err error) bool {
	kind := resilience.Classify(err)
	return kind == resilience.KindBlocked || kind.Retryable()
}

func (d *Direct) attempt(ctx context.Context, target Target) (string, error) {
	if d.opts.Limiter != nil {
		if err := d.opts.Limiter.Acquire(ctx); err != nil {
			return "", eris.Wrap(err, "direct_http: acquire slot")
		}
	}

	profile := d.rotator.Next()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return "", eris.Wrap(err, "direct_http: create request")
	}
	for k, v := range profile.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		kind := resilience.Classify(err)
		switch kind {
		case resilience.KindDNS:
			zap.L().Warn("direct_http: DNS resolution failed; environment-level, not retrying",
				zap.String("url", target.URL),
				zap.Error(err),
			)
		case resilience.KindConnection:
			zap.L().Warn("direct_http: connection failed; environment-level, not retrying",
				zap.String("url", target.URL),
				zap.Error(err),
			)
		case resilience.KindTimeout:
			zap.L().Debug("direct_http: request timed out",
				zap.String("url", target.URL),
			)
		}
		return "", resilience.NewClassifiedError(eris.Wrap(err, "direct_http: fetch"), kind)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return "", eris.Wrap(err, "direct_http: read body")
		}
		return string(raw), nil

	case resp.StatusCode == http.StatusForbidden:
		// Server-side blocking, not a network failure. The retry path
		// rotates to a fresh identity profile.
		zap.L().Warn("direct_http: blocked (403), bot detection suspected",
			zap.String("url", target.URL),
			zap.String("user_agent", profile.UserAgent),
		)
		return "", resilience.NewClassifiedError(
			eris.Errorf("direct_http: blocked (403) for %s", target.URL),
			resilience.KindBlocked,
		)

	case resp.StatusCode == http.StatusTooManyRequests:
		if d.opts.Limiter != nil && d.opts.Cooldown > 0 {
			d.opts.Limiter.ImposeCooldown(d.opts.Cooldown)
		}
		zap.L().Warn("direct_http: rate limited (429)",
			zap.String("url", target.URL),
		)
		return "", resilience.NewClassifiedError(
			eris.Errorf("direct_http: rate limited (429) for %s", target.URL),
			resilience.KindRateLimited,
		)

	case resp.StatusCode == http.StatusNotFound:
		// A 404 won't get better with retries.
		zap.L().Warn("direct_http: not found (404); check the source URL mapping",
			zap.String("url", target.URL),
		)
		return "", eris.Errorf("direct_http: status 404 for %s", target.URL)

	case resilience.IsRetryableHTTPStatus(resp.StatusCode):
		return "", resilience.NewClassifiedError(
			eris.Errorf("direct_http: status %d for %s", resp.StatusCode, target.URL),
			resilience.KindServer,
		)

	default:
		return "", eris.Errorf("direct_http: status %d for %s", resp.StatusCode, target.URL)
	}
}
