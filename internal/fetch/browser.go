package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BrowserOptions configures the headless rendering strategy.
type BrowserOptions struct {
	Enabled     bool
	PageTimeout time.Duration
	Settle      time.Duration // extra wait after body readiness for JS rendering
}

// Browser renders pages in headless Chrome for sites that serve their
// indicator tables via JavaScript. The browser process is started lazily on
// the first fetch and reused for the rest of the run; Close tears it down.
type Browser struct {
	opts  BrowserOptions
	check *NetCheck

	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc

	// run hook, replaced in tests
	render func(ctx context.Context, target string) (string, error)
}

// NewBrowser creates the browser strategy. The connectivity checker gates
// startup: spawning Chrome for an offline host wastes seconds per target.
func NewBrowser(opts BrowserOptions, check *NetCheck) *Browser {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}
	if opts.Settle <= 0 {
		opts.Settle = 2 * time.Second
	}
	b := &Browser{opts: opts, check: check}
	b.render = b.renderPage
	return b
}

func (b *Browser) Name() string { return "browser" }

func (b *Browser) Enabled() bool { return b.opts.Enabled }

// Fetch renders the target and returns the final HTML. Any failure maps to
// ErrUnavailable so the chain falls through rather than aborting the item.
func (b *Browser) Fetch(ctx context.Context, target Target) (*Content, error) {
	if !b.opts.Enabled {
		return nil, ErrUnavailable
	}
	if b.check != nil && !b.check.Online(ctx) {
		zap.L().Debug("browser: skipping, connectivity probes failed")
		return nil, ErrUnavailable
	}

	html, err := b.render(ctx, target.URL)
	if err != nil {
		zap.L().Warn("browser: render failed",
			zap.String("url", target.URL),
			zap.Error(err),
		)
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}
	if html == "" {
		return nil, eris.Wrap(ErrUnavailable, "browser: empty render")
	}

	zap.L().Debug("browser: rendered",
		zap.String("url", target.URL),
		zap.Int("bytes", len(html)),
	)
	return &Content{Body: html, Source: b.Name()}, nil
}

// allocator returns the shared exec allocator, starting it on first use.
func (b *Browser) allocator(ctx context.Context) context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.allocCtx == nil {
		zap.L().Info("browser: starting headless browser")
		b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(ctx,
			append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
			)...,
		)
	}
	return b.allocCtx
}

func (b *Browser) renderPage(ctx context.Context, target string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocator(context.Background()))
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.opts.PageTimeout)
	defer cancelTimeout()

	// Honor the caller's cancellation without tying the browser process
	// lifetime to a single item's context.
	stop := context.AfterFunc(ctx, func() { cancelTimeout() })
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.opts.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", eris.Wrapf(err, "browser: render %s", target)
	}
	return html, nil
}

// Close shuts the browser process down. Safe to call without a prior fetch.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCtx = nil
		b.allocCancel = nil
		zap.L().Debug("browser: closed")
	}
}
