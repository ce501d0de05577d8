// Package fetch provides chained content extraction for indicator pages:
// direct HTTP, headless browser rendering, and deterministic mock data,
// tried in priority order.
package fetch

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrUnavailable signals that a strategy cannot proceed for this target and
// the chain should fall through to the next one.
var ErrUnavailable = eris.New("fetch: strategy unavailable")

// Target identifies one item to fetch. Scrape strategies use the URL;
// API strategies use the ticker symbol.
type Target struct {
	Ticker string
	URL    string
}

// key is the cache identity for a target.
func (t Target) key() string {
	if t.URL != "" {
		return t.URL
	}
	return t.Ticker
}

// Content is fetched page content tagged with the strategy that produced it.
type Content struct {
	Body   string
	Source string // strategy name, e.g. "direct_http", "browser", "api", "mock"
}

// Strategy fetches content for a single target.
type Strategy interface {
	Fetch(ctx context.Context, target Target) (*Content, error)
	Name() string
	Enabled() bool
}
