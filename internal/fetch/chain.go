package fetch

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Chain tries strategies in priority order, returning the first success.
// Results are cached per exact target string for the chain's lifetime, so
// duplicate rows in an input workbook cost one fetch.
type Chain struct {
	strategies []Strategy
	delay      *Delay

	mu    sync.Mutex
	cache map[string]*Content
}

// NewChain creates a Chain. Strategies are tried in the order given;
// disabled strategies are skipped. delay may be nil.
func NewChain(delay *Delay, strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		delay:      delay,
		cache:      make(map[string]*Content),
	}
}

// Fetch resolves content for a target. Each strategy failure falls through
// to the next; the error is returned only when every strategy fails.
func (c *Chain) Fetch(ctx context.Context, target Target) (*Content, error) {
	c.mu.Lock()
	if cached, ok := c.cache[target.key()]; ok {
		c.mu.Unlock()
		zap.L().Debug("fetch: cache hit", zap.String("target", target.key()))
		return cached, nil
	}
	c.mu.Unlock()

	if c.delay != nil {
		if err := c.delay.Sleep(ctx, 0); err != nil {
			return nil, eris.Wrap(err, "fetch: interrupted before attempt")
		}
	}

	var lastErr error
	for _, s := range c.strategies {
		if !s.Enabled() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "fetch: cancelled")
		}
		content, err := s.Fetch(ctx, target)
		if err == nil && content != nil {
			c.mu.Lock()
			c.cache[target.key()] = content
			c.mu.Unlock()
			return content, nil
		}
		if err != nil {
			if eris.Is(err, ErrUnavailable) {
				zap.L().Debug("fetch: strategy unavailable, trying next",
					zap.String("strategy", s.Name()),
					zap.String("target", target.key()),
				)
			} else {
				zap.L().Warn("fetch: strategy failed, trying next",
					zap.String("strategy", s.Name()),
					zap.String("target", target.key()),
					zap.Error(err),
				)
				lastErr = err
			}
		}
	}

	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "fetch: all strategies failed")
	}
	return nil, eris.Errorf("fetch: no strategy available for %s", target.key())
}
