// Package ratelimit enforces a rolling-window request quota with explicit
// cooldowns for upstream exhaustion signals.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultWindow is the quota accounting window.
const DefaultWindow = 60 * time.Second

// Window grants at most R request slots per rolling window. Admission is
// FIFO: Acquire blocks until the oldest granted timestamp ages out of the
// window. An imposed cooldown blocks all acquisitions until its deadline,
// regardless of window occupancy.
type Window struct {
	mu            sync.Mutex
	limit         int
	window        time.Duration
	granted       []time.Time // timestamps of granted acquisitions, oldest first
	cooldownUntil time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWindow creates a limiter allowing limit requests per 60-second rolling
// window. A non-positive limit is clamped up to 1.
func NewWindow(limit int) *Window {
	if limit < 1 {
		limit = 1
	}
	return &Window{
		limit:  limit,
		window: DefaultWindow,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire blocks until a request slot is available under the quota and any
// active cooldown has elapsed. The only error it returns is the context's,
// when the caller gives up waiting.
func (w *Window) Acquire(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := w.now()

		// Cooldown takes precedence over window occupancy. A cooldown can
		// be imposed while we sleep, so re-check on every iteration.
		if now.Before(w.cooldownUntil) {
			wait := w.cooldownUntil.Sub(now)
			w.mu.Unlock()
			zap.L().Debug("ratelimit: cooldown active",
				zap.Duration("wait", wait),
			)
			if err := w.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		w.evict(now)

		if len(w.granted) < w.limit {
			w.granted = append(w.granted, now)
			w.mu.Unlock()
			return nil
		}

		// Wait for the oldest grant to exit the window, then retry.
		wait := w.granted[0].Add(w.window).Sub(now)
		w.mu.Unlock()
		if wait > 0 {
			zap.L().Debug("ratelimit: window full, waiting for slot",
				zap.Duration("wait", wait),
				zap.Int("limit", w.limit),
			)
			if err := w.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
}

// ImposeCooldown forces all subsequent Acquire calls to block for at least d.
// The deadline only moves forward: a shorter cooldown never shortens one
// already in effect.
func (w *Window) ImposeCooldown(d time.Duration) {
	if d <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	deadline := w.now().Add(d)
	if deadline.After(w.cooldownUntil) {
		w.cooldownUntil = deadline
		zap.L().Warn("ratelimit: cooldown imposed",
			zap.Duration("duration", d),
			zap.Time("until", deadline),
		)
	}
}

// CooldownUntil reports the current cooldown deadline (zero if none).
func (w *Window) CooldownUntil() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cooldownUntil
}

// evict drops granted timestamps that have aged out of the window.
// Caller holds the lock.
func (w *Window) evict(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.granted) && !w.granted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.granted = w.granted[i:]
	}
}
