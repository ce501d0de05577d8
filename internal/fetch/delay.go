package fetch

import (
	"context"
	"math/rand"
	"time"
)

// Delay throttles request cadence with a random pause in [Min, Max],
// scaled geometrically on retries. Independent of quota enforcement: its
// purpose is detection avoidance, not accounting.
type Delay struct {
	Min time.Duration
	Max time.Duration

	sleep func(ctx context.Context, d time.Duration) error // test hook
}

// NewDelay creates a Delay for the given bounds. Inverted or negative
// bounds are normalized.
func NewDelay(min, max time.Duration) *Delay {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Delay{Min: min, Max: max, sleep: sleepCtx}
}

// delayScaleCap bounds the geometric retry scaling at 8x.
const delayScaleCap = 8

// Sleep pauses for a jittered duration. retry 0 is the first attempt;
// each subsequent retry doubles the range, capped.
func (d *Delay) Sleep(ctx context.Context, retry int) error {
	span := d.Max - d.Min
	dur := d.Min
	if span > 0 {
		dur += time.Duration(rand.Int63n(int64(span)))
	}

	scale := 1
	for i := 0; i < retry && scale < delayScaleCap; i++ {
		scale *= 2
	}
	dur *= time.Duration(scale)

	if dur <= 0 {
		return nil
	}
	return d.sleep(ctx, dur)
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
