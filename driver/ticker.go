package driver

import (
	"context"
	"time"

	"go-genmidi/debug"
)

// Ticker drives the engine from the wall clock. Buffer k is rendered once
// its span has elapsed, so clock input for the span has arrived; output
// latency must cover at least one buffer.
type Ticker struct {
	r *runner
	n int
}

// NewTicker creates a wall-clock driver. clock may be nil.
func NewTicker(p Processor, ring *Ring, sampleRate float64, bufferSize int, clock ClockSource) *Ticker {
	return &Ticker{r: newRunner(p, clock, ring, sampleRate, bufferSize), n: bufferSize}
}

// Start fixes sample 0 at origin. Call before Run.
func (t *Ticker) Start(origin time.Time) Timeline {
	t.r.tl.Origin = origin
	return t.r.tl
}

// Run renders buffers until ctx is done. A late wakeup renders every
// buffer it missed at once.
func (t *Ticker) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		now := time.Now()
		behind := 0
		for !t.r.tl.At(t.r.base + int64(t.n)).After(now) {
			t.r.step(t.n)
			behind++
		}
		if behind > 2 {
			debug.LogEvery(10, "driver", "ticker caught up %d buffers", behind)
		}
		timer.Reset(time.Until(t.r.tl.At(t.r.base + int64(t.n))))
	}
}
