package driver

import (
	"context"
	"sync/atomic"
	"time"

	"go-genmidi/debug"
	"go-genmidi/midi"
)

// Output sends queued messages to a port when they fall due
type Output struct {
	ring    *Ring
	send    midi.SendFunc
	tl      Timeline
	latency time.Duration
	poll    time.Duration
	errors  atomic.Uint64
}

// NewOutput delays every message by latency past its timeline position
func NewOutput(ring *Ring, send midi.SendFunc, tl Timeline, latency time.Duration) *Output {
	return &Output{ring: ring, send: send, tl: tl, latency: latency, poll: time.Millisecond}
}

// Run sends due messages until ctx is done, then sends whatever is left
// so note-offs are not lost.
func (o *Output) Run(ctx context.Context) {
	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			o.Flush(-1)
			return
		case now := <-ticker.C:
			o.Flush(max(0, o.tl.Sample(now.Add(-o.latency))))
		}
	}
}

// Flush sends every message due before sample until, or all of them when
// until is negative
func (o *Output) Flush(until int64) {
	o.ring.Iter(until, func(t Timed) {
		if err := o.send(t.Message); err != nil {
			o.errors.Add(1)
			debug.LogEvery(100, "driver", "send: %v", err)
		}
	})
}

// Errors counts failed sends
func (o *Output) Errors() uint64 {
	return o.errors.Load()
}
