// Package driver calls the engine once per fixed-size buffer from a real-time
// source and hands its output to a MIDI port.
package driver

import (
	"time"

	"go-genmidi/midi"
)

// Processor renders one buffer of n samples
type Processor interface {
	Process(in, out []midi.Event, n int) []midi.Event
}

// ClockSource supplies realtime input bytes for the buffer starting at
// start
type ClockSource interface {
	Drain(dst []midi.Event, start time.Time, sampleRate float64, n int) []midi.Event
}

// Timeline maps engine samples to wall time
type Timeline struct {
	Origin     time.Time
	SampleRate float64
}

// At is the wall time of sample s
func (tl Timeline) At(s int64) time.Time {
	return tl.Origin.Add(time.Duration(float64(s) / tl.SampleRate * float64(time.Second)))
}

// Sample is the sample playing at t
func (tl Timeline) Sample(t time.Time) int64 {
	return int64(t.Sub(tl.Origin).Seconds() * tl.SampleRate)
}

// runner is the per-buffer step shared by the drivers. It is only touched
// by the driver's own thread.
type runner struct {
	proc  Processor
	clock ClockSource
	ring  *Ring
	tl    Timeline
	base  int64
	in    []midi.Event
	out   []midi.Event
}

func newRunner(p Processor, clock ClockSource, ring *Ring, sampleRate float64, bufferSize int) *runner {
	return &runner{
		proc:  p,
		clock: clock,
		ring:  ring,
		tl:    Timeline{SampleRate: sampleRate},
		in:    make([]midi.Event, 0, 64),
		out:   make([]midi.Event, 0, bufferSize),
	}
}

// step renders the next n samples and queues the output at absolute samples
func (r *runner) step(n int) {
	r.in = r.in[:0]
	if r.clock != nil {
		r.in = r.clock.Drain(r.in, r.tl.At(r.base), r.tl.SampleRate, n)
	}
	r.out = r.proc.Process(r.in, r.out[:0], n)
	for _, ev := range r.out {
		r.ring.Push(Timed{Sample: r.base + int64(ev.Offset), Message: ev.Message})
	}
	r.base += int64(n)
}
