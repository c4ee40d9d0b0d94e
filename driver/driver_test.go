package driver

import (
	"errors"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-genmidi/midi"
)

func TestRingOrderAndOverflow(t *testing.T) {
	r := NewRing(4)
	for i := 0; i < 6; i++ {
		ok := r.Push(Timed{Sample: int64(i * 10)})
		if want := i < 4; ok != want {
			t.Fatalf("push %d: want %v, got %v", i, want, ok)
		}
	}
	if want, got := uint64(2), r.Overflow(); want != got {
		t.Fatalf("overflow: want %d, got %d", want, got)
	}

	var got []int64
	r.Iter(25, func(tm Timed) { got = append(got, tm.Sample) })
	if len(got) != 3 || got[0] != 0 || got[2] != 20 {
		t.Fatalf("iter until 25: %v", got)
	}
	if want, got := 1, r.Len(); want != got {
		t.Fatalf("len: want %d, got %d", want, got)
	}

	// wraps past the end of the backing array
	for i := 0; i < 3; i++ {
		if !r.Push(Timed{Sample: int64(100 + i)}) {
			t.Fatalf("push after drain %d refused", i)
		}
	}
	got = got[:0]
	r.Iter(-1, func(tm Timed) { got = append(got, tm.Sample) })
	if len(got) != 4 || got[0] != 30 || got[3] != 102 {
		t.Fatalf("iter all: %v", got)
	}
}

func TestRingSizePowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("size 3 accepted")
		}
	}()
	NewRing(3)
}

type fakeProc struct {
	calls int
	ins   [][]midi.Event
}

// emits one note-on at offset 3 of every buffer
func (f *fakeProc) Process(in, out []midi.Event, n int) []midi.Event {
	f.calls++
	f.ins = append(f.ins, append([]midi.Event(nil), in...))
	return append(out, midi.Event{Offset: 3, Message: gomidi.NoteOn(0, 60, 100)})
}

type fakeClock struct {
	starts []time.Time
}

func (c *fakeClock) Drain(dst []midi.Event, start time.Time, sampleRate float64, n int) []midi.Event {
	c.starts = append(c.starts, start)
	return append(dst, midi.Event{Offset: 1, Message: gomidi.Message{0xF8}})
}

func TestRunnerStep(t *testing.T) {
	proc := &fakeProc{}
	clock := &fakeClock{}
	ring := NewRing(16)
	r := newRunner(proc, clock, ring, 48000, 480)
	r.tl.Origin = time.Unix(0, 0)

	r.step(480)
	r.step(480)

	if want, got := 2, proc.calls; want != got {
		t.Fatalf("calls: want %d, got %d", want, got)
	}
	if len(proc.ins[1]) != 1 || proc.ins[1][0].Message[0] != 0xF8 {
		t.Fatalf("clock input not passed: %+v", proc.ins[1])
	}
	if want, got := 10*time.Millisecond, clock.starts[1].Sub(r.tl.Origin); want != got {
		t.Fatalf("second buffer start: want %v, got %v", want, got)
	}

	var samples []int64
	ring.Iter(-1, func(tm Timed) { samples = append(samples, tm.Sample) })
	if len(samples) != 2 || samples[0] != 3 || samples[1] != 483 {
		t.Fatalf("queued samples: %v", samples)
	}
}

func TestOutputFlush(t *testing.T) {
	ring := NewRing(8)
	var sent []gomidi.Message
	fail := errors.New("unplugged")
	o := NewOutput(ring, func(msg gomidi.Message) error {
		sent = append(sent, msg)
		if len(sent) == 2 {
			return fail
		}
		return nil
	}, Timeline{Origin: time.Unix(0, 0), SampleRate: 1000}, 0)

	ring.Push(Timed{Sample: 5, Message: gomidi.NoteOn(0, 60, 1)})
	ring.Push(Timed{Sample: 15, Message: gomidi.NoteOff(0, 60)})
	ring.Push(Timed{Sample: 25, Message: gomidi.NoteOn(0, 62, 1)})

	o.Flush(10)
	if want, got := 1, len(sent); want != got {
		t.Fatalf("sent before 10: want %d, got %d", want, got)
	}
	o.Flush(-1)
	if want, got := 3, len(sent); want != got {
		t.Fatalf("sent all: want %d, got %d", want, got)
	}
	if want, got := uint64(1), o.Errors(); want != got {
		t.Fatalf("errors: want %d, got %d", want, got)
	}
}

func TestTimeline(t *testing.T) {
	tl := Timeline{Origin: time.Unix(10, 0), SampleRate: 48000}
	at := tl.At(24000)
	if want, got := 500*time.Millisecond, at.Sub(tl.Origin); want != got {
		t.Fatalf("At: want %v, got %v", want, got)
	}
	if want, got := int64(24000), tl.Sample(at); want != got {
		t.Fatalf("Sample: want %d, got %d", want, got)
	}
}
