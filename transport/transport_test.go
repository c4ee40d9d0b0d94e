package transport

import (
	"math"
	"testing"
)

func collect(t *Transport) *[]Tick {
	var ticks []Tick
	t.OnTick(func(tk Tick) { ticks = append(ticks, tk) })
	return &ticks
}

func TestAdvanceFiresEveryBoundary(t *testing.T) {
	tr := New()
	ticks := collect(tr)
	tr.Start()

	const buf = 512
	step := tr.SamplesPerStep() // 5512.5 at 120 BPM / 44.1kHz
	total := int(step * 16)
	for n := 0; n < total; n += buf {
		tr.Advance(buf)
	}

	if want, got := 16, len(*ticks); want > got {
		t.Fatalf("want at least %d ticks, got %d", want, got)
	}
	var base int64
	for i, tk := range (*ticks)[:16] {
		if want, got := int64(i), tk.Index; want != got {
			t.Fatalf("tick %d: index want %d, got %d", i, want, got)
		}
		if want, got := int64(math.Ceil(float64(i)*step)), tk.Position; want != got {
			t.Errorf("tick %d: position want %d, got %d", i, want, got)
		}
		if tk.Offset < 0 || tk.Offset >= buf {
			t.Errorf("tick %d: offset %d out of buffer", i, tk.Offset)
		}
		if tk.Position < base {
			t.Errorf("tick %d: positions not monotonic", i)
		}
		base = tk.Position
	}
}

func TestFirstBoundaryFiresImmediately(t *testing.T) {
	tr := New()
	ticks := collect(tr)
	tr.Start()
	tr.Advance(64)
	if want, got := 1, len(*ticks); want != got {
		t.Fatalf("want %d tick, got %d", want, got)
	}
	if want, got := 0, (*ticks)[0].Offset; want != got {
		t.Errorf("offset: want %d, got %d", want, got)
	}
}

func TestLargeBufferFiresMultipleTicksInOrder(t *testing.T) {
	tr := New()
	tr.SetSampleRate(48000)
	tr.SetTempo(240) // 3000 samples per step
	ticks := collect(tr)
	tr.Start()
	tr.Advance(10000)

	want := []int{0, 3000, 6000, 9000}
	if len(*ticks) != len(want) {
		t.Fatalf("want %d ticks, got %d", len(want), len(*ticks))
	}
	for i, tk := range *ticks {
		if tk.Offset != want[i] {
			t.Errorf("tick %d: offset want %d, got %d", i, want[i], tk.Offset)
		}
	}
}

func TestStoppedTransportIsSilent(t *testing.T) {
	tr := New()
	ticks := collect(tr)
	tr.Advance(100000)
	if len(*ticks) != 0 {
		t.Fatalf("stopped transport fired %d ticks", len(*ticks))
	}
	if tr.Position() != 0 {
		t.Fatalf("stopped transport moved to %d", tr.Position())
	}
}

func TestTempoAndMeterClamp(t *testing.T) {
	tr := New()
	tr.SetTempo(5)
	if want, got := MinTempo, tr.Tempo(); want != got {
		t.Errorf("tempo: want %v, got %v", want, got)
	}
	tr.SetTempo(1000)
	if want, got := MaxTempo, tr.Tempo(); want != got {
		t.Errorf("tempo: want %v, got %v", want, got)
	}
	tr.SetTimeSignature(0, 64)
	num, denom := tr.TimeSignature()
	if num != 1 || denom != 32 {
		t.Errorf("meter: want 1/32, got %d/%d", num, denom)
	}
}

func TestPositionQueries(t *testing.T) {
	tr := New()
	tr.SetSampleRate(48000)
	tr.SetTempo(120)
	tr.SetTimeSignature(3, 4)
	tr.Start()
	tr.Advance(24000 * 3)

	if want, got := 3.0, tr.PositionInBeats(); want != got {
		t.Errorf("beats: want %v, got %v", want, got)
	}
	if want, got := 1.0, tr.PositionInBars(); want != got {
		t.Errorf("bars: want %v, got %v", want, got)
	}
	if want, got := 72000.0, tr.SamplesPerBar(); want != got {
		t.Errorf("samples per bar: want %v, got %v", want, got)
	}
	if !tr.IsOnSubdivision(4) {
		t.Errorf("position %d should be on a quarter", tr.Position())
	}
	if want, got := 6000.0, tr.SamplesPerSubdivision(16); want != got {
		t.Errorf("16th: want %v, got %v", want, got)
	}
}

func TestExternalClock(t *testing.T) {
	tr := New()
	ticks := collect(tr)
	tr.SetExternalSync(true)

	// internal advance is suppressed
	tr.Start()
	tr.Advance(100000)
	if len(*ticks) != 0 {
		t.Fatalf("advance fired %d ticks under external sync", len(*ticks))
	}

	tr.ProcessClock(StatusStart, 0)
	for i := 0; i < 48; i++ {
		tr.ProcessClock(StatusClock, i)
	}
	if want, got := 8, len(*ticks); want != got {
		t.Fatalf("48 pulses: want %d ticks, got %d", want, got)
	}
	quarters := 0
	for _, tk := range *ticks {
		if tk.Quarter {
			quarters++
		}
	}
	if want, got := 2, quarters; want != got {
		t.Errorf("quarters: want %d, got %d", want, got)
	}

	tr.ProcessClock(StatusStop, 0)
	tr.ProcessClock(StatusClock, 0)
	if want, got := 8, len(*ticks); want != got {
		t.Errorf("clock after stop fired a tick")
	}

	tr.ProcessClock(0x90, 0) // not a realtime byte
	tr.ProcessClock(StatusContinue, 0)
	for i := 0; i < 6; i++ {
		tr.ProcessClock(StatusClock, 0)
	}
	if want, got := 9, len(*ticks); want != got {
		t.Errorf("after continue: want %d ticks, got %d", want, got)
	}
}

func TestExternalClockTempoEstimate(t *testing.T) {
	tr := New()
	tr.SetSampleRate(48000)
	tr.SetExternalSync(true)
	tr.ProcessClock(StatusStart, 0)

	// 140 BPM: 48000*60/140/24 samples per pulse
	spp := 48000.0 * 60 / 140 / 24
	pos := 0.0
	bufStart := 0
	const buf = 256
	for i := 0; i < 24*16; i++ {
		at := int(pos)
		for at >= bufStart+buf {
			tr.Advance(buf)
			bufStart += buf
		}
		tr.ProcessClock(StatusClock, at-bufStart)
		pos += spp
	}
	if got := tr.Tempo(); math.Abs(got-140) > 1 {
		t.Errorf("estimated tempo %v, want about 140", got)
	}
}
