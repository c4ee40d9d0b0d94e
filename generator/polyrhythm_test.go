package generator

import "testing"

func TestPolyrhythmDefaultLayers(t *testing.T) {
	p := NewPolyrhythm(NewRand(1, 2))
	if want, got := 2, p.NumLayers(); want != got {
		t.Fatalf("layers: want %d, got %d", want, got)
	}

	ctx := &Context{Subdivisions: 1, TimeSigDenom: 4}
	hits := make(map[int]int) // pitch -> count
	for tick := int64(0); tick < 48; tick++ {
		ctx.Tick = tick
		for _, c := range p.Next(ctx, nil) {
			hits[c.Pitch]++
		}
	}
	// layer 0: 16 steps, onsets at 0/4/8/12 with pitch 60 + step%12
	// layer 1: 12 steps, onsets every 4, pitch 67
	want := map[int]int{60: 6, 64: 3, 68: 3, 67: 12}
	for pitch, n := range want {
		if got := hits[pitch]; got != n {
			t.Errorf("pitch %d over 48 ticks: want %d hits, got %d", pitch, n, got)
		}
	}
	if len(hits) != len(want) {
		t.Errorf("unexpected pitches: %v", hits)
	}
}

func TestPolyrhythmAdvanceRate(t *testing.T) {
	p := &Polyrhythm{denom: 4, rng: NewRand(1, 2)}
	i := p.AddLayer()
	p.SetLayerLength(i, 8)

	p.SetLayerDivision(i, 3)
	p.Advance(i, 1)
	if want, got := 3, p.Layer(i).CurrentStep(); want != got {
		t.Fatalf("division 3: want step %d, got %d", want, got)
	}
	p.Advance(i, 2)
	if want, got := 1, p.Layer(i).CurrentStep(); want != got {
		t.Fatalf("wraparound: want step %d, got %d", want, got)
	}

	// 8th-note meter halves the rate
	p.ResetLayer(i)
	p.SetLayerDivision(i, 1)
	p.SetTimeSignature(6, 8)
	p.Advance(i, 1)
	if want, got := 0, p.Layer(i).CurrentStep(); want != got {
		t.Fatalf("6/8 after one tick: want step %d, got %d", want, got)
	}
	p.Advance(i, 1)
	if want, got := 1, p.Layer(i).CurrentStep(); want != got {
		t.Fatalf("6/8 after two ticks: want step %d, got %d", want, got)
	}

	// small denominators speed up instead of dividing by zero
	p.ResetLayer(i)
	p.SetTimeSignature(3, 2)
	p.Advance(i, 1)
	if want, got := 2, p.Layer(i).CurrentStep(); want != got {
		t.Fatalf("x/2 meter: want step %d, got %d", want, got)
	}
}

func TestPolyrhythmSlowLayerTriggersOncePerStep(t *testing.T) {
	p := &Polyrhythm{denom: 4, rng: NewRand(1, 2)}
	i := p.AddLayer()
	p.SetLayerLength(i, 2)
	p.SetStep(i, 0, true, 1, 60)

	ctx := &Context{Subdivisions: 1, TimeSigDenom: 8} // half speed
	count := 0
	for tick := int64(0); tick < 8; tick++ {
		ctx.Tick = tick
		count += len(p.Next(ctx, nil))
	}
	// 8 ticks at half speed = 4 steps = 2 cycles of a 2-step layer
	if want, got := 2, count; want != got {
		t.Fatalf("want %d onsets, got %d", want, got)
	}
}

func TestPolyrhythmSingleStepLayerRetriggers(t *testing.T) {
	p := &Polyrhythm{denom: 4, rng: NewRand(1, 2)}
	i := p.AddLayer()
	p.SetLayerLength(i, 1)
	p.SetStep(i, 0, true, 1, 60)
	ctx := &Context{Subdivisions: 1, TimeSigDenom: 4}
	count := 0
	for tick := int64(0); tick < 5; tick++ {
		count += len(p.Next(ctx, nil))
	}
	if want, got := 5, count; want != got {
		t.Fatalf("want %d onsets, got %d", want, got)
	}
}

func TestPolyrhythmPhaseReset(t *testing.T) {
	p := &Polyrhythm{denom: 4, rng: NewRand(1, 2)}
	i := p.AddLayer()
	p.SetLayerPhase(i, 0.5)
	p.Reset()
	if want, got := 8, p.Layer(i).CurrentStep(); want != got {
		t.Fatalf("phase 0.5 of 16: want step %d, got %d", want, got)
	}
	p.SetLayerPhase(i, 1)
	p.ResetLayer(i)
	if want, got := 0, p.Layer(i).CurrentStep(); want != got {
		t.Fatalf("phase 1.0 wraps: want step %d, got %d", want, got)
	}
}

func TestPolyrhythmEditing(t *testing.T) {
	p := &Polyrhythm{denom: 4, rng: NewRand(7, 2)}
	i := p.AddLayer()

	p.SetLayerLength(i, 200)
	if want, got := MaxLayerLength, p.Layer(i).Length; want != got {
		t.Fatalf("length clamp: want %d, got %d", want, got)
	}
	p.SetLayerDivision(i, 0)
	if want, got := 1, p.Layer(i).Division; want != got {
		t.Fatalf("division clamp: want %d, got %d", want, got)
	}

	p.SetStep(i, 3, true, 2, 300)
	l := p.Layer(i)
	if !l.Pattern[3] || l.Velocities[3] != 1 || l.Pitches[3] != 127 {
		t.Fatalf("SetStep clamp: got on=%v vel=%v pitch=%d", l.Pattern[3], l.Velocities[3], l.Pitches[3])
	}
	p.SetStep(i, 999, true, 1, 60) // ignored

	p.RandomizeLayer(i, 1)
	for s, on := range l.Pattern {
		if !on {
			t.Fatalf("density 1: step %d off", s)
		}
		if l.Velocities[s] < 0.5 || l.Velocities[s] > 1 || l.Pitches[s] < 36 || l.Pitches[s] > 84 {
			t.Fatalf("step %d: vel %v pitch %d out of range", s, l.Velocities[s], l.Pitches[s])
		}
	}

	p.ClearLayer(i)
	for s, on := range l.Pattern {
		if on || l.Velocities[s] != defaultLayerVelocity || l.Pitches[s] != defaultLayerPitch {
			t.Fatalf("ClearLayer left step %d dirty", s)
		}
	}

	p.SetLayerEnabled(i, false)
	if out := p.Next(&Context{Subdivisions: 1}, nil); len(out) != 0 {
		t.Fatalf("disabled layer emitted %d candidates", len(out))
	}

	p.RemoveLayer(i)
	p.RemoveLayer(42)
	if want, got := 0, p.NumLayers(); want != got {
		t.Fatalf("layers after remove: want %d, got %d", want, got)
	}
}
