package generator

import "testing"

func TestStochasticCarriersStayInRange(t *testing.T) {
	for w := Walk(0); w < WalkCount; w++ {
		s := NewStochastic(NewRand(8, 7))
		s.SetWalk(w)
		s.SetStepSize(1)
		for i := 0; i < 5000; i++ {
			s.Advance(0.125)
			for _, v := range []float64{s.Value(), s.Secondary(), s.Tertiary()} {
				if v < 0 || v > 1 {
					t.Fatalf("%s step %d: carrier %v outside [0, 1]", w, i, v)
				}
			}
		}
	}
}

func TestStochasticDeterministic(t *testing.T) {
	for w := Walk(0); w < WalkCount; w++ {
		a := NewStochastic(NewRand(42, 7))
		b := NewStochastic(NewRand(42, 7))
		a.SetWalk(w)
		b.SetWalk(w)
		ctx := &Context{SecondsPerTick: 0.125, Density: 0.5, PitchMin: 36, PitchMax: 84}
		for i := 0; i < 200; i++ {
			ctx.Tick = int64(i)
			ca, cb := a.Next(ctx, nil), b.Next(ctx, nil)
			if len(ca) != len(cb) || (len(ca) == 1 && ca[0] != cb[0]) {
				t.Fatalf("%s tick %d: %v != %v", w, i, ca, cb)
			}
		}
	}
}

func TestStochasticTrigger(t *testing.T) {
	s := NewStochastic(NewRand(1, 7))
	s.SetDensity(0)
	for i := 0; i < 100; i++ {
		if s.ShouldTrigger() {
			t.Fatal("density 0 triggered")
		}
	}
	s.SetDensity(1)
	for i := 0; i < 100; i++ {
		if !s.ShouldTrigger() {
			t.Fatal("density 1 did not trigger")
		}
	}
}

func TestStochasticMapping(t *testing.T) {
	s := NewStochastic(NewRand(1, 7))
	s.value, s.secondary = 0.5, 0.25
	if want, got := 60, s.Pitch(48, 72); want != got {
		t.Fatalf("pitch: want %d, got %d", want, got)
	}
	if want, got := 0.5, s.Velocity(0.4, 0.8); want != got {
		t.Fatalf("velocity: want %v, got %v", want, got)
	}
	s.value = 2
	if want, got := 127, s.Pitch(100, 140); want != got {
		t.Fatalf("pitch clamp: want %d, got %d", want, got)
	}
}

func TestDrunkStepsOnInterval(t *testing.T) {
	s := NewStochastic(NewRand(1, 7))
	s.SetWalk(Drunk)
	s.SetStepSize(0.5)
	s.Advance(0.05) // interval is 0.1s at time scale 1
	if want, got := 0.5, s.target; want != got {
		t.Fatalf("target moved early: %v", got)
	}
	s.Advance(0.05)
	if s.target == 0.5 {
		t.Fatal("target did not step after the interval")
	}
}

func TestLorenzLeavesStart(t *testing.T) {
	s := NewStochastic(NewRand(1, 7))
	s.SetWalk(Lorenz)
	start := s.Value()
	for i := 0; i < 50; i++ {
		s.Advance(0.1)
	}
	if s.Value() == start || s.Tertiary() == 0 {
		t.Fatalf("attractor did not evolve: %v %v", s.Value(), s.Tertiary())
	}
}

func TestParseWalk(t *testing.T) {
	w, err := ParseWalk(" Lorenz ")
	if err != nil || w != Lorenz {
		t.Fatalf("want lorenz, got %v %v", w, err)
	}
	if _, err := ParseWalk("levy"); err == nil {
		t.Fatal("want error for unknown walk")
	}
}
