package generator

import (
	"math"
	"slices"
	"testing"
)

func TestGaussianMoments(t *testing.T) {
	rng := NewRand(11, 6)
	const n = 20000
	sum, sq := 0.0, 0.0
	for i := 0; i < n; i++ {
		v := Gaussian(rng, 0.5, 0.1)
		sum += v
		sq += v * v
	}
	mean := sum / n
	sd := math.Sqrt(sq/n - mean*mean)
	if math.Abs(mean-0.5) > 0.01 || math.Abs(sd-0.1) > 0.01 {
		t.Fatalf("want N(0.5, 0.1), got mean %.4f sd %.4f", mean, sd)
	}
}

func TestScaleStacksIntervals(t *testing.T) {
	want := []int{60, 62, 64, 65}
	if got := Scale(60, []int{2, 2, 1}); !slices.Equal(want, got) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if want, got := []int{120, 125}, Scale(120, []int{5, 5}); !slices.Equal(want, got) {
		t.Fatalf("drop above 127: want %v, got %v", want, got)
	}
}

func TestWeightedNote(t *testing.T) {
	p := NewProbabilistic(NewRand(2, 6))
	for i := 0; i < 100; i++ {
		if want, got := 60, p.WeightedNote(60, 1, []float64{0, 1, 0}); want != got {
			t.Fatalf("want %d, got %d", want, got)
		}
		if got := p.WeightedNote(60, 3, nil); got < 57 || got > 63 {
			t.Fatalf("uniform draw %d outside 57..63", got)
		}
	}
	if want, got := 60, p.WeightedNote(60, 1, []float64{0, 0}); want != got {
		t.Fatalf("zero weights: want %d, got %d", want, got)
	}
}

func TestMelodyMotion(t *testing.T) {
	p := NewProbabilistic(NewRand(3, 6))
	m := p.Melody(500, 48, 72, 0.6)
	if want, got := 500, len(m); want != got {
		t.Fatalf("length: want %d, got %d", want, got)
	}
	for i, n := range m {
		if n < 48 || n > 72 {
			t.Fatalf("note %d = %d outside range", i, n)
		}
		if i > 0 && abs(n-m[i-1]) > 7 {
			t.Fatalf("interval %d at %d exceeds a fifth", n-m[i-1], i)
		}
	}
	if got := p.Melody(-1, 48, 72, 0.5); len(got) != 0 {
		t.Fatalf("negative length gave %v", got)
	}
}

func TestRhythmGrouping(t *testing.T) {
	p := NewProbabilistic(NewRand(4, 6))
	if slices.Contains(p.Rhythm(64, 0, 4), true) {
		t.Fatal("density 0 produced an onset")
	}
	// 0.7 x 1.5 >= 1 on every group start
	r := p.Rhythm(64, 0.7, 4)
	for i := 0; i < 64; i += 4 {
		if !r[i] {
			t.Fatalf("group start %d missed", i)
		}
	}
}

func TestWalkBounds(t *testing.T) {
	p := NewProbabilistic(NewRand(5, 6))
	v, f := 60, 0.5
	for i := 0; i < 1000; i++ {
		v = p.Walk(v, 3, 55, 65)
		f = p.WalkFloat(f, 0.2, 0, 1)
		if v < 55 || v > 65 || f < 0 || f > 1 {
			t.Fatalf("walk escaped: %d %v", v, f)
		}
	}
}

func TestProbabilisticNext(t *testing.T) {
	p := NewProbabilistic(NewRand(6, 6))
	ctx := &Context{PitchMin: 48, PitchMax: 60}
	for tick := int64(0); tick < 100; tick++ {
		ctx.Tick = tick
		if out := p.Next(ctx, nil); len(out) != 0 {
			t.Fatalf("density 0 emitted at tick %d", tick)
		}
	}
	ctx.Density = 1
	for tick := int64(0); tick < 200; tick++ {
		ctx.Tick = tick
		out := p.Next(ctx, nil)
		if len(out) != 1 {
			t.Fatalf("density 1 emitted %d at tick %d", len(out), tick)
		}
		if c := out[0]; c.Pitch < 48 || c.Pitch > 60 || c.Velocity < 0 || c.Velocity > 1 {
			t.Fatalf("tick %d: candidate %+v out of range", tick, c)
		}
	}
	if !p.Gated() {
		t.Fatal("probabilistic generator must gate itself")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
