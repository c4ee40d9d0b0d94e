package engine

import (
	"errors"
	"testing"

	"go-genmidi/generator"
	"go-genmidi/scale"
)

func TestParamTableComplete(t *testing.T) {
	for id := ParamID(0); id < ParamCount; id++ {
		info := Info(id)
		if info.Name == "" {
			t.Fatalf("param %d has no table entry", id)
		}
		if info.Default < info.Min || info.Default > info.Max {
			t.Errorf("%s: default %v outside [%v, %v]", info.Name, info.Default, info.Min, info.Max)
		}
		if got, ok := Lookup(info.Name); !ok || got != id {
			t.Errorf("%s: lookup gave %v, %v", info.Name, got, ok)
		}
		if info.Kind == KindChoice && len(info.Choices) != int(info.Max)+1 {
			t.Errorf("%s: %d choices for max %v", info.Name, len(info.Choices), info.Max)
		}
	}
}

func TestParamsClamp(t *testing.T) {
	p := NewParams()
	tests := []struct {
		id   ParamID
		in   float64
		want float64
	}{
		{ParamTempo, 1000, 400},
		{ParamTempo, 5, 20},
		{ParamChannel, 0, 1},
		{ParamChannel, 17, 16},
		{ParamRatchetCount, 40, 16},
		{ParamRatchetCount, 0, 1},
		{ParamSteps, 3.6, 4},
		{ParamGate, 0, 0.01},
		{ParamDensity, -1, 0},
		{ParamLegato, 0.7, 1},
	}
	for _, tt := range tests {
		if got := p.Set(tt.id, tt.in); got != tt.want {
			t.Errorf("Set(%s, %v): want %v, got %v", tt.id, tt.in, tt.want, got)
		}
		if got := p.Get(tt.id); got != tt.want {
			t.Errorf("Get(%s): want %v, got %v", tt.id, tt.want, got)
		}
	}
}

func TestParamsSetNamed(t *testing.T) {
	p := NewParams()
	tests := []struct {
		name, value string
		id          ParamID
		want        float64
	}{
		{"tempo", "133.5", ParamTempo, 133.5},
		{"generator", "l-system", ParamGenerator, float64(generator.KindLSystem)},
		{"generator", "LSystem", ParamGenerator, float64(generator.KindLSystem)},
		{"scale", "harmonic-minor", ParamScale, float64(scale.HarmonicMinor)},
		{"scale", "dorian", ParamScale, float64(scale.Dorian)},
		{"walk", "lorenz", ParamWalk, float64(generator.Lorenz)},
		{"legato", "on", ParamLegato, 1},
		{"legato", "off", ParamLegato, 0},
		{" Swing ", "0.25", ParamSwing, 0.25},
		{"cc-shape", "s&h", ParamCCShape, 5},
	}
	for _, tt := range tests {
		got, err := p.SetNamed(tt.name, tt.value)
		if err != nil {
			t.Errorf("SetNamed(%q, %q): %v", tt.name, tt.value, err)
			continue
		}
		if got != tt.want || p.Get(tt.id) != tt.want {
			t.Errorf("SetNamed(%q, %q): want %v, got %v", tt.name, tt.value, tt.want, got)
		}
	}

	if _, err := p.SetNamed("flux", "1"); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("unknown name: want ErrUnknownParam, got %v", err)
	}
	if _, err := p.SetNamed("scale", "klingon"); err == nil {
		t.Fatal("bad choice accepted")
	}
}

func TestParamFormatRoundTrip(t *testing.T) {
	for id := ParamID(0); id < ParamCount; id++ {
		info := Info(id)
		s := info.Format(info.Default)
		v, err := info.Parse(s)
		if err != nil {
			t.Errorf("%s: %q does not parse: %v", info.Name, s, err)
			continue
		}
		if v != info.Default {
			t.Errorf("%s: %q parsed as %v, want %v", info.Name, s, v, info.Default)
		}
	}
}

func TestParamsLoadValues(t *testing.T) {
	p := NewParams()
	unknown := p.Load(map[string]float64{"tempo": 90, "swing": 2, "bogus": 1})
	if len(unknown) != 1 || unknown[0] != "bogus" {
		t.Fatalf("unknown: got %v", unknown)
	}
	v := p.Values()
	if v["tempo"] != 90 || v["swing"] != 1 {
		t.Fatalf("values: tempo %v swing %v", v["tempo"], v["swing"])
	}

	var s Snapshot
	p.Snapshot(&s)
	if s[ParamTempo] != 90 || s.Int(ParamSteps) != 16 || s.Bool(ParamLegato) {
		t.Fatalf("snapshot: %v %v %v", s[ParamTempo], s.Int(ParamSteps), s.Bool(ParamLegato))
	}

	p.Reset()
	if want, got := 120.0, p.Get(ParamTempo); want != got {
		t.Fatalf("reset tempo: want %v, got %v", want, got)
	}
}

func TestParamsNudge(t *testing.T) {
	p := NewParams()
	if want, got := 123.8, p.Nudge(ParamTempo, 1); want-got > 1e-9 || got-want > 1e-9 {
		t.Fatalf("tempo: want %v, got %v", want, got)
	}
	if want, got := 400.0, p.Nudge(ParamTempo, 1000); want != got {
		t.Fatalf("tempo clamp: want %v, got %v", want, got)
	}
	p.Set(ParamGenerator, float64(generator.KindStochastic))
	if want, got := float64(generator.KindEuclidean), p.Nudge(ParamGenerator, 1); want != got {
		t.Fatalf("generator wrap: want %v, got %v", want, got)
	}
	if want, got := float64(generator.KindStochastic), p.Nudge(ParamGenerator, -1); want != got {
		t.Fatalf("generator wrap back: want %v, got %v", want, got)
	}
	if want, got := 17.0, p.Nudge(ParamSteps, 1); want != got {
		t.Fatalf("steps: want %v, got %v", want, got)
	}
}
