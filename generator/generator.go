package generator

import (
	"math/rand/v2"
	"strings"
)

// Kind selects a generator
type Kind int

const (
	KindEuclidean Kind = iota
	KindPolyrhythm
	KindMarkov
	KindLSystem
	KindCellular
	KindProbabilistic
	KindStochastic
	KindCount
)

var kindNames = [...]string{
	KindEuclidean:     "Euclidean",
	KindPolyrhythm:    "Polyrhythm",
	KindMarkov:        "Markov",
	KindLSystem:       "L-System",
	KindCellular:      "Cellular",
	KindProbabilistic: "Probabilistic",
	KindStochastic:    "Stochastic",
}

func (k Kind) String() string {
	if k < 0 || k >= KindCount {
		return "Unknown"
	}
	return kindNames[k]
}

// ParseKind matches a generator name case-insensitively, ignoring dashes
func ParseKind(s string) (Kind, bool) {
	norm := func(v string) string {
		return strings.ToLower(strings.ReplaceAll(v, "-", ""))
	}
	for k := Kind(0); k < KindCount; k++ {
		if norm(k.String()) == norm(s) {
			return k, true
		}
	}
	return 0, false
}

// Candidate is a raw note proposal before shaping
type Candidate struct {
	Pitch    int     // absolute MIDI pitch, may lie outside 0..127
	Velocity float64 // normalized 0..1
}

// Context is what a generator sees of the current tick
type Context struct {
	Tick           int64   // subdivision index since start
	Subdivisions   int     // subdivisions elapsed since the previous tick (1 normally)
	TimeSigDenom   int     // meter denominator
	SecondsPerTick float64 // wall duration of one tick at the current tempo
	Density        float64 // 0..1
	PitchMin       int
	PitchMax       int
}

// Generator produces zero or more candidates per tick. Implementations own
// their random source and are only touched by the real-time thread.
type Generator interface {
	Kind() Kind
	// Next appends this tick's candidates to out
	Next(ctx *Context, out []Candidate) []Candidate
	// Gated reports whether the generator makes its own density decision.
	// Ungated generators are filtered by the orchestrator's density gate.
	Gated() bool
	Reset()
}

// NewRand returns a PCG source for one generator stream. Streams with the
// same seed and id replay identically.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
