package shaping

import "math/rand/v2"

const (
	DefaultGate = 0.8
	MinGate     = 0.01
	MaxGate     = 2.0

	gateJitterScale = 0.2
)

// Gate turns a step length into a note length
type Gate struct {
	rng *rand.Rand
}

func NewGate(rng *rand.Rand) *Gate {
	return &Gate{rng: rng}
}

// Ratio returns the gate as a fraction of the step. Legato raises the
// floor to a full step. Randomization adds N(0, 0.2*randomization) before
// the result is clamped.
func (g *Gate) Ratio(gate float64, legato bool, randomization float64) float64 {
	lo := MinGate
	if legato {
		lo = 1
	}
	ratio := max(gate, lo)
	if randomization > 0 {
		ratio += g.rng.NormFloat64() * min(randomization, 1) * gateJitterScale
	}
	return clamp(ratio, lo, MaxGate)
}

// Length returns the note length in samples, never less than one
func (g *Gate) Length(stepSamples, gate float64, legato bool, randomization float64) int64 {
	return max(int64(stepSamples*g.Ratio(gate, legato, randomization)), 1)
}
