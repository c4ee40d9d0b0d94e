package shaping

import (
	"math"
	"math/rand/v2"
)

const (
	MaxRatchetCount    = 16
	MaxRatchetDivision = 2 // 0 = 16ths, 1 = 32nds, 2 = 64ths

	minRatchetVelocity = 0.01
)

// Ratchet decides whether a step repeats and where the repeats land
type Ratchet struct {
	rng *rand.Rand
}

func NewRatchet(rng *rand.Rand) *Ratchet {
	return &Ratchet{rng: rng}
}

// Fire draws against probability. A count of one never ratchets and costs
// no draw.
func (r *Ratchet) Fire(count int, probability float64) bool {
	if count <= 1 || probability <= 0 {
		return false
	}
	return r.rng.Float64() < probability
}

// Spacing is the distance between sub-onsets: the step split count ways,
// then again by 1, 2 or 4 for the division
func Spacing(stepSamples float64, count, division int) float64 {
	count = min(max(count, 1), MaxRatchetCount)
	division = min(max(division, 0), MaxRatchetDivision)
	return stepSamples / float64(count*(1<<division))
}

// RatchetVelocity scales base by (1-decay)^i with a floor of 0.01. The
// first hit keeps the base velocity.
func RatchetVelocity(base float64, i int, decay float64) float64 {
	if i == 0 || decay <= 0 {
		return base
	}
	return clamp(base*math.Pow(1-clamp(decay, 0, 1), float64(i)), minRatchetVelocity, 1)
}
