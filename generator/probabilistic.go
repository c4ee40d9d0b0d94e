package generator

import (
	"math"
	"math/rand/v2"
)

const (
	defaultVelocityMean   = 0.7
	defaultVelocityStdDev = 0.2
	defaultStepProb       = 0.6
	defaultGrouping       = 4.0
)

// Gaussian draws from N(mean, stddev) with the Box-Muller transform
func Gaussian(rng *rand.Rand, mean, stddev float64) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + z*stddev
}

func gaussianVelocity(rng *rand.Rand) float64 {
	return clampFloat(Gaussian(rng, defaultVelocityMean, defaultVelocityStdDev), 0, 1)
}

// Probabilistic plays a step/leap melody with a grouped random rhythm and
// Gaussian velocities. It draws its own trigger against density.
type Probabilistic struct {
	StepProbability float64 // chance of step motion versus a leap
	Grouping        float64 // accent group length in ticks
	Weights         []float64

	current int
	started bool
	rng     *rand.Rand
}

func NewProbabilistic(rng *rand.Rand) *Probabilistic {
	return &Probabilistic{
		StepProbability: defaultStepProb,
		Grouping:        defaultGrouping,
		rng:             rng,
	}
}

func (p *Probabilistic) Kind() Kind  { return KindProbabilistic }
func (p *Probabilistic) Gated() bool { return true }

func (p *Probabilistic) Reset() {
	p.started = false
}

// WeightedNote picks center-span+i with probability weights[i]/sum, or
// uniformly in [center-span, center+span] when weights is empty
func (p *Probabilistic) WeightedNote(center, span int, weights []float64) int {
	span = max(span, 0)
	if len(weights) == 0 {
		return center + p.rng.IntN(span*2+1) - span
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return center
	}
	r := p.rng.Float64()
	cum := 0.0
	for i, w := range weights {
		cum += w / total
		if r <= cum {
			return center - span + i
		}
	}
	return center
}

// Velocity draws a Gaussian velocity clamped to 0..1
func (p *Probabilistic) Velocity(mean, stddev float64) float64 {
	return clampFloat(Gaussian(p.rng, mean, stddev), 0, 1)
}

// Scale stacks intervals on root, dropping notes above 127
func Scale(root int, intervals []int) []int {
	out := []int{root}
	note := root
	for _, iv := range intervals {
		note += iv
		if note <= 127 {
			out = append(out, note)
		}
	}
	return out
}

// Melody returns length notes in [lo, hi] moving by steps (0-2 semitones)
// with probability stepProb, otherwise by leaps (3-7 semitones)
func (p *Probabilistic) Melody(length, lo, hi int, stepProb float64) []int {
	if hi < lo {
		lo, hi = hi, lo
	}
	out := make([]int, 0, max(length, 0))
	note := lo + p.rng.IntN(hi-lo+1)
	for i := 0; i < length; i++ {
		out = append(out, note)
		note = p.move(note, lo, hi, stepProb)
	}
	return out
}

func (p *Probabilistic) move(note, lo, hi int, stepProb float64) int {
	if p.rng.Float64() < stepProb {
		step := p.rng.IntN(3)
		if p.rng.IntN(2) == 0 {
			step = -step
		}
		return clampInt(note+step, lo, hi)
	}
	leap := p.rng.IntN(5) + 3
	if p.rng.IntN(2) == 0 {
		leap = -leap
	}
	return clampInt(note+leap, lo, hi)
}

// Rhythm returns length onsets drawn at density, boosted 1.5x on the first
// position of each group
func (p *Probabilistic) Rhythm(length int, density, grouping float64) []bool {
	out := make([]bool, max(length, 0))
	for i := range out {
		out[i] = p.rng.Float64() < density*groupBias(float64(i), grouping)
	}
	return out
}

func groupBias(i, grouping float64) float64 {
	if grouping > 0 && math.Mod(i, grouping) < 1 {
		return 1.5
	}
	return 1
}

// Walk moves current by up to step in a random direction, clamped
func (p *Probabilistic) Walk(current, step, lo, hi int) int {
	dir := 1
	if p.rng.IntN(2) == 0 {
		dir = -1
	}
	return clampInt(current+dir*p.rng.IntN(max(step, 0)+1), lo, hi)
}

// WalkFloat is Walk over floats
func (p *Probabilistic) WalkFloat(current, step, lo, hi float64) float64 {
	dir := 1.0
	if p.rng.IntN(2) == 0 {
		dir = -1
	}
	return clampFloat(current+dir*p.rng.Float64()*step, lo, hi)
}

// Next draws the grouped rhythm trigger, then moves the melody. With
// Weights set, the note is drawn around the current one instead.
func (p *Probabilistic) Next(ctx *Context, out []Candidate) []Candidate {
	lo, hi := ctx.PitchMin, ctx.PitchMax
	if hi < lo {
		lo, hi = hi, lo
	}
	if !p.started {
		p.current = lo + p.rng.IntN(hi-lo+1)
		p.started = true
	}
	if p.rng.Float64() >= ctx.Density*groupBias(float64(ctx.Tick), p.Grouping) {
		return out
	}

	pitch := clampInt(p.current, lo, hi)
	if len(p.Weights) > 0 {
		span := len(p.Weights) / 2
		pitch = clampInt(p.WeightedNote(p.current, span, p.Weights), lo, hi)
	}
	p.current = p.move(p.current, lo, hi, p.StepProbability)
	return append(out, Candidate{
		Pitch:    pitch,
		Velocity: p.Velocity(defaultVelocityMean, defaultVelocityStdDev),
	})
}
