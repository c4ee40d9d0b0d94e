package generator

import "math/rand/v2"

const (
	MaxEuclidSteps = 64

	defaultEuclidVelocity = 0.8
)

// Bjorklund distributes pulses onsets as evenly as possible over steps.
// The result always starts with an onset when pulses > 0; pulses <= 0 gives
// all rests and pulses >= steps gives all onsets.
func Bjorklund(pulses, steps int) []bool {
	if steps <= 0 {
		return nil
	}
	out := make([]bool, steps)
	bjorklund(out, make([]bool, steps), make([]bool, steps), pulses)
	return out
}

// bjorklund fills out with the pattern, using a and b (each at least
// len(out) long) as scratch so nothing is allocated.
//
// Bracket merging keeps every group equal to one of two patterns: front
// groups hold a, remainder groups hold b. Each round folds the remainders
// onto the front groups until at most one remainder is left.
func bjorklund(out, a, b []bool, pulses int) {
	steps := len(out)
	if pulses <= 0 || pulses >= steps {
		for i := range out {
			out[i] = pulses > 0
		}
		return
	}

	a[0], b[0] = true, false
	la, lb := 1, 1
	front, rest := pulses, steps-pulses
	for rest > 1 {
		copy(a[la:], b[:lb])
		if front > rest {
			// leftover front groups become the remainders
			copy(b, a[:la])
			la, lb = la+lb, la
			front, rest = rest, front-rest
		} else {
			la += lb
			rest -= front
		}
	}

	i := 0
	for n := 0; n < front; n++ {
		i += copy(out[i:], a[:la])
	}
	for n := 0; n < rest; n++ {
		i += copy(out[i:], b[:lb])
	}
}

// Euclidean generates a rotated Bjorklund rhythm with per-step velocities
type Euclidean struct {
	steps    int
	pulses   int
	rotation int
	accents  []float64

	pattern    []bool
	velocities []float64
	current    int

	base, scratchA, scratchB [MaxEuclidSteps]bool

	rng *rand.Rand
}

// NewEuclidean returns 4 pulses over 16 steps
func NewEuclidean(rng *rand.Rand) *Euclidean {
	e := &Euclidean{
		steps:      16,
		pulses:     4,
		pattern:    make([]bool, 0, MaxEuclidSteps),
		velocities: make([]float64, 0, MaxEuclidSteps),
		rng:        rng,
	}
	e.regenerate()
	return e
}

func (e *Euclidean) Kind() Kind  { return KindEuclidean }
func (e *Euclidean) Gated() bool { return false }

// SetSteps sets the cycle length (1-64); pulses are re-clamped
func (e *Euclidean) SetSteps(steps int) {
	e.steps = clampInt(steps, 1, MaxEuclidSteps)
	e.pulses = clampInt(e.pulses, 0, e.steps)
	e.regenerate()
}

// SetPulses sets the onset count, clamped to [0, steps]
func (e *Euclidean) SetPulses(pulses int) {
	e.pulses = clampInt(pulses, 0, e.steps)
	e.regenerate()
}

// SetRotation sets the rotation, reduced mod steps
func (e *Euclidean) SetRotation(rotation int) {
	e.rotation = ((rotation % e.steps) + e.steps) % e.steps
	e.regenerate()
}

// Rotate shifts the rotation by k steps
func (e *Euclidean) Rotate(k int) {
	e.SetRotation(e.rotation + k)
}

// SetAccents installs a velocity cycle indexed by step. Empty restores the
// default velocity.
func (e *Euclidean) SetAccents(accents []float64) {
	e.accents = e.accents[:0]
	for _, a := range accents {
		e.accents = append(e.accents, clampFloat(a, 0, 1))
	}
	e.regenerate()
}

// Accents returns a copy of the velocity cycle
func (e *Euclidean) Accents() []float64 {
	return append([]float64(nil), e.accents...)
}

// Randomize picks a pulse count from density (0-1)
func (e *Euclidean) Randomize(density float64) {
	density = clampFloat(density, 0, 1)
	pulses := int(float64(e.steps)*density + (e.rng.Float64() - 0.5))
	e.SetPulses(pulses)
	e.SetRotation(e.rng.IntN(e.steps))
}

func (e *Euclidean) Steps() int    { return e.steps }
func (e *Euclidean) Pulses() int   { return e.pulses }
func (e *Euclidean) Rotation() int { return e.rotation }
func (e *Euclidean) Current() int  { return e.current }

// Step reports whether step i (mod steps) is an onset
func (e *Euclidean) Step(i int) bool {
	return e.pattern[((i%e.steps)+e.steps)%e.steps]
}

// Velocity returns the velocity at step i (mod steps), 0 for rests
func (e *Euclidean) Velocity(i int) float64 {
	return e.velocities[((i%e.steps)+e.steps)%e.steps]
}

// Pattern returns a copy of the rotated pattern
func (e *Euclidean) Pattern() []bool {
	return append([]bool(nil), e.pattern...)
}

// Velocities returns a copy of the per-step velocities
func (e *Euclidean) Velocities() []float64 {
	return append([]float64(nil), e.velocities...)
}

func (e *Euclidean) Reset() {
	e.current = 0
}

// Next emits an onset at pitchMin + step%12 when the current step is on
func (e *Euclidean) Next(ctx *Context, out []Candidate) []Candidate {
	step := int(ctx.Tick % int64(e.steps))
	e.current = step
	if !e.pattern[step] {
		return out
	}
	return append(out, Candidate{
		Pitch:    ctx.PitchMin + step%12,
		Velocity: e.velocities[step],
	})
}

// regenerate rebuilds the rotated pattern in place; it runs on the
// real-time thread whenever a modulated slot moves
func (e *Euclidean) regenerate() {
	base := e.base[:e.steps]
	bjorklund(base, e.scratchA[:], e.scratchB[:], e.pulses)
	e.pattern = e.pattern[:e.steps]
	e.velocities = e.velocities[:e.steps]
	for i := range e.pattern {
		e.pattern[i] = base[(i+e.rotation)%e.steps]
	}
	for i, on := range e.pattern {
		switch {
		case !on:
			e.velocities[i] = 0
		case len(e.accents) > 0:
			e.velocities[i] = e.accents[i%len(e.accents)]
		default:
			e.velocities[i] = defaultEuclidVelocity
		}
	}
	if e.current >= e.steps {
		e.current = 0
	}
}
