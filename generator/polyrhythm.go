package generator

import (
	"math"
	"math/rand/v2"
)

const (
	MaxLayerDivision = 64
	MaxLayerLength   = 128

	defaultLayerLength   = 16
	defaultLayerVelocity = 0.8
	defaultLayerPitch    = 60
)

// Layer is one independent cyclic pattern of a polyrhythm
type Layer struct {
	Division int     // steps advanced per tick, scaled by the meter denominator
	Length   int     // steps in the cycle
	Phase    float64 // start offset as a fraction of Length
	Enabled  bool

	Pattern    []bool
	Velocities []float64
	Pitches    []int

	pos  float64 // steps travelled since reset, fractional
	last int64   // whole step last evaluated, -1 before the first tick
}

func newLayer(length int) Layer {
	l := Layer{Division: 1, Enabled: true, last: -1}
	l.resize(length)
	return l
}

// resize grows with defaults or truncates
func (l *Layer) resize(length int) {
	l.Length = length
	for len(l.Pattern) < length {
		l.Pattern = append(l.Pattern, false)
		l.Velocities = append(l.Velocities, defaultLayerVelocity)
		l.Pitches = append(l.Pitches, defaultLayerPitch)
	}
	l.Pattern = l.Pattern[:length]
	l.Velocities = l.Velocities[:length]
	l.Pitches = l.Pitches[:length]
}

// CurrentStep returns the step under the cursor
func (l *Layer) CurrentStep() int {
	return int(int64(l.pos) % int64(l.Length))
}

func (l *Layer) reset() {
	l.pos = float64(int(l.Phase*float64(l.Length)) % l.Length)
	l.last = -1
}

// Polyrhythm plays several layers of different lengths and rates at once
type Polyrhythm struct {
	layers []Layer
	denom  int
	rng    *rand.Rand
}

// NewPolyrhythm starts with two layers: four hits over 16 steps and three
// hits over 12, so the cycles drift against each other.
func NewPolyrhythm(rng *rand.Rand) *Polyrhythm {
	p := &Polyrhythm{denom: 4, rng: rng}

	i := p.AddLayer()
	for s := 0; s < p.layers[i].Length; s++ {
		p.SetStep(i, s, s%4 == 0, defaultLayerVelocity, 60+s%12)
	}
	j := p.AddLayer()
	p.SetLayerLength(j, 12)
	for s := 0; s < 12; s++ {
		p.SetStep(j, s, s%4 == 0, 0.6, 67)
	}
	return p
}

func (p *Polyrhythm) Kind() Kind  { return KindPolyrhythm }
func (p *Polyrhythm) Gated() bool { return false }

// AddLayer appends a default empty layer and returns its index
func (p *Polyrhythm) AddLayer() int {
	p.layers = append(p.layers, newLayer(defaultLayerLength))
	return len(p.layers) - 1
}

// RemoveLayer ignores out-of-range indices
func (p *Polyrhythm) RemoveLayer(i int) {
	if i < 0 || i >= len(p.layers) {
		return
	}
	p.layers = append(p.layers[:i], p.layers[i+1:]...)
}

func (p *Polyrhythm) NumLayers() int { return len(p.layers) }

// Layer returns the layer at i, or nil
func (p *Polyrhythm) Layer(i int) *Layer {
	if i < 0 || i >= len(p.layers) {
		return nil
	}
	return &p.layers[i]
}

func (p *Polyrhythm) SetLayerDivision(i, division int) {
	if l := p.Layer(i); l != nil {
		l.Division = clampInt(division, 1, MaxLayerDivision)
	}
}

func (p *Polyrhythm) SetLayerLength(i, length int) {
	if l := p.Layer(i); l != nil {
		l.resize(clampInt(length, 1, MaxLayerLength))
	}
}

func (p *Polyrhythm) SetLayerPhase(i int, phase float64) {
	if l := p.Layer(i); l != nil {
		l.Phase = clampFloat(phase, 0, 1)
	}
}

func (p *Polyrhythm) SetLayerEnabled(i int, enabled bool) {
	if l := p.Layer(i); l != nil {
		l.Enabled = enabled
	}
}

// SetStep edits one step; velocity and pitch are clamped
func (p *Polyrhythm) SetStep(i, step int, on bool, velocity float64, pitch int) {
	l := p.Layer(i)
	if l == nil || step < 0 || step >= l.Length {
		return
	}
	l.Pattern[step] = on
	l.Velocities[step] = clampFloat(velocity, 0, 1)
	l.Pitches[step] = clampInt(pitch, 0, 127)
}

// ClearLayer turns every step off and restores default velocity and pitch
func (p *Polyrhythm) ClearLayer(i int) {
	l := p.Layer(i)
	if l == nil {
		return
	}
	for s := range l.Pattern {
		l.Pattern[s] = false
		l.Velocities[s] = defaultLayerVelocity
		l.Pitches[s] = defaultLayerPitch
	}
}

// RandomizeLayer sets each step on with probability density; onsets get
// velocity 0.5-1.0 and pitch 36-84.
func (p *Polyrhythm) RandomizeLayer(i int, density float64) {
	l := p.Layer(i)
	if l == nil {
		return
	}
	density = clampFloat(density, 0, 1)
	for s := range l.Pattern {
		l.Pattern[s] = p.rng.Float64() < density
		if l.Pattern[s] {
			l.Velocities[s] = 0.5 + p.rng.Float64()*0.5
			l.Pitches[s] = 36 + p.rng.IntN(49)
		}
	}
}

// SetTimeSignature stores the meter used to scale layer rates
func (p *Polyrhythm) SetTimeSignature(num, denom int) {
	p.denom = clampInt(denom, 1, 32)
}

// Advance moves layer i forward by subdivisions x division / (denom/4)
// steps. Denominators below 4 scale the rate down instead of dividing by
// zero.
func (p *Polyrhythm) Advance(i, subdivisions int) {
	l := p.Layer(i)
	if l == nil || !l.Enabled {
		return
	}
	rate := float64(subdivisions*l.Division) / (float64(p.denom) / 4)
	l.pos += rate
}

// Reset puts every cursor back at its phase offset
func (p *Polyrhythm) Reset() {
	for i := range p.layers {
		p.layers[i].reset()
	}
}

func (p *Polyrhythm) ResetLayer(i int) {
	if l := p.Layer(i); l != nil {
		l.reset()
	}
}

// Next emits one candidate per enabled layer whose cursor has entered a new
// onset step since the last tick, then advances every layer.
func (p *Polyrhythm) Next(ctx *Context, out []Candidate) []Candidate {
	if ctx.TimeSigDenom > 0 {
		p.denom = ctx.TimeSigDenom
	}
	sub := ctx.Subdivisions
	if sub <= 0 {
		sub = 1
	}
	for i := range p.layers {
		l := &p.layers[i]
		if !l.Enabled {
			continue
		}
		whole := int64(math.Floor(l.pos))
		if whole != l.last {
			step := l.CurrentStep()
			if l.Pattern[step] {
				out = append(out, Candidate{Pitch: l.Pitches[step], Velocity: l.Velocities[step]})
			}
			l.last = whole
		}
		p.Advance(i, sub)
	}
	return out
}
