// Package modulation provides low-rate control sources (LFOs, random
// steps, envelopes) and a matrix that routes them onto parameters.
package modulation

import (
	"math"
	"math/rand/v2"
)

// SourceType tags a modulation source
type SourceType int

const (
	TypeLFO SourceType = iota
	TypeEnvelope
	TypeRandom
)

// Source is a control signal advanced in seconds. Bipolar sources swing
// -1..1, unipolar ones 0..1.
type Source interface {
	Value() float64
	Advance(dt float64)
	Reset()
	Type() SourceType
	Name() string
	Enabled() bool
	SetEnabled(bool)
	Bipolar() bool
}

type base struct {
	name     string
	disabled bool
	bipolar  bool
}

func (b *base) Name() string        { return b.name }
func (b *base) Enabled() bool       { return !b.disabled }
func (b *base) SetEnabled(on bool)  { b.disabled = !on }
func (b *base) Bipolar() bool       { return b.bipolar }
func (b *base) SetBipolar(on bool)  { b.bipolar = on }
func (b *base) SetName(name string) { b.name = name }

// Waveform selects an LFO shape
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Saw
	Square
	Random // smooth: ramps between random points once per cycle
	SampleAndHold
	WaveformCount
)

var waveformNames = [WaveformCount]string{"sine", "triangle", "saw", "square", "random", "s&h"}

func (w Waveform) String() string {
	if w < 0 || w >= WaveformCount {
		return "unknown"
	}
	return waveformNames[w]
}

// ParseWaveform looks a waveform up by name
func ParseWaveform(s string) (Waveform, bool) {
	for i, n := range waveformNames {
		if n == s {
			return Waveform(i), true
		}
	}
	return 0, false
}

const (
	MinRate = 0.01
	MaxRate = 100.0
)

// LFO is a free-running oscillator, bipolar by default
type LFO struct {
	base
	wave  Waveform
	rate  float64 // Hz
	phase float64
	raw   float64 // -1..1
	value float64

	from, to float64 // random segment endpoints
	rng      *rand.Rand
}

func NewLFO(wave Waveform, rate float64, rng *rand.Rand) *LFO {
	l := &LFO{base: base{name: "LFO", bipolar: true}, wave: wave, rng: rng}
	l.SetRate(rate)
	return l
}

func (l *LFO) Type() SourceType { return TypeLFO }
func (l *LFO) Value() float64   { return l.value }
func (l *LFO) Phase() float64   { return l.phase }
func (l *LFO) Rate() float64    { return l.rate }

// SetRate sets the frequency in Hz, clamped to [0.01, 100]
func (l *LFO) SetRate(hz float64) {
	l.rate = math.Max(MinRate, math.Min(MaxRate, hz))
}

func (l *LFO) Waveform() Waveform { return l.wave }

func (l *LFO) SetWaveform(w Waveform) {
	if w >= 0 && w < WaveformCount {
		l.wave = w
	}
}

func (l *LFO) Reset() {
	l.phase = 0
	l.raw, l.value = 0, 0
	if !l.bipolar {
		l.value = 0.5
	}
	l.from, l.to = 0, 0
}

func (l *LFO) Advance(dt float64) {
	last := l.phase
	l.phase = math.Mod(l.phase+l.rate*dt, 1)
	wrapped := l.phase < last
	switch l.wave {
	case Random:
		if wrapped {
			l.from, l.to = l.to, l.rng.Float64()*2-1
		}
		l.raw = l.from + (l.to-l.from)*l.phase
	case SampleAndHold:
		if wrapped {
			l.raw = l.rng.Float64()*2 - 1
		}
	default:
		l.raw = Shape(l.wave, l.phase)
	}
	l.value = l.raw
	if !l.bipolar {
		l.value = (l.raw + 1) / 2
	}
}

// Shape evaluates a deterministic waveform at phase 0..1 as -1..1. The
// random shapes return 0; they need state.
func Shape(w Waveform, phase float64) float64 {
	switch w {
	case Sine:
		return math.Sin(2 * math.Pi * phase)
	case Triangle:
		if phase < 0.5 {
			return phase*4 - 1
		}
		return 3 - phase*4
	case Saw:
		return phase*2 - 1
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	}
	return 0
}

// RandomSource holds a new uniform value every interval seconds
type RandomSource struct {
	base
	interval float64
	timer    float64
	value    float64
	rng      *rand.Rand
}

func NewRandom(interval float64, rng *rand.Rand) *RandomSource {
	r := &RandomSource{base: base{name: "Random"}, rng: rng}
	r.SetInterval(interval)
	r.Reset()
	return r
}

func (r *RandomSource) Type() SourceType { return TypeRandom }

// SetInterval sets the hold time, at least 10ms
func (r *RandomSource) SetInterval(seconds float64) {
	r.interval = math.Max(0.01, seconds)
}

func (r *RandomSource) Interval() float64 { return r.interval }

func (r *RandomSource) draw() float64 {
	v := r.rng.Float64()
	if r.bipolar {
		return v*2 - 1
	}
	return v
}

func (r *RandomSource) Value() float64 { return r.value }

func (r *RandomSource) Advance(dt float64) {
	r.timer += dt
	if r.timer >= r.interval {
		r.timer = 0
		r.value = r.draw()
	}
}

func (r *RandomSource) Reset() {
	r.timer = 0
	r.value = r.draw()
}

type stage int

const (
	idle stage = iota
	attack
	decay
)

// Envelope is an attack/decay contour restarted by Trigger
type Envelope struct {
	base
	attack, decay float64 // seconds
	stage         stage
	t             float64
	value         float64
}

func NewEnvelope(attack, decay float64) *Envelope {
	e := &Envelope{base: base{name: "Envelope"}}
	e.SetAttack(attack)
	e.SetDecay(decay)
	return e
}

func (e *Envelope) Type() SourceType { return TypeEnvelope }
func (e *Envelope) Value() float64   { return e.value }

func (e *Envelope) SetAttack(seconds float64) { e.attack = math.Max(0.001, seconds) }
func (e *Envelope) SetDecay(seconds float64)  { e.decay = math.Max(0.001, seconds) }

func (e *Envelope) Trigger() {
	e.stage = attack
	e.t = 0
}

func (e *Envelope) Active() bool { return e.stage != idle }

func (e *Envelope) Advance(dt float64) {
	switch e.stage {
	case idle:
		e.value = 0
	case attack:
		e.t += dt
		if e.t >= e.attack {
			e.stage, e.t, e.value = decay, 0, 1
		} else {
			e.value = e.t / e.attack
		}
	case decay:
		e.t += dt
		if e.t >= e.decay {
			e.stage, e.value = idle, 0
		} else {
			e.value = 1 - e.t/e.decay
		}
	}
}

func (e *Envelope) Reset() {
	e.stage, e.t, e.value = idle, 0, 0
}
