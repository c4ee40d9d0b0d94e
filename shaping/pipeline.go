// Package shaping turns raw generator candidates into timed notes: scale
// quantization, swing and humanize, ratchets and gate length, in that
// order.
package shaping

import (
	"math/rand/v2"

	"go-genmidi/generator"
	"go-genmidi/midi"
	"go-genmidi/scale"
)

// Params is one tick's copy of the shaping controls
type Params struct {
	SampleRate  float64
	StepSamples float64

	PitchMin, PitchMax       int
	VelocityMin, VelocityMax float64 // 0..1
	Curve                    Curve

	Swing            float64 // 0..1
	TimingMs         float64
	VelocityHumanize float64 // 0..1

	Gate       float64 // fraction of a step
	Legato     bool
	GateRandom float64 // 0..1

	RatchetCount       int
	RatchetDivision    int // 0..2
	RatchetProbability float64
	RatchetDecay       float64
}

// DefaultParams are the controls of a fresh engine at 48kHz and 120 BPM
func DefaultParams() Params {
	return Params{
		SampleRate:   48000,
		StepSamples:  6000,
		PitchMin:     36,
		PitchMax:     84,
		VelocityMin:  0.5,
		VelocityMax:  1,
		Gate:         DefaultGate,
		RatchetCount: 1,
		RatchetDecay: 0.5,
	}
}

// Note is a shaped note in absolute samples
type Note struct {
	Key      uint8
	Velocity uint8
	Start    int64
	Length   int64
}

// Pipeline applies the shaping stages. Only the stages' random sources
// carry state between calls.
type Pipeline struct {
	Quantizer *scale.Quantizer

	human   *Humanizer
	ratchet *Ratchet
	gate    *Gate
}

func New(q *scale.Quantizer, rng *rand.Rand) *Pipeline {
	return &Pipeline{
		Quantizer: q,
		human:     NewHumanizer(rng),
		ratchet:   NewRatchet(rng),
		gate:      NewGate(rng),
	}
}

// Shape appends the notes for one candidate. step is the tick index used
// for swing, onset the tick's absolute sample.
func (p *Pipeline) Shape(c generator.Candidate, step, onset int64, prm *Params, out []Note) []Note {
	key := p.Quantizer.Quantize(Fold(c.Pitch, prm.PitchMin, prm.PitchMax))

	vel := prm.VelocityMin + clamp(c.Velocity, 0, 1)*(prm.VelocityMax-prm.VelocityMin)
	vel = prm.Curve.Apply(p.human.Velocity(vel, prm.VelocityHumanize))

	start := onset + SwingOffset(step, prm.StepSamples, prm.Swing) + p.human.Timing(prm.TimingMs, prm.SampleRate)
	start = max(start, 0)

	if p.ratchet.Fire(prm.RatchetCount, prm.RatchetProbability) {
		count := min(prm.RatchetCount, MaxRatchetCount)
		spacing := Spacing(prm.StepSamples, count, prm.RatchetDivision)
		for i := 0; i < count; i++ {
			out = append(out, Note{
				Key:      uint8(key),
				Velocity: midi.Velocity(RatchetVelocity(vel, i, prm.RatchetDecay)),
				Start:    start + int64(float64(i)*spacing),
				Length:   p.gate.Length(spacing, prm.Gate, prm.Legato, prm.GateRandom),
			})
		}
		return out
	}

	return append(out, Note{
		Key:      uint8(key),
		Velocity: midi.Velocity(vel),
		Start:    start,
		Length:   p.gate.Length(prm.StepSamples, prm.Gate, prm.Legato, prm.GateRandom),
	})
}

// Fold moves pitch by octaves into [lo, hi]. A range narrower than an
// octave clamps instead.
func Fold(pitch, lo, hi int) int {
	lo, hi = max(lo, 0), min(hi, 127)
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi-lo < 11 {
		return min(max(pitch, lo), hi)
	}
	for pitch < lo {
		pitch += 12
	}
	for pitch > hi {
		pitch -= 12
	}
	return pitch
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
