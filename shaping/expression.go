package shaping

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-genmidi/midi"
	"go-genmidi/modulation"
)

// Curve bends normalized velocity
type Curve int

const (
	CurveLinear Curve = iota
	CurveExponential
	CurveLogarithmic
	CurveCount
)

var curveNames = [CurveCount]string{"linear", "exponential", "logarithmic"}

func (c Curve) String() string {
	if c < 0 || c >= CurveCount {
		return fmt.Sprintf("Curve(%d)", int(c))
	}
	return curveNames[c]
}

func ParseCurve(s string) (Curve, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range curveNames {
		if n == s || n[:3] == s {
			return Curve(i), nil
		}
	}
	return 0, fmt.Errorf("unknown velocity curve %q", s)
}

// Apply maps v (clamped to 0..1) through the curve: squared for
// exponential, square root for logarithmic
func (c Curve) Apply(v float64) float64 {
	v = clamp(v, 0, 1)
	switch c {
	case CurveExponential:
		return v * v
	case CurveLogarithmic:
		return math.Sqrt(v)
	}
	return v
}

// ExpressionParams switch on the extra messages sent with each note. Zero
// amounts disable a message.
type ExpressionParams struct {
	Aftertouch float64 // poly aftertouch pressure, scaled by note velocity
	Pressure   float64 // channel pressure
	Bend       float64 // max random pitch bend per onset, 0..1
	Program    int     // program change on start, -1 for none

	CC      uint8 // controller driven by the LFO
	CCDepth float64
	CCRate  float64 // Hz
	CCShape modulation.Waveform
}

// Expression emits per-onset expression and a CC LFO
type Expression struct {
	lfo *modulation.LFO
	rng *rand.Rand
}

func NewExpression(rng *rand.Rand) *Expression {
	return &Expression{lfo: modulation.NewLFO(modulation.Sine, 1, rng), rng: rng}
}

// Onset appends the messages that accompany a note-on
func (e *Expression) Onset(ch uint8, n Note, p *ExpressionParams, out []gomidi.Message) []gomidi.Message {
	if p.Aftertouch > 0 {
		pressure := p.Aftertouch * float64(n.Velocity) / 127
		out = append(out, gomidi.PolyAfterTouch(ch, n.Key, unit7(pressure)))
	}
	if p.Pressure > 0 {
		out = append(out, gomidi.AfterTouch(ch, unit7(p.Pressure)))
	}
	if p.Bend > 0 {
		amount := (e.rng.Float64()*2 - 1) * min(p.Bend, 1)
		out = append(out, gomidi.Pitchbend(ch, midi.Bend(amount)))
	}
	return out
}

// Start returns the messages sent once when playback starts
func (e *Expression) Start(ch uint8, p *ExpressionParams, out []gomidi.Message) []gomidi.Message {
	if p.Program >= 0 && p.Program <= 127 {
		out = append(out, gomidi.ProgramChange(ch, uint8(p.Program)))
	}
	return out
}

// Tick advances the CC LFO by dt seconds and returns its controller
// message, centred on 64 and swinging by depth
func (e *Expression) Tick(ch uint8, dt float64, p *ExpressionParams) (gomidi.Message, bool) {
	if p.CCDepth <= 0 {
		return nil, false
	}
	e.lfo.SetWaveform(p.CCShape)
	e.lfo.SetRate(p.CCRate)
	e.lfo.Advance(dt)
	v := 0.5 + e.lfo.Value()*min(p.CCDepth, 1)*0.5
	return gomidi.ControlChange(ch, min(p.CC, 127), unit7(v)), true
}

func (e *Expression) Reset() {
	e.lfo.Reset()
}

// unit7 maps 0..1 onto 0..127
func unit7(v float64) uint8 {
	return uint8(clamp(v, 0, 1) * 127)
}
