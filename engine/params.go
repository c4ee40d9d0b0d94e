package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"go-genmidi/generator"
	"go-genmidi/modulation"
	"go-genmidi/scale"
	"go-genmidi/shaping"
)

// ErrUnknownParam is returned for a name missing from the parameter table
var ErrUnknownParam = errors.New("unknown parameter")

// ParamID indexes the parameter table
type ParamID int

const (
	ParamTempo ParamID = iota
	ParamNumerator
	ParamDenominator
	ParamChannel
	ParamSync
	ParamGenerator
	ParamDensity
	ParamVelocityMin
	ParamVelocityMax
	ParamPitchMin
	ParamPitchMax
	ParamSteps
	ParamPulses
	ParamRotation
	ParamRoot
	ParamScale
	ParamSwing
	ParamTimingMs
	ParamVelocityHumanize
	ParamGate
	ParamLegato
	ParamGateRandom
	ParamRatchetCount
	ParamRatchetDivision
	ParamRatchetProbability
	ParamRatchetDecay
	ParamWalk
	ParamStepSize
	ParamMomentum
	ParamTimeScale
	ParamOctaves
	ParamMarkovOrder
	ParamGenerations
	ParamCARule
	ParamCurve
	ParamAftertouch
	ParamPressure
	ParamBend
	ParamProgram
	ParamCC
	ParamCCDepth
	ParamCCRate
	ParamCCShape
	ParamCount
)

// ParamKind says how a slot's float is read
type ParamKind int

const (
	KindFloat ParamKind = iota
	KindInt
	KindBool
	KindChoice // index into Choices
)

// ParamInfo describes one parameter
type ParamInfo struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Kind    ParamKind
	Choices []string
}

func choices[T fmt.Stringer](n int, of func(int) T) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strings.ToLower(strings.ReplaceAll(of(i).String(), " ", "-"))
	}
	return out
}

var (
	generatorChoices = choices(int(generator.KindCount), func(i int) generator.Kind { return generator.Kind(i) })
	scaleChoices     = choices(int(scale.Custom), func(i int) scale.Type { return scale.Type(i) })
	walkChoices      = choices(int(generator.WalkCount), func(i int) generator.Walk { return generator.Walk(i) })
	curveChoices     = choices(int(shaping.CurveCount), func(i int) shaping.Curve { return shaping.Curve(i) })
	shapeChoices     = choices(int(modulation.WaveformCount), func(i int) modulation.Waveform { return modulation.Waveform(i) })
)

var paramTable = [ParamCount]ParamInfo{
	ParamTempo:              {Name: "tempo", Min: 20, Max: 400, Default: 120},
	ParamNumerator:          {Name: "numerator", Min: 1, Max: 32, Default: 4, Kind: KindInt},
	ParamDenominator:        {Name: "denominator", Min: 1, Max: 32, Default: 4, Kind: KindInt},
	ParamChannel:            {Name: "channel", Min: 1, Max: 16, Default: 1, Kind: KindInt},
	ParamSync:               {Name: "external-sync", Max: 1, Kind: KindBool},
	ParamGenerator:          {Name: "generator", Max: float64(generator.KindCount - 1), Kind: KindChoice, Choices: generatorChoices},
	ParamDensity:            {Name: "density", Max: 1, Default: 0.7},
	ParamVelocityMin:        {Name: "velocity-min", Max: 1, Default: 0.5},
	ParamVelocityMax:        {Name: "velocity-max", Max: 1, Default: 1},
	ParamPitchMin:           {Name: "pitch-min", Max: 127, Default: 48, Kind: KindInt},
	ParamPitchMax:           {Name: "pitch-max", Max: 127, Default: 84, Kind: KindInt},
	ParamSteps:              {Name: "steps", Min: 1, Max: generator.MaxEuclidSteps, Default: 16, Kind: KindInt},
	ParamPulses:             {Name: "pulses", Max: generator.MaxEuclidSteps, Default: 4, Kind: KindInt},
	ParamRotation:           {Name: "rotation", Max: generator.MaxEuclidSteps - 1, Kind: KindInt},
	ParamRoot:               {Name: "root", Max: 11, Kind: KindInt},
	ParamScale:              {Name: "scale", Max: float64(scale.Custom - 1), Default: float64(scale.Major), Kind: KindChoice, Choices: scaleChoices},
	ParamSwing:              {Name: "swing", Max: 1},
	ParamTimingMs:           {Name: "humanize-ms", Max: shaping.MaxTimingMs},
	ParamVelocityHumanize:   {Name: "humanize-velocity", Max: 1},
	ParamGate:               {Name: "gate", Min: shaping.MinGate, Max: shaping.MaxGate, Default: shaping.DefaultGate},
	ParamLegato:             {Name: "legato", Max: 1, Kind: KindBool},
	ParamGateRandom:         {Name: "gate-random", Max: 1},
	ParamRatchetCount:       {Name: "ratchet", Min: 1, Max: shaping.MaxRatchetCount, Default: 1, Kind: KindInt},
	ParamRatchetDivision:    {Name: "ratchet-division", Max: shaping.MaxRatchetDivision, Kind: KindInt},
	ParamRatchetProbability: {Name: "ratchet-probability", Max: 1},
	ParamRatchetDecay:       {Name: "ratchet-decay", Max: 1, Default: 0.5},
	ParamWalk:               {Name: "walk", Max: float64(generator.WalkCount - 1), Kind: KindChoice, Choices: walkChoices},
	ParamStepSize:           {Name: "step-size", Max: 1, Default: 0.1},
	ParamMomentum:           {Name: "momentum", Max: 1, Default: 0.9},
	ParamTimeScale:          {Name: "time-scale", Min: 0.01, Max: 100, Default: 1},
	ParamOctaves:            {Name: "octaves", Min: 1, Max: 8, Default: 4, Kind: KindInt},
	ParamMarkovOrder:        {Name: "markov-order", Min: 1, Max: generator.MaxMarkovOrder, Default: 2, Kind: KindInt},
	ParamGenerations:        {Name: "generations", Max: 8, Default: 3, Kind: KindInt},
	ParamCARule:             {Name: "ca-rule", Max: 255, Default: generator.DefaultRule, Kind: KindInt},
	ParamCurve:              {Name: "curve", Max: float64(shaping.CurveCount - 1), Kind: KindChoice, Choices: curveChoices},
	ParamAftertouch:         {Name: "aftertouch", Max: 1},
	ParamPressure:           {Name: "pressure", Max: 1},
	ParamBend:               {Name: "bend", Max: 1},
	ParamProgram:            {Name: "program", Min: -1, Max: 127, Default: -1, Kind: KindInt},
	ParamCC:                 {Name: "cc", Max: 127, Default: 74, Kind: KindInt},
	ParamCCDepth:            {Name: "cc-depth", Max: 1},
	ParamCCRate:             {Name: "cc-rate", Min: modulation.MinRate, Max: modulation.MaxRate, Default: 0.5},
	ParamCCShape:            {Name: "cc-shape", Max: float64(modulation.WaveformCount - 1), Kind: KindChoice, Choices: shapeChoices},
}

var paramsByName = func() map[string]ParamID {
	m := make(map[string]ParamID, ParamCount)
	for id, info := range paramTable {
		m[info.Name] = ParamID(id)
	}
	return m
}()

// Info returns the table entry for id
func Info(id ParamID) ParamInfo {
	if id < 0 || id >= ParamCount {
		return ParamInfo{}
	}
	return paramTable[id]
}

func (id ParamID) String() string {
	if id < 0 || id >= ParamCount {
		return fmt.Sprintf("ParamID(%d)", int(id))
	}
	return paramTable[id].Name
}

// Lookup finds a parameter by name
func Lookup(name string) (ParamID, bool) {
	id, ok := paramsByName[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// Names returns every parameter name, sorted
func Names() []string {
	out := make([]string, 0, ParamCount)
	for _, info := range paramTable {
		out = append(out, info.Name)
	}
	sort.Strings(out)
	return out
}

// Clamp brings v into the parameter's range, rounding discrete kinds
func (info ParamInfo) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return info.Default
	}
	if info.Kind != KindFloat {
		v = math.Round(v)
	}
	return math.Max(info.Min, math.Min(info.Max, v))
}

// Parse reads a value for the parameter: a number, a choice name, or
// on/off for switches
func (info ParamInfo) Parse(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch info.Kind {
	case KindBool:
		switch s {
		case "on", "true", "yes":
			return 1, nil
		case "off", "false", "no":
			return 0, nil
		}
	case KindChoice:
		for i, c := range info.Choices {
			if c == s || strings.ReplaceAll(c, "-", "") == s {
				return float64(i), nil
			}
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: cannot parse %q", info.Name, s)
	}
	return info.Clamp(v), nil
}

// Format renders v the way Parse reads it
func (info ParamInfo) Format(v float64) string {
	switch info.Kind {
	case KindBool:
		if v >= 0.5 {
			return "on"
		}
		return "off"
	case KindChoice:
		if i := int(v); i >= 0 && i < len(info.Choices) {
			return info.Choices[i]
		}
	case KindInt:
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Step is one nudge: 1 for discrete kinds, a hundredth of the range
// otherwise
func (info ParamInfo) Step() float64 {
	if info.Kind != KindFloat {
		return 1
	}
	return (info.Max - info.Min) / 100
}

// Nudge moves a parameter by steps nudges and returns the stored value.
// Choices wrap around; everything else clamps.
func (p *Params) Nudge(id ParamID, steps int) float64 {
	info := Info(id)
	v := p.Get(id) + float64(steps)*info.Step()
	if info.Kind == KindChoice {
		n := len(info.Choices)
		v = float64(((int(math.Round(v))-int(info.Min))%n+n)%n) + info.Min
	}
	return p.Set(id, v)
}

// Params holds every parameter in its own atomic slot. Any goroutine may
// write; the audio thread only loads.
type Params struct {
	slots [ParamCount]atomic.Uint64
}

// NewParams returns a table filled with defaults
func NewParams() *Params {
	p := &Params{}
	p.Reset()
	return p
}

// Reset restores every default
func (p *Params) Reset() {
	for id := range paramTable {
		p.slots[id].Store(math.Float64bits(paramTable[id].Default))
	}
}

// Set clamps v and stores it, returning the stored value
func (p *Params) Set(id ParamID, v float64) float64 {
	if id < 0 || id >= ParamCount {
		return 0
	}
	v = paramTable[id].Clamp(v)
	p.slots[id].Store(math.Float64bits(v))
	return v
}

func (p *Params) Get(id ParamID) float64 {
	if id < 0 || id >= ParamCount {
		return 0
	}
	return math.Float64frombits(p.slots[id].Load())
}

// SetNamed parses value for the named parameter and stores it
func (p *Params) SetNamed(name, value string) (float64, error) {
	id, ok := Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownParam, name)
	}
	v, err := paramTable[id].Parse(value)
	if err != nil {
		return 0, err
	}
	return p.Set(id, v), nil
}

// Values returns every parameter by name
func (p *Params) Values() map[string]float64 {
	out := make(map[string]float64, ParamCount)
	for id := range paramTable {
		out[paramTable[id].Name] = p.Get(ParamID(id))
	}
	return out
}

// Load stores every known name in values and reports the unknown ones
func (p *Params) Load(values map[string]float64) (unknown []string) {
	for name, v := range values {
		id, ok := Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		p.Set(id, v)
	}
	sort.Strings(unknown)
	return unknown
}

// Snapshot is one momentary copy of every parameter
type Snapshot [ParamCount]float64

// Snapshot copies every slot into s. Slots are independent; there is no
// cross-parameter atomicity.
func (p *Params) Snapshot(s *Snapshot) {
	for id := range s {
		s[id] = math.Float64frombits(p.slots[id].Load())
	}
}

func (s *Snapshot) Int(id ParamID) int   { return int(s[id]) }
func (s *Snapshot) Bool(id ParamID) bool { return s[id] >= 0.5 }
