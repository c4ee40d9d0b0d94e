package engine

import (
	"go-genmidi/generator"
	"go-genmidi/scale"
)

// State is a read-only display snapshot published by the real-time thread.
// Every slice is a private copy.
type State struct {
	Playing      bool    `json:"playing"`
	ExternalSync bool    `json:"externalSync"`
	Tempo        float64 `json:"tempo"`
	Numerator    int     `json:"numerator"`
	Denominator  int     `json:"denominator"`
	Tick         int64   `json:"tick"`
	Position     int64   `json:"position"`
	Beats        float64 `json:"beats"`
	Bars         float64 `json:"bars"`
	Samples      int64   `json:"samples"` // engine clock, never reset

	Generator string `json:"generator"`
	Scale     string `json:"scale"`
	Root      string `json:"root"`
	Channel   int    `json:"channel"`

	Euclid     EuclidState     `json:"euclid"`
	Layers     []LayerState    `json:"layers"`
	Stochastic StochasticState `json:"stochastic"`
	Cells      []bool          `json:"cells"`
	CellHead   int             `json:"cellHead"`
	CARule     int             `json:"caRule"`
	Markov     MarkovState     `json:"markov"`
	LSystem    LSystemState    `json:"lsystem"`

	Queued  int    `json:"queued"`
	Dropped uint64 `json:"dropped"`
	NotesOn uint64 `json:"notesOn"`
	Ticks   uint64 `json:"ticks"`

	Sources []string `json:"sources"` // modulation sources, by index
	Routes  []Route  `json:"routes"`

	Recent []NoteInfo `json:"recent"` // newest last
}

// Route is one modulation connection by name
type Route struct {
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	Depth   float64 `json:"depth"`
	Enabled bool    `json:"enabled"`
}

// EuclidState is the current Euclidean pattern
type EuclidState struct {
	Steps      int       `json:"steps"`
	Pulses     int       `json:"pulses"`
	Rotation   int       `json:"rotation"`
	Current    int       `json:"current"`
	Pattern    []bool    `json:"pattern"`
	Velocities []float64 `json:"velocities"`
}

// LayerState is one polyrhythm layer with its cursor
type LayerState struct {
	Division int       `json:"division"`
	Length   int       `json:"length"`
	Phase    float64   `json:"phase"`
	Enabled  bool      `json:"enabled"`
	Cursor   int       `json:"cursor"`
	Pattern  []bool    `json:"pattern"`
	Velocity []float64 `json:"velocity"`
	Pitch    []int     `json:"pitch"`
}

// StochasticState holds the carrier values of the stochastic generator
type StochasticState struct {
	Walk      string  `json:"walk"`
	Value     float64 `json:"value"`
	Secondary float64 `json:"secondary"`
	Tertiary  float64 `json:"tertiary"`
}

type MarkovState struct {
	Order  int `json:"order"`
	States int `json:"states"`
}

type LSystemState struct {
	Axiom string           `json:"axiom"`
	Rules []generator.Rule `json:"rules"`
	Notes int              `json:"notes"`
}

// NoteInfo is one shaped note as scheduled
type NoteInfo struct {
	Key      uint8  `json:"key"`
	Name     string `json:"name"`
	Velocity uint8  `json:"velocity"`
	Start    int64  `json:"start"`
	Length   int64  `json:"length"`
}

// snapshot copies the display state out of the core. It allocates and runs
// at most publishFPS times per second.
func (e *Engine) snapshot() *State {
	c := &e.core
	tr := c.Transport
	num, denom := tr.TimeSignature()
	st := &State{
		Playing:      tr.Playing(),
		ExternalSync: tr.ExternalSync(),
		Tempo:        tr.Tempo(),
		Numerator:    num,
		Denominator:  denom,
		Tick:         tr.TickIndex(),
		Position:     tr.Position(),
		Beats:        tr.PositionInBeats(),
		Bars:         tr.PositionInBars(),
		Samples:      e.now,
		Generator:    e.kind.String(),
		Scale:        c.Quantizer.Scale().String(),
		Root:         scale.PitchClassName(c.Quantizer.Root()),
		Channel:      int(e.channel) + 1,
		Euclid: EuclidState{
			Steps:      c.Euclidean.Steps(),
			Pulses:     c.Euclidean.Pulses(),
			Rotation:   c.Euclidean.Rotation(),
			Current:    c.Euclidean.Current(),
			Pattern:    c.Euclidean.Pattern(),
			Velocities: c.Euclidean.Velocities(),
		},
		Stochastic: StochasticState{
			Walk:      c.Stochastic.Walk().String(),
			Value:     c.Stochastic.Value(),
			Secondary: c.Stochastic.Secondary(),
			Tertiary:  c.Stochastic.Tertiary(),
		},
		Cells:    c.Cellular.State(),
		CellHead: c.Cellular.Head(),
		CARule:   c.Cellular.Rule(),
		Markov: MarkovState{
			Order:  c.Markov.Chain().Order(),
			States: c.Markov.Chain().States(),
		},
		LSystem: LSystemState{
			Axiom: c.LSystem.Axiom(),
			Rules: c.LSystem.Rules(),
			Notes: len(c.LSystem.Notes()),
		},
		Queued:  c.Scheduler.Len(),
		Dropped: c.Scheduler.Dropped(),
		NotesOn: e.notesOn.Load(),
		Ticks:   e.ticks.Load(),
	}

	for i := 0; i < c.Polyrhythm.NumLayers(); i++ {
		l := c.Polyrhythm.Layer(i)
		st.Layers = append(st.Layers, LayerState{
			Division: l.Division,
			Length:   l.Length,
			Phase:    l.Phase,
			Enabled:  l.Enabled,
			Cursor:   l.CurrentStep(),
			Pattern:  append([]bool(nil), l.Pattern...),
			Velocity: append([]float64(nil), l.Velocities...),
			Pitch:    append([]int(nil), l.Pitches...),
		})
	}

	m := c.Modulation
	for i := 0; i < m.NumSources(); i++ {
		st.Sources = append(st.Sources, m.Source(i).Name())
	}
	for _, conn := range m.Connections() {
		st.Routes = append(st.Routes, Route{
			Source:  m.Source(conn.Source).Name(),
			Target:  ParamID(conn.Target).String(),
			Depth:   conn.Depth,
			Enabled: conn.Enabled,
		})
	}

	for i := 0; i < e.recentCount; i++ {
		idx := (e.recentHead - e.recentCount + i + len(e.recent)) % len(e.recent)
		st.Recent = append(st.Recent, e.recent[idx])
	}
	return st
}
