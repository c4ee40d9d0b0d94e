package modulation

import (
	"math"
	"math/rand/v2"
	"slices"
)

// DefaultDepth is the depth of a new connection
const DefaultDepth = 0.5

// Connection routes one source onto one parameter. Target is whatever id
// the owner uses for its parameters.
type Connection struct {
	Source  int     `json:"source"`
	Target  int     `json:"target"`
	Depth   float64 `json:"depth"`
	Enabled bool    `json:"enabled"`
}

func (c Connection) valid(sources int) bool {
	return c.Source >= 0 && c.Source < sources && c.Target >= 0
}

// Matrix sums depth-scaled sources per target
type Matrix struct {
	sources     []Source
	connections []Connection
}

// NewMatrix returns a matrix with the stock sources: two LFOs (sine at
// 1Hz, triangle at 0.25Hz), a random step source and an envelope
func NewMatrix(rng *rand.Rand) *Matrix {
	m := &Matrix{}
	lfo1 := NewLFO(Sine, 1, rng)
	lfo1.SetName("LFO 1")
	lfo2 := NewLFO(Triangle, 0.25, rng)
	lfo2.SetName("LFO 2")
	m.AddSource(lfo1)
	m.AddSource(lfo2)
	m.AddSource(NewRandom(0.1, rng))
	m.AddSource(NewEnvelope(0.01, 0.5))
	return m
}

// AddSource appends a source and returns its index
func (m *Matrix) AddSource(s Source) int {
	m.sources = append(m.sources, s)
	return len(m.sources) - 1
}

// Source returns the source at i, or nil
func (m *Matrix) Source(i int) Source {
	if i < 0 || i >= len(m.sources) {
		return nil
	}
	return m.sources[i]
}

func (m *Matrix) NumSources() int { return len(m.sources) }

// Connect adds an enabled connection and returns its index, or -1 when the
// source does not exist
func (m *Matrix) Connect(source, target int, depth float64) int {
	c := Connection{Source: source, Target: target, Depth: clampDepth(depth), Enabled: true}
	if !c.valid(len(m.sources)) {
		return -1
	}
	m.connections = append(m.connections, c)
	return len(m.connections) - 1
}

func clampDepth(d float64) float64 {
	return math.Max(-1, math.Min(1, d))
}

// Disconnect removes connection i
func (m *Matrix) Disconnect(i int) {
	if i >= 0 && i < len(m.connections) {
		m.connections = slices.Delete(m.connections, i, i+1)
	}
}

// DisconnectTarget removes every connection to target
func (m *Matrix) DisconnectTarget(target int) {
	m.connections = slices.DeleteFunc(m.connections, func(c Connection) bool {
		return c.Target == target
	})
}

// Connections returns a copy of the routing table
func (m *Matrix) Connections() []Connection {
	return slices.Clone(m.connections)
}

// SetConnections replaces the routing table, dropping invalid entries
func (m *Matrix) SetConnections(cs []Connection) {
	m.connections = m.connections[:0]
	for _, c := range cs {
		if c.valid(len(m.sources)) {
			c.Depth = clampDepth(c.Depth)
			m.connections = append(m.connections, c)
		}
	}
}

// Amount is the summed modulation for target, clamped to [-1, 1]. Disabled
// sources and connections contribute nothing.
func (m *Matrix) Amount(target int) float64 {
	total := 0.0
	for _, c := range m.connections {
		if c.Target != target || !c.Enabled {
			continue
		}
		s := m.sources[c.Source]
		if !s.Enabled() {
			continue
		}
		total += s.Value() * c.Depth
	}
	return math.Max(-1, math.Min(1, total))
}

// Active reports whether any enabled connection exists
func (m *Matrix) Active() bool {
	for _, c := range m.connections {
		if c.Enabled {
			return true
		}
	}
	return false
}

// Advance moves every enabled source forward by dt seconds
func (m *Matrix) Advance(dt float64) {
	for _, s := range m.sources {
		if s.Enabled() {
			s.Advance(dt)
		}
	}
}

func (m *Matrix) Reset() {
	for _, s := range m.sources {
		s.Reset()
	}
}

// TriggerEnvelopes restarts every envelope source
func (m *Matrix) TriggerEnvelopes() {
	for _, s := range m.sources {
		if e, ok := s.(*Envelope); ok {
			e.Trigger()
		}
	}
}
