package engine

import (
	"context"
	"errors"

	"go-genmidi/generator"
	"go-genmidi/modulation"
)

// ErrNotRunning is returned when a capture is not picked up because no
// driver is calling Process
var ErrNotRunning = errors.New("engine is not processing")

// Scene is everything needed to bring the engine back to a sound: the
// parameter values plus the structural edits that live in the generators.
type Scene struct {
	Params  map[string]float64 `json:"params"`
	Layers  []LayerScene       `json:"layers,omitempty"`
	Corpus  [][]int            `json:"corpus,omitempty"`
	Axiom   string             `json:"axiom,omitempty"`
	Rules   []generator.Rule   `json:"rules,omitempty"`
	Cells   []bool             `json:"cells,omitempty"`
	Accents []float64          `json:"accents,omitempty"`

	Modulation []modulation.Connection `json:"modulation,omitempty"`
}

// LayerScene is one saved polyrhythm layer
type LayerScene struct {
	Division int       `json:"division"`
	Length   int       `json:"length"`
	Phase    float64   `json:"phase"`
	Enabled  bool      `json:"enabled"`
	Pattern  []bool    `json:"pattern"`
	Velocity []float64 `json:"velocity"`
	Pitch    []int     `json:"pitch"`
}

// Capture copies the current scene. The generator part is read on the
// real-time thread, so a driver must be running; ctx bounds the wait.
func (e *Engine) Capture(ctx context.Context) (*Scene, error) {
	sc := &Scene{Params: e.params.Values()}
	done := make(chan struct{})
	err := e.Do(func(c *Core) {
		defer close(done)
		for i := 0; i < c.Polyrhythm.NumLayers(); i++ {
			l := c.Polyrhythm.Layer(i)
			sc.Layers = append(sc.Layers, LayerScene{
				Division: l.Division,
				Length:   l.Length,
				Phase:    l.Phase,
				Enabled:  l.Enabled,
				Pattern:  append([]bool(nil), l.Pattern...),
				Velocity: append([]float64(nil), l.Velocities...),
				Pitch:    append([]int(nil), l.Pitches...),
			})
		}
		sc.Corpus = c.Markov.Corpus()
		sc.Axiom = c.LSystem.Axiom()
		sc.Rules = c.LSystem.Rules()
		sc.Cells = c.Cellular.State()
		sc.Accents = c.Euclidean.Accents()
		sc.Modulation = c.Modulation.Connections()
	})
	if err != nil {
		return nil, err
	}
	select {
	case <-done:
		return sc, nil
	case <-ctx.Done():
		return nil, ErrNotRunning
	}
}

// Apply loads a scene. Parameters change at once; generator edits are
// queued. It returns the parameter names the engine does not know.
func (e *Engine) Apply(sc *Scene) ([]string, error) {
	unknown := e.params.Load(sc.Params)
	layers := append([]LayerScene(nil), sc.Layers...)
	corpus := sc.Corpus
	axiom, rules := sc.Axiom, append([]generator.Rule(nil), sc.Rules...)
	cells := append([]bool(nil), sc.Cells...)
	accents := append([]float64(nil), sc.Accents...)
	routes := append([]modulation.Connection(nil), sc.Modulation...)

	return unknown, e.Do(func(c *Core) {
		if len(layers) > 0 {
			p := c.Polyrhythm
			for p.NumLayers() > 0 {
				p.RemoveLayer(p.NumLayers() - 1)
			}
			for _, ls := range layers {
				i := p.AddLayer()
				p.SetLayerDivision(i, ls.Division)
				p.SetLayerLength(i, ls.Length)
				p.SetLayerPhase(i, ls.Phase)
				p.SetLayerEnabled(i, ls.Enabled)
				for s, on := range ls.Pattern {
					vel, pitch := 0.8, 60
					if s < len(ls.Velocity) {
						vel = ls.Velocity[s]
					}
					if s < len(ls.Pitch) {
						pitch = ls.Pitch[s]
					}
					p.SetStep(i, s, on, vel, pitch)
				}
			}
		}
		if len(corpus) > 0 {
			c.Markov.Forget()
			for _, seq := range corpus {
				c.Markov.Learn(seq)
			}
		}
		if axiom != "" {
			c.LSystem.SetAxiom(axiom)
		}
		if len(rules) > 0 {
			c.LSystem.ClearRules()
			for _, r := range rules {
				c.LSystem.AddRule(r.Symbol, r.Replacement, r.Probability)
			}
		}
		if len(cells) > 0 {
			c.Cellular.SetState(cells)
		}
		if len(accents) > 0 {
			c.Euclidean.SetAccents(accents)
		}
		if len(routes) > 0 {
			c.Modulation.SetConnections(routes)
		}
	})
}
