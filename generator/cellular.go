package generator

import "math/rand/v2"

const (
	DefaultCellCount = 32
	DefaultRule      = 30

	cellPitchSpan = 24
)

// Cellular is a one-dimensional elementary cellular automaton on a ring
type Cellular struct {
	rule    int
	cells   []bool
	scratch []bool
	initial []bool
	base    int
	head    int

	rng *rand.Rand
}

// NewCellular returns rule 30 on 32 cells seeded with a single live centre
// cell
func NewCellular(rng *rand.Rand) *Cellular {
	c := &Cellular{rule: DefaultRule, base: DefaultPitch, rng: rng}
	seed := make([]bool, DefaultCellCount)
	seed[DefaultCellCount/2] = true
	c.SetState(seed)
	return c
}

func (c *Cellular) Kind() Kind  { return KindCellular }
func (c *Cellular) Gated() bool { return false }

// SetRule sets the Wolfram rule number, clamped to [0, 255]
func (c *Cellular) SetRule(rule int) {
	c.rule = clampInt(rule, 0, 255)
}

func (c *Cellular) Rule() int { return c.rule }

// SetState replaces the cells and remembers them as the initial state.
// An empty state is ignored.
func (c *Cellular) SetState(state []bool) {
	if len(state) == 0 {
		return
	}
	c.cells = append(c.cells[:0], state...)
	c.initial = append(c.initial[:0], state...)
	if cap(c.scratch) < len(state) {
		c.scratch = make([]bool, len(state))
	}
	c.scratch = c.scratch[:len(state)]
	c.head = 0
}

// RandomizeState fills cells alive with probability density and remembers
// the result as the initial state
func (c *Cellular) RandomizeState(density float64) {
	state := make([]bool, len(c.cells))
	for i := range state {
		state[i] = c.rng.Float64() < density
	}
	c.SetState(state)
}

// State returns a copy of the cells
func (c *Cellular) State() []bool {
	return append([]bool(nil), c.cells...)
}

// Step computes the next generation: cell i becomes bit (l<<2 | c<<1 | r)
// of the rule, neighbours wrapping around the ring
func (c *Cellular) Step() []bool {
	n := len(c.cells)
	for i := range c.cells {
		l := c.cells[(i-1+n)%n]
		m := c.cells[i]
		r := c.cells[(i+1)%n]
		c.scratch[i] = c.apply(l, m, r)
	}
	c.cells, c.scratch = c.scratch, c.cells
	return c.cells
}

func (c *Cellular) apply(l, m, r bool) bool {
	idx := 0
	if l {
		idx |= 4
	}
	if m {
		idx |= 2
	}
	if r {
		idx |= 1
	}
	return (c.rule>>idx)&1 == 1
}

// Reset restores the last initial state
func (c *Cellular) Reset() {
	copy(c.cells, c.initial)
	c.head = 0
}

// SetBase sets the pitch of cell 0
func (c *Cellular) SetBase(pitch int) {
	c.base = clampInt(pitch, 0, 127)
}

// Head returns the cell read on the last tick
func (c *Cellular) Head() int { return c.head }

// Next steps one generation and reads the cell under a head that sweeps
// the ring one cell per tick. A live cell i sounds base + i%24.
func (c *Cellular) Next(ctx *Context, out []Candidate) []Candidate {
	c.Step()
	c.head = int(ctx.Tick % int64(len(c.cells)))
	if !c.cells[c.head] {
		return out
	}
	return append(out, Candidate{
		Pitch:    c.base + c.head%cellPitchSpan,
		Velocity: gaussianVelocity(c.rng),
	})
}
