package generator

import (
	"math/rand/v2"
	"sort"
)

const (
	MaxMarkovOrder = 5

	// DefaultPitch is returned for states the chain has never seen
	DefaultPitch = 60

	historySize = 100
)

type markovKey [MaxMarkovOrder]int

type transition struct {
	next int
	prob float64
}

// Chain is an order-N Markov chain over integer values
type Chain struct {
	order  int
	table  map[markovKey][]transition // transitions sorted by next value
	counts map[markovKey]map[int]int  // learned occurrences behind table
	rng    *rand.Rand
}

// NewChain returns an empty chain of the given order (1-5)
func NewChain(order int, rng *rand.Rand) *Chain {
	return &Chain{
		order: clampInt(order, 1, MaxMarkovOrder),
		table:  make(map[markovKey][]transition),
		counts: make(map[markovKey]map[int]int),
		rng:    rng,
	}
}

func (c *Chain) Order() int { return c.order }

// SetOrder changes the order and clears the table
func (c *Chain) SetOrder(order int) {
	c.order = clampInt(order, 1, MaxMarkovOrder)
	c.Clear()
}

// Clear drops all transitions
func (c *Chain) Clear() {
	clear(c.table)
	clear(c.counts)
}

// States returns how many distinct states have transitions
func (c *Chain) States() int { return len(c.table) }

func (c *Chain) key(state []int) (markovKey, bool) {
	var k markovKey
	if len(state) != c.order {
		return k, false
	}
	copy(k[:], state)
	return k, true
}

// AddTransition sets P(next | state) directly, leaving other successors
// alone; a later Learn on the state rebuilds it from counts. States of the
// wrong length are ignored.
func (c *Chain) AddTransition(state []int, next int, prob float64) {
	k, ok := c.key(state)
	if !ok {
		return
	}
	ts := c.table[k]
	i := sort.Search(len(ts), func(i int) bool { return ts[i].next >= next })
	if i < len(ts) && ts[i].next == next {
		ts[i].prob = prob
		return
	}
	ts = append(ts, transition{})
	copy(ts[i+1:], ts[i:])
	ts[i] = transition{next: next, prob: prob}
	c.table[k] = ts
}

// Learn counts every order-length window of seq and the value after it,
// adding to what earlier calls counted, and renormalizes each state it
// touched. Sequences no longer than the order teach nothing.
func (c *Chain) Learn(seq []int) {
	if len(seq) <= c.order {
		return
	}
	touched := make(map[markovKey]bool)
	for i := 0; i+c.order < len(seq); i++ {
		k, _ := c.key(seq[i : i+c.order])
		if c.counts[k] == nil {
			c.counts[k] = make(map[int]int)
		}
		c.counts[k][seq[i+c.order]]++
		touched[k] = true
	}
	for k := range touched {
		c.normalize(k)
	}
}

// normalize rebuilds the transitions of k from its counts
func (c *Chain) normalize(k markovKey) {
	nexts := c.counts[k]
	total := 0
	ts := c.table[k][:0]
	for next, n := range nexts {
		total += n
		ts = append(ts, transition{next: next})
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].next < ts[j].next })
	for i := range ts {
		ts[i].prob = float64(nexts[ts[i].next]) / float64(total)
	}
	c.table[k] = ts
}

// Mass returns the summed transition probability of state, 1 for any
// learned state
func (c *Chain) Mass(state []int) float64 {
	k, ok := c.key(state)
	if !ok {
		return 0
	}
	total := 0.0
	for _, t := range c.table[k] {
		total += t.prob
	}
	return total
}

// Generate samples the successor of state. Unknown states give DefaultPitch;
// if the probabilities sum short of the draw, the highest value wins.
func (c *Chain) Generate(state []int) int {
	k, ok := c.key(state)
	if !ok {
		return DefaultPitch
	}
	ts := c.table[k]
	if len(ts) == 0 {
		return DefaultPitch
	}
	r := c.rng.Float64()
	cum := 0.0
	for _, t := range ts {
		cum += t.prob
		if r <= cum {
			return t.next
		}
	}
	return ts[len(ts)-1].next
}

// Known reports whether state has any transitions
func (c *Chain) Known(state []int) bool {
	k, ok := c.key(state)
	return ok && len(c.table[k]) > 0
}

// Successors returns the values that may follow state, ascending
func (c *Chain) Successors(state []int) []int {
	k, ok := c.key(state)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(c.table[k]))
	for _, t := range c.table[k] {
		out = append(out, t.next)
	}
	return out
}

// defaultPhrase is learned by a fresh Markov generator so it plays
// something before any training
var defaultPhrase = []int{60, 62, 64, 67, 64, 62, 60, 67, 69, 67, 64, 62, 60, 55, 57, 60}

// Markov generates one pitch per tick from a chain fed by its own output
type Markov struct {
	chain   *Chain
	corpus  [][]int
	builtin bool // only the default phrase is learned

	history [historySize]int
	head    int // next write position
	count   int
	window  [MaxMarkovOrder]int
}

// NewMarkov returns an order-2 chain trained on a short default phrase
func NewMarkov(rng *rand.Rand) *Markov {
	m := &Markov{chain: NewChain(2, rng)}
	m.Learn(defaultPhrase)
	m.builtin = true
	return m
}

func (m *Markov) Kind() Kind    { return KindMarkov }
func (m *Markov) Gated() bool   { return false }
func (m *Markov) Chain() *Chain { return m.chain }

// Learn trains the chain and remembers seq so an order change can retrain.
// The first phrase learned replaces the default one.
func (m *Markov) Learn(seq []int) {
	if m.builtin {
		m.Forget()
		m.Reset()
	}
	m.corpus = append(m.corpus, append([]int(nil), seq...))
	m.chain.Learn(seq)
}

// Corpus returns a copy of every learned sequence, nil while only the
// default phrase is known
func (m *Markov) Corpus() [][]int {
	if m.builtin {
		return nil
	}
	out := make([][]int, len(m.corpus))
	for i, seq := range m.corpus {
		out[i] = append([]int(nil), seq...)
	}
	return out
}

// Forget clears the chain and the remembered corpus
func (m *Markov) Forget() {
	m.builtin = false
	m.corpus = nil
	m.chain.Clear()
}

// SetOrder changes the order and retrains on the remembered corpus
func (m *Markov) SetOrder(order int) {
	m.chain.SetOrder(order)
	for _, seq := range m.corpus {
		m.chain.Learn(seq)
	}
	m.Reset()
}

// Reset clears the note history
func (m *Markov) Reset() {
	m.head = 0
	m.count = 0
}

func (m *Markov) push(v int) {
	m.history[m.head] = v
	m.head = (m.head + 1) % historySize
	if m.count < historySize {
		m.count++
	}
}

// last returns the most recent n values, oldest first
func (m *Markov) last(n int) []int {
	for i := 0; i < n; i++ {
		idx := (m.head - n + i + historySize) % historySize
		m.window[i] = m.history[idx]
	}
	return m.window[:n]
}

// Next seeds the history from the corpus when it is too short, then
// generates and records one pitch. A state the chain has never seen yields
// DefaultPitch and restarts the history.
func (m *Markov) Next(ctx *Context, out []Candidate) []Candidate {
	order := m.chain.Order()
	for m.count < order {
		m.push(m.seed(m.count))
	}
	state := m.last(order)
	known := m.chain.Known(state)
	pitch := m.chain.Generate(state)
	m.push(pitch)
	if !known {
		// dead end: start over from the opening on the next tick
		m.Reset()
	}
	return append(out, Candidate{Pitch: pitch, Velocity: gaussianVelocity(m.chain.rng)})
}

// seed picks the i-th opening value: from the first trained sequence when
// there is one, otherwise a rising chromatic line from middle C
func (m *Markov) seed(i int) int {
	if len(m.corpus) > 0 && i < len(m.corpus[0]) {
		return m.corpus[0][i]
	}
	return DefaultPitch + i%12
}
