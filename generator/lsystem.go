package generator

import (
	"maps"
	"math/rand/v2"
	"slices"
)

const (
	defaultAxiom       = "A"
	defaultGenerations = 3

	// MaxLSystemLength caps an expanded string so rules that grow
	// exponentially stay bounded
	MaxLSystemLength = 4096
)

// Rule rewrites one symbol with the given probability
type Rule struct {
	Symbol      byte
	Replacement string
	Probability float64
}

// scale steps for A..G
var letterSteps = [7]int{0, 2, 4, 5, 7, 9, 11}

// LSystem rewrites a symbol string with stochastic rules and reads the
// result as a melody
type LSystem struct {
	axiom       string
	rules       map[byte][]Rule
	generations int
	base        int

	cur, next []byte // reusable expansion buffers
	notes     []int
	pos       int

	rng *rand.Rand
}

// NewLSystem returns a grammar with axiom "A" and a small default rule set
// that grows a rising, folding line
func NewLSystem(rng *rand.Rand) *LSystem {
	l := &LSystem{
		axiom:       defaultAxiom,
		rules:       make(map[byte][]Rule),
		generations: defaultGenerations,
		base:        DefaultPitch,
		rng:         rng,
	}
	l.AddRule('A', "AB", 0.7)
	l.AddRule('A', "A+C-", 0.3)
	l.AddRule('B', "CE", 0.6)
	l.AddRule('C', "[D]A", 0.5)
	return l
}

func (l *LSystem) Kind() Kind  { return KindLSystem }
func (l *LSystem) Gated() bool { return false }

func (l *LSystem) SetAxiom(axiom string) {
	l.axiom = axiom
	l.Reset()
}

func (l *LSystem) Axiom() string { return l.axiom }

// AddRule appends a rule for symbol; probability is clamped to [0, 1]
func (l *LSystem) AddRule(symbol byte, replacement string, probability float64) {
	l.rules[symbol] = append(l.rules[symbol], Rule{
		Symbol:      symbol,
		Replacement: replacement,
		Probability: clampFloat(probability, 0, 1),
	})
	l.Reset()
}

func (l *LSystem) ClearRules() {
	clear(l.rules)
	l.Reset()
}

// Rules returns every rule ordered by symbol, then insertion
func (l *LSystem) Rules() []Rule {
	var out []Rule
	for _, sym := range slices.Sorted(maps.Keys(l.rules)) {
		out = append(out, l.rules[sym]...)
	}
	return out
}

// SetGenerations sets how many rewrites each expansion runs (0-8)
func (l *LSystem) SetGenerations(n int) {
	l.generations = clampInt(n, 0, 8)
	l.Reset()
}

// SetBase sets the pitch that 'A' maps to
func (l *LSystem) SetBase(pitch int) {
	l.base = clampInt(pitch, 0, 127)
	l.Reset()
}

// Iterate rewrites the axiom the given number of times. For each symbol
// with rules, one draw r selects the first rule whose cumulative
// probability reaches r; if none does, the symbol is kept.
func (l *LSystem) Iterate(generations int) string {
	return string(l.expand(generations))
}

func (l *LSystem) expand(generations int) []byte {
	l.cur = append(l.cur[:0], l.axiom...)
	for g := 0; g < generations; g++ {
		l.next = l.next[:0]
		for _, c := range l.cur {
			l.next = l.rewrite(l.next, c)
			if len(l.next) >= MaxLSystemLength {
				l.next = l.next[:MaxLSystemLength]
				break
			}
		}
		l.cur, l.next = l.next, l.cur
	}
	return l.cur
}

func (l *LSystem) rewrite(dst []byte, c byte) []byte {
	rs := l.rules[c]
	if len(rs) == 0 {
		return append(dst, c)
	}
	r := l.rng.Float64()
	cum := 0.0
	for _, rule := range rs {
		cum += rule.Probability
		if r <= cum {
			return append(dst, rule.Replacement...)
		}
	}
	return append(dst, c)
}

// ToNotes reads a symbol string as pitches: A-G emit base plus the major
// scale step, + and - shift an octave, [ and ] shift a semitone. Pitches
// stay within 0..127; other symbols are ignored.
func ToNotes(seq string, base int) []int {
	return appendNotes(nil, []byte(seq), base)
}

func appendNotes(dst []int, seq []byte, base int) []int {
	note := base
	for _, c := range seq {
		switch {
		case c >= 'A' && c <= 'G':
			dst = append(dst, clampInt(note+letterSteps[c-'A'], 0, 127))
		case c == '+':
			note = clampInt(note+12, 0, 127)
		case c == '-':
			note = clampInt(note-12, 0, 127)
		case c == '[':
			note = clampInt(note+1, 0, 127)
		case c == ']':
			note = clampInt(note-1, 0, 127)
		}
	}
	return dst
}

// Reset discards the current expansion; the next tick expands afresh
func (l *LSystem) Reset() {
	l.notes = l.notes[:0]
	l.pos = 0
}

// Next plays the expansion one note per tick, expanding again (with new
// random rule choices) when it runs out
func (l *LSystem) Next(ctx *Context, out []Candidate) []Candidate {
	if l.pos >= len(l.notes) {
		l.notes = appendNotes(l.notes[:0], l.expand(l.generations), l.base)
		l.pos = 0
		if len(l.notes) == 0 {
			return out
		}
	}
	pitch := l.notes[l.pos]
	l.pos++
	return append(out, Candidate{Pitch: pitch, Velocity: gaussianVelocity(l.rng)})
}

// Notes returns a copy of the current expansion as pitches
func (l *LSystem) Notes() []int {
	return append([]int(nil), l.notes...)
}
