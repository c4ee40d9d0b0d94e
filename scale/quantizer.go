package scale

import "sort"

// Quantizer snaps pitches to a root + scale.
// The zero value is not usable; use NewQuantizer.
type Quantizer struct {
	root      int
	typ       Type
	intervals []int
}

// NewQuantizer returns a quantizer for root (any integer, stored mod 12) and scale t
func NewQuantizer(root int, t Type) *Quantizer {
	q := &Quantizer{}
	q.SetRoot(root)
	q.SetScale(t)
	return q
}

// SetRoot sets the root note; only the pitch class is kept
func (q *Quantizer) SetRoot(root int) {
	q.root = ((root % 12) + 12) % 12
}

func (q *Quantizer) Root() int { return q.root }

func (q *Quantizer) Scale() Type { return q.typ }

// SetScale selects a built-in scale. Custom keeps the current custom set;
// anything out of range falls back to chromatic.
func (q *Quantizer) SetScale(t Type) {
	if t == Custom {
		q.typ = Custom
		if len(q.intervals) == 0 {
			q.intervals = Intervals(Chromatic)
		}
		return
	}
	if t < 0 || t >= Custom {
		t = Chromatic
	}
	q.typ = t
	q.intervals = intervals[t]
}

// SetCustom installs a custom interval set. Intervals are folded into one
// octave, deduplicated and sorted. An empty set means chromatic.
func (q *Quantizer) SetCustom(ivs []int) {
	seen := [12]bool{}
	out := make([]int, 0, 12)
	for _, iv := range ivs {
		iv = ((iv % 12) + 12) % 12
		if !seen[iv] {
			seen[iv] = true
			out = append(out, iv)
		}
	}
	if len(out) == 0 {
		out = Intervals(Chromatic)
	}
	sort.Ints(out)
	q.typ = Custom
	q.intervals = out
}

// Intervals returns the active interval set (do not modify)
func (q *Quantizer) Intervals() []int { return q.intervals }

// Contains reports whether pitch is in the scale
func (q *Quantizer) Contains(pitch int) bool {
	rel := q.relative(pitch)
	for _, iv := range q.intervals {
		if iv == rel {
			return true
		}
	}
	return false
}

func (q *Quantizer) relative(pitch int) int {
	return (((pitch - q.root) % 12) + 12) % 12
}

// Quantize moves pitch to the nearest scale tone. Distance is measured in
// semitones across the octave boundary; ties go to the first interval in
// table order. The result stays within 0..127 and quantizing it again
// returns it unchanged.
func (q *Quantizer) Quantize(pitch int) int {
	pitch = clampPitch(pitch)
	if q.typ == Chromatic {
		return pitch
	}

	rel := q.relative(pitch)
	best := 0
	bestDist := 99
	for _, iv := range q.intervals {
		for _, cand := range [3]int{iv, iv + 12, iv - 12} {
			d := cand - rel
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				bestDist = d
				best = cand - rel
			}
		}
	}

	out := pitch + best
	for out > 127 {
		out -= 12
	}
	for out < 0 {
		out += 12
	}
	return out
}

// QuantizeUp returns the lowest scale tone >= pitch (wrapping into the next
// octave), or the highest scale tone <= 127 if none fits.
func (q *Quantizer) QuantizeUp(pitch int) int {
	pitch = clampPitch(pitch)
	for p := pitch; p <= 127; p++ {
		if q.Contains(p) {
			return p
		}
	}
	return q.QuantizeDown(127)
}

// QuantizeDown returns the highest scale tone <= pitch (wrapping into the
// previous octave), or the lowest scale tone >= 0 if none fits.
func (q *Quantizer) QuantizeDown(pitch int) int {
	pitch = clampPitch(pitch)
	for p := pitch; p >= 0; p-- {
		if q.Contains(p) {
			return p
		}
	}
	return q.QuantizeUp(0)
}

// Degree returns the pitch of scale degree n counted from base's octave root.
// Negative degrees walk downward.
func (q *Quantizer) Degree(base, n int) int {
	count := len(q.intervals)
	oct := n / count
	idx := n % count
	if idx < 0 {
		idx += count
		oct--
	}
	rootPitch := base - q.relative(base)
	return clampPitch(rootPitch + oct*12 + q.intervals[idx])
}

func clampPitch(p int) int {
	if p < 0 {
		return 0
	}
	if p > 127 {
		return 127
	}
	return p
}
