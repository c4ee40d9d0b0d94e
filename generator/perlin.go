package generator

import (
	"math"
	"math/rand/v2"
)

// Noise is 2D gradient noise over a shuffled permutation table. The 256
// entries are stored twice so corner hashing never wraps.
type Noise struct {
	perm [512]int
}

// NewNoise shuffles the permutation table with rng
func NewNoise(rng *rand.Rand) *Noise {
	n := &Noise{}
	for i := 0; i < 256; i++ {
		n.perm[i] = i
	}
	for i := 255; i > 0; i-- {
		j := rng.IntN(i + 1)
		n.perm[i], n.perm[j] = n.perm[j], n.perm[i]
	}
	copy(n.perm[256:], n.perm[:256])
	return n
}

// At returns the noise value at (x, y), roughly in [-1, 1]
func (n *Noise) At(x, y float64) float64 {
	fx, fy := math.Floor(x), math.Floor(y)
	xi := int(fx) & 255
	yi := int(fy) & 255
	x -= fx
	y -= fy
	u, v := fade(x), fade(y)

	p := &n.perm
	aa := p[p[xi]+yi]
	ab := p[p[xi]+yi+1]
	ba := p[p[xi+1]+yi]
	bb := p[p[xi+1]+yi+1]

	return lerp(
		lerp(grad(aa, x, y), grad(ba, x-1, y), u),
		lerp(grad(ab, x, y-1), grad(bb, x-1, y-1), u),
		v,
	)
}

// Fractal sums octaves of noise, halving amplitude and doubling frequency
// each time, and maps the result into [0, 1]
func (n *Noise) Fractal(x, y float64, octaves int) float64 {
	amp, freq := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := 0; i < max(octaves, 1); i++ {
		sum += n.At(x*freq, y+float64(i)*100) * amp
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return clampFloat((sum/norm+1)*0.5, 0, 1)
}

func fade(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func lerp(a, b, t float64) float64 { return a + t*(b-a) }

// low 3 bits pick one of 8 gradient directions
func grad(hash int, x, y float64) float64 {
	h := hash & 7
	u, v := x, y
	if h >= 4 {
		u, v = y, x
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
