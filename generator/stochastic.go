package generator

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Walk selects how a Stochastic carrier evolves
type Walk int

const (
	Brownian Walk = iota
	Perlin
	Drunk
	Lorenz
	WalkCount
)

var walkNames = [WalkCount]string{"brownian", "perlin", "drunk", "lorenz"}

func (w Walk) String() string {
	if w < 0 || w >= WalkCount {
		return fmt.Sprintf("Walk(%d)", int(w))
	}
	return walkNames[w]
}

// ParseWalk accepts a walk name in any case
func ParseWalk(s string) (Walk, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range walkNames {
		if n == s {
			return Walk(i), nil
		}
	}
	return 0, fmt.Errorf("unknown walk %q", s)
}

const (
	maxBrownianVelocity = 0.5
	secondaryFollow     = 0.1
	drunkFollow         = 0.3
	drunkSecondaryProb  = 0.3
	perlinPhase         = 1000.0

	lorenzDt       = 0.01
	lorenzMaxSteps = 100
	lorenzScale    = 60.0
)

// Stochastic drives pitch and velocity from a continuous random carrier in
// [0, 1]. The primary value picks pitch, the secondary velocity.
type Stochastic struct {
	walk      Walk
	density   float64
	stepSize  float64
	momentum  float64
	octaves   int
	timeScale float64

	sigma, rho, beta float64

	value, secondary, tertiary float64

	vel       float64 // brownian
	noiseTime float64 // perlin
	target    float64 // drunk
	sinceStep float64 // drunk

	noise *Noise
	rng   *rand.Rand
}

func NewStochastic(rng *rand.Rand) *Stochastic {
	s := &Stochastic{
		walk:      Brownian,
		density:   0.5,
		stepSize:  0.1,
		momentum:  0.9,
		octaves:   4,
		timeScale: 1,
		sigma:     10,
		rho:       28,
		beta:      8.0 / 3.0,
		noise:     NewNoise(rng),
		rng:       rng,
	}
	s.Reset()
	return s
}

func (s *Stochastic) Kind() Kind  { return KindStochastic }
func (s *Stochastic) Gated() bool { return true }

// SetWalk switches the carrier and restarts it
func (s *Stochastic) SetWalk(w Walk) {
	if w < 0 || w >= WalkCount {
		return
	}
	s.walk = w
	s.Reset()
}

func (s *Stochastic) Walk() Walk { return s.walk }

func (s *Stochastic) SetDensity(d float64)   { s.density = clampFloat(d, 0, 1) }
func (s *Stochastic) SetStepSize(v float64)  { s.stepSize = clampFloat(v, 0, 1) }
func (s *Stochastic) SetMomentum(v float64)  { s.momentum = clampFloat(v, 0, 1) }
func (s *Stochastic) SetOctaves(n int)       { s.octaves = clampInt(n, 1, 8) }
func (s *Stochastic) SetTimeScale(v float64) { s.timeScale = clampFloat(v, 0.01, 100) }

// SetLorenz sets the attractor's sigma, rho and beta
func (s *Stochastic) SetLorenz(sigma, rho, beta float64) {
	s.sigma, s.rho, s.beta = sigma, rho, beta
}

func (s *Stochastic) Value() float64     { return s.value }
func (s *Stochastic) Secondary() float64 { return s.secondary }
func (s *Stochastic) Tertiary() float64  { return s.tertiary }

// Reset puts every carrier back at its starting point. Lorenz starts just
// off the origin, which is a fixed point of the system.
func (s *Stochastic) Reset() {
	s.value, s.secondary, s.tertiary = 0.5, 0.5, 0.5
	s.vel = 0
	s.noiseTime = 0
	s.target = 0.5
	s.sinceStep = 0
	if s.walk == Lorenz {
		s.value = 0.1/lorenzScale + 0.5
		s.secondary = 0.5
		s.tertiary = 0
	}
}

// Advance moves the carrier forward by dt seconds
func (s *Stochastic) Advance(dt float64) {
	switch s.walk {
	case Brownian:
		s.brownian(dt)
	case Perlin:
		s.perlin(dt)
	case Drunk:
		s.drunk(dt)
	case Lorenz:
		s.lorenz(dt)
	}
}

func (s *Stochastic) brownian(dt float64) {
	accel := Gaussian(s.rng, 0, 1) * s.stepSize
	s.vel = clampFloat(s.vel*s.momentum+accel, -maxBrownianVelocity, maxBrownianVelocity)
	s.value += s.vel * dt * s.timeScale
	if s.value > 1 {
		s.value = 1
		s.vel *= -0.5
	} else if s.value < 0 {
		s.value = 0
		s.vel *= -0.5
	}
	s.secondary += (s.value - s.secondary) * secondaryFollow
}

func (s *Stochastic) perlin(dt float64) {
	s.noiseTime += dt * s.timeScale
	s.value = s.noise.Fractal(s.noiseTime, 0, s.octaves)
	s.secondary = s.noise.Fractal(s.noiseTime+perlinPhase, 0, s.octaves)
}

func (s *Stochastic) drunk(dt float64) {
	s.sinceStep += dt
	if s.sinceStep >= 1/(s.timeScale*10) {
		s.sinceStep = 0
		s.target = reflect01(s.target + (s.rng.Float64()-0.5)*2*s.stepSize)
	}
	s.value += (s.target - s.value) * drunkFollow
	if s.rng.Float64() < drunkSecondaryProb {
		s.secondary = s.rng.Float64()
	}
}

func reflect01(v float64) float64 {
	if v > 1 {
		v = 2 - v
	} else if v < 0 {
		v = -v
	}
	return clampFloat(v, 0, 1)
}

func (s *Stochastic) lorenz(dt float64) {
	steps := clampInt(int(dt/lorenzDt), 1, lorenzMaxSteps)
	h := lorenzDt * s.timeScale
	x := (s.value - 0.5) * lorenzScale
	y := (s.secondary - 0.5) * lorenzScale
	z := s.tertiary * lorenzScale
	for i := 0; i < steps; i++ {
		dx := s.sigma * (y - x)
		dy := x*(s.rho-z) - y
		dz := x*y - s.beta*z
		x = clampFloat(x+dx*h, -lorenzScale/2, lorenzScale/2)
		y = clampFloat(y+dy*h, -lorenzScale/2, lorenzScale/2)
		z = clampFloat(z+dz*h, 0, lorenzScale)
	}
	s.value = x/lorenzScale + 0.5
	s.secondary = y/lorenzScale + 0.5
	s.tertiary = z / lorenzScale
}

// ShouldTrigger is one Bernoulli draw against density, independent of the
// carrier
func (s *Stochastic) ShouldTrigger() bool {
	return s.rng.Float64() < s.density
}

// Pitch maps the primary carrier onto [lo, hi]
func (s *Stochastic) Pitch(lo, hi int) int {
	return clampInt(lo+int(clampFloat(s.value, 0, 1)*float64(hi-lo)), 0, 127)
}

// Velocity maps the secondary carrier onto [lo, hi]
func (s *Stochastic) Velocity(lo, hi float64) float64 {
	return lo + clampFloat(s.secondary, 0, 1)*(hi-lo)
}

// Next advances the carrier by one tick and draws the trigger against the
// engine's density
func (s *Stochastic) Next(ctx *Context, out []Candidate) []Candidate {
	s.Advance(ctx.SecondsPerTick)
	s.density = clampFloat(ctx.Density, 0, 1)
	if !s.ShouldTrigger() {
		return out
	}
	return append(out, Candidate{
		Pitch:    s.Pitch(ctx.PitchMin, ctx.PitchMax),
		Velocity: s.Velocity(0, 1),
	})
}
