// Package engine ties the transport, generators, shaping pipeline and
// scheduler together behind one real-time Process call.
package engine

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-genmidi/generator"
	"go-genmidi/midi"
	"go-genmidi/modulation"
	"go-genmidi/scale"
	"go-genmidi/scheduler"
	"go-genmidi/shaping"
	"go-genmidi/transport"
)

const (
	commandQueueSize = 64
	publishFPS       = 30
	recentNotes      = 32
	maxExpression    = 8
)

// ErrBusy is returned when the command queue is full
var ErrBusy = errors.New("engine command queue full")

// RNG streams, one per component so a seed replays identically
const (
	streamEuclid uint64 = iota + 1
	streamPolyrhythm
	streamMarkov
	streamLSystem
	streamCellular
	streamProbabilistic
	streamStochastic
	streamDensity
	streamShaping
	streamExpression
	streamModulation
)

// Config sizes a new engine
type Config struct {
	SampleRate    float64
	BufferSize    int
	Seed          uint64
	QueueCapacity int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:    48000,
		BufferSize:    256,
		Seed:          1,
		QueueCapacity: scheduler.DefaultCapacity,
	}
}

// Core is everything owned by the real-time thread. Commands passed to Do
// receive it there; nothing else may touch it while a driver runs.
type Core struct {
	Transport  *transport.Transport
	Scheduler  *scheduler.Scheduler
	Quantizer  *scale.Quantizer
	Shaper     *shaping.Pipeline
	Expression *shaping.Expression
	Modulation *modulation.Matrix

	Euclidean     *generator.Euclidean
	Polyrhythm    *generator.Polyrhythm
	Markov        *generator.Markov
	LSystem       *generator.LSystem
	Cellular      *generator.Cellular
	Probabilistic *generator.Probabilistic
	Stochastic    *generator.Stochastic

	generators [generator.KindCount]generator.Generator
}

// Generator returns the generator of kind k, or nil
func (c *Core) Generator(k generator.Kind) generator.Generator {
	if k < 0 || k >= generator.KindCount {
		return nil
	}
	return c.generators[k]
}

// Engine is the orchestrator. Process must be called from a single
// goroutine; everything else is safe from any goroutine.
type Engine struct {
	cfg    Config
	params *Params
	core   Core
	cmds   chan func()

	snap    Snapshot
	applied Snapshot
	shape   shaping.Params
	expr    shaping.ExpressionParams
	ctx     generator.Context
	kind    generator.Kind
	channel uint8
	density *rand.Rand

	cands  []generator.Candidate
	notes  []shaping.Note
	msgs   []gomidi.Message
	events []midi.Event

	sounding [16][128]uint16 // note-ons minus note-offs sent per key
	now      int64           // samples processed since New
	playing  bool
	rewound  bool // set by start, consumed by transition

	recent      [recentNotes]NoteInfo
	recentHead  int
	recentCount int

	state        atomic.Pointer[State]
	lastPublish  int64
	publishEvery int64
	dirty        bool

	notesOn atomic.Uint64
	ticks   atomic.Uint64
}

// New builds an engine with default parameters. Zero fields of cfg take
// their defaults.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = def.QueueCapacity
	}

	seed := cfg.Seed
	rng := func(stream uint64) *rand.Rand { return generator.NewRand(seed, stream) }

	e := &Engine{
		cfg:          cfg,
		params:       NewParams(),
		cmds:         make(chan func(), commandQueueSize),
		density:      rng(streamDensity),
		cands:        make([]generator.Candidate, 0, 16),
		notes:        make([]shaping.Note, 0, shaping.MaxRatchetCount),
		msgs:         make([]gomidi.Message, 0, maxExpression),
		events:       make([]midi.Event, 0, cfg.QueueCapacity),
		publishEvery: int64(cfg.SampleRate / publishFPS),
	}

	c := &e.core
	c.Transport = transport.New()
	c.Transport.SetSampleRate(cfg.SampleRate)
	c.Transport.OnTick(e.onTick)
	c.Scheduler = scheduler.New(cfg.QueueCapacity)
	c.Quantizer = scale.NewQuantizer(0, scale.Major)
	c.Shaper = shaping.New(c.Quantizer, rng(streamShaping))
	c.Expression = shaping.NewExpression(rng(streamExpression))
	c.Modulation = modulation.NewMatrix(rng(streamModulation))

	c.Euclidean = generator.NewEuclidean(rng(streamEuclid))
	c.Polyrhythm = generator.NewPolyrhythm(rng(streamPolyrhythm))
	c.Markov = generator.NewMarkov(rng(streamMarkov))
	c.LSystem = generator.NewLSystem(rng(streamLSystem))
	c.Cellular = generator.NewCellular(rng(streamCellular))
	c.Probabilistic = generator.NewProbabilistic(rng(streamProbabilistic))
	c.Stochastic = generator.NewStochastic(rng(streamStochastic))
	c.generators = [generator.KindCount]generator.Generator{
		generator.KindEuclidean:     c.Euclidean,
		generator.KindPolyrhythm:    c.Polyrhythm,
		generator.KindMarkov:        c.Markov,
		generator.KindLSystem:       c.LSystem,
		generator.KindCellular:      c.Cellular,
		generator.KindProbabilistic: c.Probabilistic,
		generator.KindStochastic:    c.Stochastic,
	}

	// NaN never compares equal, so the first Process applies everything
	for i := range e.applied {
		e.applied[i] = math.NaN()
	}
	e.params.Snapshot(&e.snap)
	e.apply()
	e.state.Store(e.snapshot())
	return e
}

// Params returns the parameter slots. Writes take effect at the start of
// the next buffer.
func (e *Engine) Params() *Params { return e.params }

func (e *Engine) Config() Config { return e.cfg }

// State returns the last published display snapshot. It is never nil.
func (e *Engine) State() *State { return e.state.Load() }

// Do queues fn to run on the real-time thread before the next buffer.
// It never blocks; a full queue returns ErrBusy.
func (e *Engine) Do(fn func(*Core)) error {
	return e.enqueue(func() { fn(&e.core) })
}

func (e *Engine) enqueue(fn func()) error {
	select {
	case e.cmds <- fn:
		return nil
	default:
		return ErrBusy
	}
}

// Start rewinds the transport and every generator and starts playback
func (e *Engine) Start() error { return e.enqueue(e.start) }

// Stop halts playback and releases every sounding note
func (e *Engine) Stop() error { return e.enqueue(e.stop) }

// Continue resumes playback from the current position
func (e *Engine) Continue() error {
	return e.enqueue(func() { e.core.Transport.Continue() })
}

// Reset rewinds without changing the play state
func (e *Engine) Reset() error {
	return e.enqueue(func() {
		e.core.Transport.Reset()
		e.resetGenerators()
	})
}

// Panic releases every sounding note and sends All Notes Off on every
// channel
func (e *Engine) Panic() error {
	return e.enqueue(func() {
		e.flush()
		for ch := uint8(0); ch < 16; ch++ {
			e.core.Scheduler.ScheduleControl(gomidi.ControlChange(ch, 123, 0), e.now)
		}
	})
}

func (e *Engine) start() {
	e.core.Transport.Start()
	e.rewound = true
}

func (e *Engine) stop() {
	e.core.Transport.Stop()
}

func (e *Engine) resetGenerators() {
	c := &e.core
	for _, g := range c.generators {
		g.Reset()
	}
	c.Modulation.Reset()
	c.Expression.Reset()
}

// Process runs one buffer of n samples. in may carry realtime clock bytes
// (used under external sync) at their buffer offsets. Output events are
// appended to out in non-decreasing offset order, 0 <= Offset < n.
func (e *Engine) Process(in []midi.Event, out []midi.Event, n int) []midi.Event {
	if n <= 0 {
		return out
	}
	e.drain()

	e.params.Snapshot(&e.snap)
	e.modulate(float64(n) / e.cfg.SampleRate)
	e.apply()

	tr := e.core.Transport
	e.transition()
	for _, ev := range in {
		if len(ev.Message) == 1 && midi.IsRealtime(ev.Message[0]) {
			tr.ProcessClock(ev.Message[0], min(max(ev.Offset, 0), n-1))
			e.transition()
		}
	}
	tr.Advance(n)

	e.events = e.core.Scheduler.ProcessEvents(e.now, e.events[:0], n)
	for _, ev := range e.events {
		if e.track(ev.Message) {
			out = append(out, ev)
		}
	}

	e.now += int64(n)
	if e.dirty || e.now-e.lastPublish >= e.publishEvery {
		e.state.Store(e.snapshot())
		e.lastPublish = e.now
		e.dirty = false
	}
	return out
}

func (e *Engine) drain() {
	for {
		select {
		case fn := <-e.cmds:
			fn()
			e.dirty = true
		default:
			return
		}
	}
}

// transition reacts to the transport starting or stopping, whether by
// command or by an external clock. A start from the top rewinds the
// generators; a continue does not.
func (e *Engine) transition() {
	tr := e.core.Transport
	playing := tr.Playing()
	if playing == e.playing && !e.rewound {
		return
	}
	e.dirty = true
	if !playing {
		e.playing = false
		e.flush()
		return
	}
	if tr.TickIndex() == 0 {
		e.resetGenerators()
	}
	e.rewound = false
	if e.playing {
		return
	}
	e.playing = true
	e.msgs = e.core.Expression.Start(e.channel, &e.expr, e.msgs[:0])
	for _, m := range e.msgs {
		e.core.Scheduler.ScheduleControl(m, e.now)
	}
}

// flush drops every pending event and schedules one note-off per sounding
// key at the current sample
func (e *Engine) flush() {
	s := e.core.Scheduler
	s.ClearAll()
	for ch := range e.sounding {
		for key, n := range e.sounding[ch] {
			if n == 0 {
				continue
			}
			e.sounding[ch][key] = 1
			s.ScheduleNoteOff(uint8(ch), uint8(key), e.now)
		}
	}
}

// track counts note-ons per key. A note-off is passed only when it closes
// the last overlapping note-on of its key, so a long note retriggered by a
// shorter one is not cut short.
func (e *Engine) track(msg gomidi.Message) bool {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
		if e.sounding[ch][key] < math.MaxUint16 {
			e.sounding[ch][key]++
		}
		return true
	case msg.GetNoteOff(&ch, &key, &vel), msg.GetNoteOn(&ch, &key, &vel):
		n := e.sounding[ch][key]
		if n == 0 {
			return true
		}
		e.sounding[ch][key] = n - 1
		return n == 1
	}
	return true
}

// Sounding reports how many note-ons of key are open on channel ch
// (0-15). Only meaningful on the Process goroutine or after it stopped.
func (e *Engine) Sounding(ch, key uint8) int {
	return int(e.sounding[ch&15][key&127])
}

// onTick runs inside Advance or ProcessClock for every 16th boundary
func (e *Engine) onTick(tk transport.Tick) {
	c := &e.core
	onset := e.now + int64(tk.Offset)
	e.ticks.Add(1)

	e.shape.StepSamples = c.Transport.SamplesPerStep()
	e.ctx.Tick = tk.Index
	e.ctx.SecondsPerTick = e.shape.StepSamples / e.cfg.SampleRate

	gen := c.generators[e.kind]
	e.cands = gen.Next(&e.ctx, e.cands[:0])
	for _, cand := range e.cands {
		if !gen.Gated() && e.density.Float64() >= e.ctx.Density {
			continue
		}
		e.notes = c.Shaper.Shape(cand, tk.Index, onset, &e.shape, e.notes[:0])
		for _, n := range e.notes {
			c.Scheduler.ScheduleNote(e.channel, n.Key, n.Velocity, n.Start, n.Length)
			e.msgs = c.Expression.Onset(e.channel, n, &e.expr, e.msgs[:0])
			for _, m := range e.msgs {
				c.Scheduler.ScheduleControl(m, n.Start)
			}
			e.remember(n)
		}
		c.Modulation.TriggerEnvelopes()
	}

	if msg, ok := c.Expression.Tick(e.channel, e.ctx.SecondsPerTick, &e.expr); ok {
		c.Scheduler.ScheduleControl(msg, onset)
	}
}

func (e *Engine) remember(n shaping.Note) {
	e.notesOn.Add(1)
	e.recent[e.recentHead] = NoteInfo{
		Key:      n.Key,
		Name:     scale.NoteName(int(n.Key)),
		Velocity: n.Velocity,
		Start:    n.Start,
		Length:   n.Length,
	}
	e.recentHead = (e.recentHead + 1) % len(e.recent)
	if e.recentCount < len(e.recent) {
		e.recentCount++
	}
}

// modulate advances the modulation sources by dt seconds and offsets the
// snapshot by each target's amount scaled to the parameter's range
func (e *Engine) modulate(dt float64) {
	m := e.core.Modulation
	m.Advance(dt)
	if !m.Active() {
		return
	}
	for id := range e.snap {
		amt := m.Amount(id)
		if amt == 0 {
			continue
		}
		info := &paramTable[id]
		e.snap[id] = info.Clamp(e.snap[id] + amt*(info.Max-info.Min))
	}
}

// apply pushes the snapshot into the core. Generator setters run only when
// their slot changed, so edits made through Do stand until then.
func (e *Engine) apply() {
	s := &e.snap
	c := &e.core
	tr := c.Transport

	changed := func(ids ...ParamID) bool {
		for _, id := range ids {
			if s[id] != e.applied[id] {
				return true
			}
		}
		return false
	}

	tr.SetExternalSync(s.Bool(ParamSync))
	if !tr.ExternalSync() {
		tr.SetTempo(s[ParamTempo])
	}
	tr.SetTimeSignature(s.Int(ParamNumerator), s.Int(ParamDenominator))

	if changed(ParamSteps, ParamPulses, ParamRotation) {
		c.Euclidean.SetSteps(s.Int(ParamSteps))
		c.Euclidean.SetPulses(s.Int(ParamPulses))
		c.Euclidean.SetRotation(s.Int(ParamRotation))
	}
	if changed(ParamRoot) {
		c.Quantizer.SetRoot(s.Int(ParamRoot))
	}
	if changed(ParamScale) {
		c.Quantizer.SetScale(scale.Type(s.Int(ParamScale)))
	}
	if changed(ParamWalk) {
		c.Stochastic.SetWalk(generator.Walk(s.Int(ParamWalk)))
	}
	if changed(ParamMarkovOrder) {
		c.Markov.SetOrder(s.Int(ParamMarkovOrder))
	}
	if changed(ParamGenerations) {
		c.LSystem.SetGenerations(s.Int(ParamGenerations))
	}
	if changed(ParamStepSize, ParamMomentum, ParamTimeScale, ParamOctaves) {
		c.Stochastic.SetStepSize(s[ParamStepSize])
		c.Stochastic.SetMomentum(s[ParamMomentum])
		c.Stochastic.SetTimeScale(s[ParamTimeScale])
		c.Stochastic.SetOctaves(s.Int(ParamOctaves))
	}
	if changed(ParamCARule) {
		c.Cellular.SetRule(s.Int(ParamCARule))
	}

	e.kind = generator.Kind(s.Int(ParamGenerator))
	e.channel = uint8(s.Int(ParamChannel) - 1)

	_, denom := tr.TimeSignature()
	e.ctx = generator.Context{
		Tick:           e.ctx.Tick,
		Subdivisions:   1,
		TimeSigDenom:   denom,
		SecondsPerTick: tr.SamplesPerStep() / e.cfg.SampleRate,
		Density:        s[ParamDensity],
		PitchMin:       s.Int(ParamPitchMin),
		PitchMax:       s.Int(ParamPitchMax),
	}

	e.shape = shaping.Params{
		SampleRate:         e.cfg.SampleRate,
		StepSamples:        tr.SamplesPerStep(),
		PitchMin:           s.Int(ParamPitchMin),
		PitchMax:           s.Int(ParamPitchMax),
		VelocityMin:        s[ParamVelocityMin],
		VelocityMax:        s[ParamVelocityMax],
		Curve:              shaping.Curve(s.Int(ParamCurve)),
		Swing:              s[ParamSwing],
		TimingMs:           s[ParamTimingMs],
		VelocityHumanize:   s[ParamVelocityHumanize],
		Gate:               s[ParamGate],
		Legato:             s.Bool(ParamLegato),
		GateRandom:         s[ParamGateRandom],
		RatchetCount:       s.Int(ParamRatchetCount),
		RatchetDivision:    s.Int(ParamRatchetDivision),
		RatchetProbability: s[ParamRatchetProbability],
		RatchetDecay:       s[ParamRatchetDecay],
	}

	e.expr = shaping.ExpressionParams{
		Aftertouch: s[ParamAftertouch],
		Pressure:   s[ParamPressure],
		Bend:       s[ParamBend],
		Program:    s.Int(ParamProgram),
		CC:         uint8(s.Int(ParamCC)),
		CCDepth:    s[ParamCCDepth],
		CCRate:     s[ParamCCRate],
		CCShape:    modulation.Waveform(s.Int(ParamCCShape)),
	}

	e.applied = *s
}
