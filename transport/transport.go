package transport

import "math"

const (
	MinTempo = 20.0
	MaxTempo = 400.0

	DefaultTempo      = 120.0
	DefaultSampleRate = 44100.0

	// StepsPerBeat is the tick resolution: one tick per 16th note
	StepsPerBeat = 4
)

// Tick is one 16th-note subdivision boundary
type Tick struct {
	Index    int64 // ticks since Start/Reset
	Offset   int   // sample offset of the boundary inside the processed span
	Position int64 // transport position of the boundary in samples
	Quarter  bool  // set on the 24th pulse of an external clock
}

// Transport is the sample-accurate musical clock. It is owned by the
// real-time thread; nothing here locks.
type Transport struct {
	tempo      float64
	num, denom int
	sampleRate float64

	playing      bool
	externalSync bool

	position  int64   // samples since Reset (internal clock only)
	nextTick  float64 // sample position of the next 16th boundary
	tickIndex int64

	// external clock
	pulses         int
	sinceLastPulse int64
	pulseSamples   float64 // smoothed samples per pulse, 0 until measured
	havePulse      bool

	onTick func(Tick)
}

// New returns a stopped transport at 120 BPM, 4/4, 44.1kHz
func New() *Transport {
	return &Transport{
		tempo:      DefaultTempo,
		num:        4,
		denom:      4,
		sampleRate: DefaultSampleRate,
	}
}

// OnTick registers the tick handler. It runs synchronously inside Advance
// and ProcessClock.
func (t *Transport) OnTick(fn func(Tick)) {
	t.onTick = fn
}

// SetTempo sets BPM, clamped to [20, 400]. The new tempo applies from the
// next boundary on.
func (t *Transport) SetTempo(bpm float64) {
	if math.IsNaN(bpm) {
		return
	}
	t.tempo = math.Max(MinTempo, math.Min(MaxTempo, bpm))
}

func (t *Transport) Tempo() float64 { return t.tempo }

// SetTimeSignature sets the meter, each part clamped to [1, 32]
func (t *Transport) SetTimeSignature(num, denom int) {
	t.num = clampInt(num, 1, 32)
	t.denom = clampInt(denom, 1, 32)
}

func (t *Transport) TimeSignature() (num, denom int) { return t.num, t.denom }

// SetSampleRate ignores non-positive rates
func (t *Transport) SetSampleRate(sr float64) {
	if sr > 0 {
		t.sampleRate = sr
	}
}

func (t *Transport) SampleRate() float64 { return t.sampleRate }

// Start resets and starts playback
func (t *Transport) Start() {
	t.Reset()
	t.playing = true
}

// Stop halts playback, keeping the position
func (t *Transport) Stop() {
	t.playing = false
}

// Continue resumes playback from the current position
func (t *Transport) Continue() {
	t.playing = true
}

func (t *Transport) Playing() bool { return t.playing }

// Reset zeroes position, tick count and clock pulse counter
func (t *Transport) Reset() {
	t.position = 0
	t.nextTick = 0
	t.tickIndex = 0
	t.pulses = 0
}

// SetExternalSync switches between the internal sample clock and an
// incoming MIDI clock
func (t *Transport) SetExternalSync(on bool) {
	if on == t.externalSync {
		return
	}
	t.externalSync = on
	t.pulses = 0
	t.sinceLastPulse = 0
	t.pulseSamples = 0
	t.havePulse = false
}

func (t *Transport) ExternalSync() bool { return t.externalSync }

// Advance moves the internal clock forward by n samples, firing one tick per
// 16th boundary in [position, position+n). Under external sync it only
// measures elapsed time for tempo estimation.
func (t *Transport) Advance(n int) {
	if n <= 0 {
		return
	}
	if t.externalSync {
		t.sinceLastPulse += int64(n)
		return
	}
	if !t.playing {
		return
	}

	end := t.position + int64(n)
	for {
		boundary := int64(math.Ceil(t.nextTick - 1e-9))
		if boundary >= end {
			break
		}
		if boundary < t.position {
			boundary = t.position
		}
		t.fire(Tick{
			Index:    t.tickIndex,
			Offset:   int(boundary - t.position),
			Position: boundary,
		})
		t.tickIndex++
		t.nextTick += t.SamplesPerStep()
	}
	t.position = end
}

func (t *Transport) fire(tk Tick) {
	if t.onTick != nil {
		t.onTick(tk)
	}
}

// Position returns the transport position in samples
func (t *Transport) Position() int64 { return t.position }

// TickIndex returns the index of the next tick to fire
func (t *Transport) TickIndex() int64 { return t.tickIndex }

// PositionInBeats returns the position in quarter notes
func (t *Transport) PositionInBeats() float64 {
	if t.externalSync {
		return float64(t.tickIndex) / StepsPerBeat
	}
	return float64(t.position) / t.SamplesPerBeat()
}

// PositionInBars returns the position in bars of the current meter
func (t *Transport) PositionInBars() float64 {
	return t.PositionInBeats() / t.beatsPerBar()
}

// SamplesPerBeat returns samples per quarter note at the current tempo
func (t *Transport) SamplesPerBeat() float64 {
	return 60.0 / t.tempo * t.sampleRate
}

// SamplesPerBar returns samples per bar of the current meter
func (t *Transport) SamplesPerBar() float64 {
	return t.SamplesPerBeat() * t.beatsPerBar()
}

// SamplesPerSubdivision returns samples per 1/n note (4 = quarter, 16 = 16th)
func (t *Transport) SamplesPerSubdivision(n int) float64 {
	if n <= 0 {
		n = 1
	}
	return t.SamplesPerBeat() * 4 / float64(n)
}

// SamplesPerStep returns samples per 16th note
func (t *Transport) SamplesPerStep() float64 {
	return t.SamplesPerBeat() / StepsPerBeat
}

// QuantizeToSubdivision rounds the current position to the nearest 1/n note
func (t *Transport) QuantizeToSubdivision(n int) int64 {
	sub := t.SamplesPerSubdivision(n)
	return int64(math.Round(float64(t.position)/sub) * sub)
}

// IsOnSubdivision reports whether the position sits on a 1/n note boundary
func (t *Transport) IsOnSubdivision(n int) bool {
	sub := t.SamplesPerSubdivision(n)
	r := math.Mod(float64(t.position), sub)
	return r < 1 || sub-r < 1
}

// beats of a quarter note in one bar, e.g. 6/8 = 3
func (t *Transport) beatsPerBar() float64 {
	return float64(t.num) * 4 / float64(t.denom)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
