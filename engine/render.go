package engine

import (
	"io"
	"math"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-genmidi/midi"
)

// TicksPerQuarter is the resolution of written MIDI files
const TicksPerQuarter = 960

// Recorded is an output message at an absolute engine sample
type Recorded struct {
	Sample  int64
	Message gomidi.Message
}

// Render starts the engine and runs it offline for the given number of
// bars in buffers of bufferSize samples, then stops it and collects the
// released notes. It must not run while a driver is calling Process.
func (e *Engine) Render(bars float64, bufferSize int) ([]Recorded, error) {
	if bufferSize <= 0 {
		bufferSize = e.cfg.BufferSize
	}
	if err := e.Start(); err != nil {
		return nil, err
	}

	p := e.params
	spb := 60 / p.Get(ParamTempo) * e.cfg.SampleRate * p.Get(ParamNumerator) * 4 / p.Get(ParamDenominator)
	total := int64(math.Ceil(bars * spb))

	var rec []Recorded
	out := make([]midi.Event, 0, e.cfg.QueueCapacity)
	collect := func(n int) {
		base := e.now
		out = e.Process(nil, out[:0], n)
		for _, ev := range out {
			rec = append(rec, Recorded{Sample: base + int64(ev.Offset), Message: ev.Message})
		}
	}

	for done := int64(0); done < total; done += int64(bufferSize) {
		collect(int(min(int64(bufferSize), total-done)))
	}
	if err := e.Stop(); err != nil {
		return rec, err
	}
	collect(1)
	return rec, nil
}

// SMF converts recorded messages to a type 1 MIDI file: a tempo track and
// one note track. Samples are converted at the given sample rate and tempo,
// relative to the first message.
func SMF(rec []Recorded, sampleRate, bpm float64, num, denom uint8) (*smf.SMF, error) {
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var meta smf.Track
	meta.Add(0, smf.MetaMeter(num, denom))
	meta.Add(0, smf.MetaTempo(bpm))
	meta.Close(0)
	if err := sm.Add(meta); err != nil {
		return nil, errors.Wrap(err, "adding tempo track")
	}

	ticksPerSample := bpm / 60 * TicksPerQuarter / sampleRate
	var notes smf.Track
	var last uint32
	var origin int64
	if len(rec) > 0 {
		origin = rec[0].Sample
	}
	for _, r := range rec {
		at := uint32(math.Round(float64(r.Sample-origin) * ticksPerSample))
		notes.Add(at-last, r.Message)
		last = at
	}
	notes.Close(0)
	if err := sm.Add(notes); err != nil {
		return nil, errors.Wrap(err, "adding note track")
	}
	return sm, nil
}

// WriteSMF writes recorded messages as a MIDI file to w
func (e *Engine) WriteSMF(w io.Writer, rec []Recorded) error {
	p := e.params
	sm, err := SMF(rec, e.cfg.SampleRate, p.Get(ParamTempo), uint8(p.Get(ParamNumerator)), uint8(p.Get(ParamDenominator)))
	if err != nil {
		return err
	}
	if _, err := sm.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing midi file")
	}
	return nil
}
