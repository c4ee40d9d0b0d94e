package driver

import (
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// Audio drives the engine from a PortAudio output stream. The callback
// writes silence; the stream is only used as a steady clock.
type Audio struct {
	r      *runner
	stream *portaudio.Stream
}

// NewAudio opens the default output device. clock may be nil.
func NewAudio(p Processor, ring *Ring, sampleRate float64, bufferSize int, clock ClockSource) (*Audio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "portaudio")
	}
	a := &Audio{r: newRunner(p, clock, ring, sampleRate, bufferSize)}
	stream, err := portaudio.OpenDefaultStream(0, 1, sampleRate, bufferSize, a.process)
	if err != nil {
		portaudio.Terminate()
		return nil, errors.Wrap(err, "open stream")
	}
	a.stream = stream
	return a, nil
}

// Start fixes sample 0 at origin and starts the stream
func (a *Audio) Start(origin time.Time) (Timeline, error) {
	a.r.tl.Origin = origin
	if err := a.stream.Start(); err != nil {
		return a.r.tl, errors.Wrap(err, "start stream")
	}
	return a.r.tl, nil
}

// Stop closes the stream and releases PortAudio
func (a *Audio) Stop() error {
	err := a.stream.Close()
	portaudio.Terminate()
	return err
}

func (a *Audio) process(out []float32) {
	for i := range out {
		out[i] = 0
	}
	a.r.step(len(out))
}
