package transport

// MIDI realtime status bytes
const (
	StatusClock    byte = 0xF8
	StatusStart    byte = 0xFA
	StatusContinue byte = 0xFB
	StatusStop     byte = 0xFC
)

// PulsesPerQuarter is the MIDI clock resolution (24 ppqn)
const PulsesPerQuarter = 24

const pulsesPerStep = PulsesPerQuarter / StepsPerBeat

// ProcessClock handles one realtime byte from an external clock at the given
// sample offset within the current buffer. Every 6th pulse fires a 16th tick;
// the 24th pulse also marks the quarter and wraps the counter. Unknown bytes
// are ignored. Has no effect unless external sync is on.
func (t *Transport) ProcessClock(status byte, offset int) {
	if !t.externalSync {
		return
	}
	switch status {
	case StatusStart:
		t.Reset()
		t.playing = true
	case StatusContinue:
		t.pulses = 0
		t.playing = true
	case StatusStop:
		t.playing = false
	case StatusClock:
		t.measurePulse(offset)
		if !t.playing {
			return
		}
		t.pulses++
		quarter := t.pulses >= PulsesPerQuarter
		if quarter || t.pulses%pulsesPerStep == 0 {
			t.fire(Tick{
				Index:    t.tickIndex,
				Offset:   offset,
				Position: int64(float64(t.tickIndex) * t.SamplesPerStep()),
				Quarter:  quarter,
			})
			t.tickIndex++
		}
		if quarter {
			t.pulses = 0
		}
	}
}

// measurePulse smooths the interval between pulses and derives the tempo.
// sinceLastPulse counts samples of whole buffers passed to Advance; offset
// corrects for where in the buffer this pulse landed.
func (t *Transport) measurePulse(offset int) {
	elapsed := t.sinceLastPulse + int64(offset)
	t.sinceLastPulse = -int64(offset)
	if !t.havePulse {
		t.havePulse = true
		return
	}
	if elapsed <= 0 {
		return
	}
	if t.pulseSamples == 0 {
		t.pulseSamples = float64(elapsed)
	} else {
		t.pulseSamples += (float64(elapsed) - t.pulseSamples) * 0.1
	}
	bpm := 60.0 * t.sampleRate / (t.pulseSamples * PulsesPerQuarter)
	t.SetTempo(bpm)
}

// PulseCount returns the external clock pulse counter (0-23)
func (t *Transport) PulseCount() int { return t.pulses }
