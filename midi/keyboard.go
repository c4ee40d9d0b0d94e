package midi

import (
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Keyboard is an input-only note source. Presses and releases are both
// forwarded; releases carry velocity 0.
type Keyboard struct {
	id   string
	stop func()

	pads  chan PadEvent
	notes chan NoteEvent
}

// NewKeyboard starts listening on in
func NewKeyboard(id string, in drivers.In) (*Keyboard, error) {
	kb := &Keyboard{
		id:    id,
		pads:  make(chan PadEvent, 1),
		notes: make(chan NoteEvent, 64),
	}
	if in != nil {
		stop, err := gomidi.ListenTo(in, kb.receive)
		if err != nil {
			return nil, errors.Wrap(err, "open input")
		}
		kb.stop = stop
	}
	return kb, nil
}

func (kb *Keyboard) receive(msg gomidi.Message, _ int32) {
	ev, ok := noteEvent(msg)
	if !ok {
		return
	}
	select {
	case kb.notes <- ev:
	default:
	}
}

func noteEvent(msg gomidi.Message) (NoteEvent, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
	case msg.GetNoteOff(&ch, &key, &vel):
		vel = 0
	default:
		return NoteEvent{}, false
	}
	return NoteEvent{Note: key, Velocity: vel, Channel: ch}, true
}

func (kb *Keyboard) ID() string { return kb.id }
func (kb *Keyboard) Type() ControllerType { return ControllerKeyboard }
func (kb *Keyboard) PadEvents() <-chan PadEvent { return kb.pads }
func (kb *Keyboard) NoteEvents() <-chan NoteEvent { return kb.notes }
func (kb *Keyboard) SetLEDBatch(updates []LEDUpdate) error { return nil }

func (kb *Keyboard) Close() error {
	if kb.stop != nil {
		kb.stop()
	}
	close(kb.pads)
	close(kb.notes)
	return nil
}
