package midi

import (
	"sync/atomic"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-genmidi/debug"
)

// Launchpad X SysEx header: F0 00 20 29 02 0C ...
var lpHeader = []byte{0x00, 0x20, 0x29, 0x02, 0x0C}

func lpSysEx(body ...byte) gomidi.Message {
	return gomidi.SysEx(append(append([]byte(nil), lpHeader...), body...))
}

// Launchpad drives a Novation Launchpad X in programmer mode
type Launchpad struct {
	id   string
	send func(msg gomidi.Message) error
	stop func()
	sent atomic.Uint64

	pads  chan PadEvent
	notes chan NoteEvent
}

// NewLaunchpad switches the device to programmer mode and starts listening
// for pad presses. Either port may be nil.
func NewLaunchpad(id string, in drivers.In, out drivers.Out) (*Launchpad, error) {
	lp := &Launchpad{
		id:    id,
		pads:  make(chan PadEvent, 32),
		notes: make(chan NoteEvent, 1),
	}

	if out != nil {
		send, err := gomidi.SendTo(out)
		if err != nil {
			return nil, errors.Wrap(err, "open output")
		}
		lp.send = send
		for _, msg := range []gomidi.Message{
			lpSysEx(0x00, 0x7F),       // programmer mode
			lpSysEx(0x08, 0x7F),       // full brightness
			lpSysEx(0x0A, 0x01, 0x01), // external LED feedback
		} {
			if err := send(msg); err != nil {
				return nil, errors.Wrap(err, "programmer mode")
			}
		}
	}

	if in != nil {
		stop, err := gomidi.ListenTo(in, lp.receive)
		if err != nil {
			return nil, errors.Wrap(err, "open input")
		}
		lp.stop = stop
	}
	return lp, nil
}

func (lp *Launchpad) receive(msg gomidi.Message, _ int32) {
	var ch, key, vel uint8
	row, col := -1, -1
	switch {
	case msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
		row, col = noteToRowCol(key)
	case msg.GetControlChange(&ch, &key, &vel) && vel > 0:
		row, col = ccToRowCol(key)
	}
	if row < 0 {
		return
	}
	select {
	case lp.pads <- PadEvent{Row: row, Col: col, Velocity: vel}:
	default:
	}
}

func (lp *Launchpad) ID() string { return lp.id }
func (lp *Launchpad) Type() ControllerType { return ControllerLaunchpad }
func (lp *Launchpad) PadEvents() <-chan PadEvent { return lp.pads }
func (lp *Launchpad) NoteEvents() <-chan NoteEvent { return lp.notes }
func (lp *Launchpad) Sent() uint64 { return lp.sent.Load() }

// SetLEDBatch sends one note-on per light. The caller diffs frames, so
// only changed lights arrive here.
func (lp *Launchpad) SetLEDBatch(updates []LEDUpdate) error {
	if lp.send == nil || len(updates) == 0 {
		return nil
	}
	for _, u := range updates {
		if err := lp.send(gomidi.NoteOn(u.Channel, rowColToNote(u.Row, u.Col), PaletteIndex(u.Color))); err != nil {
			return errors.Wrapf(err, "led %d,%d", u.Row, u.Col)
		}
	}
	n := lp.sent.Add(uint64(len(updates)))
	if n%500 < uint64(len(updates)) {
		debug.Log("launchpad", "%s: %d led updates sent", lp.id, n)
	}
	return nil
}

// Close darkens every light and stops listening
func (lp *Launchpad) Close() error {
	var err error
	if lp.send != nil {
		var dark []LEDUpdate
		for row := 0; row < GridSize; row++ {
			for col := 0; col < GridSize; col++ {
				if row == 8 && col == 8 {
					continue // logo
				}
				dark = append(dark, LEDUpdate{Row: row, Col: col})
			}
		}
		err = lp.SetLEDBatch(dark)
	}
	if lp.stop != nil {
		lp.stop()
	}
	close(lp.pads)
	close(lp.notes)
	return err
}

// Launchpad X palette entries: velocity, then approximate RGB
var lpPalette = [][4]uint8{
	{0, 0, 0, 0},
	{3, 180, 180, 180},
	{5, 255, 0, 0},
	{6, 255, 80, 80},
	{7, 180, 60, 60},
	{9, 255, 100, 0},
	{11, 180, 80, 40},
	{13, 255, 200, 0},
	{17, 0, 180, 0},
	{19, 0, 100, 0},
	{21, 0, 255, 0},
	{37, 0, 200, 200},
	{43, 40, 60, 120},
	{45, 0, 100, 255},
	{47, 80, 150, 255},
	{49, 150, 0, 200},
	{53, 255, 80, 180},
	{78, 100, 100, 255},
	{84, 255, 150, 50},
	{87, 150, 255, 100},
	{97, 180, 180, 60},
	{119, 255, 255, 255},
}

// PaletteIndex returns the Launchpad palette velocity nearest to rgb
func PaletteIndex(rgb [3]uint8) uint8 {
	best, bestDist := uint8(0), 1<<30
	r, g, b := int(rgb[0]), int(rgb[1]), int(rgb[2])
	for _, p := range lpPalette {
		dr, dg, db := r-int(p[1]), g-int(p[2]), b-int(p[3])
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			best, bestDist = p[0], d
		}
	}
	return best
}

// Programmer mode layout:
// grid rows 0-7 are notes 11-18 .. 81-88, the scene column is x9,
// the top row is CC 91-98 in and notes 91-98 out.

func rowColToNote(row, col int) uint8 {
	if row == 8 {
		return uint8(91 + col)
	}
	return uint8((row+1)*10 + col + 1)
}

func noteToRowCol(note uint8) (row, col int) {
	if note >= 91 && note <= 98 {
		return 8, int(note - 91)
	}
	row = int(note/10) - 1
	col = int(note%10) - 1
	if row < 0 || row > 7 || col < 0 || col > 8 {
		return -1, -1
	}
	return row, col
}

func ccToRowCol(cc uint8) (row, col int) {
	if cc >= 91 && cc <= 98 {
		return 8, int(cc - 91)
	}
	return -1, -1
}
