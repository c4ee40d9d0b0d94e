package midi

// ControllerType identifies the kind of control surface
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
	ControllerKeyboard
)

func (t ControllerType) String() string {
	switch t {
	case ControllerLaunchpad:
		return "launchpad"
	case ControllerKeyboard:
		return "keyboard"
	}
	return "unknown"
}

// PadEvent is a pad or button press on a grid surface. Row 0 is the bottom
// row, row 8 the top button row, column 8 the scene column.
type PadEvent struct {
	Row, Col int
	Velocity uint8
}

// NoteEvent is a key played on a keyboard. Velocity 0 is a release.
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// LEDUpdate sets one grid light
type LEDUpdate struct {
	Row, Col int
	Color    [3]uint8
	Channel  uint8 // ChannelStatic, ChannelFlash or ChannelPulse
}

// Controller is a connected control surface
type Controller interface {
	ID() string
	Type() ControllerType

	PadEvents() <-chan PadEvent   // grid surfaces
	NoteEvents() <-chan NoteEvent // keyboards

	// SetLEDBatch is a no-op on surfaces without lights
	SetLEDBatch(updates []LEDUpdate) error

	Close() error
}

// LED channel modes
const (
	ChannelStatic uint8 = 0
	ChannelFlash  uint8 = 1
	ChannelPulse  uint8 = 2
)

// GridSize is the number of rows and columns including the button row and
// scene column
const GridSize = 9
