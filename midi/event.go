package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Scheduling priorities: at equal sample time, higher goes first
const (
	PriorityNoteOn  = 10
	PriorityControl = 7
	PriorityNoteOff = 5
)

// Event is a MIDI message positioned inside a processing buffer
type Event struct {
	Offset  int // sample offset from buffer start, 0 <= Offset < bufferSize
	Message gomidi.Message
}

// PriorityOf returns the default scheduling priority for a message
func PriorityOf(msg gomidi.Message) int {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		if vel == 0 {
			return PriorityNoteOff
		}
		return PriorityNoteOn
	case msg.GetNoteOff(&ch, &key, &vel):
		return PriorityNoteOff
	default:
		return PriorityControl
	}
}

// IsRealtime reports whether b is a system realtime status byte (clock,
// start, continue, stop, ...)
func IsRealtime(b byte) bool {
	return b >= 0xF8
}

// Clamp7 clamps v into the 7-bit data range
func Clamp7(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

// Velocity converts a normalized velocity (0-1) to 1-127. Zero would be a
// note-off, so the floor is 1.
func Velocity(v float64) uint8 {
	n := int(v*127 + 0.5)
	if n < 1 {
		return 1
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}

// Bend converts -1..1 to the signed 14-bit pitch bend value gomidi expects
func Bend(v float64) int16 {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	if v < 0 {
		return int16(v * 8192)
	}
	return int16(v * 8191)
}
