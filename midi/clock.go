package midi

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ClockByte is a realtime status byte stamped with its arrival time
type ClockByte struct {
	At     time.Time
	Status byte
}

// ClockListener collects clock, start, continue and stop bytes from an
// input port. The driver goroutine drains them once per buffer.
type ClockListener struct {
	name    string
	stop    func()
	bytes   chan ClockByte
	pending ClockByte
	held    bool
	dropped atomic.Uint64
	now     func() time.Time
}

// shared one-byte messages, read only
var realtime = [8]gomidi.Message{{0xF8}, {0xF9}, {0xFA}, {0xFB}, {0xFC}, {0xFD}, {0xFE}, {0xFF}}

// clockBacklog holds about ten seconds of clock at 120 bpm
const clockBacklog = 512

// ListenClock opens the named input port for clock bytes
func ListenClock(name string) (*ClockListener, error) {
	in, err := FindIn(name)
	if err != nil {
		return nil, err
	}
	return NewClockListener(in)
}

// NewClockListener listens on in. Timing messages are filtered by the driver
// unless asked for, hence UseTimeCode.
func NewClockListener(in drivers.In) (*ClockListener, error) {
	c := newClockListener(in.String())
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		c.Receive(msg)
	}, gomidi.UseTimeCode())
	if err != nil {
		return nil, errors.Wrapf(err, "listen %q", in.String())
	}
	c.stop = stop
	return c, nil
}

func newClockListener(name string) *ClockListener {
	return &ClockListener{
		name:  name,
		bytes: make(chan ClockByte, clockBacklog),
		now:   time.Now,
	}
}

// Name is the input port name
func (c *ClockListener) Name() string { return c.name }

// Dropped counts bytes lost to a full backlog
func (c *ClockListener) Dropped() uint64 { return c.dropped.Load() }

// Receive stamps msg if it is a transport realtime byte
func (c *ClockListener) Receive(msg gomidi.Message) {
	if len(msg) != 1 {
		return
	}
	switch b := msg[0]; b {
	case 0xF8, 0xFA, 0xFB, 0xFC:
		select {
		case c.bytes <- ClockByte{At: c.now(), Status: b}:
		default:
			c.dropped.Add(1)
		}
	}
}

// Drain appends every byte that arrived before the end of the buffer that
// starts at start and lasts n samples. Offsets are the arrival time relative
// to start, clamped into the buffer, so late bytes land at offset 0.
func (c *ClockListener) Drain(dst []Event, start time.Time, sampleRate float64, n int) []Event {
	if n <= 0 {
		return dst
	}
	end := start.Add(time.Duration(float64(n) / sampleRate * float64(time.Second)))
	for {
		var b ClockByte
		if c.held {
			b, c.held = c.pending, false
		} else {
			select {
			case b = <-c.bytes:
			default:
				return dst
			}
		}
		if !b.At.Before(end) {
			c.pending, c.held = b, true
			return dst
		}
		off := int(b.At.Sub(start).Seconds() * sampleRate)
		off = max(0, min(off, n-1))
		dst = append(dst, Event{Offset: off, Message: realtime[b.Status-0xF8]})
	}
}

// Close stops listening
func (c *ClockListener) Close() error {
	if c.stop != nil {
		c.stop()
	}
	return nil
}
