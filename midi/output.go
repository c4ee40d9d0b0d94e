package midi

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register driver
)

var ErrPortNotFound = errors.New("midi port not found")

// SendFunc writes one message to a port
type SendFunc func(msg gomidi.Message) error

// OutPortNames lists the output ports
func OutPortNames() []string {
	var names []string
	for _, p := range gomidi.GetOutPorts() {
		names = append(names, p.String())
	}
	return names
}

// InPortNames lists the input ports
func InPortNames() []string {
	var names []string
	for _, p := range gomidi.GetInPorts() {
		names = append(names, p.String())
	}
	return names
}

// MatchPort returns the index of the port called want. An exact name wins,
// then the first case-insensitive substring match. Returns -1 if nothing
// matches.
func MatchPort(names []string, want string) int {
	want = strings.TrimSpace(want)
	if want == "" {
		return -1
	}
	for i, n := range names {
		if n == want {
			return i
		}
	}
	lw := strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), lw) {
			return i
		}
	}
	return -1
}

// FindOut looks up an output port by name
func FindOut(name string) (drivers.Out, error) {
	ports := gomidi.GetOutPorts()
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	i := MatchPort(names, name)
	if i < 0 {
		return nil, errors.Wrapf(ErrPortNotFound, "output %q", name)
	}
	return ports[i], nil
}

// FindIn looks up an input port by name
func FindIn(name string) (drivers.In, error) {
	ports := gomidi.GetInPorts()
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	i := MatchPort(names, name)
	if i < 0 {
		return nil, errors.Wrapf(ErrPortNotFound, "input %q", name)
	}
	return ports[i], nil
}

// Senders caches one open sender per output port name
type Senders struct {
	mu   sync.RWMutex
	send map[string]SendFunc
}

// NewSenders creates an empty cache
func NewSenders() *Senders {
	return &Senders{send: make(map[string]SendFunc)}
}

// Get returns the sender for the named port, opening it on first use
func (s *Senders) Get(name string) (SendFunc, error) {
	s.mu.RLock()
	send, ok := s.send[name]
	s.mu.RUnlock()
	if ok {
		return send, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if send, ok := s.send[name]; ok {
		return send, nil
	}
	out, err := FindOut(name)
	if err != nil {
		return nil, err
	}
	fn, err := gomidi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "open output %q", name)
	}
	s.send[name] = fn
	return fn, nil
}

// Forget drops a cached sender so the next Get reopens the port
func (s *Senders) Forget(name string) {
	s.mu.Lock()
	delete(s.send, name)
	s.mu.Unlock()
}

// CloseDriver releases the MIDI driver. Call once at exit.
func CloseDriver() {
	gomidi.CloseDriver()
}
