package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-genmidi/debug"
)

// DeviceEvent is emitted when a controller connects or disconnects
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceManager polls the MIDI ports and keeps one controller per
// Launchpad or keyboard input
type DeviceManager struct {
	mu          sync.RWMutex
	controllers map[string]Controller
	ignore      []string
	keyboards   bool
	events      chan DeviceEvent
	pollRate    time.Duration
}

// NewDeviceManager creates a manager. Inputs whose names contain one of
// ignore (the clock input, loopback ports) are never claimed. Keyboards are
// only opened when keyboards is set.
func NewDeviceManager(keyboards bool, ignore ...string) *DeviceManager {
	var lower []string
	for _, s := range ignore {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lower = append(lower, s)
		}
	}
	return &DeviceManager{
		controllers: make(map[string]Controller),
		ignore:      lower,
		keyboards:   keyboards,
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
	}
}

// Events returns connect and disconnect events. It is closed when Run
// returns.
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a copy of the connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// Run polls until ctx is done
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

type portList struct {
	in  []drivers.In
	out []drivers.Out
}

func (dm *DeviceManager) scan(ctx context.Context) {
	// CoreMIDI can hang while enumerating
	ch := make(chan portList, 1)
	go func() {
		ch <- portList{in: gomidi.GetInPorts(), out: gomidi.GetOutPorts()}
	}()
	var ports portList
	select {
	case ports = <-ch:
	case <-time.After(3 * time.Second):
		debug.Log("devices", "port scan timed out")
		return
	case <-ctx.Done():
		return
	}

	seen := make(map[string]bool)
	for _, in := range ports.in {
		id := in.String()
		kind := classify(id, dm.ignore)
		if kind == ControllerUnknown || (kind == ControllerKeyboard && !dm.keyboards) {
			continue
		}
		seen[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := dm.open(kind, id, in, ports.out)
		if err != nil {
			debug.Log("devices", "open %s: %v", id, err)
			continue
		}
		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()
		debug.Log("devices", "connected %s %q", kind, id)
		dm.emit(ctx, DeviceEvent{Type: DeviceConnected, Controller: c, ID: id})
	}

	dm.mu.Lock()
	var gone []string
	for id, c := range dm.controllers {
		if !seen[id] {
			c.Close()
			delete(dm.controllers, id)
			gone = append(gone, id)
		}
	}
	dm.mu.Unlock()
	for _, id := range gone {
		debug.Log("devices", "disconnected %q", id)
		dm.emit(ctx, DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
}

func (dm *DeviceManager) emit(ctx context.Context, ev DeviceEvent) {
	select {
	case dm.events <- ev:
	case <-ctx.Done():
	}
}

func (dm *DeviceManager) open(kind ControllerType, id string, in drivers.In, outs []drivers.Out) (Controller, error) {
	if kind == ControllerKeyboard {
		return NewKeyboard(id, in)
	}
	var out drivers.Out
	for _, o := range outs {
		if strings.EqualFold(o.String(), id) {
			out = o
			break
		}
	}
	return NewLaunchpad(id, in, out)
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

// classify decides what an input port is from its name. Launchpads expose
// a DAW port and a MIDI port; only the MIDI one is the programmer surface.
func classify(name string, ignore []string) ControllerType {
	lower := strings.ToLower(name)
	for _, s := range ignore {
		if strings.Contains(lower, s) {
			return ControllerUnknown
		}
	}
	switch {
	case strings.Contains(lower, "launchpad"):
		if strings.Contains(lower, "midi") {
			return ControllerLaunchpad
		}
		return ControllerUnknown
	case strings.Contains(lower, "through"), strings.Contains(lower, "thru"):
		return ControllerUnknown
	}
	return ControllerKeyboard
}
