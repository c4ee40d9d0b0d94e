package grid

import (
	"context"
	"fmt"

	"go-genmidi/debug"
	"go-genmidi/engine"
	"go-genmidi/midi"
)

// Bind routes a device event: a Launchpad becomes the surface's
// controller and its pads drive the engine, a keyboard's note-ons set the
// scale root. It returns a status line.
func Bind(s *Surface, ev midi.DeviceEvent) string {
	var status string
	switch ev.Type {
	case midi.DeviceConnected:
		c := ev.Controller
		switch c.Type() {
		case midi.ControllerLaunchpad:
			s.Attach(c)
			go func() {
				for pad := range c.PadEvents() {
					s.HandlePad(pad)
				}
			}()
		case midi.ControllerKeyboard:
			p := s.eng.Params()
			go func() {
				for n := range c.NoteEvents() {
					if n.Velocity > 0 {
						p.Set(engine.ParamRoot, float64(n.Note%12))
					}
				}
			}()
		}
		status = fmt.Sprintf("connected %s (%s)", ev.ID, c.Type())

	case midi.DeviceDisconnected:
		if c := s.Controller(); c != nil && c.ID() == ev.ID {
			s.Attach(nil)
		}
		status = fmt.Sprintf("disconnected %s", ev.ID)
	}
	debug.Log("grid", "%s", status)
	return status
}

// Pump binds every event from the manager until it closes or ctx is done
func Pump(ctx context.Context, s *Surface, dm *midi.DeviceManager) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-dm.Events():
			if !ok {
				return
			}
			Bind(s, ev)
		}
	}
}
