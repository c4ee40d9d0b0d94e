package grid

import (
	"context"
	"sync"
	"time"

	"go-genmidi/debug"
	"go-genmidi/engine"
	"go-genmidi/generator"
	"go-genmidi/midi"
	"go-genmidi/theme"
)

// Engine is what the surface drives
type Engine interface {
	Params() *engine.Params
	State() *engine.State
	Do(fn func(*engine.Core)) error
	Start() error
	Stop() error
	Reset() error
}

// Surface keeps one controller's lights in step with the engine and
// applies its pad presses. Frames are rendered at a fixed rate and only
// when a new state was published; only changed lights are sent.
type Surface struct {
	eng   Engine
	theme *theme.Theme
	fps   int

	mu    sync.Mutex
	ctrl  midi.Controller
	last  *engine.State
	prev  Frame
	next  Frame
	reset bool
}

// NewSurface creates a surface with no controller attached
func NewSurface(eng Engine, th *theme.Theme, fps int) *Surface {
	if fps <= 0 {
		fps = 30
	}
	return &Surface{eng: eng, theme: th, fps: fps}
}

// Attach switches to c. The next frame is sent in full. nil detaches.
func (s *Surface) Attach(c midi.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl = c
	s.reset = true
	s.last = nil
	debug.Log("grid", "attached %v", c != nil)
}

// Controller returns the attached controller, if any
func (s *Surface) Controller() midi.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl
}

// Run renders until ctx is done
func (s *Surface) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				debug.LogEvery(30, "grid", "flush: %v", err)
			}
		}
	}
}

// Flush renders the latest state and sends the changed lights
func (s *Surface) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return nil
	}
	st := s.eng.State()
	if st == s.last && !s.reset {
		return nil
	}
	if s.reset {
		// anything may be lit; force every light to be sent
		for row := range s.prev {
			for col := range s.prev[row] {
				s.prev[row][col] = LED{Color: [3]uint8{1, 1, 1}}
			}
		}
		s.reset = false
	}
	s.last = st
	Render(st, s.theme, &s.next)
	updates := Diff(&s.prev, &s.next)
	s.prev = s.next
	if len(updates) == 0 {
		return nil
	}
	return s.ctrl.SetLEDBatch(updates)
}

// HandlePad applies one press
func (s *Surface) HandlePad(ev midi.PadEvent) {
	st := s.eng.State()
	if st == nil {
		return
	}
	p := s.eng.Params()
	row, col := ev.Row, ev.Col

	switch {
	case row == 8:
		s.handleButton(st, col)
	case col == size-1:
		if row == 0 {
			s.toggle(st)
			return
		}
		if k := generator.Kind(size - 2 - row); k < generator.KindCount {
			p.Set(engine.ParamGenerator, float64(k))
		}
	case row > layerTop:
		// pressing a step makes it the last one
		p.Set(engine.ParamSteps, float64((euclidTop-row)*8+col+1))
	default:
		li := layerTop - row
		if li >= len(st.Layers) {
			return
		}
		l := st.Layers[li]
		step := layerPage(l) + col
		if step >= l.Length {
			return
		}
		on := !l.Pattern[step]
		vel := float64(ev.Velocity) / 127
		pitch := l.Pitch[step]
		err := s.eng.Do(func(c *engine.Core) {
			c.Polyrhythm.SetStep(li, step, on, vel, pitch)
		})
		if err != nil {
			debug.Log("grid", "layer %d step %d: %v", li, step, err)
		}
	}
}

func (s *Surface) handleButton(st *engine.State, col int) {
	p := s.eng.Params()
	nudge := func(id engine.ParamID, by float64) {
		p.Set(id, p.Get(id)+by)
	}
	switch col {
	case btnPlay:
		s.toggle(st)
	case btnReset:
		s.eng.Reset()
	case btnPulsesDown:
		nudge(engine.ParamPulses, -1)
	case btnPulsesUp:
		nudge(engine.ParamPulses, 1)
	case btnRotateDown:
		nudge(engine.ParamRotation, -1)
	case btnRotateUp:
		nudge(engine.ParamRotation, 1)
	case btnTempoDown:
		nudge(engine.ParamTempo, -5)
	case btnTempoUp:
		nudge(engine.ParamTempo, 5)
	}
}

func (s *Surface) toggle(st *engine.State) {
	var err error
	if st.Playing {
		err = s.eng.Stop()
	} else {
		err = s.eng.Start()
	}
	if err != nil {
		debug.Log("grid", "transport: %v", err)
	}
}
