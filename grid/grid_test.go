package grid

import (
	"strings"
	"testing"
	"time"

	"go-genmidi/engine"
	"go-genmidi/generator"
	"go-genmidi/midi"
	"go-genmidi/theme"
)

type fakeController struct {
	batches [][]midi.LEDUpdate
	pads    chan midi.PadEvent
}

func (f *fakeController) ID() string { return "fake" }
func (f *fakeController) Type() midi.ControllerType { return midi.ControllerLaunchpad }
func (f *fakeController) PadEvents() <-chan midi.PadEvent { return f.pads }
func (f *fakeController) NoteEvents() <-chan midi.NoteEvent { return nil }
func (f *fakeController) Close() error { return nil }
func (f *fakeController) SetLEDBatch(u []midi.LEDUpdate) error {
	f.batches = append(f.batches, append([]midi.LEDUpdate(nil), u...))
	return nil
}

func newEngine() *engine.Engine {
	e := engine.New(engine.Config{SampleRate: 48000, BufferSize: 256, Seed: 1})
	e.Process(nil, nil, 256)
	return e
}

func TestDiff(t *testing.T) {
	var a, b Frame
	if got := Diff(&a, &b); len(got) != 0 {
		t.Fatalf("equal frames: %v", got)
	}
	b[2][3] = LED{Color: [3]uint8{1, 2, 3}}
	b[8][0] = LED{Channel: midi.ChannelPulse}
	got := Diff(&a, &b)
	if want := 2; len(got) != want {
		t.Fatalf("updates: want %d, got %d", want, len(got))
	}
	if got[0].Row != 2 || got[0].Col != 3 || got[0].Color != [3]uint8{1, 2, 3} {
		t.Fatalf("first update: %+v", got[0])
	}
	// turning a light off is an update too
	if got := Diff(&b, &a); len(got) != 2 || got[0].Color != [3]uint8{} {
		t.Fatalf("clear: %+v", got)
	}
}

func TestRenderEuclid(t *testing.T) {
	e := newEngine()
	var f Frame
	Render(e.State(), theme.New(nil), &f)

	// 4 in 16: onsets at 0, 4, 8, 12 on the top two rows
	for i := 0; i < 32; i++ {
		led := f[euclidTop-i/8][i%8]
		switch {
		case i >= 16:
			if led != (LED{}) {
				t.Errorf("step %d beyond length is lit", i)
			}
		case i%4 == 0:
			if led.Color == dim || led == (LED{}) {
				t.Errorf("onset %d not lit", i)
			}
		default:
			if led.Color != dim {
				t.Errorf("rest %d: %v", i, led.Color)
			}
		}
	}
	// euclidean is selected
	if f[7][8].Color != theme.New(nil).RGB(theme.RoleSuccess) {
		t.Errorf("generator light: %v", f[7][8])
	}
	if f[0][8].Color != stopped {
		t.Errorf("play light: %v", f[0][8])
	}
}

func TestSurfaceFlushSendsChanges(t *testing.T) {
	e := newEngine()
	s := NewSurface(e, theme.New(nil), 30)
	fc := &fakeController{}
	s.Attach(fc)

	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if want, got := 1, len(fc.batches); want != got {
		t.Fatalf("batches: want %d, got %d", want, got)
	}
	if want, got := size*size, len(fc.batches[0]); want != got {
		t.Fatalf("first frame: want %d updates, got %d", want, got)
	}

	// same state, nothing sent
	s.Flush()
	if want, got := 1, len(fc.batches); want != got {
		t.Fatalf("unchanged state sent a batch")
	}

	e.Params().Set(engine.ParamPulses, 8)
	// long enough for the next periodic publish
	for i := 0; i < 8; i++ {
		e.Process(nil, nil, 256)
	}
	s.Flush()
	if want, got := 2, len(fc.batches); want != got {
		t.Fatalf("batches after edit: want %d, got %d", want, got)
	}
	if n := len(fc.batches[1]); n == 0 || n > 16 {
		t.Fatalf("edit batch: %d updates", n)
	}
}

func TestHandlePad(t *testing.T) {
	e := newEngine()
	s := NewSurface(e, theme.New(nil), 30)
	p := e.Params()

	s.HandlePad(midi.PadEvent{Row: 8, Col: btnPulsesUp, Velocity: 127})
	if want, got := 5.0, p.Get(engine.ParamPulses); want != got {
		t.Fatalf("pulses: want %v, got %v", want, got)
	}
	s.HandlePad(midi.PadEvent{Row: 8, Col: btnTempoDown, Velocity: 127})
	if want, got := 115.0, p.Get(engine.ParamTempo); want != got {
		t.Fatalf("tempo: want %v, got %v", want, got)
	}

	// third row from the top, fourth pad: step 19 becomes the last
	s.HandlePad(midi.PadEvent{Row: 5, Col: 3, Velocity: 127})
	if want, got := 20.0, p.Get(engine.ParamSteps); want != got {
		t.Fatalf("steps: want %v, got %v", want, got)
	}

	s.HandlePad(midi.PadEvent{Row: 4, Col: 8, Velocity: 127})
	if want, got := float64(generator.KindLSystem), p.Get(engine.ParamGenerator); want != got {
		t.Fatalf("generator: want %v, got %v", want, got)
	}

	// layer 0 step 1 is a rest by default
	s.HandlePad(midi.PadEvent{Row: layerTop, Col: 1, Velocity: 127})
	e.Process(nil, nil, 256)
	if l := e.State().Layers[0]; !l.Pattern[1] || l.Velocity[1] != 1 {
		t.Fatalf("layer step not toggled: %v %v", l.Pattern[1], l.Velocity[1])
	}

	s.HandlePad(midi.PadEvent{Row: 0, Col: 8, Velocity: 127})
	e.Process(nil, nil, 256)
	if !e.State().Playing {
		t.Fatal("play light did not start the engine")
	}
}

func TestBind(t *testing.T) {
	e := newEngine()
	s := NewSurface(e, theme.New(nil), 30)
	fc := &fakeController{pads: make(chan midi.PadEvent, 1)}

	status := Bind(s, midi.DeviceEvent{Type: midi.DeviceConnected, ID: "fake", Controller: fc})
	if !strings.Contains(status, "connected fake") {
		t.Fatalf("status: %q", status)
	}
	if s.Controller() != midi.Controller(fc) {
		t.Fatal("launchpad not attached")
	}

	fc.pads <- midi.PadEvent{Row: 8, Col: btnPulsesUp, Velocity: 127}
	close(fc.pads)
	deadline := time.Now().Add(time.Second)
	for e.Params().Get(engine.ParamPulses) != 5 {
		if time.Now().After(deadline) {
			t.Fatal("pad press not applied")
		}
		time.Sleep(time.Millisecond)
	}

	Bind(s, midi.DeviceEvent{Type: midi.DeviceDisconnected, ID: "fake"})
	if s.Controller() != nil {
		t.Fatal("still attached after disconnect")
	}
}
