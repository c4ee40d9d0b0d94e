package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSceneCaptureApply(t *testing.T) {
	src := newTestEngine(1)
	src.Params().Set(ParamTempo, 97)
	src.Params().Set(ParamCARule, 110)
	src.Do(func(c *Core) {
		c.Polyrhythm.AddLayer()
		c.Polyrhythm.SetLayerLength(2, 5)
		c.Polyrhythm.SetStep(2, 3, true, 0.5, 72)
		c.Markov.Forget()
		c.Markov.Learn([]int{60, 64, 67, 64})
		c.LSystem.SetAxiom("AB")
		c.Euclidean.SetAccents([]float64{1, 0.5})
		c.Modulation.Connect(0, int(ParamSwing), 0.25)
	})

	// capture needs the real-time side running
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				src.Process(nil, nil, testBuffer)
				time.Sleep(time.Millisecond)
			}
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	sc, err := src.Capture(ctx)
	cancel()
	close(stop)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if want, got := 3, len(sc.Layers); want != got {
		t.Fatalf("layers: want %d, got %d", want, got)
	}
	if len(sc.Corpus) != 1 || sc.Axiom != "AB" || len(sc.Accents) != 2 {
		t.Fatalf("captured %+v", sc)
	}

	dst := newTestEngine(2)
	unknown, err := dst.Apply(sc)
	if err != nil || len(unknown) != 0 {
		t.Fatalf("apply: %v %v", unknown, err)
	}
	dst.Process(nil, nil, testBuffer)

	if want, got := 97.0, dst.Params().Get(ParamTempo); want != got {
		t.Fatalf("tempo: want %v, got %v", want, got)
	}
	st := dst.State()
	if want, got := 3, len(st.Layers); want != got {
		t.Fatalf("applied layers: want %d, got %d", want, got)
	}
	if l := st.Layers[2]; l.Length != 5 || !l.Pattern[3] || l.Pitch[3] != 72 {
		t.Fatalf("layer 2: %+v", l)
	}
	if st.CARule != 110 || st.LSystem.Axiom != "AB" {
		t.Fatalf("rule %d axiom %q", st.CARule, st.LSystem.Axiom)
	}
	if len(st.Routes) != 1 || st.Routes[0].Target != "swing" || st.Routes[0].Depth != 0.25 {
		t.Fatalf("routes: %+v", st.Routes)
	}
	dst.Do(func(c *Core) {
		if c.Markov.Chain().States() == 0 {
			t.Error("markov corpus not applied")
		}
		if len(c.Euclidean.Accents()) != 2 {
			t.Error("accents not applied")
		}
	})
	dst.Process(nil, nil, testBuffer)
}

func TestCaptureWithoutDriver(t *testing.T) {
	e := newTestEngine(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := e.Capture(ctx); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("want ErrNotRunning, got %v", err)
	}
}
