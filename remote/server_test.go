package remote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-genmidi/engine"
)

func newEngine() *engine.Engine {
	e := engine.New(engine.Config{SampleRate: 48000, BufferSize: 256, Seed: 1})
	e.Process(nil, nil, 256)
	return e
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestParams(t *testing.T) {
	e := newEngine()
	s := New(e, nil)

	rec := do(t, s, http.MethodGet, "/params/", "")
	if want, got := http.StatusOK, rec.Code; want != got {
		t.Fatalf("status: want %d, got %d", want, got)
	}
	var all []ParamValue
	if err := json.NewDecoder(rec.Body).Decode(&all); err != nil {
		t.Fatal(err)
	}
	if want, got := int(engine.ParamCount), len(all); want != got {
		t.Fatalf("params: want %d, got %d", want, got)
	}

	rec = do(t, s, http.MethodPut, "/params/tempo", `{"value": 133}`)
	if want, got := http.StatusOK, rec.Code; want != got {
		t.Fatalf("put status: want %d, got %d: %s", want, got, rec.Body)
	}
	if want, got := 133.0, e.Params().Get(engine.ParamTempo); want != got {
		t.Fatalf("tempo: want %v, got %v", want, got)
	}

	do(t, s, http.MethodPut, "/params/scale", `{"text": "lydian"}`)
	rec = do(t, s, http.MethodGet, "/params/scale", "")
	var pv ParamValue
	json.NewDecoder(rec.Body).Decode(&pv)
	if want, got := "lydian", pv.Text; want != got {
		t.Fatalf("scale: want %q, got %q", want, got)
	}

	// out of range values are clamped
	rec = do(t, s, http.MethodPut, "/params/density", `{"value": 7}`)
	json.NewDecoder(rec.Body).Decode(&pv)
	if want, got := 1.0, pv.Value; want != got {
		t.Fatalf("density: want %v, got %v", want, got)
	}
}

func TestParamErrors(t *testing.T) {
	s := New(newEngine(), nil)
	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/params/wobble", "", http.StatusNotFound},
		{http.MethodPut, "/params/wobble", `{"value": 1}`, http.StatusNotFound},
		{http.MethodPut, "/params/tempo", `nope`, http.StatusBadRequest},
		{http.MethodPut, "/params/tempo", `{}`, http.StatusBadRequest},
		{http.MethodPut, "/params/scale", `{"text": "klingon"}`, http.StatusBadRequest},
		{http.MethodPost, "/scenes/missing/load", "", http.StatusNotFound},
	}
	t.Setenv("GENMIDI_HOME", t.TempDir())
	for _, tt := range tests {
		if got := do(t, s, tt.method, tt.path, tt.body).Code; got != tt.want {
			t.Errorf("%s %s: want %d, got %d", tt.method, tt.path, tt.want, got)
		}
	}
}

func TestTransportAndState(t *testing.T) {
	e := newEngine()
	s := New(e, nil)

	if want, got := http.StatusNoContent, do(t, s, http.MethodPost, "/start", "").Code; want != got {
		t.Fatalf("start: want %d, got %d", want, got)
	}
	e.Process(nil, nil, 256)

	rec := do(t, s, http.MethodGet, "/state", "")
	var st engine.State
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if !st.Playing {
		t.Fatal("state does not show playing")
	}
	if want, got := "application/json", rec.Header().Get("Content-Type"); want != got {
		t.Fatalf("content type: want %q, got %q", want, got)
	}
}

func TestScenes(t *testing.T) {
	t.Setenv("GENMIDI_HOME", t.TempDir())
	e := newEngine()
	s := New(e, nil)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				e.Process(nil, nil, 256)
				time.Sleep(time.Millisecond)
			}
		}
	}()
	defer func() {
		close(stop)
		<-done
	}()

	e.Params().Set(engine.ParamTempo, 88)
	if want, got := http.StatusCreated, do(t, s, http.MethodPost, "/scenes/verse", "").Code; want != got {
		t.Fatalf("save: want %d, got %d", want, got)
	}

	var names []string
	json.NewDecoder(do(t, s, http.MethodGet, "/scenes/", "").Body).Decode(&names)
	if len(names) != 1 || names[0] != "verse" {
		t.Fatalf("scenes: %v", names)
	}

	e.Params().Set(engine.ParamTempo, 140)
	if want, got := http.StatusOK, do(t, s, http.MethodPost, "/scenes/verse/load", "").Code; want != got {
		t.Fatalf("load: want %d, got %d", want, got)
	}
	if want, got := 88.0, e.Params().Get(engine.ParamTempo); want != got {
		t.Fatalf("tempo: want %v, got %v", want, got)
	}

	if want, got := http.StatusNoContent, do(t, s, http.MethodDelete, "/scenes/verse", "").Code; want != got {
		t.Fatalf("delete: want %d, got %d", want, got)
	}
	if want, got := http.StatusNotFound, do(t, s, http.MethodDelete, "/scenes/verse", "").Code; want != got {
		t.Fatalf("second delete: want %d, got %d", want, got)
	}
}
