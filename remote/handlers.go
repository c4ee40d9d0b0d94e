package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"go-genmidi/config"
	"go-genmidi/engine"
)

const (
	maxBody        = 4 << 10
	captureTimeout = 2 * time.Second
)

// ParamValue is one parameter as read and written over the wire. Text is
// the formatted value; Value is the raw number.
type ParamValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

type setRequest struct {
	Value *float64 `json:"value,omitempty"`
	Text  string   `json:"text,omitempty"`
}

func paramValue(id engine.ParamID, v float64) ParamValue {
	info := engine.Info(id)
	return ParamValue{Name: info.Name, Value: v, Text: info.Format(v)}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.eng.State()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "no state yet")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	p := s.eng.Params()
	out := make([]ParamValue, 0, engine.ParamCount)
	for id := engine.ParamID(0); id < engine.ParamCount; id++ {
		out = append(out, paramValue(id, p.Get(id)))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleParam(w http.ResponseWriter, r *http.Request) {
	id, ok := engine.Lookup(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown parameter")
		return
	}
	writeJSON(w, http.StatusOK, paramValue(id, s.eng.Params().Get(id)))
}

// handleSetParam takes {"value": 1.5} or {"text": "dorian"}
func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id, ok := engine.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown parameter")
		return
	}
	var req setRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	p := s.eng.Params()
	var v float64
	switch {
	case req.Value != nil:
		v = p.Set(id, *req.Value)
	case req.Text != "":
		var err error
		if v, err = p.SetNamed(name, req.Text); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "value or text required")
		return
	}
	s.logger.Info("param set", slog.String("name", engine.Info(id).Name), slog.Float64("value", v))
	writeJSON(w, http.StatusOK, paramValue(id, v))
}

func (s *Server) transport(fn func(Engine) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(s.eng); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	names, err := config.Scenes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleSaveScene(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx, cancel := context.WithTimeout(r.Context(), captureTimeout)
	defer cancel()
	sc, err := s.eng.Capture(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err := config.SaveScene(name, sc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("scene saved", slog.String("name", name))
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLoadScene(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var sc engine.Scene
	if err := config.LoadScene(name, &sc); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, config.ErrNoScene) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	unknown, err := s.eng.Apply(&sc)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if unknown == nil {
		unknown = []string{}
	}
	s.logger.Info("scene loaded", slog.String("name", name), slog.Int("ignored", len(unknown)))
	writeJSON(w, http.StatusOK, map[string]any{"ignored": unknown})
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	if err := config.DeleteScene(chi.URLParam(r, "name")); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, config.ErrNoScene) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
