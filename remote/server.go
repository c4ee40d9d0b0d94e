// Package remote exposes the engine over HTTP so other tools can read the
// display state and change parameters while it plays.
package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go-genmidi/engine"
)

// Engine is what the server reads and drives
type Engine interface {
	Params() *engine.Params
	State() *engine.State
	Start() error
	Stop() error
	Continue() error
	Reset() error
	Panic() error
	Capture(ctx context.Context) (*engine.Scene, error)
	Apply(sc *engine.Scene) ([]string, error)
}

// Server is the HTTP control surface
type Server struct {
	eng    Engine
	router *chi.Mux
	logger *slog.Logger
}

// New creates a server. A nil logger discards.
func New(eng Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		eng:    eng,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Get("/state", s.handleState)

	r.Route("/params", func(r chi.Router) {
		r.Get("/", s.handleParams)
		r.Get("/{name}", s.handleParam)
		r.Put("/{name}", s.handleSetParam)
	})

	r.Post("/start", s.transport(Engine.Start))
	r.Post("/stop", s.transport(Engine.Stop))
	r.Post("/continue", s.transport(Engine.Continue))
	r.Post("/reset", s.transport(Engine.Reset))
	r.Post("/panic", s.transport(Engine.Panic))

	r.Route("/scenes", func(r chi.Router) {
		r.Get("/", s.handleScenes)
		r.Post("/{name}", s.handleSaveScene)
		r.Post("/{name}/load", s.handleLoadScene)
		r.Delete("/{name}", s.handleDeleteScene)
	})
}

// ServeHTTP lets the server be mounted or tested directly
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info("shutting down remote")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	s.logger.Info("remote listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)))
	})
}
