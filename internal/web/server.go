// Package web exposes the lookup engine over HTTP. A player integration
// posts track changes; clients follow state over a WebSocket.
package web

import (
	"context"
	"net/http"

	"lyricfinder/internal/logger"
	"lyricfinder/internal/pipeline"
)

// Engine is the part of the pipeline the server drives.
type Engine interface {
	TrackChanged(ctx context.Context, ev pipeline.Event) pipeline.Outcome
	Choose(ctx context.Context, uri string) (pipeline.Outcome, error)
	Reject(key string) (pipeline.Outcome, error)
	Last() pipeline.Outcome
}

// Launcher runs background work that shutdown waits for.
// *shutdown.Handler implements it.
type Launcher interface {
	Context() context.Context
	Go(fn func(ctx context.Context))
}

type Server struct {
	run    Launcher
	engine Engine
	cycles *CycleTracker
	logger *logger.Logger
}

// NewServer creates a server. cycles must be installed as the engine's
// OnState hook. Lookups run under run's context; async ones are started
// with run.Go.
func NewServer(run Launcher, engine Engine, cycles *CycleTracker, log *logger.Logger) *Server {
	return &Server{
		run:    run,
		engine: engine,
		cycles: cycles,
		logger: log.With("web"),
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/track", s.handleTrack)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/cycles", s.handleListCycles)
	mux.HandleFunc("/api/cycles/", s.handleGetCycle)
	mux.HandleFunc("/api/reject", s.handleReject)
	mux.HandleFunc("/api/choose", s.handleChoose)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
