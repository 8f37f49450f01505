// Package server is the loopback HTTP API the device UI consumes. It is the
// only write path into the session lifecycle controller.
package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftlog/internal/events"
	"github.com/claude/liftlog/internal/session"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	ctrl   *session.Controller
	cache  *session.Cache
	bus    *events.Bus
	log    *slog.Logger
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(ctrl *session.Controller, cache *session.Cache, bus *events.Bus, log *slog.Logger) *Server {
	s := &Server{
		ctrl:   ctrl,
		cache:  cache,
		bus:    bus,
		log:    log,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1/session", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Post("/start", s.handleStart)
		r.Post("/sets", s.handleRecordSet)
		r.Post("/cancel", s.handleCancel)
		r.Post("/complete", s.handleComplete)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/cancel-confirmed", s.handleCancelConfirmed)
	})
}
