package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Server struct{ mux *chi.Mux }

const defaultHandlerTimeout = 15 * time.Second

func New() *Server { return NewWithTimeout(defaultHandlerTimeout) }

// NewWithTimeout builds the router with a per-request handler deadline.
func NewWithTimeout(d time.Duration) *Server {
	m := chi.NewRouter()

	// All middlewares go here (before any routes are added).
	// Metrics and Logger sit outside Recoverer and Timeout so they record
	// the 500/503 envelopes those produce.
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(Metrics)
	m.Use(Logger(log.Logger))
	m.Use(Recoverer)
	m.Use(Timeout(d))

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}

// Use appends middleware; it must be called before MountHandlers.
func (s *Server) Use(mw ...func(http.Handler) http.Handler) {
	s.mux.Use(mw...)
}
