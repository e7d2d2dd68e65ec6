package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/thringlet/internal/engine"
	"github.com/lazypower/thringlet/internal/events"
)

// Server is the thringlet HTTP API server.
type Server struct {
	engine  *engine.Engine
	bus     *events.Bus
	logger  *slog.Logger
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server. bus may be nil, in which case the event stream
// endpoint reports 503.
func New(eng *engine.Engine, bus *events.Bus, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:  eng,
		bus:     bus,
		logger:  logger,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/companions", func(r chi.Router) {
			r.Get("/", s.handleListCompanions)
			r.Post("/", s.handleCreateCompanion)

			r.Route("/{companionID}", func(r chi.Router) {
				r.Get("/", s.handleGetCompanion)
				r.Delete("/", s.handleDeleteCompanion)
				r.Post("/interact", s.handleInteract)
				r.Post("/decay", s.handleDecay)
				r.Get("/abilities", s.handleAbilities)
				r.Get("/events", s.handleEvents)
			})
		})
	})

	s.router = r
}

// logRequests logs one line per request once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.engine.DB.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.engine.DB.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
