// Package server serves the property tools over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/OK-LG/berlin-open-data/internal/resilience"
	"github.com/OK-LG/berlin-open-data/internal/tools"
)

// SessionHeader carries the session id on requests and on session creation.
const SessionHeader = "Mcp-Session-Id"

// maxBodyBytes caps tool argument payloads.
const maxBodyBytes = 1 << 20

// Options configures the HTTP server.
type Options struct {
	// MaxSessions bounds the session table. Default: DefaultMaxSessions.
	MaxSessions int
	// AllowedOrigins for CORS. Default: all origins.
	AllowedOrigins []string
	// RequestTimeout bounds a single tool call. Zero means no extra bound.
	RequestTimeout time.Duration
	// CircuitStates optionally reports WFS circuit breaker states on /health.
	CircuitStates func() map[string]resilience.CircuitState
}

// Server routes HTTP requests to the tool registry.
type Server struct {
	registry *tools.Registry
	sessions *SessionStore
	opts     Options
	router   chi.Router
}

// New creates a Server for registry.
func New(registry *tools.Registry, opts Options) (*Server, error) {
	sessions, err := NewSessionStore(opts.MaxSessions)
	if err != nil {
		return nil, err
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{registry: registry, sessions: sessions, opts: opts}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions exposes the session table.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", SessionHeader},
		ExposedHeaders: []string{SessionHeader},
		MaxAge:         300,
	}))
	r.Use(metricsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/sessions", s.handleCreateSession)
	r.Delete("/sessions/{id}", s.handleDeleteSession)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/tools", s.handleListTools)
		r.Post("/tools/{name}", s.handleCallTool)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.opts.CircuitStates != nil {
		body["circuits"] = s.opts.CircuitStates()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.registry.List()})
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	res, err := s.registry.Call(ctx, name, json.RawMessage(body))
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		toolCallsTotal.WithLabelValues("unknown", "unknown_tool").Inc()
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, tools.ErrInvalidArguments):
		toolCallsTotal.WithLabelValues(name, "invalid_arguments").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		zap.L().Error("tool call failed", zap.String("tool", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	outcome := "ok"
	if !res.Success && res.Error != nil {
		outcome = string(res.Error.Code)
	}
	toolCallsTotal.WithLabelValues(name, outcome).Inc()
	zap.L().Debug("tool call", zap.String("tool", name), zap.String("outcome", outcome))

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	w.Header().Set(SessionHeader, sess.ID)
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireSession rejects requests naming a session that is not live.
// Requests without the header are served statelessly.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(SessionHeader); id != "" && !s.sessions.Touch(id) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(eris.Wrap(err, "server: encode")))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
