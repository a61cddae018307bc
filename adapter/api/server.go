// Package api provides the HTTP API of taskrank.
package api

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/taskrank/pkg/observability"
)

//go:embed web/index.html
var webFS embed.FS

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	tasks   *TasksHandler
	health  *observability.HealthRegistry
	metrics *observability.InMemoryMetrics
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8000",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ServerDeps are the collaborators of the server. Health and Metrics may be
// nil, in which case the matching endpoints report an empty state.
type ServerDeps struct {
	Tasks   *TasksHandler
	Health  *observability.HealthRegistry
	Metrics *observability.InMemoryMetrics
	Logger  *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Health == nil {
		deps.Health = observability.NewHealthRegistry()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewInMemoryMetrics()
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  deps.Logger,
		tasks:   deps.Tasks,
		health:  deps.Health,
		metrics: deps.Metrics,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.mux.HandleFunc("POST /api/tasks/analyze/", s.tasks.Analyze)
	s.mux.HandleFunc("GET /api/tasks/suggest/", s.tasks.Suggest)
	s.mux.HandleFunc("POST /api/tasks/plan/", s.tasks.Plan)
	s.mux.HandleFunc("GET /api/strategies/", s.tasks.ListStrategies)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		withRequestID,
		observeRequests(s.logger, s.metrics),
		recoverPanics(s.logger),
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.health.GetOverallHealth(r.Context())
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to read index page", "error", err)
		writeError(w, http.StatusInternalServerError, "Front-end unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// Start starts the API server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeAPIError(w, &APIError{Status: status, Message: message})
}

// APIError is an error reported to API clients.
type APIError struct {
	Status  int
	Message string
	// Index and Fields describe the rejected task of a batch.
	Index  *int
	Fields map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func writeAPIError(w http.ResponseWriter, e *APIError) {
	writeJSON(w, e.Status, errorBody{
		Error:   http.StatusText(e.Status),
		Message: e.Message,
		Index:   e.Index,
		Fields:  e.Fields,
	})
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Index   *int              `json:"index,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
