// Package httpapi serves the collective's HTTP surface: install status,
// agents, experiment reports and result recording, the task queue,
// prometheus metrics, and an SSE stream of agent-directory changes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude-collective/collective/api"
	"github.com/claude-collective/collective/internal/installer"
	"github.com/claude-collective/collective/internal/logging"
	"github.com/claude-collective/collective/pkg/agent"
	"github.com/claude-collective/collective/pkg/experiment"
	"github.com/claude-collective/collective/pkg/tasks"
)

// Server hosts the HTTP API for one target directory.
type Server struct {
	dir         string
	registry    *agent.Registry
	experiments *experiment.Framework
	queue       *tasks.Queue
	gatherer    prometheus.Gatherer
	logger      *slog.Logger
	watcher     *Watcher
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the prometheus gatherer backing /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithWatcher attaches a filesystem watcher feeding /events.
func WithWatcher(w *Watcher) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// New creates a Server over the given components.
func New(dir string, registry *agent.Registry, experiments *experiment.Framework, queue *tasks.Queue, opts ...Option) *Server {
	s := &Server{
		dir:         dir,
		registry:    registry,
		experiments: experiments,
		queue:       queue,
		gatherer:    prometheus.DefaultGatherer,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	r.Get("/status", s.handleStatus)
	r.Get("/agents", s.handleAgents)
	r.Get("/agents/{name}", s.handleAgent)
	r.Get("/experiments", s.handleExperiments)
	r.Get("/experiments/{id}/report", s.handleReport)
	r.Post("/experiments/{id}/results", s.handleRecord)
	r.Get("/queue", s.handleQueue)
	r.Get("/openapi.yaml", s.handleOpenAPI)
	r.Get("/events", s.handleEvents)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("http api shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := installer.Status(s.dir)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	def, err := s.registry.Get(name)
	if err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleExperiments(w http.ResponseWriter, r *http.Request) {
	exps, err := s.experiments.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exps)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.experiments.Report(r.Context(), id)
	if err != nil {
		if errors.Is(err, experiment.ErrExperimentNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

type recordRequest struct {
	Subject   string  `json:"subject"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Converted bool    `json:"converted"`
}

// handleRecord stores one experiment result. Long-running agents post here
// so observations land on the served framework and its /metrics counters.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Subject == "" || req.Metric == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("subject and metric are required"))
		return
	}

	err := s.experiments.Record(r.Context(), id, req.Subject, req.Metric, req.Value, req.Converted)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, experiment.ErrExperimentNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, experiment.ErrConcluded):
		s.writeError(w, http.StatusConflict, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.queue.List(r.Context()))
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(api.Spec)
}

// handleEvents streams SSE notifications whenever the agent directory
// changes. With no watcher attached, the stream stays open but silent.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var changes <-chan string
	if s.watcher != nil {
		ch, cancel := s.watcher.Subscribe()
		defer cancel()
		changes = ch
	}

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case path := <-changes:
			_, _ = w.Write([]byte("event: change\ndata: " + path + "\n\n"))
			flusher.Flush()
		case <-heartbeat.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
