package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/pvm/internal/presentation/graph"
	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/instance"
	"github.com/aretw0/pvm/pkg/ports"
	"github.com/aretw0/pvm/pkg/runtime"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Instances is the part of instance.Manager the server drives.
type Instances interface {
	Start(ctx context.Context, definitionID string, vars map[string]any) (*instance.Status, error)
	Signal(ctx context.Context, instanceID, activityID, signalName string, data any) (*instance.Status, error)
	SetVariables(ctx context.Context, instanceID string, vars map[string]any) (*instance.Status, error)
	Status(ctx context.Context, instanceID string) (*instance.Status, error)
	Cancel(ctx context.Context, instanceID, reason string) (*instance.Status, error)
	Delete(ctx context.Context, instanceID string) error
	List(ctx context.Context) ([]string, error)
}

// Server exposes definitions and instances over JSON.
type Server struct {
	Definitions ports.DefinitionRepository
	Instances   Instances
	Streams     *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	version string
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion reports v on GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(definitions ports.DefinitionRepository, instances Instances, opts ...Option) http.Handler {
	s := &Server{
		Definitions: definitions,
		Instances:   instances,
		logger:      slog.Default(),
		version:     "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/definitions", func(r chi.Router) {
		r.Get("/", s.ListDefinitions)
		r.Get("/{definitionID}/graph", s.GetGraph)
	})
	r.Route("/instances", func(r chi.Router) {
		r.Get("/", s.ListInstances)
		r.Post("/", s.StartInstance)
		r.Route("/{instanceID}", func(r chi.Router) {
			r.Get("/", s.GetInstance)
			r.Delete("/", s.DeleteInstance)
			r.Post("/signal", s.SignalInstance)
			r.Put("/variables", s.SetVariables)
			r.Post("/cancel", s.CancelInstance)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// StartRequest is the body of POST /instances.
type StartRequest struct {
	DefinitionID string         `json:"definition_id"`
	Variables    map[string]any `json:"variables,omitempty"`
}

// SignalRequest is the body of POST /instances/{id}/signal.
type SignalRequest struct {
	Activity string `json:"activity,omitempty"`
	Signal   string `json:"signal,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// CancelRequest is the optional body of POST /instances/{id}/cancel.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "pvm-http",
		"version": strings.TrimSpace(s.version),
	})
}

// ListDefinitions handles GET /definitions.
func (s *Server) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Definitions.ListDefinitions(r.Context())
	if err != nil {
		s.writeError(w, "ListDefinitions", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetGraph handles GET /definitions/{id}/graph, returning a Mermaid chart.
// With ?instance=<id> the activities the instance waits in are highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	def, err := s.Definitions.Definition(r.Context(), chi.URLParam(r, "definitionID"))
	if err != nil {
		s.writeError(w, "GetGraph", err)
		return
	}
	var overlay *graph.Overlay
	if id := r.URL.Query().Get("instance"); id != "" {
		status, err := s.Instances.Status(r.Context(), id)
		if err != nil {
			s.writeError(w, "GetGraph", err)
			return
		}
		overlay = &graph.Overlay{Active: status.ActiveActivities}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(def, overlay))
}

// ListInstances handles GET /instances.
func (s *Server) ListInstances(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Instances.List(r.Context())
	if err != nil {
		s.writeError(w, "ListInstances", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// StartInstance handles POST /instances.
func (s *Server) StartInstance(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if !s.decode(w, r, "StartInstance", &body) {
		return
	}
	if body.DefinitionID == "" {
		http.Error(w, "definition_id is required", http.StatusBadRequest)
		return
	}
	status, err := s.Instances.Start(r.Context(), body.DefinitionID, body.Variables)
	if err != nil {
		s.writeError(w, "StartInstance", err)
		return
	}
	s.broadcast(status)
	s.writeJSON(w, http.StatusCreated, status)
}

// GetInstance handles GET /instances/{id}.
func (s *Server) GetInstance(w http.ResponseWriter, r *http.Request) {
	status, err := s.Instances.Status(r.Context(), chi.URLParam(r, "instanceID"))
	if err != nil {
		s.writeError(w, "GetInstance", err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

// SignalInstance handles POST /instances/{id}/signal.
func (s *Server) SignalInstance(w http.ResponseWriter, r *http.Request) {
	var body SignalRequest
	if !s.decode(w, r, "SignalInstance", &body) {
		return
	}
	status, err := s.Instances.Signal(r.Context(), chi.URLParam(r, "instanceID"), body.Activity, body.Signal, body.Data)
	if err != nil {
		s.writeError(w, "SignalInstance", err)
		return
	}
	s.broadcast(status)
	s.writeJSON(w, http.StatusOK, status)
}

// SetVariables handles PUT /instances/{id}/variables.
func (s *Server) SetVariables(w http.ResponseWriter, r *http.Request) {
	var vars map[string]any
	if !s.decode(w, r, "SetVariables", &vars) {
		return
	}
	status, err := s.Instances.SetVariables(r.Context(), chi.URLParam(r, "instanceID"), vars)
	if err != nil {
		s.writeError(w, "SetVariables", err)
		return
	}
	s.broadcast(status)
	s.writeJSON(w, http.StatusOK, status)
}

// CancelInstance handles POST /instances/{id}/cancel.
func (s *Server) CancelInstance(w http.ResponseWriter, r *http.Request) {
	var body CancelRequest
	if r.ContentLength != 0 && !s.decode(w, r, "CancelInstance", &body) {
		return
	}
	if body.Reason == "" {
		body.Reason = "cancelled"
	}
	status, err := s.Instances.Cancel(r.Context(), chi.URLParam(r, "instanceID"), body.Reason)
	if err != nil {
		s.writeError(w, "CancelInstance", err)
		return
	}
	s.broadcast(status)
	s.writeJSON(w, http.StatusOK, status)
}

// DeleteInstance handles DELETE /instances/{id}.
func (s *Server) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	if err := s.Instances.Delete(r.Context(), chi.URLParam(r, "instanceID")); err != nil {
		s.writeError(w, "DeleteInstance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles GET /instances/{id}/events (SSE). Every change
// made through this server is pushed as an instance status.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}
	instanceID := chi.URLParam(r, "instanceID")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(instanceID)
	defer cancel()

	s.logger.Info("SSE: Subscribing to instance updates", "instance_id", instanceID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "instance_id", instanceID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcast(status *instance.Status) {
	payload, err := json.Marshal(status)
	if err != nil {
		s.logger.Error("Status encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(status.ID, string(payload))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn(op+": Invalid request body", "err", err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err)
	}
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInstanceNotFound), errors.Is(err, domain.ErrDefinitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, instance.ErrAmbiguousExecution),
		errors.Is(err, runtime.ErrExecutionBusy),
		errors.Is(err, domain.ErrExecutionEnded),
		errors.Is(err, domain.ErrNoActiveActivity),
		errors.Is(err, domain.ErrNotSignallable):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
