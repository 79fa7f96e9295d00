// Package server exposes pkg/engine over HTTP: definition registration,
// instance creation/start/resume, and read-only instance queries,
// modeled on the teacher's pkg/server/server.go route layout and
// middleware chain.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yesoreyeram/stepflow/pkg/definition"
	"github.com/yesoreyeram/stepflow/pkg/engine"
	"github.com/yesoreyeram/stepflow/pkg/health"
	"github.com/yesoreyeram/stepflow/pkg/logging"
	"github.com/yesoreyeram/stepflow/pkg/storage"
	"github.com/yesoreyeram/stepflow/pkg/types"
)

// Config holds HTTP server configuration.
type Config struct {
	Address            string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	EnableCORS         bool
}

// DefaultConfig returns a Config with conservative production defaults.
func DefaultConfig() Config {
	return Config{
		Address:            ":8080",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 * 1024 * 1024,
		EnableCORS:         true,
	}
}

// Server is the HTTP API surface over one Engine.
type Server struct {
	config        Config
	httpServer    *http.Server
	engine        *engine.Engine
	healthChecker *health.Checker
	logger        *logging.Logger
}

// New builds a Server wired to eng. It registers an "engine-pool" health
// check (live pool saturation) and all routes, but does not start listening.
func New(config Config, eng *engine.Engine, logger *logging.Logger) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("server: engine is required")
	}
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}

	healthChecker := health.NewChecker("stepflow", "0.1.0")
	healthChecker.RegisterCheck("engine-pool", health.PoolSaturationCheck(eng.PoolSize, eng.MaxLiveInstances()), 5*time.Second, true)

	s := &Server{config: config, engine: eng, healthChecker: healthChecker, logger: logger}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         config.Address,
		Handler:      s.middlewareChain(mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s, nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("/health/live", s.healthChecker.LivenessHandler())
	mux.HandleFunc("/health/ready", s.healthChecker.ReadinessHandler())
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("POST /definitions", s.handleCreateDefinition)
	mux.HandleFunc("POST /instances", s.handleCreateInstance)
	mux.HandleFunc("POST /instances/{id}/start", s.handleStartInstance)
	mux.HandleFunc("POST /instances/{id}/tasks/{taskID}/complete", s.handleCompleteTask)
	mux.HandleFunc("GET /instances/{id}", s.handleGetInstance)
	mux.HandleFunc("GET /instances", s.handleListInstances)
}

func (s *Server) middlewareChain(handler http.Handler) http.Handler {
	if s.config.EnableCORS {
		handler = s.corsMiddleware(handler)
	}
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// ============================================================================
// Handlers
// ============================================================================

type definitionTaskDTO struct {
	Name string                 `json:"name"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
}

type definitionFlowDTO struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition,omitempty"`
}

type definitionRequest struct {
	Name             string                 `json:"name"`
	Tasks            []definitionTaskDTO    `json:"tasks"`
	Flows            []definitionFlowDTO    `json:"flows"`
	DefaultVariables map[string]interface{} `json:"default_variables,omitempty"`
}

// handleCreateDefinition builds a ProcessDefinition from a task/flow DTO
// keyed by task name, and registers it with the engine.
func (s *Server) handleCreateDefinition(w http.ResponseWriter, r *http.Request) {
	var req definitionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		return
	}

	b := definition.NewBuilder(req.Name, s.engine.Registry())
	ids := make(map[string]types.TaskID, len(req.Tasks))
	for _, task := range req.Tasks {
		ids[task.Name] = b.AddTask(task.Name, types.TaskType(task.Type), task.Data)
	}
	for _, flow := range req.Flows {
		from, ok := ids[flow.From]
		if !ok {
			s.writeError(w, fmt.Sprintf("unknown flow source task %q", flow.From), http.StatusBadRequest, nil)
			return
		}
		to, ok := ids[flow.To]
		if !ok {
			s.writeError(w, fmt.Sprintf("unknown flow target task %q", flow.To), http.StatusBadRequest, nil)
			return
		}
		b.Connect(from, to, flow.Condition)
	}
	if len(req.DefaultVariables) > 0 {
		b.WithDefaultVariables(req.DefaultVariables)
	}

	def, err := b.Build()
	if err != nil {
		s.writeError(w, "failed to build process definition", http.StatusBadRequest, err)
		return
	}
	if err := s.engine.RegisterDefinition(def); err != nil {
		s.writeError(w, "failed to register process definition", http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"id": def.ID, "name": def.Name})
}

type createInstanceRequest struct {
	DefinitionID string `json:"definition_id"`
}

func (s *Server) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	var req createInstanceRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		return
	}

	def, ok := s.engine.Definition(req.DefinitionID)
	if !ok {
		s.writeError(w, "unknown definition id", http.StatusNotFound, nil)
		return
	}

	inst, err := s.engine.CreateProcessInstance(def)
	if err != nil {
		s.writeError(w, "failed to create process instance", http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"id": inst.ID(), "status": inst.Status()})
}

type startInstanceRequest struct {
	Variables map[string]interface{} `json:"variables,omitempty"`
}

func (s *Server) handleStartInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseIntPath(w, r, "id")
	if !ok {
		return
	}
	var req startInstanceRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		return
	}

	inst, err := s.engine.LoadProcessInstance(id)
	if err != nil || inst == nil {
		s.writeError(w, "unknown process instance", http.StatusNotFound, err)
		return
	}
	if err := inst.Start(req.Variables); err != nil {
		s.writeError(w, "failed to start process instance", http.StatusConflict, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inst.Serialize())
}

type completeTaskRequest struct {
	Variables map[string]interface{} `json:"variables,omitempty"`
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseIntPath(w, r, "id")
	if !ok {
		return
	}
	taskID, ok := s.parseIntPath(w, r, "taskID")
	if !ok {
		return
	}
	var req completeTaskRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		return
	}

	if err := s.engine.CompleteTask(id, types.TaskID(taskID), req.Variables); err != nil {
		s.writeError(w, "failed to complete task", http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseIntPath(w, r, "id")
	if !ok {
		return
	}
	inst, err := s.engine.LoadProcessInstance(id)
	if err != nil {
		s.writeError(w, "failed to load process instance", http.StatusInternalServerError, err)
		return
	}
	if inst == nil {
		s.writeError(w, "unknown process instance", http.StatusNotFound, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, inst.Serialize())
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	docs, err := s.engine.QueryProcessInstances(storage.Filter{})
	if err != nil {
		s.writeError(w, "failed to query process instances", http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, docs)
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, "failed to read request body", http.StatusBadRequest, err)
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		s.writeError(w, "failed to parse request body", http.StatusBadRequest, err)
		return err
	}
	return nil
}

func (s *Server) parseIntPath(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		s.writeError(w, fmt.Sprintf("invalid %s path parameter", name), http.StatusBadRequest, err)
		return 0, false
	}
	return v, true
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int, err error) {
	logEntry := s.logger.WithField("status_code", statusCode)
	if err != nil {
		logEntry = logEntry.WithError(err)
	}
	logEntry.Error(message)

	body := map[string]interface{}{"success": false, "error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	s.writeJSON(w, statusCode, body)
}

// Start begins serving HTTP requests; it blocks until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("address", s.config.Address).Info("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and the underlying engine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown http: %w", err)
	}
	if err := s.engine.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown engine: %w", err)
	}
	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": rw.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("http request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.WithField("path", r.URL.Path).Error(fmt.Sprintf("panic recovered: %v", rec))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
