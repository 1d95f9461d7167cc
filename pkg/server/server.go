// Package server exposes a loaded bundle over an HTTP JSON API so a host
// runtime can consume agents, skills, commands, rules, and specs without
// shelling out to the CLI. The analyze endpoint proxies to the external
// dependency-analysis service when one is configured.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/bundle"
	"github.com/trophyhq/trophy/pkg/depgraph"
	"github.com/trophyhq/trophy/pkg/logger"
	"github.com/trophyhq/trophy/pkg/presenter"
)

// Analyzer requests dependency reports from the external service
type Analyzer interface {
	Analyze(ctx context.Context, req depgraph.Request) (*depgraph.Report, error)
}

// Config holds the listen address configuration
type Config struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Server serves a bundle root over HTTP
type Server struct {
	router     *mux.Router
	config     *Config
	bundleRoot string
	analyzer   Analyzer
	server     *http.Server
}

// NewServer creates a bundle API server. analyzer may be nil when no
// dependency-analysis service is configured; the analyze endpoint then
// answers 503.
func NewServer(config *Config, bundleRoot string, analyzer Analyzer) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router:     mux.NewRouter(),
		config:     config,
		bundleRoot: bundleRoot,
		analyzer:   analyzer,
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all the HTTP routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/bundle", s.handleBundle).Methods("GET")
	api.HandleFunc("/agents", s.handleListAgents).Methods("GET")
	api.HandleFunc("/agents/{name}", s.handleGetAgent).Methods("GET")
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/commands", s.handleListCommands).Methods("GET")
	api.HandleFunc("/rules", s.handleListRules).Methods("GET")
	api.HandleFunc("/specs", s.handleListSpecs).Methods("GET")
	api.HandleFunc("/deps/analyze", s.handleAnalyze).Methods("POST")

	s.router.Use(s.loggingMiddleware)
}

// Handler returns the HTTP handler, exposed for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loadBundle reads the bundle fresh so edits show up without a restart
func (s *Server) loadBundle(ctx context.Context) (*bundle.Bundle, error) {
	return bundle.Load(ctx, s.bundleRoot)
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode error response")
	}
}

// Start starts the server and blocks until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	presenter.Info(fmt.Sprintf("Serving bundle on http://%s", address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("bundle server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Stop stops the server immediately
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
