// Package server provides the HTTP server and routing for Quantfolio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/pipeline"
)

// runner triggers a full pipeline run.
type runner interface {
	Run(ctx context.Context, cfg pipeline.Config) (*pipeline.RunResult, error)
}

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	Port    int
	DevMode bool
	Runner  runner
	RunCfg  pipeline.Config
}

// Server represents the HTTP server. It keeps the most recent pipeline run
// in memory and serves it to API consumers.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	runner runner
	runCfg pipeline.Config

	mu     sync.RWMutex
	latest *pipeline.RunResult
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		runner: cfg.Runner,
		runCfg: cfg.RunCfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute, // synchronous runs can be slow on a cold cache
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Publish replaces the in-memory latest result. Safe for concurrent use;
// the scheduler calls this after every successful refresh.
func (s *Server) Publish(result *pipeline.RunResult) {
	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()
}

// Latest returns the most recent result, or nil when no run has completed.
func (s *Server) Latest() *pipeline.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/run", s.handleTriggerRun)
		r.Get("/run/latest", s.handleLatestRun)
		r.Get("/weights", s.handleWeights)
		r.Get("/report", s.handleReport)
		r.Get("/allocation", s.handleAllocation)
		r.Get("/momentum", s.handleMomentum)
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs each request with method, path, status and timing
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
