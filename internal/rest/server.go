// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-passkey/pkg/metrics"
	"github.com/jeremyhahn/go-passkey/pkg/ratelimit"
	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
	webauthnhttp "github.com/jeremyhahn/go-passkey/pkg/webauthn/http"
)

// Server represents the REST API server.
type Server struct {
	server      *http.Server
	handlers    *HandlerContext
	service     *webauthn.Service
	limiter     *ratelimit.Limiter
	host        string
	port        int
	tlsConfig   *tls.Config
	logger      *slog.Logger
	metricsPath string
	healthPath  string
}

// Config holds the REST server configuration.
type Config struct {
	// Host is the listen address (default: all interfaces)
	Host string

	// Port is the HTTP port to listen on (default: 8080)
	Port int

	// Service is the WebAuthn service handling ceremonies (required)
	Service *webauthn.Service

	// Version is the API version string
	Version string

	// TLSConfig is the TLS configuration for HTTPS (optional)
	TLSConfig *tls.Config

	// Logger is the structured logger (optional, defaults to slog.Default)
	Logger *slog.Logger

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration

	// RateLimit enables per-client rate limiting when non-nil
	RateLimit *ratelimit.Config

	// MetricsPath mounts the Prometheus exposition endpoint when non-empty
	MetricsPath string

	// HealthPath is the base path for health probes (default: /health)
	HealthPath string
}

// NewServer creates a new REST API server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.Service == nil {
		return nil, fmt.Errorf("webauthn service is required")
	}

	// Set defaults
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = "/health"
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	// The relying party details exposed by the status endpoint come from
	// the service configuration.
	rpConfig := cfg.Service.Config()
	handlers := NewHandlerContext(cfg.Version, rpConfig.RPID, rpConfig.RPOrigins)

	var limiter *ratelimit.Limiter
	if cfg.RateLimit != nil {
		limiter = ratelimit.New(cfg.RateLimit)
	}

	// Create server instance
	server := &Server{
		handlers:    handlers,
		service:     cfg.Service,
		limiter:     limiter,
		host:        cfg.Host,
		port:        cfg.Port,
		tlsConfig:   cfg.TLSConfig,
		logger:      log,
		metricsPath: cfg.MetricsPath,
		healthPath:  cfg.HealthPath,
	}

	// Create router with middleware
	router := server.setupRouter()

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		TLSConfig:    cfg.TLSConfig,
	}

	server.server = httpServer

	return server, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(s.RecoveryMiddleware())
	r.Use(s.CorrelationMiddleware()) // Add correlation ID before logging
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware)
	r.Use(CORSMiddleware(s.handlers.Origins))
	if s.limiter != nil {
		r.Use(ratelimit.Middleware(s.limiter))
	}

	// Health endpoint
	r.Get(s.healthPath, s.handlers.HealthHandler)
	r.Head(s.healthPath, s.handlers.HealthHandler)

	// Kubernetes-style health probes (no auth required)
	r.Get(s.healthPath+"/live", s.handlers.LivenessHandler)
	r.Get(s.healthPath+"/ready", s.handlers.ReadinessHandler)
	r.Get(s.healthPath+"/startup", s.handlers.StartupHandler)

	// Prometheus exposition endpoint
	if s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/version", s.handlers.VersionHandler)
		r.Get("/status", s.handlers.StatusHandler)

		// WebAuthn ceremony and credential management endpoints
		r.Route("/webauthn", func(r chi.Router) {
			handler := webauthnhttp.NewHandler(s.service).WithLogger(s.logger)
			webauthnhttp.MountChi(r, handler)
		})
	})

	return r
}

// Start starts the REST API server.
func (s *Server) Start() error {
	if s.tlsConfig != nil {
		s.logger.Info("Starting HTTPS server",
			"port", s.port,
			"rp_id", s.handlers.RelyingPartyID)

		if err := s.server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTPS server: %w", err)
		}
	} else {
		s.logger.Info("Starting HTTP server",
			"port", s.port,
			"rp_id", s.handlers.RelyingPartyID)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	return nil
}

// Stop gracefully stops the REST API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if s.limiter != nil {
		s.limiter.Stop()
	}

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server", "error", err)
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the configured HTTP handler, useful for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// SetHealthChecker sets the health checker for the server.
func (s *Server) SetHealthChecker(checker HealthChecker) {
	s.handlers.SetHealthChecker(checker)
}
