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

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeremyhahn/go-passkey/internal/config"
	"github.com/jeremyhahn/go-passkey/internal/rest"
	"github.com/jeremyhahn/go-passkey/pkg/health"
	"github.com/jeremyhahn/go-passkey/pkg/ratelimit"
	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
)

var (
	// Version information (set during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "/etc/passkey/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version if requested
	if *showVersion {
		fmt.Printf("go-passkey server\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Git Commit: %s\n", commit)
		fmt.Printf("  Built:      %s\n", date)
		os.Exit(0)
	}

	// Check for config file override via environment
	if envConfig := os.Getenv("PASSKEY_CONFIG"); envConfig != "" {
		*configPath = envConfig
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := cfg.Logging.NewLogger()
	slog.SetDefault(logger)

	logger.Info("Starting passkey server",
		"config", *configPath,
		"version", version,
		"rp_id", cfg.WebAuthn.RPID,
		"port", cfg.Server.Port)

	// Session token generator (optional)
	tokenGenerator, err := cfg.JWT.CreateTokenGenerator()
	if err != nil {
		logger.Error("Failed to create token generator", slog.Any("error", err))
		os.Exit(1)
	}

	// Attestation trust policy
	trustPolicy, err := cfg.WebAuthn.CreateTrustPolicy()
	if err != nil {
		logger.Error("Failed to create trust policy", slog.Any("error", err))
		os.Exit(1)
	}

	// TLS configuration (nil when disabled)
	tlsConfig, err := cfg.TLS.LoadTLSConfig()
	if err != nil {
		logger.Error("Failed to load TLS configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Stores and WebAuthn service
	stores := rest.NewStores()
	service, err := webauthn.NewService(webauthn.ServiceParams{
		Config:          &cfg.WebAuthn.Config,
		AccountStore:    stores.AccountStore(),
		ChallengeStore:  stores.ChallengeStore(),
		CredentialStore: stores.CredentialStore(),
		TrustPolicy:     trustPolicy,
		TokenGenerator:  tokenGenerator,
		Logger:          logger,
	})
	if err != nil {
		logger.Error("Failed to create WebAuthn service", slog.Any("error", err))
		os.Exit(1)
	}

	var rateLimit *ratelimit.Config
	if cfg.RateLimit.Enabled {
		rateLimit = &ratelimit.Config{
			Enabled:           true,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMin,
			Burst:             cfg.RateLimit.Burst,
		}
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	// Create the REST server
	srv, err := rest.NewServer(&rest.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Service:      service,
		Version:      version,
		TLSConfig:    tlsConfig,
		Logger:       logger,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    rateLimit,
		MetricsPath:  metricsPath,
		HealthPath:   cfg.Health.Path,
	})
	if err != nil {
		logger.Error("Failed to create server", slog.Any("error", err))
		os.Exit(1)
	}

	// Health checker with a credential store probe
	healthChecker := health.NewChecker()
	if cfg.Health.Enabled {
		healthChecker.RegisterCheck("credential-store", storeCheck(stores))
	}
	srv.SetHealthChecker(healthChecker)

	// Expired challenges are purged in the background for the life of
	// the process
	stopCleanup := stores.StartCleanupRoutine(context.Background(), cfg.WebAuthn.ChallengeTTL)
	defer stopCleanup()

	// Setup signal handler for graceful shutdown
	shutdownCtx := setupSignalHandler()

	// Start the server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	healthChecker.MarkStarted()
	logger.Info("Passkey server started successfully",
		"port", srv.Port(),
		"rp_id", cfg.WebAuthn.RPID,
		"origins", cfg.WebAuthn.RPOrigins)

	// Wait for shutdown signal or error
	select {
	case <-shutdownCtx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		logger.Error("Server error", slog.Any("error", err))
	}

	// Gracefully shutdown
	shutdownTimeout, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownTimeout); err != nil {
		logger.Error("Error during server shutdown", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Passkey server stopped successfully")
}

// storeCheck probes the credential store with a bounded lookup.
func storeCheck(stores *rest.Stores) health.CheckFunc {
	return func(ctx context.Context) health.CheckResult {
		start := time.Now()

		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			// An unknown account returns an empty slice without error
			_, err := stores.CredentialStore().GetByAccountID(checkCtx, []byte("health-probe"))
			done <- err
		}()

		select {
		case err := <-done:
			latency := time.Since(start)
			if err != nil {
				return health.CheckResult{
					Name:    "credential-store",
					Status:  health.StatusUnhealthy,
					Message: "Credential store is not responding",
					Error:   err.Error(),
					Latency: latency,
				}
			}
			return health.CheckResult{
				Name:    "credential-store",
				Status:  health.StatusHealthy,
				Message: "Credential store is responding",
				Latency: latency,
			}
		case <-checkCtx.Done():
			return health.CheckResult{
				Name:    "credential-store",
				Status:  health.StatusUnhealthy,
				Message: "Credential store check timed out",
				Latency: time.Since(start),
			}
		}
	}
}

// setupSignalHandler sets up signal handling for graceful shutdown
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalCh
		cancel()
	}()

	return ctx
}
