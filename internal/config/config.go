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

package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	TLS       TLSConfig       `yaml:"tls"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Health    HealthConfig    `yaml:"health"`
	JWT       JWTConfig       `yaml:"jwt"`
	WebAuthn  WebAuthnConfig  `yaml:"webauthn"`
}

// ServerConfig contains server-level settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Connection timeouts. Durations accept Go syntax ("15s", "1m").
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TLSConfig controls TLS/SSL settings
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// Client certificate verification (mTLS)
	ClientAuth string   `yaml:"client_auth"` // none, request, require, verify, require_and_verify
	ClientCAs  []string `yaml:"client_cas"`  // Additional client CA certificates

	// TLS version and cipher suites
	MinVersion          string   `yaml:"min_version"`           // TLS1.2, TLS1.3
	MaxVersion          string   `yaml:"max_version"`           // TLS1.2, TLS1.3
	CipherSuites        []string `yaml:"cipher_suites"`         // Specific cipher suites to allow
	PreferServerCiphers bool     `yaml:"prefer_server_ciphers"` // Server chooses cipher suite

	// Certificate rotation
	WatchCertFiles bool `yaml:"watch_cert_files"` // Auto-reload certificates on change
}

// RateLimitConfig controls rate limiting
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_min"`
	Burst          int  `yaml:"burst"`
}

// MetricsConfig controls the Prometheus metrics endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HealthConfig controls the health check endpoints
type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// JWTConfig controls issuance of session tokens after a successful
// authentication ceremony. When disabled, login responses carry no token.
type JWTConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Issuer   string        `yaml:"issuer"`
	Audience []string      `yaml:"audience"`
	TTL      time.Duration `yaml:"ttl"`
	KeyID    string        `yaml:"key_id"`

	// PrivateKeyFile is a PEM-encoded PKCS#8 signing key (RSA, ECDSA or
	// Ed25519). Encrypted keys require PrivateKeyPassword.
	PrivateKeyFile     string `yaml:"private_key_file"`
	PrivateKeyPassword string `yaml:"private_key_password"`
}

// WebAuthnConfig is the relying-party configuration together with the
// attestation trust anchors used to classify registered credentials.
type WebAuthnConfig struct {
	webauthn.Config `yaml:",inline"`

	// AttestationRoots are PEM files holding accepted attestation CA
	// certificates. Empty means attestation chains are not verified
	// against a root set.
	AttestationRoots []string `yaml:"attestation_roots"`
}

// Load reads configuration from a YAML file and applies environment variable overrides
func Load(path string) (*Config, error) {
	// Read the config file
	// #nosec G304 - Config file path is provided by admin/user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	// Fill unset fields and validate
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	// Server settings
	if host := os.Getenv("PASSKEY_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PASSKEY_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			log.Printf("Warning: invalid PASSKEY_PORT value %q, using default %d: %v",
				portStr, cfg.Server.Port, err)
		} else if port < 1 || port > 65535 {
			log.Printf("Warning: invalid PASSKEY_PORT value %q (out of range 1-65535), using default %d",
				portStr, cfg.Server.Port)
		} else {
			cfg.Server.Port = port
		}
	}

	// Logging
	if level := os.Getenv("PASSKEY_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("PASSKEY_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	// TLS
	if certFile := os.Getenv("PASSKEY_TLS_CERT"); certFile != "" {
		cfg.TLS.CertFile = certFile
	}
	if keyFile := os.Getenv("PASSKEY_TLS_KEY"); keyFile != "" {
		cfg.TLS.KeyFile = keyFile
	}

	// Relying party
	if rpID := os.Getenv("PASSKEY_RP_ID"); rpID != "" {
		cfg.WebAuthn.RPID = rpID
	}
	if origins := os.Getenv("PASSKEY_RP_ORIGINS"); origins != "" {
		var parsed []string
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				parsed = append(parsed, origin)
			}
		}
		if len(parsed) > 0 {
			cfg.WebAuthn.RPOrigins = parsed
		}
	}

	// JWT signing key (secrets are commonly injected via environment)
	if keyFile := os.Getenv("PASSKEY_JWT_KEY"); keyFile != "" {
		cfg.JWT.PrivateKeyFile = keyFile
	}
	if password := os.Getenv("PASSKEY_JWT_KEY_PASSWORD"); password != "" {
		cfg.JWT.PrivateKeyPassword = password
	}
}

// SetDefaults sets default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin == 0 {
		c.RateLimit.RequestsPerMin = 60
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Health.Path == "" {
		c.Health.Path = "/health"
	}
	if c.JWT.Enabled {
		if c.JWT.Issuer == "" {
			c.JWT.Issuer = c.WebAuthn.RPID
		}
		if c.JWT.TTL == 0 {
			c.JWT.TTL = time.Hour
		}
	}
	c.WebAuthn.SetDefaults()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server port
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	// Validate TLS settings
	if c.TLS.Enabled {
		if c.TLS.CertFile == "" {
			return fmt.Errorf("TLS cert_file is required when TLS is enabled")
		}
		if c.TLS.KeyFile == "" {
			return fmt.Errorf("TLS key_file is required when TLS is enabled")
		}
	}

	// Validate rate limiting
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin < 1 {
		return fmt.Errorf("invalid rate limit: %d requests/min", c.RateLimit.RequestsPerMin)
	}

	// Validate endpoint paths
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %s", c.Metrics.Path)
	}
	if c.Health.Enabled && !strings.HasPrefix(c.Health.Path, "/") {
		return fmt.Errorf("health path must start with /: %s", c.Health.Path)
	}

	// Validate JWT issuance
	if c.JWT.Enabled && c.JWT.PrivateKeyFile == "" {
		return fmt.Errorf("jwt private_key_file is required when token issuance is enabled")
	}

	// Validate relying party configuration
	if err := c.WebAuthn.Validate(); err != nil {
		return fmt.Errorf("webauthn: %w", err)
	}

	return nil
}

// SlogLevel maps the configured logging level onto slog's scale.
func (c *LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a structured logger honoring the configured level and format.
func (c *LoggingConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}

	var handler slog.Handler
	if strings.ToLower(c.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
