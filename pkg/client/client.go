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

// Package client provides a REST client library for communicating with the
// passkey server. It covers the WebAuthn ceremony endpoints, credential
// lifecycle management, and the operational endpoints (health, version,
// status).
//
// Ceremony completion requires an authenticator, so the begin/finish methods
// are primarily useful to services driving ceremonies programmatically and to
// integration tests. The credential management methods are what passkeyctl
// uses.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
	webauthnhttp "github.com/jeremyhahn/go-passkey/pkg/webauthn/http"
)

// DefaultServerAddress is used when no address is configured.
const DefaultServerAddress = "http://localhost:8080"

var (
	// ErrConnectionFailed is returned when the connection to the server fails
	ErrConnectionFailed = errors.New("connection failed")
	// ErrNotConnected is returned when trying to use a client that is not connected
	ErrNotConnected = errors.New("client not connected")
	// ErrUnsupportedScheme is returned for server URLs with a non-HTTP scheme
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// Config configures the passkey client.
type Config struct {
	// Address is the server base URL (http://host:port or https://host:port)
	Address string

	// TLSEnabled enables TLS. It is inferred from an https:// address.
	TLSEnabled bool

	// TLSInsecureSkipVerify skips TLS certificate verification (not recommended)
	TLSInsecureSkipVerify bool

	// TLSCertFile is the path to the client certificate file (for mTLS)
	TLSCertFile string

	// TLSKeyFile is the path to the client key file (for mTLS)
	TLSKeyFile string

	// TLSCAFile is the path to the CA certificate file
	TLSCAFile string

	// Token is a JWT bearer token obtained from a successful login (optional)
	Token string

	// Headers are additional HTTP headers to include in requests
	Headers map[string]string
}

// Client is the main interface for communicating with the passkey server.
type Client interface {
	// Connect establishes a connection to the passkey server.
	Connect(ctx context.Context) error

	// Close closes the connection to the server.
	Close() error

	// Health checks the health of the server.
	Health(ctx context.Context) (*HealthResponse, error)

	// Version returns the server version.
	Version(ctx context.Context) (*VersionResponse, error)

	// Status returns the server status and relying party configuration.
	Status(ctx context.Context) (*ServerStatusResponse, error)

	// Ceremony Operations

	// BeginRegistration starts a registration ceremony for an account.
	BeginRegistration(ctx context.Context, account, displayName string) (*webauthn.CredentialCreation, error)

	// FinishRegistration completes a registration ceremony with the
	// credential produced by the authenticator.
	FinishRegistration(ctx context.Context, label string, credential *webauthn.CredentialCreationResponse) (*webauthnhttp.RegistrationResponse, error)

	// BeginLogin starts an authentication ceremony. An empty account
	// requests the discoverable credentials flow.
	BeginLogin(ctx context.Context, account string) (*webauthn.CredentialAssertion, error)

	// FinishLogin completes an authentication ceremony with the assertion
	// produced by the authenticator.
	FinishLogin(ctx context.Context, assertion *webauthn.CredentialAssertionResponse) (*webauthnhttp.LoginResponse, error)

	// RegistrationStatus reports whether the account has active credentials.
	RegistrationStatus(ctx context.Context, account string) (*webauthnhttp.RegistrationStatusResponse, error)

	// Credential Lifecycle Operations

	// ListCredentials returns the active credentials registered to an account.
	ListCredentials(ctx context.Context, account string) ([]webauthnhttp.CredentialSummary, error)

	// RenameCredential changes the label of a credential owned by the account.
	RenameCredential(ctx context.Context, account, credentialID, label string) error

	// RemoveCredential deactivates a credential owned by the account.
	RemoveCredential(ctx context.Context, account, credentialID string) error
}

// New creates a new passkey client with the specified configuration.
// If no configuration is provided, it targets the default local server.
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		cfg = &Config{
			Address: DefaultServerAddress,
		}
	}

	if cfg.Address == "" {
		cfg.Address = DefaultServerAddress
	}

	if strings.HasPrefix(cfg.Address, "https://") {
		cfg.TLSEnabled = true
	}

	return newRESTClient(cfg)
}

// NewFromURL creates a new client from a URL string.
// Supported URL schemes:
// - http://host:port
// - https://host:port
// - host:port (assumes http)
func NewFromURL(serverURL string) (Client, error) {
	if serverURL == "" {
		return New(nil)
	}

	if strings.Contains(serverURL, "://") {
		u, err := url.Parse(serverURL)
		if err != nil {
			return nil, fmt.Errorf("invalid server URL: %w", err)
		}
		switch u.Scheme {
		case "http":
			return New(&Config{Address: serverURL})
		case "https":
			return New(&Config{Address: serverURL, TLSEnabled: true})
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
		}
	}

	// Assume it's a host:port for plain HTTP
	return New(&Config{Address: "http://" + serverURL})
}

// HealthResponse contains health check information.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Message string `json:"message,omitempty"`
}

// VersionResponse contains the server version.
type VersionResponse struct {
	Version string `json:"version"`
}

// ServerStatusResponse contains server status and relying party details.
type ServerStatusResponse struct {
	Status         string   `json:"status"`
	Version        string   `json:"version"`
	Uptime         string   `json:"uptime,omitempty"`
	RelyingPartyID string   `json:"relying_party_id"`
	Origins        []string `json:"origins,omitempty"`
}
