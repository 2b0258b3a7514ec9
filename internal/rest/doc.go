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

// Package rest provides the REST API server for the go-passkey service.
//
// The server exposes WebAuthn registration and authentication ceremonies,
// credential management, health probes and Prometheus metrics over HTTP.
//
// # Server Setup
//
// Create a REST server by providing a configured WebAuthn service:
//
//	import (
//	    "github.com/jeremyhahn/go-passkey/internal/rest"
//	    "github.com/jeremyhahn/go-passkey/pkg/webauthn"
//	)
//
//	stores := rest.NewStores()
//	svc, _ := webauthn.NewService(webauthn.ServiceParams{
//	    Config: &webauthn.Config{
//	        RPID:          "example.com",
//	        RPDisplayName: "Example Corp",
//	        RPOrigins:     []string{"https://example.com"},
//	    },
//	    AccountStore:    stores.AccountStore(),
//	    ChallengeStore:  stores.ChallengeStore(),
//	    CredentialStore: stores.CredentialStore(),
//	})
//
//	server, _ := rest.NewServer(&rest.Config{
//	    Port:    8080,
//	    Service: svc,
//	    Version: "1.0.0",
//	})
//
//	// Start server
//	go server.Start()
//
//	// Graceful shutdown
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	server.Stop(ctx)
//
// # API Endpoints
//
// Health and observability:
//   - GET /health - Returns server health status
//   - GET /health/live - Kubernetes liveness probe
//   - GET /health/ready - Kubernetes readiness probe
//   - GET /health/startup - Kubernetes startup probe
//   - GET /metrics - Prometheus exposition (when enabled)
//
// Server information:
//   - GET /api/v1/version - API version
//   - GET /api/v1/status - Server status and relying party configuration
//
// WebAuthn ceremonies:
//   - POST /api/v1/webauthn/registration/begin - Issue a registration challenge
//   - POST /api/v1/webauthn/registration/finish - Verify an attestation response
//   - GET  /api/v1/webauthn/registration/status - Check whether an account has credentials
//   - POST /api/v1/webauthn/login/begin - Issue an authentication challenge
//   - POST /api/v1/webauthn/login/finish - Verify an assertion response
//
// Credential management:
//   - GET    /api/v1/webauthn/credentials - List an account's credentials
//   - PATCH  /api/v1/webauthn/credentials/{credentialID} - Rename a credential
//   - DELETE /api/v1/webauthn/credentials/{credentialID} - Deactivate a credential
//
// # Middleware
//
// Every request passes through panic recovery, correlation ID propagation,
// structured request logging, Prometheus instrumentation and CORS handling.
// Rate limiting is applied when configured.
//
// # Storage
//
// The Stores bundle wires the in-memory store implementations from the
// webauthn package and runs a periodic sweep of expired challenges. Swap in
// persistent AccountStore, ChallengeStore and CredentialStore implementations
// for multi-instance deployments.
package rest
