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
	"net/http"
	"time"

	"github.com/jeremyhahn/go-passkey/pkg/health"
)

// HandlerContext holds dependencies for REST handlers.
type HandlerContext struct {
	// Version is the API version
	Version string
	// RelyingPartyID is the WebAuthn relying party identifier
	RelyingPartyID string
	// Origins are the accepted WebAuthn origins
	Origins []string
	// HealthChecker manages health check probes
	HealthChecker HealthChecker

	startTime time.Time
}

// HealthChecker defines the interface for health checking.
type HealthChecker interface {
	Live(ctx context.Context) health.CheckResult
	Ready(ctx context.Context) []health.CheckResult
	Startup(ctx context.Context) health.CheckResult
}

// NewHandlerContext creates a new handler context.
func NewHandlerContext(version, rpID string, origins []string) *HandlerContext {
	return &HandlerContext{
		Version:        version,
		RelyingPartyID: rpID,
		Origins:        origins,
		startTime:      time.Now(),
	}
}

// SetHealthChecker sets the health checker for the handler context.
func (h *HandlerContext) SetHealthChecker(checker HealthChecker) {
	h.HealthChecker = checker
}

// HealthHandler handles GET /health requests.
func (h *HandlerContext) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Version: h.Version,
	}
	writeJSON(w, resp, http.StatusOK)
}

// VersionHandler handles GET /api/v1/version requests.
func (h *HandlerContext) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, VersionResponse{Version: h.Version}, http.StatusOK)
}

// StatusHandler handles GET /api/v1/status requests. It reports the server
// version, uptime and relying party configuration.
func (h *HandlerContext) StatusHandler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:         "healthy",
		Version:        h.Version,
		Uptime:         time.Since(h.startTime).Round(time.Second).String(),
		RelyingPartyID: h.RelyingPartyID,
		Origins:        h.Origins,
	}

	if h.HealthChecker != nil {
		results := h.HealthChecker.Ready(r.Context())
		resp.Status = string(health.AggregateStatus(results))
	}

	writeJSON(w, resp, http.StatusOK)
}
