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

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SuccessResponse represents a generic success response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// VersionResponse represents the response for the version endpoint.
type VersionResponse struct {
	Version string `json:"version"`
}

// StatusResponse represents the response for the server status endpoint.
type StatusResponse struct {
	Status         string   `json:"status"`
	Version        string   `json:"version"`
	Uptime         string   `json:"uptime,omitempty"`
	RelyingPartyID string   `json:"relying_party_id"`
	Origins        []string `json:"origins,omitempty"`
}
