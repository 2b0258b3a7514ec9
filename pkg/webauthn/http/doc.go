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

// Package http provides composable HTTP handlers for WebAuthn operations.
//
// This package allows applications to add passkey authentication to their
// existing HTTP servers without coupling to go-passkey's internal REST
// implementation.
//
// # Usage
//
// Create a handler from a WebAuthn service and mount it on your router:
//
//	svc, _ := webauthn.NewService(...)
//	handler := webauthnhttp.NewHandler(svc)
//
//	// For chi router:
//	r.Route("/api/v1/webauthn", func(r chi.Router) {
//	    webauthnhttp.MountChi(r, handler)
//	})
//
//	// For gorilla/mux:
//	webauthnhttp.MountMux(r.PathPrefix("/api/v1/webauthn").Subrouter(), handler)
//
//	// For stdlib http.ServeMux (Go 1.22+):
//	webauthnhttp.MountStdlib(mux, "/api/v1/webauthn", handler)
//
// # Endpoints
//
// The handler provides the following endpoints:
//
//	POST   /registration/begin        - Start registration ceremony
//	POST   /registration/finish       - Complete registration
//	GET    /registration/status       - Check if an account has credentials
//	POST   /login/begin               - Start authentication ceremony
//	POST   /login/finish              - Complete authentication
//	GET    /credentials               - List the account's active credentials
//	PATCH  /credentials/{id}          - Rename a credential
//	DELETE /credentials/{id}          - Deactivate a credential
//
// There is no session header: the challenge embedded in the begin options
// identifies the ceremony, and the finish request carries it back inside
// the signed client data.
//
// # Headers
//
// Credential management and status endpoints resolve the requesting account
// from:
//
//	X-Account-Id: base64url account ID (or the account_id / account
//	              query parameters)
//
// These endpoints trust the caller's account claim; deploy them behind the
// application's own authentication middleware.
//
// # Response Format
//
// All responses are JSON. Successful responses include the data directly.
// Error responses have the format:
//
//	{
//	    "success": false,
//	    "error": "error_code",
//	    "message": "Human-readable message"
//	}
//
// Ceremony verification failures deliberately share one error code
// (verification_failed); the precise reason is only logged server-side.
package http
