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

package http

import (
	"time"

	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
)

// HeaderAccountID is the header carrying the requesting account's ID,
// base64url encoded without padding.
const HeaderAccountID = "X-Account-Id"

// BeginRegistrationRequest is the request body for starting registration.
type BeginRegistrationRequest struct {
	// Account is the account name, typically an email address (required).
	Account string `json:"account"`

	// DisplayName is the account's display name (optional, defaults to
	// the account name).
	DisplayName string `json:"display_name,omitempty"`
}

// FinishRegistrationRequest is the request body for completing registration.
type FinishRegistrationRequest struct {
	// Label optionally names the new credential (e.g. "YubiKey 5C").
	Label string `json:"label,omitempty"`

	// Credential is the PublicKeyCredential JSON produced by
	// navigator.credentials.create().
	Credential webauthn.CredentialCreationResponse `json:"credential"`
}

// BeginLoginRequest is the request body for starting authentication.
type BeginLoginRequest struct {
	// Account is the account name (optional). When absent, the
	// discoverable-credential flow is used and the account is resolved
	// from the assertion itself.
	Account string `json:"account,omitempty"`
}

// RenameCredentialRequest is the request body for renaming a credential.
type RenameCredentialRequest struct {
	// Label is the new human-readable credential label.
	Label string `json:"label"`
}

// RegistrationStatusResponse is the response for registration status.
type RegistrationStatusResponse struct {
	// Registered indicates if the account has active credentials.
	Registered bool `json:"registered"`
}

// RegistrationResponse is the response after successful registration.
type RegistrationResponse struct {
	Success      bool   `json:"success"`
	CredentialID string `json:"credentialId"`
	DeviceName   string `json:"deviceName"`
	Trust        string `json:"trust,omitempty"`
}

// LoginResponse is the response after successful authentication.
type LoginResponse struct {
	Success      bool   `json:"success"`
	CredentialID string `json:"credentialId"`
	UserHandle   string `json:"userHandle"`
	Counter      uint32 `json:"counter"`
	UserVerified bool   `json:"userVerified"`

	// Token is set when the service is configured with a token generator.
	Token string `json:"token,omitempty"`
}

// CredentialSummary is the display view of a registered credential. Key
// material and the signature counter are deliberately not included.
type CredentialSummary struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Attachment string    `json:"attachment,omitempty"`
	Trust      string    `json:"trust"`
	BackedUp   bool      `json:"backed_up"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// ErrorResponse is the response format for errors.
type ErrorResponse struct {
	Success bool `json:"success"`

	// Error is the error code.
	Error string `json:"error"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error codes returned in ErrorResponse.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeAccountNotFound    = "account_not_found"
	ErrorCodeCredentialNotFound = "credential_not_found"
	ErrorCodeCredentialExists   = "credential_exists"
	ErrorCodeMaxCredentials     = "max_credentials"
	ErrorCodeInvalidLabel       = "invalid_label"
	ErrorCodeVerificationFailed = "verification_failed"
	ErrorCodeInternalError      = "internal_error"
)
