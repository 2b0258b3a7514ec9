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
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
)

// Handler provides HTTP handlers for WebAuthn operations.
// These handlers can be mounted on any HTTP router.
type Handler struct {
	service *webauthn.Service
	logger  *slog.Logger
}

// NewHandler creates a new WebAuthn HTTP handler.
func NewHandler(service *webauthn.Service) *Handler {
	return &Handler{
		service: service,
		logger:  slog.Default(),
	}
}

// WithLogger sets a custom logger for the handler.
func (h *Handler) WithLogger(logger *slog.Logger) *Handler {
	h.logger = logger
	return h
}

// BeginRegistration handles POST /registration/begin
//
// Request body:
//
//	{
//	    "account": "user@example.com",
//	    "display_name": "User Name" // optional
//	}
//
// Response: WebAuthn credential creation options under a "publicKey" key.
// The challenge inside the options identifies the ceremony; no session
// state travels back to the client.
func (h *Handler) BeginRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var req BeginRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	if req.Account == "" {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "account is required")
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Account
	}

	options, err := h.service.BeginRegistration(r.Context(), req.Account, displayName)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, options)
}

// FinishRegistration handles POST /registration/finish
//
// Request body:
//
//	{
//	    "label": "YubiKey 5C", // optional
//	    "credential": { ... }  // PublicKeyCredential from the browser
//	}
//
// Response: {"success": true, "credentialId": "...", "deviceName": "..."}
func (h *Handler) FinishRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var req FinishRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid attestation response")
		return
	}

	result, err := h.service.FinishRegistration(r.Context(), &req.Credential, req.Label)
	if err != nil {
		h.handleVerificationError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, RegistrationResponse{
		Success:      true,
		CredentialID: webauthn.EncodeBase64URL(result.CredentialID),
		DeviceName:   result.Label,
		Trust:        string(result.Trust),
	})
}

// BeginLogin handles POST /login/begin
//
// Request body:
//
//	{
//	    "account": "user@example.com" // optional
//	}
//
// If no account is provided (or the body is empty), the discoverable
// credentials flow is used and the allow list is empty.
// Response: WebAuthn credential request options under a "publicKey" key.
func (h *Handler) BeginLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var req BeginLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Allow empty body for discoverable credentials
		req = BeginLoginRequest{}
	}

	options, err := h.service.BeginAuthentication(r.Context(), req.Account)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, options)
}

// FinishLogin handles POST /login/finish
//
// Request body: the PublicKeyCredential JSON produced by
// navigator.credentials.get().
// Response: {"success": true, "credentialId": ..., "userHandle": ...,
// "counter": ..., "userVerified": ...} plus a token when the service has a
// token generator.
func (h *Handler) FinishLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	var response webauthn.CredentialAssertionResponse
	if err := json.NewDecoder(r.Body).Decode(&response); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid assertion response")
		return
	}

	result, err := h.service.FinishAuthentication(r.Context(), &response)
	if err != nil {
		h.handleVerificationError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, LoginResponse{
		Success:      true,
		CredentialID: webauthn.EncodeBase64URL(result.CredentialID),
		UserHandle:   webauthn.EncodeBase64URL(result.AccountID),
		Counter:      result.SignCount,
		UserVerified: result.UserVerified,
		Token:        result.Token,
	})
}

// RegistrationStatus handles GET /registration/status
//
// The account is taken from the X-Account-Id header, the account_id query
// parameter, or the account (name) query parameter.
// Response: {"registered": true/false}
func (h *Handler) RegistrationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		if webauthn.IsAccountNotFound(err) {
			h.writeJSON(w, http.StatusOK, RegistrationStatusResponse{Registered: false})
			return
		}
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid account ID encoding")
		return
	}
	if accountID == nil {
		h.writeJSON(w, http.StatusOK, RegistrationStatusResponse{Registered: false})
		return
	}

	registered, err := h.service.IsRegistered(r.Context(), accountID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, RegistrationStatusResponse{Registered: registered})
}

// ListCredentials handles GET /credentials
//
// The requesting account is resolved as in RegistrationStatus. Only active
// credentials are returned, as display metadata.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if accountID == nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "account is required")
		return
	}

	creds, err := h.service.ListCredentials(r.Context(), accountID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	summaries := make([]CredentialSummary, len(creds))
	for i, cred := range creds {
		summaries[i] = CredentialSummary{
			ID:         webauthn.EncodeBase64URL(cred.ID),
			Label:      cred.Label,
			Attachment: string(cred.Attachment),
			Trust:      string(cred.Trust),
			BackedUp:   cred.Flags.BackupState,
			CreatedAt:  cred.CreatedAt,
			LastUsedAt: cred.LastUsedAt,
		}
	}

	h.writeJSON(w, http.StatusOK, summaries)
}

// RenameCredential handles PATCH /credentials/{credentialID}
//
// Request body: {"label": "new name"}
// The requesting account must own the credential.
func (h *Handler) RenameCredential(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	accountID, credID, ok := h.credentialRequestParams(w, r)
	if !ok {
		return
	}

	var req RenameCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	if err := h.service.RenameCredential(r.Context(), accountID, credID, req.Label); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveCredential handles DELETE /credentials/{credentialID}
//
// The credential is deactivated, not erased; it stops participating in all
// future ceremonies. The requesting account must own the credential.
func (h *Handler) RemoveCredential(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	accountID, credID, ok := h.credentialRequestParams(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveCredential(r.Context(), accountID, credID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CredentialByID dispatches PATCH and DELETE on /credentials/{credentialID}
// for routers without method-aware registration.
func (h *Handler) CredentialByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPatch:
		h.RenameCredential(w, r)
	case http.MethodDelete:
		h.RemoveCredential(w, r)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
	}
}

// credentialRequestParams resolves the requesting account and the credential
// ID from the trailing path segment. Writes the error response itself when
// either is missing or malformed.
func (h *Handler) credentialRequestParams(w http.ResponseWriter, r *http.Request) (accountID, credID []byte, ok bool) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		h.handleServiceError(w, err)
		return nil, nil, false
	}
	if accountID == nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "account is required")
		return nil, nil, false
	}

	credID, err = credentialIDFromPath(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid credential ID")
		return nil, nil, false
	}
	return accountID, credID, true
}

// accountIDFromRequest resolves the requesting account from the
// X-Account-Id header or the account_id / account query parameters. Returns
// (nil, nil) when no account was supplied.
func (h *Handler) accountIDFromRequest(r *http.Request) ([]byte, error) {
	if v := r.Header.Get(HeaderAccountID); v != "" {
		return base64.RawURLEncoding.DecodeString(v)
	}
	if v := r.URL.Query().Get("account_id"); v != "" {
		return base64.RawURLEncoding.DecodeString(v)
	}
	if name := r.URL.Query().Get("account"); name != "" {
		account, err := h.service.GetAccountByName(r.Context(), name)
		if err != nil {
			return nil, err
		}
		return account.ID, nil
	}
	return nil, nil
}

// credentialIDFromPath extracts the credential ID from the trailing path
// segment, keeping the handlers router-agnostic.
func credentialIDFromPath(r *http.Request) ([]byte, error) {
	seg := strings.TrimSuffix(r.URL.Path, "/")
	if i := strings.LastIndexByte(seg, '/'); i >= 0 {
		seg = seg[i+1:]
	}
	if seg == "" || seg == "credentials" {
		return nil, errors.New("missing credential ID")
	}
	return webauthn.DecodeBase64URL(seg)
}

// handleServiceError maps service errors on non-ceremony paths to HTTP
// responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case webauthn.IsAccountNotFound(err):
		h.writeError(w, http.StatusNotFound, ErrorCodeAccountNotFound, "account not found")
	case webauthn.IsCredentialNotFound(err):
		h.writeError(w, http.StatusNotFound, ErrorCodeCredentialNotFound, "credential not found")
	case webauthn.IsMaxCredentials(err):
		h.writeError(w, http.StatusConflict, ErrorCodeMaxCredentials, "credential limit reached")
	case errors.Is(err, webauthn.ErrCredentialExists):
		h.writeError(w, http.StatusConflict, ErrorCodeCredentialExists, "credential already registered")
	case errors.Is(err, webauthn.ErrInvalidLabel):
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidLabel, "invalid credential label")
	case isVerificationFailure(err):
		h.writeError(w, http.StatusUnauthorized, ErrorCodeVerificationFailed, "verification failed")
	default:
		h.writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal server error")
	}
}

// handleVerificationError maps ceremony verification errors to HTTP
// responses. All verification failures collapse into one generic response:
// telling a remote caller whether the challenge expired, the signature was
// bad, or the credential is unknown would hand an attacker an oracle. The
// distinct codes that survive concern the caller's own registration state,
// not the verification outcome.
func (h *Handler) handleVerificationError(w http.ResponseWriter, err error) {
	switch {
	case webauthn.IsMaxCredentials(err):
		h.writeError(w, http.StatusConflict, ErrorCodeMaxCredentials, "credential limit reached")
	case errors.Is(err, webauthn.ErrCredentialExists):
		h.writeError(w, http.StatusConflict, ErrorCodeCredentialExists, "credential already registered")
	case errors.Is(err, webauthn.ErrInvalidLabel):
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidLabel, "invalid credential label")
	case isVerificationFailure(err):
		h.writeError(w, http.StatusUnauthorized, ErrorCodeVerificationFailed, "verification failed")
	default:
		h.writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal server error")
	}
}

// isVerificationFailure reports whether err is one of the engine's ceremony
// verification failures. The precise reason is logged by the service.
func isVerificationFailure(err error) bool {
	for _, sentinel := range []error{
		webauthn.ErrInvalidOrigin,
		webauthn.ErrInvalidCeremonyType,
		webauthn.ErrMalformedClientData,
		webauthn.ErrChallengeNotFound,
		webauthn.ErrMalformedAuthData,
		webauthn.ErrRPIDHashMismatch,
		webauthn.ErrCredentialNotFound,
		webauthn.ErrCounterRollback,
		webauthn.ErrSignatureInvalid,
		webauthn.ErrAttestationTrust,
		webauthn.ErrUserPresence,
		webauthn.ErrUserVerification,
		webauthn.ErrUnsupportedAlgorithm,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Response headers already written, can only log the error
		h.logger.Error("failed to encode JSON response",
			"error", err,
			"status", status)
	}
}

// writeError writes an error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   code,
		Message: message,
	})
}
