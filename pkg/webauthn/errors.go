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

package webauthn

import (
	"errors"
	"fmt"
)

// Sentinel errors for WebAuthn ceremony verification and credential
// lifecycle operations. Verification failures are reported to remote
// callers as a generic failure; these values are for server-side logging
// and programmatic handling only.
var (
	// ErrInvalidOrigin is returned when the client data origin does not
	// exactly match a configured relying party origin.
	ErrInvalidOrigin = errors.New("origin mismatch")

	// ErrInvalidCeremonyType is returned when the client data type does not
	// match the expected ceremony (webauthn.create or webauthn.get).
	ErrInvalidCeremonyType = errors.New("invalid ceremony type")

	// ErrMalformedClientData is returned when the client data JSON cannot
	// be decoded at all.
	ErrMalformedClientData = errors.New("malformed client data")

	// ErrChallengeNotFound is returned when the challenge embedded in a
	// response does not match an outstanding challenge, has expired, or was
	// already consumed by an earlier response.
	ErrChallengeNotFound = errors.New("challenge not found or expired")

	// ErrMalformedAuthData is returned when the binary authenticator data
	// cannot be decoded: short buffer, truncated attested credential data,
	// or trailing bytes not accounted for by the flag byte.
	ErrMalformedAuthData = errors.New("malformed authenticator data")

	// ErrRPIDHashMismatch is returned when the relying party ID hash in the
	// authenticator data does not match the configured relying party ID.
	ErrRPIDHashMismatch = errors.New("relying party ID hash mismatch")

	// ErrCredentialNotFound is returned when a credential cannot be found,
	// is inactive, or belongs to a different account than the caller.
	ErrCredentialNotFound = errors.New("credential not found or inactive")

	// ErrCredentialExists is returned when registering a credential whose
	// identifier is already present in the store.
	ErrCredentialExists = errors.New("credential already exists")

	// ErrCounterRollback is returned when an assertion reports a signature
	// counter less than or equal to the stored value. The credential is
	// deactivated before this error is returned: a non-incrementing counter
	// indicates a cloned authenticator or a replayed response.
	ErrCounterRollback = errors.New("signature counter rollback detected")

	// ErrSignatureInvalid is returned when the assertion or attestation
	// signature does not verify against the expected public key.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrAttestationTrust is returned when the attestation statement fails
	// trust verification under the configured policy.
	ErrAttestationTrust = errors.New("attestation trust verification failed")

	// ErrMaxCredentials is returned when registration would exceed the
	// configured per-account credential ceiling.
	ErrMaxCredentials = errors.New("maximum credentials per account reached")

	// ErrUnsupportedAlgorithm is returned when a credential public key uses
	// a key type or signature algorithm the engine does not support.
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")

	// ErrUserPresence is returned when the authenticator did not assert
	// user presence.
	ErrUserPresence = errors.New("user presence flag not set")

	// ErrUserVerification is returned when the ceremony required user
	// verification but the authenticator did not perform it.
	ErrUserVerification = errors.New("user verification required")

	// ErrAccountNotFound is returned when an account cannot be found.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned when attempting to create an account that
	// already exists.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidLabel is returned when a credential label is empty or longer
	// than MaxLabelLength.
	ErrInvalidLabel = errors.New("invalid credential label")

	// ErrNotConfigured is returned when the service is not properly configured.
	ErrNotConfigured = errors.New("webauthn service not configured")
)

// WebAuthnError wraps an error with the operation that produced it.
type WebAuthnError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *WebAuthnError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *WebAuthnError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *WebAuthnError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new WebAuthnError with the given operation and error.
func NewError(op string, err error) error {
	return &WebAuthnError{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// IsChallengeNotFound returns true if the error indicates the challenge was
// missing, expired or already consumed.
func IsChallengeNotFound(err error) bool {
	return errors.Is(err, ErrChallengeNotFound)
}

// IsCredentialNotFound returns true if the error indicates a credential was
// not found or is inactive.
func IsCredentialNotFound(err error) bool {
	return errors.Is(err, ErrCredentialNotFound)
}

// IsCounterRollback returns true if the error indicates a signature counter
// rollback was detected and the credential deactivated.
func IsCounterRollback(err error) bool {
	return errors.Is(err, ErrCounterRollback)
}

// IsSignatureInvalid returns true if the error indicates signature
// verification failed.
func IsSignatureInvalid(err error) bool {
	return errors.Is(err, ErrSignatureInvalid)
}

// IsMaxCredentials returns true if the error indicates the per-account
// credential ceiling was reached.
func IsMaxCredentials(err error) bool {
	return errors.Is(err, ErrMaxCredentials)
}

// IsAccountNotFound returns true if the error indicates an account was not found.
func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
