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
	"encoding/binary"
	"time"
)

// CeremonyType identifies which ceremony a challenge was issued for.
type CeremonyType string

const (
	// CeremonyRegistration is a credential registration (attestation) ceremony.
	CeremonyRegistration CeremonyType = "registration"

	// CeremonyAuthentication is an authentication (assertion) ceremony.
	CeremonyAuthentication CeremonyType = "authentication"
)

// UserVerification expresses the relying party's user verification policy
// for a ceremony.
type UserVerification string

const (
	// VerificationRequired requires user verification (PIN, biometric).
	VerificationRequired UserVerification = "required"

	// VerificationPreferred requests user verification but accepts responses
	// without it.
	VerificationPreferred UserVerification = "preferred"

	// VerificationDiscouraged asks the authenticator to skip user verification.
	VerificationDiscouraged UserVerification = "discouraged"
)

// AttestationConveyance expresses how much attestation information the
// relying party wants at registration.
type AttestationConveyance string

const (
	// AttestationNone requests no attestation statement.
	AttestationNone AttestationConveyance = "none"

	// AttestationIndirect allows the client to substitute an anonymized
	// attestation statement.
	AttestationIndirect AttestationConveyance = "indirect"

	// AttestationDirect requests the authenticator's own attestation
	// statement. Registration fails when the response carries none.
	AttestationDirect AttestationConveyance = "direct"
)

// AuthenticatorAttachment describes how an authenticator is attached to the
// client device.
type AuthenticatorAttachment string

const (
	// AttachmentPlatform is a built-in authenticator (TPM, Secure Enclave).
	AttachmentPlatform AuthenticatorAttachment = "platform"

	// AttachmentCrossPlatform is a roaming authenticator (USB/NFC/BLE key).
	AttachmentCrossPlatform AuthenticatorAttachment = "cross-platform"
)

// ResidentKeyRequirement expresses the relying party's preference for
// discoverable credentials.
type ResidentKeyRequirement string

const (
	// ResidentKeyRequired requires a discoverable credential.
	ResidentKeyRequired ResidentKeyRequirement = "required"

	// ResidentKeyPreferred requests a discoverable credential if supported.
	ResidentKeyPreferred ResidentKeyRequirement = "preferred"

	// ResidentKeyDiscouraged prefers a server-side credential.
	ResidentKeyDiscouraged ResidentKeyRequirement = "discouraged"
)

// TrustClass is the attestation trust level recorded on a credential at
// registration time.
type TrustClass string

const (
	// TrustNone means no attestation statement was provided or verified.
	TrustNone TrustClass = "none"

	// TrustSelf means the attestation was signed by the credential key itself.
	TrustSelf TrustClass = "self"

	// TrustBasic means the attestation chain verified against the certificates
	// carried in the response but was not anchored to a configured root.
	TrustBasic TrustClass = "basic"

	// TrustCA means the attestation chain verified against a configured
	// attestation root.
	TrustCA TrustClass = "ca"
)

// MaxLabelLength is the longest accepted human-readable credential label.
const MaxLabelLength = 64

// Challenge is a single-use ceremony token. It is created by the challenge
// issuer, held in the ephemeral challenge store until consumed or expired,
// and deleted atomically on first use.
type Challenge struct {
	// Value is the random challenge, at least 32 bytes of entropy.
	Value []byte `json:"value"`

	// Ceremony records which ceremony the challenge was issued for.
	Ceremony CeremonyType `json:"ceremony"`

	// AccountID is the owning account. It is nil for discoverable
	// authentication, where the account is resolved from the response.
	AccountID []byte `json:"account_id,omitempty"`

	// UserVerification is the verification policy requested at issuance.
	UserVerification UserVerification `json:"user_verification"`

	// CreatedAt is when the challenge was issued.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is when the challenge becomes unusable.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the challenge is past its TTL at the given time.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Account is the minimal account record the engine needs to drive ceremonies:
// a stable opaque identifier plus the names shown by the client platform.
// Profile data beyond this lives in the surrounding system.
type Account struct {
	// ID is the opaque account identifier, used as the WebAuthn user handle.
	ID []byte `json:"id"`

	// Name is the account name, typically an email address.
	Name string `json:"name"`

	// DisplayName is the human-friendly name shown during ceremonies.
	DisplayName string `json:"display_name"`

	// CreatedAt is when the account record was created.
	CreatedAt time.Time `json:"created_at"`
}

// GenerateAccountID generates a deterministic account ID from an account name.
// The ID is an 8-byte value suitable for WebAuthn user handles.
func GenerateAccountID(name string) []byte {
	// FNV-1a for a deterministic, stable ID
	var h uint64 = 14695981039346656037 // FNV offset basis
	for _, b := range []byte(name) {
		h ^= uint64(b)
		h *= 1099511628211 // FNV prime
	}
	id := make([]byte, 8)
	binary.BigEndian.PutUint64(id, h)
	return id
}

// CredentialFlags records the authenticator flag bits observed when the
// credential was registered.
type CredentialFlags struct {
	// UserPresent indicates the user was present during the operation.
	UserPresent bool `json:"user_present"`

	// UserVerified indicates the user was verified (e.g., biometric, PIN).
	UserVerified bool `json:"user_verified"`

	// BackupEligible indicates the credential can be backed up.
	BackupEligible bool `json:"backup_eligible"`

	// BackupState indicates the credential is currently backed up.
	BackupState bool `json:"backup_state"`
}

// Credential is a registered authenticator bound to one account.
type Credential struct {
	// ID is the credential identifier assigned by the authenticator.
	// It is unique across the whole system.
	ID []byte `json:"id"`

	// AccountID is the account this credential belongs to.
	AccountID []byte `json:"account_id"`

	// PublicKey is the credential's public key in COSE format, exactly as
	// carried in the attested credential data at registration.
	PublicKey []byte `json:"public_key"`

	// Algorithm is the COSE signature algorithm negotiated at registration.
	Algorithm Algorithm `json:"algorithm"`

	// AAGUID identifies the authenticator model, all zeros when withheld.
	AAGUID []byte `json:"aaguid,omitempty"`

	// SignCount is the monotonic signature counter. A reported value less
	// than or equal to this permanently deactivates the credential.
	SignCount uint32 `json:"sign_count"`

	// Label is the human-readable device label.
	Label string `json:"label"`

	// Attachment records how the authenticator was attached at registration.
	Attachment AuthenticatorAttachment `json:"attachment,omitempty"`

	// Trust is the attestation trust class established at registration.
	Trust TrustClass `json:"trust"`

	// Flags are the authenticator flag bits observed at registration.
	Flags CredentialFlags `json:"flags"`

	// Active is false once the credential has been deactivated, either by
	// the replay guard or by explicit removal. Inactive credentials are
	// excluded from all ceremonies but their history is retained.
	Active bool `json:"active"`

	// CreatedAt is when the credential was registered.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is when the credential last completed an assertion.
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
}

// AuthenticationResult is the outcome of a successful assertion.
type AuthenticationResult struct {
	// AccountID is the authenticated account.
	AccountID []byte `json:"account_id"`

	// CredentialID is the credential that produced the assertion.
	CredentialID []byte `json:"credential_id"`

	// UserVerified reports whether the authenticator verified the user.
	UserVerified bool `json:"user_verified"`

	// SignCount is the counter value stored after the assertion.
	SignCount uint32 `json:"sign_count"`

	// Token is a bearer token for the authenticated account when a token
	// generator is configured, empty otherwise.
	Token string `json:"token,omitempty"`
}

// RegistrationResult is the outcome of a successful registration.
type RegistrationResult struct {
	// CredentialID is the newly registered credential.
	CredentialID []byte `json:"credential_id"`

	// Label is the label stored on the credential.
	Label string `json:"label"`

	// Trust is the attestation trust class established for the credential.
	Trust TrustClass `json:"trust"`
}
