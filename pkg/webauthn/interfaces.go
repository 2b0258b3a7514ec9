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
	"context"
	"time"
)

// AccountStore is the interface applications implement for account
// persistence. This interface is intentionally minimal - applications bring
// their own user model.
type AccountStore interface {
	// GetByID retrieves an account by its opaque ID (the WebAuthn user handle).
	// Returns ErrAccountNotFound if the account does not exist.
	GetByID(ctx context.Context, accountID []byte) (*Account, error)

	// GetByName retrieves an account by its name (typically an email address).
	// Returns ErrAccountNotFound if the account does not exist.
	GetByName(ctx context.Context, name string) (*Account, error)

	// Create creates a new account with the given name and display name.
	// Returns the created account with its assigned ID, or ErrAccountExists.
	Create(ctx context.Context, name, displayName string) (*Account, error)

	// Delete removes an account by its ID.
	// Returns ErrAccountNotFound if the account does not exist.
	Delete(ctx context.Context, accountID []byte) error
}

// ChallengeStore is the ephemeral cache for in-flight ceremony challenges,
// keyed by challenge value. Entries expire on their own TTL; consumption is
// a single atomic check-and-delete so that two concurrent responses can
// never both observe the same challenge as present.
type ChallengeStore interface {
	// Put stores an issued challenge until it is consumed or expires.
	Put(ctx context.Context, challenge *Challenge) error

	// Consume atomically removes and returns the challenge with the given
	// value. Returns ErrChallengeNotFound when the value is unknown, already
	// consumed, or past its TTL. At most one caller ever receives a given
	// challenge.
	Consume(ctx context.Context, value []byte) (*Challenge, error)
}

// CredentialStore manages registered authenticator credentials. Credentials
// are the public key records stored by the Relying Party.
type CredentialStore interface {
	// Save stores a new credential. The credential ID is unique across the
	// whole system; Save returns ErrCredentialExists on a duplicate.
	Save(ctx context.Context, cred *Credential) error

	// GetByAccountID retrieves all credentials for an account, active and
	// inactive, in registration order. Returns an empty slice if the
	// account has none.
	GetByAccountID(ctx context.Context, accountID []byte) ([]*Credential, error)

	// GetByCredentialID retrieves a credential by its ID.
	// Returns ErrCredentialNotFound if the credential does not exist.
	GetByCredentialID(ctx context.Context, credID []byte) (*Credential, error)

	// UpdateCounter performs an atomic compare-and-set of the signature
	// counter: the stored counter must still equal oldCount when newCount
	// and usedAt are written. Returns ErrCounterRollback when the stored
	// value has moved, so a lost race fails exactly like a replayed counter.
	// Returns ErrCredentialNotFound if the credential is missing or inactive.
	UpdateCounter(ctx context.Context, credID []byte, oldCount, newCount uint32, usedAt time.Time) error

	// UpdateLabel replaces the credential's human-readable label. Security
	// fields are never touched. Returns ErrCredentialNotFound if the
	// credential does not exist.
	UpdateLabel(ctx context.Context, credID []byte, label string) error

	// Deactivate marks the credential inactive, excluding it from all
	// future ceremonies while retaining its history. Deactivating an
	// already-inactive credential is a no-op.
	// Returns ErrCredentialNotFound if the credential does not exist.
	Deactivate(ctx context.Context, credID []byte) error
}

// Clock abstracts the time source used for challenge TTL decisions so the
// engine can be tested with a fake clock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the default Clock backed by time.Now.
var SystemClock Clock = ClockFunc(time.Now)

// TrustPolicy evaluates the verified attestation statement of a registration
// response and assigns the credential's trust class. The verifier has
// already checked signatures and certificate constraints before a policy
// sees the result; the policy decides whether the provenance is acceptable
// and how it is classified.
type TrustPolicy interface {
	// Assess returns the trust class for the attestation result, or
	// ErrAttestationTrust when the configured policy rejects it.
	Assess(ctx context.Context, att *AttestationResult) (TrustClass, error)
}

// TokenGenerator is an optional hook for issuing a bearer token after a
// successful authentication ceremony.
type TokenGenerator interface {
	// GenerateToken creates a JWT or other token for the authenticated account.
	GenerateToken(ctx context.Context, account *Account) (string, error)
}
