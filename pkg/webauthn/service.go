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
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
)

// Service implements the server side of the WebAuthn challenge-response
// protocol: issuing ceremony challenges, verifying attestation and assertion
// responses, and managing the lifecycle of registered credentials.
type Service struct {
	config     *Config
	accounts   AccountStore
	challenges ChallengeStore
	creds      CredentialStore
	trust      TrustPolicy
	tokenGen   TokenGenerator // optional
	clock      Clock
	logger     *slog.Logger
	configured bool
}

// ServiceParams contains dependencies for creating a WebAuthn service.
type ServiceParams struct {
	// Config is the WebAuthn configuration (required).
	Config *Config

	// AccountStore is the account persistence layer (required).
	AccountStore AccountStore

	// ChallengeStore is the ephemeral challenge cache (required).
	ChallengeStore ChallengeStore

	// CredentialStore is the credential persistence layer (required).
	CredentialStore CredentialStore

	// TrustPolicy classifies verified attestation statements. If nil, a
	// DefaultTrustPolicy without attestation roots is used.
	TrustPolicy TrustPolicy

	// TokenGenerator is an optional token generator for post-auth tokens.
	// If nil, authentication results carry no token.
	TokenGenerator TokenGenerator

	// Clock is the time source for challenge TTLs. If nil, the system
	// clock is used.
	Clock Clock

	// Logger receives the full detail of verification failures; remote
	// callers only ever see a generic failure. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// NewService creates a new WebAuthn service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.AccountStore == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if params.ChallengeStore == nil {
		return nil, fmt.Errorf("challenge store is required")
	}
	if params.CredentialStore == nil {
		return nil, fmt.Errorf("credential store is required")
	}

	// Set defaults and validate
	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	trust := params.TrustPolicy
	if trust == nil {
		trust = &DefaultTrustPolicy{}
	}
	clock := params.Clock
	if clock == nil {
		clock = SystemClock
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		config:     params.Config,
		accounts:   params.AccountStore,
		challenges: params.ChallengeStore,
		creds:      params.CredentialStore,
		trust:      trust,
		tokenGen:   params.TokenGenerator,
		clock:      clock,
		logger:     logger,
		configured: true,
	}, nil
}

// IsRegistered checks if an account has any active credentials.
func (s *Service) IsRegistered(ctx context.Context, accountID []byte) (bool, error) {
	if !s.configured {
		return false, ErrNotConfigured
	}

	if accountID == nil {
		return false, nil
	}

	creds, err := s.activeCredentials(ctx, accountID)
	if err != nil {
		return false, WrapError("get credentials", err)
	}

	return len(creds) > 0, nil
}

// GetAccount retrieves an account by its opaque ID.
func (s *Service) GetAccount(ctx context.Context, accountID []byte) (*Account, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}

	return s.accounts.GetByID(ctx, accountID)
}

// GetAccountByName retrieves an account by its name.
func (s *Service) GetAccountByName(ctx context.Context, name string) (*Account, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}

	return s.accounts.GetByName(ctx, name)
}

// ListCredentials returns the account's active credentials. Deactivated
// credentials are retained by the store for audit history but never listed.
func (s *Service) ListCredentials(ctx context.Context, accountID []byte) ([]*Credential, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}

	return s.activeCredentials(ctx, accountID)
}

// RenameCredential updates a credential's human-readable label. Only the
// label changes; security fields are untouched. The credential must belong
// to the given account and be active.
func (s *Service) RenameCredential(ctx context.Context, accountID, credID []byte, label string) error {
	if !s.configured {
		return ErrNotConfigured
	}

	if label == "" || len(label) > MaxLabelLength {
		return NewError("rename credential", ErrInvalidLabel)
	}

	if err := s.ownedActiveCredential(ctx, accountID, credID); err != nil {
		return WrapError("rename credential", err)
	}

	if err := s.creds.UpdateLabel(ctx, credID, label); err != nil {
		return WrapError("rename credential", err)
	}
	return nil
}

// RemoveCredential deactivates a credential at the owner's request. The
// record is kept; the credential just stops participating in ceremonies.
func (s *Service) RemoveCredential(ctx context.Context, accountID, credID []byte) error {
	if !s.configured {
		return ErrNotConfigured
	}

	if err := s.ownedActiveCredential(ctx, accountID, credID); err != nil {
		return WrapError("remove credential", err)
	}

	if err := s.creds.Deactivate(ctx, credID); err != nil {
		return WrapError("remove credential", err)
	}

	s.logger.Info("credential deactivated",
		"credential_id", EncodeBase64URL(credID),
		"reason", "user removal")
	return nil
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.config
}

// activeCredentials returns the account's active credentials in
// registration order.
func (s *Service) activeCredentials(ctx context.Context, accountID []byte) ([]*Credential, error) {
	creds, err := s.creds.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	active := make([]*Credential, 0, len(creds))
	for _, cred := range creds {
		if cred.Active {
			active = append(active, cred)
		}
	}
	return active, nil
}

// ownedActiveCredential verifies the credential exists, is active, and
// belongs to the account. Cross-account access reports the same error as a
// missing credential, so callers cannot probe other accounts' credential IDs.
func (s *Service) ownedActiveCredential(ctx context.Context, accountID, credID []byte) error {
	cred, err := s.creds.GetByCredentialID(ctx, credID)
	if err != nil {
		return err
	}
	if !cred.Active || !bytes.Equal(cred.AccountID, accountID) {
		return ErrCredentialNotFound
	}
	return nil
}

// generateToken creates a post-authentication token when a generator is
// configured.
func (s *Service) generateToken(ctx context.Context, account *Account) (string, error) {
	if s.tokenGen == nil {
		return "", nil
	}
	return s.tokenGen.GenerateToken(ctx, account)
}

// logVerificationFailure records the precise reason a ceremony failed.
// This is the only place the specific failure is surfaced; remote callers
// receive a generic error.
func (s *Service) logVerificationFailure(op string, err error, attrs ...any) {
	args := append([]any{"error", err}, attrs...)
	s.logger.Warn(op+" failed", args...)
}

// accountKey renders an account ID for log output.
func accountKey(accountID []byte) string {
	return base64.RawURLEncoding.EncodeToString(accountID)
}
