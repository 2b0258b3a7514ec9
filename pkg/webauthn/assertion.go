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
	"crypto/sha256"
	"fmt"
)

// FinishAuthentication verifies an assertion response. The challenge is
// consumed first and is never usable again; the credential counter advances
// through an atomic compare-and-set so two concurrent assertions cannot both
// succeed against the same stored value. A counter that fails to advance is
// treated as evidence of a cloned authenticator: the credential is
// permanently deactivated, not merely rejected.
func (s *Service) FinishAuthentication(ctx context.Context, response *CredentialAssertionResponse) (*AuthenticationResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if response == nil {
		return nil, NewError("finish authentication", fmt.Errorf("response is required"))
	}

	clientData := []byte(response.Response.ClientDataJSON)
	challengeValue, err := s.verifyClientData(clientData, clientDataTypeGet)
	if err != nil {
		s.logVerificationFailure("authentication", err)
		return nil, WrapError("finish authentication", err)
	}

	// Single use: consumed before anything else can fail.
	challenge, err := s.consumeChallenge(ctx, challengeValue, CeremonyAuthentication)
	if err != nil {
		s.logVerificationFailure("authentication", err)
		return nil, WrapError("finish authentication", err)
	}

	credID := []byte(response.RawID)
	if len(credID) == 0 {
		credID, err = DecodeBase64URL(response.ID)
		if err != nil {
			err = fmt.Errorf("%w: invalid credential ID", ErrMalformedClientData)
			s.logVerificationFailure("authentication", err)
			return nil, WrapError("finish authentication", err)
		}
	}

	cred, err := s.creds.GetByCredentialID(ctx, credID)
	if err != nil {
		s.logVerificationFailure("authentication", err)
		return nil, WrapError("finish authentication", err)
	}
	if !cred.Active {
		s.logVerificationFailure("authentication", ErrCredentialNotFound,
			"credential_id", EncodeBase64URL(credID))
		return nil, WrapError("finish authentication", ErrCredentialNotFound)
	}

	// The credential must answer for the account the ceremony was issued
	// to, and for the user handle the authenticator reported. A mismatch
	// is indistinguishable from an unknown credential to the caller.
	if len(challenge.AccountID) > 0 && !bytes.Equal(challenge.AccountID, cred.AccountID) {
		s.logVerificationFailure("authentication", ErrCredentialNotFound,
			"reason", "credential does not belong to challenged account")
		return nil, WrapError("finish authentication", ErrCredentialNotFound)
	}
	if handle := []byte(response.Response.UserHandle); len(handle) > 0 && !bytes.Equal(handle, cred.AccountID) {
		s.logVerificationFailure("authentication", ErrCredentialNotFound,
			"reason", "user handle does not match credential owner")
		return nil, WrapError("finish authentication", ErrCredentialNotFound)
	}

	rawAuthData := []byte(response.Response.AuthenticatorData)
	authData, err := ParseAuthenticatorData(rawAuthData)
	if err != nil {
		s.logVerificationFailure("authentication", err)
		return nil, WrapError("finish authentication", err)
	}

	if err := s.verifyRPIDHash(authData); err != nil {
		s.logVerificationFailure("authentication", err)
		return nil, WrapError("finish authentication", err)
	}

	if err := verifyCeremonyFlags(authData.Flags, challenge.UserVerification); err != nil {
		s.logVerificationFailure("authentication", err)
		return nil, WrapError("finish authentication", err)
	}

	// Replay guard. A counter at or below the stored value means a prior
	// response was captured or the key was cloned.
	if authData.SignCount <= cred.SignCount {
		return nil, WrapError("finish authentication",
			s.counterRollback(ctx, cred, authData.SignCount))
	}

	pub, err := ParsePublicKey(cred.PublicKey)
	if err != nil {
		return nil, WrapError("finish authentication", fmt.Errorf("stored public key: %w", err))
	}

	clientDataHash := sha256.Sum256(clientData)
	signed := make([]byte, 0, len(rawAuthData)+len(clientDataHash))
	signed = append(signed, rawAuthData...)
	signed = append(signed, clientDataHash[:]...)

	if err := pub.Verify(signed, response.Response.Signature); err != nil {
		s.logVerificationFailure("authentication", err,
			"credential_id", EncodeBase64URL(cred.ID))
		return nil, WrapError("finish authentication", err)
	}

	// Compare-and-set against the counter read above. Losing the race
	// means another assertion advanced the counter concurrently, which the
	// replay guard treats the same as a rollback observed at read time.
	if err := s.creds.UpdateCounter(ctx, cred.ID, cred.SignCount, authData.SignCount, s.clock.Now()); err != nil {
		if IsCounterRollback(err) {
			return nil, WrapError("finish authentication",
				s.counterRollback(ctx, cred, authData.SignCount))
		}
		return nil, WrapError("finish authentication", err)
	}

	var token string
	if s.tokenGen != nil {
		account, err := s.accounts.GetByID(ctx, cred.AccountID)
		if err != nil {
			return nil, WrapError("finish authentication", err)
		}
		token, err = s.generateToken(ctx, account)
		if err != nil {
			return nil, WrapError("finish authentication", err)
		}
	}

	s.logger.Info("authentication verified",
		"account", accountKey(cred.AccountID),
		"credential_id", EncodeBase64URL(cred.ID),
		"user_verified", authData.Flags.UserVerified(),
		"sign_count", authData.SignCount)

	return &AuthenticationResult{
		AccountID:    cred.AccountID,
		CredentialID: cred.ID,
		UserVerified: authData.Flags.UserVerified(),
		SignCount:    authData.SignCount,
		Token:        token,
	}, nil
}

// counterRollback permanently deactivates a credential whose counter failed
// to advance and returns the typed failure. Deactivation is deliberate state
// mutation on a failure path: a non-incrementing counter means the
// authenticator's prior responses may be in an attacker's hands, so the
// credential cannot be trusted for any future ceremony.
func (s *Service) counterRollback(ctx context.Context, cred *Credential, reported uint32) error {
	if err := s.creds.Deactivate(ctx, cred.ID); err != nil && !IsCredentialNotFound(err) {
		s.logger.Error("failed to deactivate credential after counter rollback",
			"credential_id", EncodeBase64URL(cred.ID),
			"error", err)
	}

	err := fmt.Errorf("%w: reported %d, stored %d", ErrCounterRollback, reported, cred.SignCount)
	s.logVerificationFailure("authentication", err,
		"credential_id", EncodeBase64URL(cred.ID))
	return err
}
