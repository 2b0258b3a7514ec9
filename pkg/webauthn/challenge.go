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
	"crypto/rand"
	"fmt"
)

// BeginRegistration starts the registration ceremony for the named account.
// The account is created on first use. The returned options carry a fresh
// single-use challenge and exclude the account's existing credentials so the
// authenticator refuses to enroll the same key twice.
func (s *Service) BeginRegistration(ctx context.Context, accountName, displayName string) (*CredentialCreation, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if accountName == "" {
		return nil, NewError("begin registration", fmt.Errorf("account name is required"))
	}

	account, err := s.accounts.GetByName(ctx, accountName)
	if err != nil {
		if !IsAccountNotFound(err) {
			return nil, WrapError("begin registration", err)
		}
		account, err = s.accounts.Create(ctx, accountName, displayName)
		if err != nil {
			return nil, WrapError("begin registration", err)
		}
	}

	existing, err := s.activeCredentials(ctx, account.ID)
	if err != nil {
		return nil, WrapError("begin registration", err)
	}
	if len(existing) >= s.config.MaxCredentialsPerAccount {
		return nil, NewError("begin registration", ErrMaxCredentials)
	}

	challenge, err := s.issueChallenge(ctx, CeremonyRegistration, account.ID)
	if err != nil {
		return nil, WrapError("begin registration", err)
	}

	params := make([]CredentialParameter, len(s.config.Algorithms))
	for i, alg := range s.config.Algorithms {
		params[i] = CredentialParameter{Type: credentialTypePublicKey, Algorithm: alg}
	}

	exclude := make([]CredentialDescriptor, len(existing))
	for i, cred := range existing {
		exclude[i] = CredentialDescriptor{
			Type: credentialTypePublicKey,
			ID:   cred.ID,
		}
	}

	options := CredentialCreationOptions{
		Challenge: challenge.Value,
		RelyingParty: RelyingPartyEntity{
			ID:   s.config.RPID,
			Name: s.config.RPDisplayName,
		},
		User: UserEntity{
			ID:          account.ID,
			Name:        account.Name,
			DisplayName: account.DisplayName,
		},
		Parameters:         params,
		Timeout:            s.config.TimeoutMillis(),
		ExcludeCredentials: exclude,
		AuthenticatorSelection: &AuthenticatorSelection{
			AuthenticatorAttachment: s.config.AuthenticatorAttachment,
			ResidentKey:             s.config.ResidentKeyRequirement,
			UserVerification:        s.config.UserVerification,
		},
		Attestation: s.config.AttestationPreference,
	}

	s.logger.Debug("registration ceremony started",
		"account", accountName,
		"excluded", len(exclude))

	return &CredentialCreation{Response: options}, nil
}

// BeginAuthentication starts the authentication ceremony. With an account
// name the allow list is populated from the account's active credentials;
// with an empty name the allow list is empty and any discoverable credential
// for this relying party may answer (the account is resolved from the
// assertion's user handle).
func (s *Service) BeginAuthentication(ctx context.Context, accountName string) (*CredentialAssertion, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}

	var accountID []byte
	var allow []CredentialDescriptor

	if accountName != "" {
		account, err := s.accounts.GetByName(ctx, accountName)
		if err != nil {
			return nil, WrapError("begin authentication", err)
		}
		creds, err := s.activeCredentials(ctx, account.ID)
		if err != nil {
			return nil, WrapError("begin authentication", err)
		}
		if len(creds) == 0 {
			return nil, NewError("begin authentication", ErrCredentialNotFound)
		}
		accountID = account.ID
		allow = make([]CredentialDescriptor, len(creds))
		for i, cred := range creds {
			allow[i] = CredentialDescriptor{
				Type: credentialTypePublicKey,
				ID:   cred.ID,
			}
		}
	}

	challenge, err := s.issueChallenge(ctx, CeremonyAuthentication, accountID)
	if err != nil {
		return nil, WrapError("begin authentication", err)
	}

	options := CredentialRequestOptions{
		Challenge:        challenge.Value,
		Timeout:          s.config.TimeoutMillis(),
		RelyingPartyID:   s.config.RPID,
		AllowCredentials: allow,
		UserVerification: s.config.UserVerification,
	}

	s.logger.Debug("authentication ceremony started",
		"account", accountName,
		"allowed", len(allow))

	return &CredentialAssertion{Response: options}, nil
}

// issueChallenge generates a fresh random challenge, binds it to the ceremony
// and account, and stores it for single-use consumption at finish time.
func (s *Service) issueChallenge(ctx context.Context, ceremony CeremonyType, accountID []byte) (*Challenge, error) {
	value := make([]byte, s.config.ChallengeSize)
	if _, err := rand.Read(value); err != nil {
		return nil, fmt.Errorf("failed to generate challenge: %w", err)
	}

	now := s.clock.Now()
	challenge := &Challenge{
		Value:            value,
		Ceremony:         ceremony,
		AccountID:        accountID,
		UserVerification: s.config.UserVerification,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.config.ChallengeTTL),
	}
	if err := s.challenges.Put(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}
	return challenge, nil
}
