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
	"encoding/json"
	"fmt"
)

// Client data ceremony types (WebAuthn §5.8.1).
const (
	clientDataTypeCreate = "webauthn.create"
	clientDataTypeGet    = "webauthn.get"
)

// credentialTypePublicKey is the only credential type the protocol defines.
const credentialTypePublicKey = "public-key"

// RelyingPartyEntity identifies the relying party in creation options.
type RelyingPartyEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserEntity identifies the registering account in creation options.
type UserEntity struct {
	ID          URLEncodedBase64 `json:"id"`
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName"`
}

// CredentialParameter advertises an acceptable signature algorithm.
type CredentialParameter struct {
	Type      string    `json:"type"`
	Algorithm Algorithm `json:"alg"`
}

// CredentialDescriptor references an existing credential in exclusion and
// allow lists.
type CredentialDescriptor struct {
	Type string           `json:"type"`
	ID   URLEncodedBase64 `json:"id"`
}

// AuthenticatorSelection expresses the relying party's authenticator policy
// for registration.
type AuthenticatorSelection struct {
	AuthenticatorAttachment AuthenticatorAttachment `json:"authenticatorAttachment,omitempty"`
	ResidentKey             ResidentKeyRequirement  `json:"residentKey,omitempty"`
	UserVerification        UserVerification        `json:"userVerification,omitempty"`
}

// CredentialCreationOptions carries everything a client needs to run a
// credential creation ceremony.
type CredentialCreationOptions struct {
	Challenge              URLEncodedBase64        `json:"challenge"`
	RelyingParty           RelyingPartyEntity      `json:"rp"`
	User                   UserEntity              `json:"user"`
	Parameters             []CredentialParameter   `json:"pubKeyCredParams"`
	Timeout                int                     `json:"timeout,omitempty"`
	ExcludeCredentials     []CredentialDescriptor  `json:"excludeCredentials,omitempty"`
	AuthenticatorSelection *AuthenticatorSelection `json:"authenticatorSelection,omitempty"`
	Attestation            AttestationConveyance   `json:"attestation,omitempty"`
}

// CredentialCreation is the standard JSON envelope for creation options, as
// consumed by navigator.credentials.create.
type CredentialCreation struct {
	Response CredentialCreationOptions `json:"publicKey"`
}

// CredentialRequestOptions carries everything a client needs to run an
// authentication ceremony.
type CredentialRequestOptions struct {
	Challenge        URLEncodedBase64       `json:"challenge"`
	Timeout          int                    `json:"timeout,omitempty"`
	RelyingPartyID   string                 `json:"rpId"`
	AllowCredentials []CredentialDescriptor `json:"allowCredentials,omitempty"`
	UserVerification UserVerification       `json:"userVerification,omitempty"`
}

// CredentialAssertion is the standard JSON envelope for request options, as
// consumed by navigator.credentials.get.
type CredentialAssertion struct {
	Response CredentialRequestOptions `json:"publicKey"`
}

// AuthenticatorAttestationResponse is the authenticator's answer to a
// creation ceremony.
type AuthenticatorAttestationResponse struct {
	ClientDataJSON    URLEncodedBase64 `json:"clientDataJSON"`
	AttestationObject URLEncodedBase64 `json:"attestationObject"`
	Transports        []string         `json:"transports,omitempty"`
}

// CredentialCreationResponse is the registration response submitted by the
// client: the new credential identifier plus the raw attestation material.
type CredentialCreationResponse struct {
	ID                      string                           `json:"id"`
	RawID                   URLEncodedBase64                 `json:"rawId"`
	Type                    string                           `json:"type"`
	AuthenticatorAttachment string                           `json:"authenticatorAttachment,omitempty"`
	Response                AuthenticatorAttestationResponse `json:"response"`
}

// AuthenticatorAssertionResponse is the authenticator's answer to an
// authentication ceremony.
type AuthenticatorAssertionResponse struct {
	ClientDataJSON    URLEncodedBase64 `json:"clientDataJSON"`
	AuthenticatorData URLEncodedBase64 `json:"authenticatorData"`
	Signature         URLEncodedBase64 `json:"signature"`
	UserHandle        URLEncodedBase64 `json:"userHandle,omitempty"`
}

// CredentialAssertionResponse is the authentication response submitted by
// the client.
type CredentialAssertionResponse struct {
	ID       string                         `json:"id"`
	RawID    URLEncodedBase64               `json:"rawId"`
	Type     string                         `json:"type"`
	Response AuthenticatorAssertionResponse `json:"response"`
}

// collectedClientData is the client data JSON assembled by the browser and
// signed over (via its hash) by the authenticator.
type collectedClientData struct {
	Type        string `json:"type"`
	Challenge   string `json:"challenge"`
	Origin      string `json:"origin"`
	CrossOrigin bool   `json:"crossOrigin,omitempty"`
}

// verifyClientData decodes the raw client data JSON and applies the
// client-data gates in order: ceremony type, exact origin match, challenge
// extraction. It returns the embedded challenge value on success.
func (s *Service) verifyClientData(raw []byte, wantType string) ([]byte, error) {
	var cd collectedClientData
	if err := json.Unmarshal(raw, &cd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedClientData, err)
	}

	if cd.Type != wantType {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCeremonyType, cd.Type)
	}

	if !s.allowedOrigin(cd.Origin) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, cd.Origin)
	}

	challenge, err := DecodeBase64URL(cd.Challenge)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable challenge", ErrMalformedClientData)
	}
	return challenge, nil
}

// allowedOrigin reports whether origin exactly matches one of the configured
// relying party origins (scheme + host + port, no normalization).
func (s *Service) allowedOrigin(origin string) bool {
	for _, allowed := range s.config.RPOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// consumeChallenge atomically consumes the challenge embedded in a response
// and checks it was issued for the expected ceremony. Consumption happens
// before any further verification: whatever the outcome, the challenge is
// spent.
func (s *Service) consumeChallenge(ctx context.Context, value []byte, ceremony CeremonyType) (*Challenge, error) {
	challenge, err := s.challenges.Consume(ctx, value)
	if err != nil {
		return nil, err
	}
	if challenge.Ceremony != ceremony {
		return nil, ErrChallengeNotFound
	}
	return challenge, nil
}
