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
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Attestation statement format identifiers (IANA WebAuthn registry).
const (
	formatNone   = "none"
	formatPacked = "packed"
)

// defaultCredentialLabel names credentials registered without a label.
const defaultCredentialLabel = "passkey"

// oidAAGUID is the id-fido-gen-ce-aaguid certificate extension carrying the
// authenticator model identifier.
var oidAAGUID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 45724, 1, 1, 4}

// attestationObject is the top-level CBOR structure of a registration
// response. The statement is kept raw until the format is known.
type attestationObject struct {
	AuthData []byte          `cbor:"authData"`
	Format   string          `cbor:"fmt"`
	AttStmt  cbor.RawMessage `cbor:"attStmt"`
}

// packedStatement is the attestation statement of the "packed" format.
type packedStatement struct {
	Algorithm Algorithm `cbor:"alg"`
	Signature []byte    `cbor:"sig"`
	X5C       [][]byte  `cbor:"x5c"`
}

// AttestationResult describes what a verified attestation statement proved
// about a new credential. It is handed to the TrustPolicy for classification.
type AttestationResult struct {
	// Format is the attestation statement format identifier as sent.
	Format string

	// AAGUID identifies the authenticator model, all zeros when the
	// authenticator declined to identify itself.
	AAGUID []byte

	// TrustPath holds the verified x5c certificate chain, leaf first,
	// when the statement carried one.
	TrustPath []*x509.Certificate

	// SelfAttested is true when the statement was signed with the
	// credential key itself rather than an attestation key.
	SelfAttested bool
}

// FinishRegistration verifies a registration response and persists the new
// credential. Every check is a hard gate: the store is only written after
// the whole response has verified, except that the challenge is consumed
// up front so it can never be presented twice. Remote callers should be
// shown a generic failure; the precise reason is logged here.
func (s *Service) FinishRegistration(ctx context.Context, response *CredentialCreationResponse, label string) (*RegistrationResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if response == nil {
		return nil, NewError("finish registration", fmt.Errorf("response is required"))
	}
	if label == "" {
		label = defaultCredentialLabel
	}
	if len(label) > MaxLabelLength {
		return nil, NewError("finish registration", ErrInvalidLabel)
	}

	clientData := []byte(response.Response.ClientDataJSON)
	challengeValue, err := s.verifyClientData(clientData, clientDataTypeCreate)
	if err != nil {
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}

	// Consumed before any further checks so a second response carrying
	// the same challenge always fails, whatever happens to this one.
	challenge, err := s.consumeChallenge(ctx, challengeValue, CeremonyRegistration)
	if err != nil {
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}

	var attObj attestationObject
	if err := cbor.Unmarshal(response.Response.AttestationObject, &attObj); err != nil {
		err = fmt.Errorf("%w: invalid attestation object: %v", ErrMalformedAuthData, err)
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}

	authData, err := ParseAuthenticatorData(attObj.AuthData)
	if err != nil {
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}

	if err := s.verifyRPIDHash(authData); err != nil {
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}

	if err := verifyCeremonyFlags(authData.Flags, challenge.UserVerification); err != nil {
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}

	if authData.AttestedCredential == nil {
		err = fmt.Errorf("%w: attested credential data not present", ErrMalformedAuthData)
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}
	attested := authData.AttestedCredential

	// The transport-level rawId must name the credential the authenticator
	// actually attested.
	if len(response.RawID) != 0 && !bytes.Equal(response.RawID, attested.CredentialID) {
		err = fmt.Errorf("%w: rawId does not match attested credential ID", ErrMalformedAuthData)
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}

	if !s.allowedAlgorithm(attested.PublicKey.Algorithm) {
		err = fmt.Errorf("%w: %s was not offered to the authenticator", ErrUnsupportedAlgorithm, attested.PublicKey.Algorithm)
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}

	clientDataHash := sha256.Sum256(clientData)
	att, err := s.verifyAttestationStatement(&attObj, attested, clientDataHash[:])
	if err != nil {
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}

	trust, err := s.trust.Assess(ctx, att)
	if err != nil {
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}
	if s.config.AttestationPreference == AttestationDirect && trust == TrustNone {
		err = fmt.Errorf("%w: direct attestation requested but none provided", ErrAttestationTrust)
		s.logVerificationFailure("registration", err)
		return nil, WrapError("finish registration", err)
	}

	// The ceiling was checked when the ceremony began; re-check at write
	// time in case a concurrent registration landed since.
	existing, err := s.activeCredentials(ctx, challenge.AccountID)
	if err != nil {
		return nil, WrapError("finish registration", err)
	}
	if len(existing) >= s.config.MaxCredentialsPerAccount {
		return nil, NewError("finish registration", ErrMaxCredentials)
	}

	attachment := s.config.AuthenticatorAttachment
	switch AuthenticatorAttachment(response.AuthenticatorAttachment) {
	case AttachmentPlatform, AttachmentCrossPlatform:
		attachment = AuthenticatorAttachment(response.AuthenticatorAttachment)
	}

	cred := &Credential{
		ID:         attested.CredentialID,
		AccountID:  challenge.AccountID,
		PublicKey:  attested.PublicKeyBytes,
		Algorithm:  attested.PublicKey.Algorithm,
		AAGUID:     attested.AAGUID,
		SignCount:  authData.SignCount,
		Label:      label,
		Attachment: attachment,
		Trust:      trust,
		Flags: CredentialFlags{
			UserPresent:    authData.Flags.UserPresent(),
			UserVerified:   authData.Flags.UserVerified(),
			BackupEligible: authData.Flags.BackupEligible(),
			BackupState:    authData.Flags.BackupState(),
		},
		Active:    true,
		CreatedAt: s.clock.Now(),
	}
	if err := s.creds.Save(ctx, cred); err != nil {
		return nil, WrapError("finish registration", err)
	}

	s.logger.Info("credential registered",
		"account", accountKey(challenge.AccountID),
		"credential_id", EncodeBase64URL(cred.ID),
		"algorithm", cred.Algorithm.String(),
		"trust", string(trust),
		"sign_count", cred.SignCount)

	return &RegistrationResult{
		CredentialID: cred.ID,
		Label:        cred.Label,
		Trust:        trust,
	}, nil
}

// verifyRPIDHash asserts the authenticator data was produced for the
// configured relying party.
func (s *Service) verifyRPIDHash(authData *AuthenticatorData) error {
	want := sha256.Sum256([]byte(s.config.RPID))
	if !bytes.Equal(authData.RPIDHash, want[:]) {
		return fmt.Errorf("%w: authenticator data not for %q", ErrRPIDHashMismatch, s.config.RPID)
	}
	return nil
}

// verifyCeremonyFlags enforces the flag bits the ceremony demands. User
// presence is always required; user verification only when the challenge
// was issued under a "required" policy.
func verifyCeremonyFlags(flags AuthenticatorFlags, policy UserVerification) error {
	if !flags.UserPresent() {
		return ErrUserPresence
	}
	if policy == VerificationRequired && !flags.UserVerified() {
		return ErrUserVerification
	}
	return nil
}

// allowedAlgorithm reports whether the algorithm was offered in the
// registration options.
func (s *Service) allowedAlgorithm(alg Algorithm) bool {
	for _, a := range s.config.Algorithms {
		if a == alg {
			return true
		}
	}
	return false
}

// verifyAttestationStatement validates the attestation statement against the
// signed ceremony data and reports what it proved. When the attestation
// preference is "none" a non-trivial statement is ignored rather than
// verified, and confers no trust.
func (s *Service) verifyAttestationStatement(obj *attestationObject, attested *AttestedCredentialData, clientDataHash []byte) (*AttestationResult, error) {
	result := &AttestationResult{
		Format: obj.Format,
		AAGUID: attested.AAGUID,
	}

	if obj.Format == formatNone {
		// The "none" format carries an empty statement by definition.
		if !emptyAttStmt(obj.AttStmt) {
			return nil, fmt.Errorf("%w: non-empty statement in none format", ErrAttestationTrust)
		}
		return result, nil
	}

	if s.config.AttestationPreference == AttestationNone {
		return result, nil
	}

	switch obj.Format {
	case formatPacked:
		if err := s.verifyPackedStatement(obj, attested, clientDataHash, result); err != nil {
			return nil, err
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%w: unsupported attestation format %q", ErrAttestationTrust, obj.Format)
	}
}

// verifyPackedStatement checks a packed statement's signature over the
// authenticator data and client data hash, through the x5c attestation
// certificate when one is present, otherwise as self attestation with the
// credential key.
func (s *Service) verifyPackedStatement(obj *attestationObject, attested *AttestedCredentialData, clientDataHash []byte, result *AttestationResult) error {
	var stmt packedStatement
	if err := cbor.Unmarshal(obj.AttStmt, &stmt); err != nil {
		return fmt.Errorf("%w: invalid packed statement: %v", ErrAttestationTrust, err)
	}
	if len(stmt.Signature) == 0 {
		return fmt.Errorf("%w: packed statement missing signature", ErrAttestationTrust)
	}

	signed := make([]byte, 0, len(obj.AuthData)+len(clientDataHash))
	signed = append(signed, obj.AuthData...)
	signed = append(signed, clientDataHash...)

	if len(stmt.X5C) == 0 {
		// Self attestation must declare the credential's own algorithm
		// and verify with the credential key itself.
		if stmt.Algorithm != attested.PublicKey.Algorithm {
			return fmt.Errorf("%w: self attestation algorithm %s does not match credential algorithm %s",
				ErrAttestationTrust, stmt.Algorithm, attested.PublicKey.Algorithm)
		}
		if err := attested.PublicKey.Verify(signed, stmt.Signature); err != nil {
			return fmt.Errorf("%w: self attestation signature: %v", ErrAttestationTrust, err)
		}
		result.SelfAttested = true
		return nil
	}

	chain := make([]*x509.Certificate, len(stmt.X5C))
	for i, der := range stmt.X5C {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return fmt.Errorf("%w: invalid x5c certificate: %v", ErrAttestationTrust, err)
		}
		chain[i] = cert
	}
	leaf := chain[0]

	if err := checkPackedAttestationCert(leaf, attested.AAGUID); err != nil {
		return err
	}

	attKey, err := attestationKeyFromCert(leaf, stmt.Algorithm)
	if err != nil {
		return err
	}
	if err := attKey.Verify(signed, stmt.Signature); err != nil {
		return fmt.Errorf("%w: x5c attestation signature: %v", ErrAttestationTrust, err)
	}

	result.TrustPath = chain
	return nil
}

// checkPackedAttestationCert applies the packed format's requirements on the
// attestation certificate: X.509 v3, the attestation OU, not a CA, and an
// AAGUID extension (when present) matching the authenticator data.
func checkPackedAttestationCert(cert *x509.Certificate, aaguid []byte) error {
	if cert.Version != 3 {
		return fmt.Errorf("%w: attestation certificate version %d", ErrAttestationTrust, cert.Version)
	}
	ou := cert.Subject.OrganizationalUnit
	if len(ou) == 0 || ou[0] != "Authenticator Attestation" {
		return fmt.Errorf("%w: attestation certificate lacks the attestation OU", ErrAttestationTrust)
	}
	if cert.IsCA {
		return fmt.Errorf("%w: attestation certificate is a CA", ErrAttestationTrust)
	}
	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(oidAAGUID) {
			continue
		}
		var certAAGUID []byte
		if _, err := asn1.Unmarshal(ext.Value, &certAAGUID); err != nil {
			return fmt.Errorf("%w: invalid AAGUID extension: %v", ErrAttestationTrust, err)
		}
		if !bytes.Equal(certAAGUID, aaguid) {
			return fmt.Errorf("%w: certificate AAGUID does not match authenticator data", ErrAttestationTrust)
		}
	}
	return nil
}

// attestationKeyFromCert wraps the certificate's public key for signature
// verification, checking it belongs to the declared algorithm's family.
func attestationKeyFromCert(cert *x509.Certificate, alg Algorithm) (*PublicKey, error) {
	key := &PublicKey{Algorithm: alg}
	switch pub := cert.PublicKey.(type) {
	case *ecdsa.PublicKey:
		switch alg {
		case AlgES256, AlgES384, AlgES512:
		default:
			return nil, fmt.Errorf("%w: %s statement signed with an ECDSA certificate key", ErrAttestationTrust, alg)
		}
		key.ECDSA = pub
	case ed25519.PublicKey:
		if alg != AlgEdDSA {
			return nil, fmt.Errorf("%w: %s statement signed with an Ed25519 certificate key", ErrAttestationTrust, alg)
		}
		key.Ed25519 = pub
	case *rsa.PublicKey:
		switch alg {
		case AlgRS256, AlgRS384, AlgRS512:
		default:
			return nil, fmt.Errorf("%w: %s statement signed with an RSA certificate key", ErrAttestationTrust, alg)
		}
		key.RSA = pub
	default:
		return nil, fmt.Errorf("%w: unsupported certificate key type %T", ErrAttestationTrust, cert.PublicKey)
	}
	return key, nil
}

// emptyAttStmt reports whether the raw statement is absent or the empty CBOR
// map the "none" format requires.
func emptyAttStmt(raw cbor.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var m map[string]cbor.RawMessage
	if err := cbor.Unmarshal(raw, &m); err != nil {
		return false
	}
	return len(m) == 0
}

// DefaultTrustPolicy is the built-in TrustPolicy. Classification follows
// what the verified statement proved: no statement is TrustNone, self
// attestation is TrustSelf, an attestation certificate chain is TrustBasic,
// and a chain that verifies against the configured roots is TrustCA. When
// roots are configured, a chain that fails against them is rejected rather
// than downgraded.
type DefaultTrustPolicy struct {
	// Roots holds the accepted attestation CA certificates. When nil,
	// certificate chains are accepted at TrustBasic without chain
	// verification.
	Roots *x509.CertPool
}

// Assess implements TrustPolicy.
func (p *DefaultTrustPolicy) Assess(ctx context.Context, att *AttestationResult) (TrustClass, error) {
	switch {
	case len(att.TrustPath) > 0:
		if p.Roots == nil {
			return TrustBasic, nil
		}
		intermediates := x509.NewCertPool()
		for _, cert := range att.TrustPath[1:] {
			intermediates.AddCert(cert)
		}
		_, err := att.TrustPath[0].Verify(x509.VerifyOptions{
			Roots:         p.Roots,
			Intermediates: intermediates,
			KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		})
		if err != nil {
			return TrustNone, fmt.Errorf("%w: %v", ErrAttestationTrust, err)
		}
		return TrustCA, nil
	case att.SelfAttested:
		return TrustSelf, nil
	default:
		return TrustNone, nil
	}
}
