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
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// MockAuthenticator simulates a WebAuthn authenticator for testing purposes.
// It generates valid attestation and assertion responses that can be verified
// by the WebAuthn service, and can be bent to produce the invalid ones the
// verifiers must reject.
type MockAuthenticator struct {
	// AAGUID is the authenticator's model identifier (16 bytes).
	AAGUID []byte

	// CredentialID is the credential identifier.
	CredentialID []byte

	// SignCount is the current signature counter for clone detection.
	SignCount uint32

	// UserPresent indicates whether the UP flag should be set.
	UserPresent bool

	// UserVerified indicates whether the UV flag should be set.
	UserVerified bool

	// BackupEligible indicates whether the BE flag should be set.
	BackupEligible bool

	// BackupState indicates whether the BS flag should be set.
	BackupState bool

	// ResidentKey indicates if this is a resident/discoverable credential.
	ResidentKey bool

	// algorithm selects the credential key type.
	algorithm Algorithm

	// Exactly one signing key is set, matching algorithm.
	ecdsaKey   *ecdsa.PrivateKey
	ed25519Key ed25519.PrivateKey
	rsaKey     *rsa.PrivateKey

	// attFormat is the attestation statement format to emit.
	attFormat string

	// useX5C selects certificate attestation over self attestation for
	// the packed format.
	useX5C     bool
	attKey     *ecdsa.PrivateKey
	attCert    *x509.Certificate
	attCertDER []byte

	// rpID is the Relying Party ID (usually the domain).
	rpID string

	// rpIDHash is the SHA-256 hash of the RP ID.
	rpIDHash []byte
}

// MockAuthenticatorOption is a functional option for configuring a MockAuthenticator.
type MockAuthenticatorOption func(*MockAuthenticator)

// WithAAGUID sets a custom AAGUID.
func WithAAGUID(aaguid []byte) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.AAGUID = aaguid
	}
}

// WithCredentialID sets a custom credential ID.
func WithCredentialID(credID []byte) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.CredentialID = credID
	}
}

// WithSignCount sets the initial sign count.
func WithSignCount(count uint32) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.SignCount = count
	}
}

// WithUserPresent sets the UP flag.
func WithUserPresent(up bool) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.UserPresent = up
	}
}

// WithUserVerified sets the UV flag.
func WithUserVerified(uv bool) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.UserVerified = uv
	}
}

// WithBackupFlags sets the BE and BS flags.
func WithBackupFlags(eligible, state bool) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.BackupEligible = eligible
		m.BackupState = state
	}
}

// WithResidentKey enables resident key mode.
func WithResidentKey(rk bool) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.ResidentKey = rk
	}
}

// WithAlgorithm selects the credential key algorithm (default ES256).
func WithAlgorithm(alg Algorithm) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.algorithm = alg
	}
}

// WithPackedAttestation makes registration responses carry a packed
// self-attestation statement signed with the credential key.
func WithPackedAttestation() MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.attFormat = formatPacked
	}
}

// WithAttestationCertificate makes registration responses carry a packed
// statement signed by a generated attestation certificate (x5c chain).
func WithAttestationCertificate() MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.attFormat = formatPacked
		m.useX5C = true
	}
}

// NewMockAuthenticator creates a new mock authenticator for testing.
func NewMockAuthenticator(rpID string, opts ...MockAuthenticatorOption) (*MockAuthenticator, error) {
	// Generate random AAGUID (16 bytes)
	aaguid := make([]byte, 16)
	if _, err := rand.Read(aaguid); err != nil {
		return nil, err
	}

	// Generate random credential ID
	credID := make([]byte, 32)
	if _, err := rand.Read(credID); err != nil {
		return nil, err
	}

	// Compute RP ID hash
	rpIDHash := sha256.Sum256([]byte(rpID))

	m := &MockAuthenticator{
		AAGUID:       aaguid,
		CredentialID: credID,
		SignCount:    0,
		UserPresent:  true,
		UserVerified: true,
		ResidentKey:  false,
		algorithm:    AlgES256,
		attFormat:    formatNone,
		rpID:         rpID,
		rpIDHash:     rpIDHash[:],
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := m.generateCredentialKey(); err != nil {
		return nil, err
	}
	if m.useX5C {
		if err := m.generateAttestationCert(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// generateCredentialKey creates the signing key for the selected algorithm.
func (m *MockAuthenticator) generateCredentialKey() error {
	switch m.algorithm {
	case AlgES256:
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return err
		}
		m.ecdsaKey = key
	case AlgES384:
		key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
		if err != nil {
			return err
		}
		m.ecdsaKey = key
	case AlgES512:
		key, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
		if err != nil {
			return err
		}
		m.ecdsaKey = key
	case AlgEdDSA:
		_, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return err
		}
		m.ed25519Key = key
	case AlgRS256, AlgRS384, AlgRS512:
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return err
		}
		m.rsaKey = key
	default:
		return fmt.Errorf("unsupported mock algorithm %s", m.algorithm)
	}
	return nil
}

// generateAttestationCert creates a self-signed ES256 attestation certificate
// carrying the packed format's required subject OU and the AAGUID extension.
func (m *MockAuthenticator) generateAttestationCert() error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}

	aaguidValue, err := asn1.Marshal(m.AAGUID)
	if err != nil {
		return err
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization:       []string{"Mock Authenticators"},
			OrganizationalUnit: []string{"Authenticator Attestation"},
			CommonName:         "Mock Attestation",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		ExtraExtensions: []pkix.Extension{{
			Id:    oidAAGUID,
			Value: aaguidValue,
		}},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	if err != nil {
		return err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return err
	}

	m.attKey = key
	m.attCertDER = der
	m.attCert = cert
	return nil
}

// PublicKey returns the authenticator's public key.
func (m *MockAuthenticator) PublicKey() crypto.PublicKey {
	switch {
	case m.ecdsaKey != nil:
		return m.ecdsaKey.Public()
	case m.ed25519Key != nil:
		return m.ed25519Key.Public()
	case m.rsaKey != nil:
		return m.rsaKey.Public()
	}
	return nil
}

// AttestationCertificate returns the attestation certificate, if the
// authenticator was created with one. Tests add it to a TrustPolicy's roots
// to exercise the ca trust class.
func (m *MockAuthenticator) AttestationCertificate() *x509.Certificate {
	return m.attCert
}

// PublicKeyBytes returns the credential public key in COSE format.
func (m *MockAuthenticator) PublicKeyBytes() ([]byte, error) {
	switch {
	case m.ecdsaKey != nil:
		pub := m.ecdsaKey.Public().(*ecdsa.PublicKey)
		size := (pub.Curve.Params().BitSize + 7) / 8
		x := make([]byte, size)
		y := make([]byte, size)
		pub.X.FillBytes(x)
		pub.Y.FillBytes(y)
		curve := coseCurveP256
		switch m.algorithm {
		case AlgES384:
			curve = coseCurveP384
		case AlgES512:
			curve = coseCurveP521
		}
		return cbor.Marshal(map[int]interface{}{
			1:  coseKeyTypeEC2,    // kty
			3:  int(m.algorithm),  // alg
			-1: curve,             // crv
			-2: x,                 // x coordinate
			-3: y,                 // y coordinate
		})

	case m.ed25519Key != nil:
		pub := m.ed25519Key.Public().(ed25519.PublicKey)
		return cbor.Marshal(map[int]interface{}{
			1:  coseKeyTypeOKP,
			3:  int(AlgEdDSA),
			-1: coseCurveEd25519,
			-2: []byte(pub),
		})

	case m.rsaKey != nil:
		pub := m.rsaKey.Public().(*rsa.PublicKey)
		return cbor.Marshal(map[int]interface{}{
			1:  coseKeyTypeRSA,
			3:  int(m.algorithm),
			-1: pub.N.Bytes(),
			-2: big.NewInt(int64(pub.E)).Bytes(),
		})
	}
	return nil, fmt.Errorf("no credential key")
}

// IncrementSignCount increments and returns the new sign count.
func (m *MockAuthenticator) IncrementSignCount() uint32 {
	m.SignCount++
	return m.SignCount
}

// SetSignCount sets the sign count to a specific value (useful for testing clone detection).
func (m *MockAuthenticator) SetSignCount(count uint32) {
	m.SignCount = count
}

// CreateRegistrationResponse creates a valid attestation response for the
// given challenge, as a browser would deliver it.
func (m *MockAuthenticator) CreateRegistrationResponse(challenge []byte, origin string) (*CredentialCreationResponse, error) {
	authData, err := m.buildAuthenticatorData(true)
	if err != nil {
		return nil, err
	}

	clientDataJSON := m.buildClientDataJSON(challenge, origin, clientDataTypeCreate)
	clientDataHash := sha256.Sum256(clientDataJSON)

	attObj := map[string]interface{}{
		"authData": authData,
		"fmt":      formatNone,
		"attStmt":  map[string]interface{}{},
	}

	if m.attFormat == formatPacked {
		signed := make([]byte, 0, len(authData)+len(clientDataHash))
		signed = append(signed, authData...)
		signed = append(signed, clientDataHash[:]...)

		stmt := map[string]interface{}{}
		if m.useX5C {
			sig, err := m.signWithAttestationKey(signed)
			if err != nil {
				return nil, err
			}
			stmt["alg"] = int(AlgES256)
			stmt["sig"] = sig
			stmt["x5c"] = []interface{}{m.attCertDER}
		} else {
			sig, err := m.sign(signed)
			if err != nil {
				return nil, err
			}
			stmt["alg"] = int(m.algorithm)
			stmt["sig"] = sig
		}
		attObj["fmt"] = formatPacked
		attObj["attStmt"] = stmt
	}

	attObjBytes, err := cbor.Marshal(attObj)
	if err != nil {
		return nil, err
	}

	return &CredentialCreationResponse{
		ID:    EncodeBase64URL(m.CredentialID),
		RawID: URLEncodedBase64(m.CredentialID),
		Type:  credentialTypePublicKey,
		Response: AuthenticatorAttestationResponse{
			ClientDataJSON:    URLEncodedBase64(clientDataJSON),
			AttestationObject: URLEncodedBase64(attObjBytes),
			Transports:        []string{"usb"},
		},
	}, nil
}

// CreateAssertionResponse creates a valid assertion response for the given
// challenge. The sign count is incremented first, as a real authenticator
// increments on every use.
func (m *MockAuthenticator) CreateAssertionResponse(challenge, userHandle []byte, origin string) (*CredentialAssertionResponse, error) {
	m.IncrementSignCount()

	authData, err := m.buildAuthenticatorData(false)
	if err != nil {
		return nil, err
	}

	clientDataJSON := m.buildClientDataJSON(challenge, origin, clientDataTypeGet)
	clientDataHash := sha256.Sum256(clientDataJSON)

	// Signature over authData || clientDataHash
	signed := make([]byte, 0, len(authData)+len(clientDataHash))
	signed = append(signed, authData...)
	signed = append(signed, clientDataHash[:]...)
	signature, err := m.sign(signed)
	if err != nil {
		return nil, err
	}

	return &CredentialAssertionResponse{
		ID:    EncodeBase64URL(m.CredentialID),
		RawID: URLEncodedBase64(m.CredentialID),
		Type:  credentialTypePublicKey,
		Response: AuthenticatorAssertionResponse{
			ClientDataJSON:    URLEncodedBase64(clientDataJSON),
			AuthenticatorData: URLEncodedBase64(authData),
			Signature:         URLEncodedBase64(signature),
			UserHandle:        URLEncodedBase64(userHandle),
		},
	}, nil
}

// buildFlags builds the authenticator flags byte.
func (m *MockAuthenticator) buildFlags(includeCredential bool) byte {
	var flags byte
	if m.UserPresent {
		flags |= byte(FlagUserPresent)
	}
	if m.UserVerified {
		flags |= byte(FlagUserVerified)
	}
	if m.BackupEligible {
		flags |= byte(FlagBackupEligible)
	}
	if m.BackupState {
		flags |= byte(FlagBackupState)
	}
	if includeCredential {
		flags |= byte(FlagAttestedCredentialData)
	}
	return flags
}

// buildAuthenticatorData builds the authenticator data structure. If
// includeCredential is true, the attested credential data block is appended
// (registration responses only).
func (m *MockAuthenticator) buildAuthenticatorData(includeCredential bool) ([]byte, error) {
	var buf bytes.Buffer

	// rpIdHash (32 bytes)
	buf.Write(m.rpIDHash)

	// flags (1 byte)
	buf.WriteByte(m.buildFlags(includeCredential))

	// signCount (4 bytes, big-endian)
	signCountBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(signCountBytes, m.SignCount)
	buf.Write(signCountBytes)

	// Attested credential data (only for registration)
	if includeCredential {
		// AAGUID (16 bytes)
		buf.Write(m.AAGUID)

		// Credential ID length (2 bytes, big-endian)
		credIDLen := make([]byte, 2)
		binary.BigEndian.PutUint16(credIDLen, uint16(len(m.CredentialID)))
		buf.Write(credIDLen)

		// Credential ID
		buf.Write(m.CredentialID)

		// Credential public key (COSE format)
		pubKeyBytes, err := m.PublicKeyBytes()
		if err != nil {
			return nil, err
		}
		buf.Write(pubKeyBytes)
	}

	return buf.Bytes(), nil
}

// buildClientDataJSON builds the client data JSON structure.
func (m *MockAuthenticator) buildClientDataJSON(challenge []byte, origin, ceremonyType string) []byte {
	clientData := struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
		Origin    string `json:"origin"`
	}{
		Type:      ceremonyType,
		Challenge: base64.RawURLEncoding.EncodeToString(challenge),
		Origin:    origin,
	}

	jsonBytes, _ := json.Marshal(clientData)
	return jsonBytes
}

// sign creates a signature over data with the credential key.
func (m *MockAuthenticator) sign(data []byte) ([]byte, error) {
	switch {
	case m.ecdsaKey != nil:
		digest, err := digestFor(m.algorithm, data)
		if err != nil {
			return nil, err
		}
		r, s, err := ecdsa.Sign(rand.Reader, m.ecdsaKey, digest)
		if err != nil {
			return nil, err
		}
		// Encode as ASN.1 DER signature (required by WebAuthn)
		return asn1MarshalSignature(r, s)

	case m.ed25519Key != nil:
		// Ed25519 signs the raw message, no prehash.
		return ed25519.Sign(m.ed25519Key, data), nil

	case m.rsaKey != nil:
		digest, err := digestFor(m.algorithm, data)
		if err != nil {
			return nil, err
		}
		return rsa.SignPKCS1v15(rand.Reader, m.algorithm.hash(), m.rsaKey, digest)
	}
	return nil, fmt.Errorf("no credential key")
}

// signWithAttestationKey signs data with the ES256 attestation key.
func (m *MockAuthenticator) signWithAttestationKey(data []byte) ([]byte, error) {
	if m.attKey == nil {
		return nil, fmt.Errorf("no attestation key")
	}
	digest := sha256.Sum256(data)
	r, s, err := ecdsa.Sign(rand.Reader, m.attKey, digest[:])
	if err != nil {
		return nil, err
	}
	return asn1MarshalSignature(r, s)
}

// asn1MarshalSignature encodes r and s as an ASN.1 DER signature.
func asn1MarshalSignature(r, s *big.Int) ([]byte, error) {
	rBytes := r.Bytes()
	sBytes := s.Bytes()

	// Ensure leading zero for negative-looking values
	if len(rBytes) > 0 && rBytes[0] >= 0x80 {
		rBytes = append([]byte{0x00}, rBytes...)
	}
	if len(sBytes) > 0 && sBytes[0] >= 0x80 {
		sBytes = append([]byte{0x00}, sBytes...)
	}

	// ASN.1 SEQUENCE containing two INTEGERs
	rLen := len(rBytes)
	sLen := len(sBytes)
	seqLen := 2 + rLen + 2 + sLen

	sig := make([]byte, 0, 3+seqLen)
	sig = append(sig, 0x30) // SEQUENCE tag
	if seqLen > 127 {
		// Long-form length for P-521 signatures
		sig = append(sig, 0x81)
	}
	sig = append(sig, byte(seqLen)) // SEQUENCE length
	sig = append(sig, 0x02)         // INTEGER tag (r)
	sig = append(sig, byte(rLen))   // r length
	sig = append(sig, rBytes...)    // r value
	sig = append(sig, 0x02)         // INTEGER tag (s)
	sig = append(sig, byte(sLen))   // s length
	sig = append(sig, sBytes...)    // s value

	return sig, nil
}
