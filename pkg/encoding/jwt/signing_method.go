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

package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSignatureAlgorithm = errors.New("jwt: invalid signature algorithm")
	ErrInvalidKey                = errors.New("jwt: invalid key type")
)

// SigningMethodSigner implements jwt.SigningMethod for crypto.Signer keys.
// This enables JWT signing with keys whose private material is not directly
// accessible (HSM, cloud KMS, smart cards) but that implement the
// crypto.Signer interface.
type SigningMethodSigner struct {
	algorithm Algorithm
	hash      crypto.Hash
	isEdDSA   bool
	isPSS     bool
}

// NewSigningMethodSigner creates a new SigningMethod for crypto.Signer keys
// using the given JWT algorithm.
func NewSigningMethodSigner(alg Algorithm) (*SigningMethodSigner, error) {
	sm := &SigningMethodSigner{algorithm: alg}
	switch alg {
	case EdDSA:
		sm.isEdDSA = true
	case ES256, RS256, PS256:
		sm.hash = crypto.SHA256
	case ES384, RS384, PS384:
		sm.hash = crypto.SHA384
	case ES512, RS512, PS512:
		sm.hash = crypto.SHA512
	default:
		return nil, ErrInvalidSignatureAlgorithm
	}
	if alg == PS256 || alg == PS384 || alg == PS512 {
		sm.isPSS = true
	}
	return sm, nil
}

// Alg returns the JWT algorithm string (RS256, ES256, EdDSA, etc.)
func (sm *SigningMethodSigner) Alg() string {
	return string(sm.algorithm)
}

// Digest computes the hash digest of the signing string.
// For Ed25519, returns the raw message (Ed25519 signs unhashed).
func (sm *SigningMethodSigner) Digest(signingString string) ([]byte, error) {
	if sm.isEdDSA {
		return []byte(signingString), nil
	}
	hash := sm.hash.New()
	if _, err := hash.Write([]byte(signingString)); err != nil {
		return nil, err
	}
	return hash.Sum(nil), nil
}

// Sign signs the signing string using the provided crypto.Signer key.
// The key must implement crypto.Signer interface.
func (sm *SigningMethodSigner) Sign(signingString string, key interface{}) ([]byte, error) {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, ErrInvalidKey
	}

	// Ed25519 signs the raw message (unhashed)
	if sm.isEdDSA {
		return signer.Sign(rand.Reader, []byte(signingString), crypto.Hash(0))
	}

	hash := sm.hash.New()
	if _, err := hash.Write([]byte(signingString)); err != nil {
		return nil, err
	}
	digest := hash.Sum(nil)

	var opts crypto.SignerOpts
	if sm.isPSS {
		opts = &rsa.PSSOptions{
			Hash:       sm.hash,
			SaltLength: rsa.PSSSaltLengthEqualsHash,
		}
	} else {
		opts = sm.hash
	}
	return signer.Sign(rand.Reader, digest, opts)
}

// Verify verifies the signature of the signing string using the provided
// public key. ECDSA signatures produced through a crypto.Signer are ASN.1
// encoded, so they verify here rather than through the standard ES methods.
func (sm *SigningMethodSigner) Verify(signingString string, signature []byte, key interface{}) error {
	publicKey, ok := key.(crypto.PublicKey)
	if !ok {
		return ErrInvalidKey
	}

	// Ed25519 verifies the raw message (unhashed)
	if sm.isEdDSA {
		edKey, ok := publicKey.(ed25519.PublicKey)
		if !ok {
			return ErrInvalidKey
		}
		if !ed25519.Verify(edKey, []byte(signingString), signature) {
			return jwt.ErrSignatureInvalid
		}
		return nil
	}

	h := sm.hash.New()
	h.Write([]byte(signingString))
	digest := h.Sum(nil)

	switch pub := publicKey.(type) {
	case *rsa.PublicKey:
		if sm.isPSS {
			opts := &rsa.PSSOptions{
				SaltLength: rsa.PSSSaltLengthEqualsHash,
				Hash:       sm.hash,
			}
			return rsa.VerifyPSS(pub, sm.hash, digest, signature, opts)
		}
		return rsa.VerifyPKCS1v15(pub, sm.hash, digest, signature)

	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(pub, digest, signature) {
			return jwt.ErrSignatureInvalid
		}
		return nil

	default:
		return fmt.Errorf("unsupported public key type: %T", publicKey)
	}
}

// AlgorithmFromSigner determines the JWT algorithm from the signer's public
// key: RSA keys sign RS256, ECDSA keys sign the algorithm matching their
// curve and Ed25519 keys sign EdDSA.
func AlgorithmFromSigner(signer crypto.Signer) (Algorithm, error) {
	switch pub := signer.Public().(type) {
	case *rsa.PublicKey:
		return RS256, nil
	case *ecdsa.PublicKey:
		switch pub.Curve {
		case elliptic.P256():
			return ES256, nil
		case elliptic.P384():
			return ES384, nil
		case elliptic.P521():
			return ES512, nil
		default:
			return "", fmt.Errorf("unsupported ECDSA curve: %s", pub.Curve.Params().Name)
		}
	case ed25519.PublicKey:
		return EdDSA, nil
	default:
		return "", fmt.Errorf("unsupported public key type: %T", pub)
	}
}

// SignWithSigner creates and signs a JWT using a crypto.Signer. The
// algorithm is determined from the signer's public key.
func (s *Signer) SignWithSigner(signer crypto.Signer, claims jwt.Claims) (string, error) {
	alg, err := AlgorithmFromSigner(signer)
	if err != nil {
		return "", err
	}
	return s.SignWithSignerAlgorithm(signer, claims, alg)
}

// SignWithSignerAlgorithm creates and signs a JWT using a crypto.Signer
// with an explicit algorithm, for keys whose public type alone does not
// select the scheme (RSA-PSS).
func (s *Signer) SignWithSignerAlgorithm(signer crypto.Signer, claims jwt.Claims, alg Algorithm) (string, error) {
	method, err := NewSigningMethodSigner(alg)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(method, claims)
	return token.SignedString(signer)
}

// SignWithSignerAndKID creates and signs a JWT with a Key ID using a
// crypto.Signer.
func (s *Signer) SignWithSignerAndKID(signer crypto.Signer, claims jwt.Claims, kid string) (string, error) {
	alg, err := AlgorithmFromSigner(signer)
	if err != nil {
		return "", err
	}
	method, err := NewSigningMethodSigner(alg)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = kid
	return token.SignedString(signer)
}
