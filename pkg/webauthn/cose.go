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
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// Algorithm is a COSE signature algorithm identifier (RFC 9053).
type Algorithm int

const (
	// AlgES256 is ECDSA with SHA-256.
	AlgES256 Algorithm = -7

	// AlgEdDSA is EdDSA with Ed25519.
	AlgEdDSA Algorithm = -8

	// AlgES384 is ECDSA with SHA-384.
	AlgES384 Algorithm = -35

	// AlgES512 is ECDSA with SHA-512.
	AlgES512 Algorithm = -36

	// AlgRS256 is RSASSA-PKCS1-v1_5 with SHA-256.
	AlgRS256 Algorithm = -257

	// AlgRS384 is RSASSA-PKCS1-v1_5 with SHA-384.
	AlgRS384 Algorithm = -258

	// AlgRS512 is RSASSA-PKCS1-v1_5 with SHA-512.
	AlgRS512 Algorithm = -259
)

// String returns the JOSE-style name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgES256:
		return "ES256"
	case AlgES384:
		return "ES384"
	case AlgES512:
		return "ES512"
	case AlgEdDSA:
		return "EdDSA"
	case AlgRS256:
		return "RS256"
	case AlgRS384:
		return "RS384"
	case AlgRS512:
		return "RS512"
	default:
		return fmt.Sprintf("COSE(%d)", int(a))
	}
}

// Supported reports whether the engine can verify signatures made with the
// algorithm.
func (a Algorithm) Supported() bool {
	switch a {
	case AlgES256, AlgES384, AlgES512, AlgEdDSA, AlgRS256, AlgRS384, AlgRS512:
		return true
	default:
		return false
	}
}

func (a Algorithm) hash() crypto.Hash {
	switch a {
	case AlgES256, AlgRS256:
		return crypto.SHA256
	case AlgES384, AlgRS384:
		return crypto.SHA384
	case AlgES512, AlgRS512:
		return crypto.SHA512
	default:
		return 0
	}
}

// COSE key type values (RFC 9053 §7).
const (
	coseKeyTypeOKP = 1
	coseKeyTypeEC2 = 2
	coseKeyTypeRSA = 3
)

// COSE elliptic curve values (RFC 9053 §7.1).
const (
	coseCurveP256    = 1
	coseCurveP384    = 2
	coseCurveP521    = 3
	coseCurveEd25519 = 6
)

// PublicKey is a credential public key decoded from its COSE representation.
// Exactly one of the key fields is set, matching the key type.
type PublicKey struct {
	// Algorithm is the signature algorithm declared by the key.
	Algorithm Algorithm

	// ECDSA is set for EC2 keys.
	ECDSA *ecdsa.PublicKey

	// Ed25519 is set for OKP keys on the Ed25519 curve.
	Ed25519 ed25519.PublicKey

	// RSA is set for RSA keys.
	RSA *rsa.PublicKey
}

// coseKeyHeader carries the labels shared by every COSE key type. Parameter
// labels are small integers, so the map is decoded with keyasint tags.
type coseKeyHeader struct {
	KeyType   int `cbor:"1,keyasint"`
	Algorithm int `cbor:"3,keyasint"`
}

type coseEC2Key struct {
	Curve int    `cbor:"-1,keyasint"`
	X     []byte `cbor:"-2,keyasint"`
	Y     []byte `cbor:"-3,keyasint"`
}

type coseOKPKey struct {
	Curve int    `cbor:"-1,keyasint"`
	X     []byte `cbor:"-2,keyasint"`
}

type coseRSAKey struct {
	N []byte `cbor:"-1,keyasint"`
	E []byte `cbor:"-2,keyasint"`
}

// ParsePublicKey decodes a COSE credential public key. The buffer must
// contain exactly one CBOR-encoded key with no trailing bytes.
func ParsePublicKey(data []byte) (*PublicKey, error) {
	key, consumed, err := parsePublicKeyPrefix(data)
	if err != nil {
		return nil, err
	}
	if consumed != len(data) {
		return nil, fmt.Errorf("trailing bytes after COSE key")
	}
	return key, nil
}

// parsePublicKeyPrefix decodes the COSE credential public key at the start
// of the buffer and returns how many bytes it occupied. Every inner length
// is validated before use; the buffer is attacker-supplied.
func parsePublicKeyPrefix(data []byte) (*PublicKey, int, error) {
	var raw cbor.RawMessage
	rest, err := cbor.UnmarshalFirst(data, &raw)
	if err != nil {
		return nil, 0, fmt.Errorf("decode COSE key: %w", err)
	}
	consumed := len(data) - len(rest)

	var hdr coseKeyHeader
	if err := cbor.Unmarshal(raw, &hdr); err != nil {
		return nil, 0, fmt.Errorf("decode COSE key header: %w", err)
	}

	alg := Algorithm(hdr.Algorithm)
	if !alg.Supported() {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	key := &PublicKey{Algorithm: alg}
	switch hdr.KeyType {
	case coseKeyTypeEC2:
		switch alg {
		case AlgES256, AlgES384, AlgES512:
		default:
			return nil, 0, fmt.Errorf("%w: %s with EC2 key", ErrUnsupportedAlgorithm, alg)
		}
		var ec coseEC2Key
		if err := cbor.Unmarshal(raw, &ec); err != nil {
			return nil, 0, fmt.Errorf("decode EC2 key: %w", err)
		}
		pub, err := parseEC2Key(&ec)
		if err != nil {
			return nil, 0, err
		}
		key.ECDSA = pub

	case coseKeyTypeOKP:
		if alg != AlgEdDSA {
			return nil, 0, fmt.Errorf("%w: %s with OKP key", ErrUnsupportedAlgorithm, alg)
		}
		var okp coseOKPKey
		if err := cbor.Unmarshal(raw, &okp); err != nil {
			return nil, 0, fmt.Errorf("decode OKP key: %w", err)
		}
		if okp.Curve != coseCurveEd25519 {
			return nil, 0, fmt.Errorf("%w: OKP curve %d", ErrUnsupportedAlgorithm, okp.Curve)
		}
		if len(okp.X) != ed25519.PublicKeySize {
			return nil, 0, fmt.Errorf("invalid Ed25519 key length %d", len(okp.X))
		}
		key.Ed25519 = ed25519.PublicKey(okp.X)

	case coseKeyTypeRSA:
		switch alg {
		case AlgRS256, AlgRS384, AlgRS512:
		default:
			return nil, 0, fmt.Errorf("%w: %s with RSA key", ErrUnsupportedAlgorithm, alg)
		}
		var rk coseRSAKey
		if err := cbor.Unmarshal(raw, &rk); err != nil {
			return nil, 0, fmt.Errorf("decode RSA key: %w", err)
		}
		pub, err := parseRSAKey(&rk)
		if err != nil {
			return nil, 0, err
		}
		key.RSA = pub

	default:
		return nil, 0, fmt.Errorf("%w: key type %d", ErrUnsupportedAlgorithm, hdr.KeyType)
	}

	return key, consumed, nil
}

func parseEC2Key(ec *coseEC2Key) (*ecdsa.PublicKey, error) {
	var curve elliptic.Curve
	switch ec.Curve {
	case coseCurveP256:
		curve = elliptic.P256()
	case coseCurveP384:
		curve = elliptic.P384()
	case coseCurveP521:
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("%w: EC2 curve %d", ErrUnsupportedAlgorithm, ec.Curve)
	}

	// Coordinates are unsigned big-endian integers no longer than the curve
	// field size. Clients may strip leading zeros.
	byteSize := (curve.Params().BitSize + 7) / 8
	if len(ec.X) == 0 || len(ec.X) > byteSize || len(ec.Y) == 0 || len(ec.Y) > byteSize {
		return nil, fmt.Errorf("invalid EC2 coordinate length")
	}

	x := new(big.Int).SetBytes(ec.X)
	y := new(big.Int).SetBytes(ec.Y)
	if !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("EC2 point not on curve")
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

func parseRSAKey(rk *coseRSAKey) (*rsa.PublicKey, error) {
	// 8192-bit modulus is more than any authenticator produces.
	if len(rk.N) == 0 || len(rk.N) > 1024 {
		return nil, fmt.Errorf("invalid RSA modulus length %d", len(rk.N))
	}
	if len(rk.E) == 0 || len(rk.E) > 4 {
		return nil, fmt.Errorf("invalid RSA exponent length %d", len(rk.E))
	}

	e := 0
	for _, b := range rk.E {
		e = e<<8 | int(b)
	}
	if e < 3 || e%2 == 0 {
		return nil, fmt.Errorf("invalid RSA exponent %d", e)
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(rk.N), E: e}, nil
}

// Verify checks a signature over message using the key's declared algorithm.
// It returns ErrSignatureInvalid when the signature does not verify.
func (k *PublicKey) Verify(message, signature []byte) error {
	switch {
	case k.ECDSA != nil:
		digest, err := digestFor(k.Algorithm, message)
		if err != nil {
			return err
		}
		if !ecdsa.VerifyASN1(k.ECDSA, digest, signature) {
			return ErrSignatureInvalid
		}
		return nil

	case k.Ed25519 != nil:
		// Ed25519 signs the message directly, no prehash.
		if !ed25519.Verify(k.Ed25519, message, signature) {
			return ErrSignatureInvalid
		}
		return nil

	case k.RSA != nil:
		hash := k.Algorithm.hash()
		digest, err := digestFor(k.Algorithm, message)
		if err != nil {
			return err
		}
		if err := rsa.VerifyPKCS1v15(k.RSA, hash, digest, signature); err != nil {
			return ErrSignatureInvalid
		}
		return nil

	default:
		return fmt.Errorf("%w: no public key material", ErrUnsupportedAlgorithm)
	}
}

func digestFor(alg Algorithm, message []byte) ([]byte, error) {
	hash := alg.hash()
	if hash == 0 {
		return nil, fmt.Errorf("%w: %s has no digest", ErrUnsupportedAlgorithm, alg)
	}
	h := hash.New()
	h.Write(message)
	return h.Sum(nil), nil
}
