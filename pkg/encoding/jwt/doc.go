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

// Package jwt provides JSON Web Token (JWT) signing and verification
// for session tokens issued after passkey authentication.
//
// This package wraps the golang-jwt/jwt library with automatic algorithm
// selection from key material and supports opaque crypto.Signer keys
// (HSM, TPM, cloud KMS) whose private material is never exposed.
//
// # Supported Algorithms
//
// The package supports all standard JWT signing algorithms:
//   - RS256, RS384, RS512 (RSA with PKCS#1 v1.5)
//   - PS256, PS384, PS512 (RSA with PSS)
//   - ES256, ES384, ES512 (ECDSA)
//   - EdDSA (Ed25519)
//
// # Basic Usage
//
// Signing a JWT with a standard crypto key:
//
//	privateKey, _ := rsa.GenerateKey(rand.Reader, 2048)
//	signer := jwt.NewSigner()
//	claims := jwt.MapClaims{
//	    "sub": "user123",
//	    "exp": time.Now().Add(time.Hour).Unix(),
//	}
//	token, err := signer.Sign(privateKey, claims)
//
// Verifying a JWT:
//
//	verifier := jwt.NewVerifier()
//	token, err := verifier.Verify(tokenString, publicKey)
//	if err != nil {
//	    log.Fatal("invalid token")
//	}
//
// # Opaque Signers
//
// Keys that implement crypto.Signer without exposing private material
// sign through SignWithSigner. The algorithm is selected from the
// signer's public key:
//
//	signer := jwt.NewSigner()
//	token, err := signer.SignWithSigner(hsmKey, claims)
//
// ECDSA signatures produced this way are ASN.1 encoded and verify
// through SigningMethodSigner.Verify rather than the standard ES
// methods. RSA and Ed25519 signatures are wire-compatible with the
// standard methods.
//
// # Key ID (kid) Support
//
// The package supports the kid (Key ID) header for key identification:
//
//	// Sign with kid
//	token, err := signer.SignWithKID(privateKey, claims, "signing-key-1")
//
//	// Extract kid from token
//	kid, err := jwt.ExtractKID(tokenString)
//
// # Custom Claims
//
// You can use custom claims structures:
//
//	type CustomClaims struct {
//	    UserID string `json:"uid"`
//	    jwt.RegisteredClaims
//	}
//
//	claims := CustomClaims{
//	    UserID: "12345",
//	    RegisteredClaims: jwt.RegisteredClaims{
//	        ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
//	    },
//	}
//	token, err := signer.Sign(privateKey, claims)
//
// # Verification Options
//
// Advanced verification with issuer and audience validation:
//
//	opts := &jwt.VerifyOptions{
//	    ValidateIssuer:   true,
//	    ExpectedIssuer:   "go-passkey",
//	    ValidateAudience: true,
//	    ExpectedAudience: "my-app",
//	}
//	token, err := verifier.VerifyWithOptions(tokenString, publicKey, opts)
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package jwt
