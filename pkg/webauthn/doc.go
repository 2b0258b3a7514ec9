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

// Package webauthn implements the server side of the WebAuthn (FIDO2)
// challenge-response protocol as a library that can be embedded in any Go
// application.
//
// The protocol engine is implemented in full here: ceremony challenge
// issuance, client data and origin validation, authenticator data parsing,
// COSE public key decoding, attestation and assertion signature
// verification, attestation trust classification, and replay protection via
// monotonic signature counters.
//
// # Architecture
//
// The package is designed with a layered architecture:
//
//  1. Service layer (Service) - ceremony operations and credential lifecycle
//  2. Storage layer (AccountStore, ChallengeStore, CredentialStore) - pluggable persistence
//  3. HTTP layer (pkg/webauthn/http) - composable HTTP handlers
//
// # Usage
//
// Basic usage with in-memory storage (for development):
//
//	svc, err := webauthn.NewService(webauthn.ServiceParams{
//	    Config: &webauthn.Config{
//	        RPID:          "localhost",
//	        RPDisplayName: "My App",
//	        RPOrigins:     []string{"https://localhost:3000"},
//	    },
//	    AccountStore:    webauthn.NewMemoryAccountStore(),
//	    ChallengeStore:  webauthn.NewMemoryChallengeStore(),
//	    CredentialStore: webauthn.NewMemoryCredentialStore(),
//	})
//
// For production, implement the storage interfaces with your database. The
// ChallengeStore must implement Consume as an atomic check-and-delete and
// the CredentialStore must implement UpdateCounter as a compare-and-set;
// both properties are load-bearing for the protocol's replay guarantees.
//
// # Security model
//
// Verification failures are reported to callers as typed errors so the
// transport layer can log precisely while revealing only a generic failure
// to the remote end. A signature counter that fails to advance permanently
// deactivates the credential: a cloned authenticator must not get a second
// chance with a higher counter.
//
// # WebAuthn Specification Compliance
//
// This implementation follows the W3C Web Authentication specification:
//   - https://www.w3.org/TR/webauthn-2/
//   - https://www.w3.org/TR/webauthn-3/
//
// Note: WebAuthn requires HTTPS for all operations. Browsers will only
// expose the WebAuthn API in secure contexts.
package webauthn
