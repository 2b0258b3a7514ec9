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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// AuthenticatorFlags is the flag byte of the authenticator data structure.
// Each capability is a single bit and is decoded individually.
type AuthenticatorFlags byte

const (
	// FlagUserPresent (UP) is set when the user was present.
	FlagUserPresent AuthenticatorFlags = 1 << 0

	// FlagUserVerified (UV) is set when the user was verified.
	FlagUserVerified AuthenticatorFlags = 1 << 2

	// FlagBackupEligible (BE) is set when the credential can be backed up.
	FlagBackupEligible AuthenticatorFlags = 1 << 3

	// FlagBackupState (BS) is set when the credential is currently backed up.
	FlagBackupState AuthenticatorFlags = 1 << 4

	// FlagAttestedCredentialData (AT) is set when attested credential data
	// follows the fixed-length prefix.
	FlagAttestedCredentialData AuthenticatorFlags = 1 << 6

	// FlagExtensionData (ED) is set when a CBOR extension map trails the
	// structure.
	FlagExtensionData AuthenticatorFlags = 1 << 7
)

// UserPresent reports whether the UP bit is set.
func (f AuthenticatorFlags) UserPresent() bool {
	return f&FlagUserPresent != 0
}

// UserVerified reports whether the UV bit is set.
func (f AuthenticatorFlags) UserVerified() bool {
	return f&FlagUserVerified != 0
}

// BackupEligible reports whether the BE bit is set.
func (f AuthenticatorFlags) BackupEligible() bool {
	return f&FlagBackupEligible != 0
}

// BackupState reports whether the BS bit is set.
func (f AuthenticatorFlags) BackupState() bool {
	return f&FlagBackupState != 0
}

// HasAttestedCredentialData reports whether the AT bit is set.
func (f AuthenticatorFlags) HasAttestedCredentialData() bool {
	return f&FlagAttestedCredentialData != 0
}

// HasExtensions reports whether the ED bit is set.
func (f AuthenticatorFlags) HasExtensions() bool {
	return f&FlagExtensionData != 0
}

const (
	// rpIDHashLength(32) + flags(1) + signCount(4)
	minAuthDataLength = 37

	rpIDHashLength = 32
	aaguidLength   = 16

	// maxCredentialIDLength caps the declared credential ID length. The
	// protocol limits credential IDs to 1023 bytes; anything larger is a
	// malformed or hostile response.
	maxCredentialIDLength = 1023
)

// AttestedCredentialData is the variable-length block present in
// registration responses, carrying the new credential's identity and key.
type AttestedCredentialData struct {
	// AAGUID identifies the authenticator model (16 bytes, may be all zeros).
	AAGUID []byte

	// CredentialID is the identifier the authenticator assigned.
	CredentialID []byte

	// PublicKey is the decoded credential public key.
	PublicKey *PublicKey

	// PublicKeyBytes is the raw COSE encoding of the public key, exactly as
	// it appeared on the wire. This is what gets persisted.
	PublicKeyBytes []byte
}

// AuthenticatorData is the decoded fixed-layout binary structure returned by
// an authenticator in both attestation and assertion responses.
type AuthenticatorData struct {
	// RPIDHash is the SHA-256 hash of the relying party ID (32 bytes).
	RPIDHash []byte

	// Flags is the raw flag byte.
	Flags AuthenticatorFlags

	// SignCount is the signature counter, big-endian on the wire.
	SignCount uint32

	// AttestedCredential is set when the AT flag is set, nil otherwise.
	AttestedCredential *AttestedCredentialData

	// Extensions holds the raw CBOR extension map when the ED flag is set.
	Extensions []byte
}

// ParseAuthenticatorData decodes the binary authenticator data structure.
// The input is attacker-supplied: every declared length is bounds-checked
// before slicing, and bytes not accounted for by the flag byte are rejected.
// Failures return ErrMalformedAuthData.
func ParseAuthenticatorData(data []byte) (*AuthenticatorData, error) {
	if len(data) < minAuthDataLength {
		return nil, fmt.Errorf("%w: %d bytes, want at least %d", ErrMalformedAuthData, len(data), minAuthDataLength)
	}

	ad := &AuthenticatorData{
		RPIDHash:  data[:rpIDHashLength],
		Flags:     AuthenticatorFlags(data[rpIDHashLength]),
		SignCount: binary.BigEndian.Uint32(data[rpIDHashLength+1 : minAuthDataLength]),
	}

	rest := data[minAuthDataLength:]

	if ad.Flags.HasAttestedCredentialData() {
		attested, n, err := parseAttestedCredentialData(rest)
		if err != nil {
			return nil, err
		}
		ad.AttestedCredential = attested
		rest = rest[n:]
	}

	if ad.Flags.HasExtensions() {
		var ext cbor.RawMessage
		trailing, err := cbor.UnmarshalFirst(rest, &ext)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid extension data", ErrMalformedAuthData)
		}
		if len(trailing) != 0 {
			return nil, fmt.Errorf("%w: %d trailing bytes after extensions", ErrMalformedAuthData, len(trailing))
		}
		ad.Extensions = ext
		rest = nil
	}

	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedAuthData, len(rest))
	}

	return ad, nil
}

// parseAttestedCredentialData decodes the attested credential data block and
// returns how many bytes it occupied.
func parseAttestedCredentialData(data []byte) (*AttestedCredentialData, int, error) {
	// AAGUID(16) + credential ID length(2)
	if len(data) < aaguidLength+2 {
		return nil, 0, fmt.Errorf("%w: truncated attested credential data", ErrMalformedAuthData)
	}

	idLen := int(binary.BigEndian.Uint16(data[aaguidLength : aaguidLength+2]))
	if idLen == 0 || idLen > maxCredentialIDLength {
		return nil, 0, fmt.Errorf("%w: credential ID length %d", ErrMalformedAuthData, idLen)
	}
	if len(data) < aaguidLength+2+idLen {
		return nil, 0, fmt.Errorf("%w: truncated credential ID", ErrMalformedAuthData)
	}

	keyData := data[aaguidLength+2+idLen:]
	key, keyLen, err := parsePublicKeyPrefix(keyData)
	if err != nil {
		if errors.Is(err, ErrUnsupportedAlgorithm) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: invalid credential public key: %v", ErrMalformedAuthData, err)
	}

	attested := &AttestedCredentialData{
		AAGUID:         data[:aaguidLength],
		CredentialID:   data[aaguidLength+2 : aaguidLength+2+idLen],
		PublicKey:      key,
		PublicKeyBytes: keyData[:keyLen],
	}
	return attested, aaguidLength + 2 + idLen + keyLen, nil
}
