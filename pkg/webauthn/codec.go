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
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeBase64URL encodes raw bytes using the protocol's URL-safe base64
// alphabet without padding. This is the wire encoding used for challenges,
// credential IDs and user handles in every client-facing message.
func EncodeBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeBase64URL decodes a URL-safe base64 string without padding back
// into raw bytes. Padded or otherwise malformed input is rejected.
func DecodeBase64URL(s string) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64url value: %w", err)
	}
	return data, nil
}

// URLEncodedBase64 is a byte slice that marshals to and from the protocol's
// URL-safe base64 wire encoding in JSON messages.
type URLEncodedBase64 []byte

// MarshalJSON implements json.Marshaler.
func (e URLEncodedBase64) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeBase64URL(e))
}

// UnmarshalJSON implements json.Unmarshaler. The JSON value must be a
// string in unpadded base64url form; null leaves the slice nil.
func (e *URLEncodedBase64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := DecodeBase64URL(s)
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

// String returns the base64url form of the value.
func (e URLEncodedBase64) String() string {
	return EncodeBase64URL(e)
}
