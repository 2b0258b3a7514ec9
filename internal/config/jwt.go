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

package config

import (
	"fmt"
	"os"

	"github.com/jeremyhahn/go-passkey/pkg/encoding"
	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
)

// CreateTokenGenerator builds the post-authentication token issuer from the
// configuration. Returns (nil, nil) when issuance is disabled; the service
// then produces tokenless authentication results.
func (cfg *JWTConfig) CreateTokenGenerator() (webauthn.TokenGenerator, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	if cfg.PrivateKeyFile == "" {
		return nil, fmt.Errorf("jwt private_key_file is required")
	}

	// #nosec G304 - Key file path from trusted config
	pemData, err := os.ReadFile(cfg.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWT signing key: %w", err)
	}

	var password []byte
	if cfg.PrivateKeyPassword != "" {
		password = []byte(cfg.PrivateKeyPassword)
	}

	key, err := encoding.DecodePrivateKeyPEM(pemData, password)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT signing key: %w", err)
	}

	return webauthn.NewDefaultJWTGenerator(&webauthn.JWTGeneratorConfig{
		PrivateKey: key,
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		ExpiresIn:  cfg.TTL,
		KeyID:      cfg.KeyID,
	})
}
