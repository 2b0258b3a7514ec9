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
	"crypto/x509"
	"fmt"
	"os"

	"github.com/jeremyhahn/go-passkey/pkg/encoding"
	"github.com/jeremyhahn/go-passkey/pkg/webauthn"
)

// CreateTrustPolicy builds the attestation trust policy from the configured
// root certificates. Without roots, attestation statements still verify
// cryptographically but their certificate chains are not anchored, so
// credentials classify at most as TrustBasic.
func (cfg *WebAuthnConfig) CreateTrustPolicy() (webauthn.TrustPolicy, error) {
	if len(cfg.AttestationRoots) == 0 {
		return &webauthn.DefaultTrustPolicy{}, nil
	}

	pool := x509.NewCertPool()
	for _, path := range cfg.AttestationRoots {
		// #nosec G304 - CA file paths from trusted config
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attestation root %s: %w", path, err)
		}

		certs, err := encoding.DecodeCertificateChainPEM(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse attestation root %s: %w", path, err)
		}
		for _, cert := range certs {
			pool.AddCert(cert)
		}
	}

	return &webauthn.DefaultTrustPolicy{Roots: pool}, nil
}
