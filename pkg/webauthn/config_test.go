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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid minimal config",
			config: &Config{
				RPID:          "example.com",
				RPDisplayName: "Example",
				RPOrigins:     []string{"https://example.com"},
			},
			wantErr: false,
		},
		{
			name: "missing RPID",
			config: &Config{
				RPDisplayName: "Example",
				RPOrigins:     []string{"https://example.com"},
			},
			wantErr: true,
			errMsg:  "RPID is required",
		},
		{
			name: "missing RPDisplayName",
			config: &Config{
				RPID:      "example.com",
				RPOrigins: []string{"https://example.com"},
			},
			wantErr: true,
			errMsg:  "RPDisplayName is required",
		},
		{
			name: "missing RPOrigins",
			config: &Config{
				RPID:          "example.com",
				RPDisplayName: "Example",
			},
			wantErr: true,
			errMsg:  "at least one RPOrigin is required",
		},
		{
			name: "empty RPOrigins",
			config: &Config{
				RPID:          "example.com",
				RPDisplayName: "Example",
				RPOrigins:     []string{},
			},
			wantErr: true,
			errMsg:  "at least one RPOrigin is required",
		},
		{
			name: "negative challenge TTL",
			config: &Config{
				RPID:          "example.com",
				RPDisplayName: "Example",
				RPOrigins:     []string{"https://example.com"},
				ChallengeTTL:  -time.Minute,
			},
			wantErr: true,
			errMsg:  "challenge TTL must not be negative",
		},
		{
			name: "challenge size below minimum",
			config: &Config{
				RPID:          "example.com",
				RPDisplayName: "Example",
				RPOrigins:     []string{"https://example.com"},
				ChallengeSize: 16,
			},
			wantErr: true,
			errMsg:  "challenge size must be at least 32 bytes",
		},
		{
			name: "negative credential cap",
			config: &Config{
				RPID:                     "example.com",
				RPDisplayName:            "Example",
				RPOrigins:                []string{"https://example.com"},
				MaxCredentialsPerAccount: -1,
			},
			wantErr: true,
			errMsg:  "max credentials per account must not be negative",
		},
		{
			name: "invalid user verification",
			config: &Config{
				RPID:             "example.com",
				RPDisplayName:    "Example",
				RPOrigins:        []string{"https://example.com"},
				UserVerification: "invalid",
			},
			wantErr: true,
			errMsg:  "invalid user verification",
		},
		{
			name: "invalid attestation preference",
			config: &Config{
				RPID:                  "example.com",
				RPDisplayName:         "Example",
				RPOrigins:             []string{"https://example.com"},
				AttestationPreference: "invalid",
			},
			wantErr: true,
			errMsg:  "invalid attestation preference",
		},
		{
			name: "invalid resident key requirement",
			config: &Config{
				RPID:                   "example.com",
				RPDisplayName:          "Example",
				RPOrigins:              []string{"https://example.com"},
				ResidentKeyRequirement: "invalid",
			},
			wantErr: true,
			errMsg:  "invalid resident key requirement",
		},
		{
			name: "invalid authenticator attachment",
			config: &Config{
				RPID:                    "example.com",
				RPDisplayName:           "Example",
				RPOrigins:               []string{"https://example.com"},
				AuthenticatorAttachment: "invalid",
			},
			wantErr: true,
			errMsg:  "invalid authenticator attachment",
		},
		{
			name: "unsupported algorithm",
			config: &Config{
				RPID:          "example.com",
				RPDisplayName: "Example",
				RPOrigins:     []string{"https://example.com"},
				Algorithms:    []Algorithm{Algorithm(-1)},
			},
			wantErr: true,
			errMsg:  "unsupported algorithm",
		},
		{
			name: "all valid values",
			config: &Config{
				RPID:                     "example.com",
				RPDisplayName:            "Example",
				RPOrigins:                []string{"https://example.com", "https://www.example.com"},
				ChallengeTTL:             2 * time.Minute,
				ChallengeSize:            64,
				MaxCredentialsPerAccount: 5,
				UserVerification:         "required",
				AttestationPreference:    "direct",
				ResidentKeyRequirement:   "required",
				AuthenticatorAttachment:  "platform",
				Algorithms:               []Algorithm{AlgES256, AlgES384, AlgES512, AlgEdDSA, AlgRS256},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	config := &Config{
		RPID:          "example.com",
		RPDisplayName: "Example",
		RPOrigins:     []string{"https://example.com"},
	}

	config.SetDefaults()

	assert.Equal(t, 5*time.Minute, config.ChallengeTTL)
	assert.Equal(t, MinChallengeSize, config.ChallengeSize)
	assert.Equal(t, 10, config.MaxCredentialsPerAccount)
	assert.Equal(t, VerificationPreferred, config.UserVerification)
	assert.Equal(t, AttestationNone, config.AttestationPreference)
	assert.Equal(t, ResidentKeyPreferred, config.ResidentKeyRequirement)
	assert.Equal(t, []Algorithm{AlgES256, AlgEdDSA, AlgRS256}, config.Algorithms)
}

func TestConfig_SetDefaults_PreservesExisting(t *testing.T) {
	config := &Config{
		RPID:                     "example.com",
		RPDisplayName:            "Example",
		RPOrigins:                []string{"https://example.com"},
		ChallengeTTL:             30 * time.Second,
		ChallengeSize:            64,
		MaxCredentialsPerAccount: 3,
		UserVerification:         VerificationRequired,
		AttestationPreference:    AttestationDirect,
		ResidentKeyRequirement:   ResidentKeyRequired,
		Algorithms:               []Algorithm{AlgES256},
	}

	config.SetDefaults()

	assert.Equal(t, 30*time.Second, config.ChallengeTTL)
	assert.Equal(t, 64, config.ChallengeSize)
	assert.Equal(t, 3, config.MaxCredentialsPerAccount)
	assert.Equal(t, VerificationRequired, config.UserVerification)
	assert.Equal(t, AttestationDirect, config.AttestationPreference)
	assert.Equal(t, ResidentKeyRequired, config.ResidentKeyRequirement)
	assert.Equal(t, []Algorithm{AlgES256}, config.Algorithms)
}

func TestConfig_TimeoutMillis(t *testing.T) {
	config := &Config{
		RPID:          "example.com",
		RPDisplayName: "Example",
		RPOrigins:     []string{"https://example.com"},
		ChallengeTTL:  90 * time.Second,
	}

	assert.Equal(t, 90000, config.TimeoutMillis())
}
