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
	"fmt"
	"time"
)

// Config configures the WebAuthn service.
type Config struct {
	// RPID is the Relying Party identifier, typically the domain name.
	// Example: "example.com"
	RPID string `yaml:"id" json:"id" mapstructure:"id"`

	// RPDisplayName is the human-readable name of the Relying Party.
	// Example: "Example Corp"
	RPDisplayName string `yaml:"display_name" json:"display_name" mapstructure:"display_name"`

	// RPOrigins are the allowed origins for WebAuthn operations. The client
	// data origin of every response must match one of these exactly,
	// scheme + host + port.
	// Example: []string{"https://example.com", "https://www.example.com"}
	RPOrigins []string `yaml:"origins" json:"origins" mapstructure:"origins"`

	// ChallengeTTL is how long an issued challenge stays valid. It doubles
	// as the ceremony timeout sent to clients.
	// Default: 5 minutes
	ChallengeTTL time.Duration `yaml:"challenge_ttl" json:"challenge_ttl" mapstructure:"challenge_ttl"`

	// ChallengeSize is the entropy of issued challenges in bytes.
	// Default: 32, the minimum accepted value
	ChallengeSize int `yaml:"challenge_size" json:"challenge_size" mapstructure:"challenge_size"`

	// MaxCredentialsPerAccount caps how many active credentials one account
	// may register. Registration beyond the cap fails with ErrMaxCredentials.
	// Default: 10
	MaxCredentialsPerAccount int `yaml:"max_credentials_per_account" json:"max_credentials_per_account" mapstructure:"max_credentials_per_account"`

	// UserVerification specifies the user verification requirement.
	// Options: "required", "preferred", "discouraged"
	// Default: "preferred"
	UserVerification UserVerification `yaml:"user_verification" json:"user_verification" mapstructure:"user_verification"`

	// AttestationPreference specifies the attestation conveyance preference.
	// With "direct", registration responses carrying no attestation
	// statement are rejected; otherwise whatever statement is present is
	// verified and recorded as the credential's trust class.
	// Options: "none", "indirect", "direct"
	// Default: "none"
	AttestationPreference AttestationConveyance `yaml:"attestation" json:"attestation" mapstructure:"attestation"`

	// ResidentKeyRequirement specifies whether to require resident keys (passkeys).
	// Options: "required", "preferred", "discouraged"
	// Default: "preferred"
	ResidentKeyRequirement ResidentKeyRequirement `yaml:"resident_key" json:"resident_key" mapstructure:"resident_key"`

	// AuthenticatorAttachment limits the type of authenticators allowed.
	// Options: "platform", "cross-platform", "" (any)
	// Default: "" (any)
	AuthenticatorAttachment AuthenticatorAttachment `yaml:"authenticator_attachment" json:"authenticator_attachment" mapstructure:"authenticator_attachment"`

	// Algorithms are the COSE signature algorithms offered to authenticators
	// at registration, in preference order.
	// Default: ES256, EdDSA, RS256
	Algorithms []Algorithm `yaml:"algorithms" json:"algorithms" mapstructure:"algorithms"`

	// Debug enables debug logging.
	Debug bool `yaml:"debug" json:"debug" mapstructure:"debug"`
}

// MinChallengeSize is the smallest accepted challenge entropy in bytes.
const MinChallengeSize = 32

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.RPID == "" {
		return fmt.Errorf("RPID is required")
	}
	if c.RPDisplayName == "" {
		return fmt.Errorf("RPDisplayName is required")
	}
	if len(c.RPOrigins) == 0 {
		return fmt.Errorf("at least one RPOrigin is required")
	}
	if c.ChallengeTTL < 0 {
		return fmt.Errorf("challenge TTL must not be negative")
	}
	if c.ChallengeSize != 0 && c.ChallengeSize < MinChallengeSize {
		return fmt.Errorf("challenge size must be at least %d bytes", MinChallengeSize)
	}
	if c.MaxCredentialsPerAccount < 0 {
		return fmt.Errorf("max credentials per account must not be negative")
	}

	// Validate user verification
	switch c.UserVerification {
	case "", VerificationRequired, VerificationPreferred, VerificationDiscouraged:
		// Valid
	default:
		return fmt.Errorf("invalid user verification: %s", c.UserVerification)
	}

	// Validate attestation preference
	switch c.AttestationPreference {
	case "", AttestationNone, AttestationIndirect, AttestationDirect:
		// Valid
	default:
		return fmt.Errorf("invalid attestation preference: %s", c.AttestationPreference)
	}

	// Validate resident key requirement
	switch c.ResidentKeyRequirement {
	case "", ResidentKeyRequired, ResidentKeyPreferred, ResidentKeyDiscouraged:
		// Valid
	default:
		return fmt.Errorf("invalid resident key requirement: %s", c.ResidentKeyRequirement)
	}

	// Validate authenticator attachment
	switch c.AuthenticatorAttachment {
	case "", AttachmentPlatform, AttachmentCrossPlatform:
		// Valid
	default:
		return fmt.Errorf("invalid authenticator attachment: %s", c.AuthenticatorAttachment)
	}

	for _, alg := range c.Algorithms {
		if !alg.Supported() {
			return fmt.Errorf("unsupported algorithm: %d", alg)
		}
	}

	return nil
}

// SetDefaults sets default values for unset configuration fields.
func (c *Config) SetDefaults() {
	if c.ChallengeTTL == 0 {
		c.ChallengeTTL = 5 * time.Minute
	}
	if c.ChallengeSize == 0 {
		c.ChallengeSize = MinChallengeSize
	}
	if c.MaxCredentialsPerAccount == 0 {
		c.MaxCredentialsPerAccount = 10
	}
	if c.UserVerification == "" {
		c.UserVerification = VerificationPreferred
	}
	if c.AttestationPreference == "" {
		c.AttestationPreference = AttestationNone
	}
	if c.ResidentKeyRequirement == "" {
		c.ResidentKeyRequirement = ResidentKeyPreferred
	}
	if len(c.Algorithms) == 0 {
		c.Algorithms = []Algorithm{AlgES256, AlgEdDSA, AlgRS256}
	}
}

// TimeoutMillis returns the ceremony timeout communicated to clients in
// milliseconds, derived from the challenge TTL.
func (c *Config) TimeoutMillis() int {
	return int(c.ChallengeTTL / time.Millisecond)
}
