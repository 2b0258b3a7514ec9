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

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeremyhahn/go-passkey/pkg/client"
)

// Config holds global CLI configuration
type Config struct {
	// Server is the URL of the passkey server.
	// Supported formats:
	// - http://host:port or https://host:port
	// - host:port (assumes http)
	// If empty, the default local server address is used.
	Server string

	// OutputFormat controls output formatting (json, text, table)
	OutputFormat string

	// Verbose enables verbose logging
	Verbose bool

	// TLSInsecure skips TLS certificate verification (not recommended)
	TLSInsecure bool

	// TLSCert is the path to the client certificate file (for mTLS)
	TLSCert string

	// TLSKey is the path to the client key file (for mTLS)
	TLSKey string

	// TLSCACert is the path to the CA certificate file
	TLSCACert string

	// Token is a bearer token for authenticated requests
	Token string
}

// NewConfig creates a new Config with default values. The server URL is
// taken from the PASSKEY_SERVER environment variable when set.
func NewConfig() *Config {
	return &Config{
		Server:       os.Getenv("PASSKEY_SERVER"),
		OutputFormat: "text",
		Verbose:      false,
	}
}

// CreateClient creates a client for communicating with the passkey server.
func (c *Config) CreateClient() (client.Client, error) {
	cfg := &client.Config{
		Address:               c.Server,
		TLSInsecureSkipVerify: c.TLSInsecure,
		TLSCertFile:           c.TLSCert,
		TLSKeyFile:            c.TLSKey,
		TLSCAFile:             c.TLSCACert,
		Token:                 c.Token,
	}

	switch {
	case c.Server == "":
		cfg.Address = client.DefaultServerAddress
	case strings.HasPrefix(c.Server, "https://"):
		cfg.TLSEnabled = true
	case strings.HasPrefix(c.Server, "http://"):
		// Plain HTTP
	case strings.Contains(c.Server, "://"):
		return nil, fmt.Errorf("unsupported server URL: %s", c.Server)
	default:
		// Assume host:port with plain HTTP
		cfg.Address = "http://" + c.Server
	}

	return client.New(cfg)
}
