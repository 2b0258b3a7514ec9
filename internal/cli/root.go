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

	"github.com/spf13/cobra"
)

var (
	// Global configuration
	globalConfig *Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "passkeyctl",
	Short: "go-passkey CLI - Passkey server administration tool",
	Long: `passkeyctl provides a command-line interface for administering a
passkey server: inspecting server health and status, and managing the
WebAuthn credentials registered to accounts.

The WebAuthn ceremonies themselves (registration and login) involve a
browser or platform authenticator and are driven by the web client,
not this tool.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize global config
	globalConfig = NewConfig()

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&globalConfig.Server, "server", globalConfig.Server,
		"server URL (default is $PASSKEY_SERVER or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat, "output", "o", "text",
		"output format (text, json, table)")
	rootCmd.PersistentFlags().BoolVarP(&globalConfig.Verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVar(&globalConfig.TLSInsecure, "insecure", false,
		"skip TLS certificate verification (not recommended)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.TLSCACert, "ca-cert", "",
		"path to the server CA certificate")
	rootCmd.PersistentFlags().StringVar(&globalConfig.TLSCert, "client-cert", "",
		"path to the client certificate (for mTLS)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.TLSKey, "client-key", "",
		"path to the client key (for mTLS)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.Token, "token", "",
		"bearer token for authenticated requests")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(credentialsCmd)
}

// getConfig returns the global configuration
func getConfig() *Config {
	return globalConfig
}

// handleError prints an error and exits with code 1
func handleError(err error) {
	printer := NewPrinter(globalConfig.OutputFormat, os.Stderr)
	_ = printer.PrintError(err) // Error printing to stderr is best-effort
	os.Exit(1)
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if globalConfig.Verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
