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
	"context"
	"fmt"
	"os"

	"github.com/jeremyhahn/go-passkey/pkg/client"
	"github.com/spf13/cobra"
)

// credentialsCmd represents the credentials command
var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Manage registered credentials",
	Long: `List, rename, and remove the WebAuthn credentials registered to an
account on the passkey server`,
}

// credentialsListCmd lists the credentials registered to an account
var credentialsListCmd = &cobra.Command{
	Use:   "list <account>",
	Short: "List credentials registered to an account",
	Long:  `List the active credentials registered to the given account`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		account := args[0]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		cl, ctx, err := connectClient(cfg)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = cl.Close() }()

		printVerbose("Listing credentials for account: %s", account)

		creds, err := cl.ListCredentials(ctx, account)
		if err != nil {
			handleError(fmt.Errorf("failed to list credentials: %w", err))
			return
		}

		printVerbose("Found %d credentials", len(creds))

		if err := printer.PrintCredentialList(creds); err != nil {
			handleError(err)
		}
	},
}

// credentialsRenameCmd changes a credential's label
var credentialsRenameCmd = &cobra.Command{
	Use:   "rename <account> <credential-id> <label>",
	Short: "Rename a credential",
	Long:  `Change the human-readable label of a credential owned by the account`,
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		account, credentialID, label := args[0], args[1], args[2]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		cl, ctx, err := connectClient(cfg)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = cl.Close() }()

		if err := cl.RenameCredential(ctx, account, credentialID, label); err != nil {
			handleError(fmt.Errorf("failed to rename credential: %w", err))
			return
		}

		if err := printer.PrintSuccess(fmt.Sprintf("Credential %s renamed to %q", credentialID, label)); err != nil {
			handleError(err)
		}
	},
}

// credentialsRemoveCmd deactivates a credential
var credentialsRemoveCmd = &cobra.Command{
	Use:     "remove <account> <credential-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a credential",
	Long: `Deactivate a credential owned by the account. The credential can no
longer be used to authenticate`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		account, credentialID := args[0], args[1]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		cl, ctx, err := connectClient(cfg)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = cl.Close() }()

		if err := cl.RemoveCredential(ctx, account, credentialID); err != nil {
			handleError(fmt.Errorf("failed to remove credential: %w", err))
			return
		}

		if err := printer.PrintSuccess(fmt.Sprintf("Credential %s removed", credentialID)); err != nil {
			handleError(err)
		}
	},
}

// credentialsStatusCmd reports whether an account has active credentials
var credentialsStatusCmd = &cobra.Command{
	Use:   "status <account>",
	Short: "Check whether an account has registered credentials",
	Long:  `Report whether the given account has any active credentials`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		account := args[0]
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		cl, ctx, err := connectClient(cfg)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = cl.Close() }()

		resp, err := cl.RegistrationStatus(ctx, account)
		if err != nil {
			handleError(fmt.Errorf("failed to get registration status: %w", err))
			return
		}

		if err := printer.PrintRegistrationStatus(account, resp.Registered); err != nil {
			handleError(err)
		}
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsListCmd)
	credentialsCmd.AddCommand(credentialsRenameCmd)
	credentialsCmd.AddCommand(credentialsRemoveCmd)
	credentialsCmd.AddCommand(credentialsStatusCmd)
}

// connectClient creates a client from the configuration and connects it.
func connectClient(cfg *Config) (client.Client, context.Context, error) {
	cl, err := cfg.CreateClient()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}

	ctx := context.Background()
	if err := cl.Connect(ctx); err != nil {
		_ = cl.Close()
		return nil, nil, fmt.Errorf("failed to connect to passkey server: %w", err)
	}

	printVerbose("Connected to passkey server")

	return cl, ctx, nil
}
