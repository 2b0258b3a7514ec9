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

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Inspect the passkey server",
	Long:  `Query the passkey server's health, version, and relying party configuration`,
}

// serverStatusCmd shows server status
var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long:  `Display the server's health, version, uptime, and relying party configuration`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()
		printer := NewPrinter(cfg.OutputFormat, os.Stdout)

		cl, ctx, err := connectClient(cfg)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = cl.Close() }()

		status, err := cl.Status(ctx)
		if err != nil {
			handleError(fmt.Errorf("failed to get server status: %w", err))
			return
		}

		if err := printer.PrintServerStatus(status); err != nil {
			handleError(err)
		}
	},
}

func init() {
	serverCmd.AddCommand(serverStatusCmd)
}
