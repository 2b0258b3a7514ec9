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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jeremyhahn/go-passkey/pkg/client"
	webauthnhttp "github.com/jeremyhahn/go-passkey/pkg/webauthn/http"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// timestampFormat is how credential timestamps are rendered in tables.
const timestampFormat = "2006-01-02 15:04"

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintCredentialList prints the credentials registered to an account
func (p *Printer) PrintCredentialList(creds []webauthnhttp.CredentialSummary) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"credentials": creds,
		})
	case OutputFormatTable:
		if len(creds) == 0 {
			fmt.Fprintln(p.writer, "No credentials found")
			return nil
		}
		fmt.Fprintf(p.writer, "%-45s %-20s %-15s %-8s %-17s\n",
			"ID", "LABEL", "ATTACHMENT", "TRUST", "LAST USED")
		fmt.Fprintln(p.writer, strings.Repeat("-", 108))
		for _, cred := range creds {
			fmt.Fprintf(p.writer, "%-45s %-20s %-15s %-8s %-17s\n",
				cred.ID, cred.Label, cred.Attachment, cred.Trust,
				cred.LastUsedAt.Format(timestampFormat))
		}
		return nil
	case OutputFormatText:
		if len(creds) == 0 {
			fmt.Fprintln(p.writer, "No credentials found")
			return nil
		}
		fmt.Fprintln(p.writer, "Credentials:")
		for _, cred := range creds {
			fmt.Fprintf(p.writer, "  - %s (%s)\n", cred.Label, cred.ID)
			fmt.Fprintf(p.writer, "    Trust: %s, Backed up: %t, Last used: %s\n",
				cred.Trust, cred.BackedUp, cred.LastUsedAt.Format(timestampFormat))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintRegistrationStatus prints whether an account has active credentials
func (p *Printer) PrintRegistrationStatus(account string, registered bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"account":    account,
			"registered": registered,
		})
	case OutputFormatTable, OutputFormatText:
		if registered {
			fmt.Fprintf(p.writer, "Account %s has registered credentials\n", account)
		} else {
			fmt.Fprintf(p.writer, "Account %s has no registered credentials\n", account)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintServerStatus prints server status and relying party details
func (p *Printer) PrintServerStatus(status *client.ServerStatusResponse) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(status)
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, "Server Status:")
		fmt.Fprintf(p.writer, "  Status:        %s\n", status.Status)
		fmt.Fprintf(p.writer, "  Version:       %s\n", status.Version)
		if status.Uptime != "" {
			fmt.Fprintf(p.writer, "  Uptime:        %s\n", status.Uptime)
		}
		fmt.Fprintf(p.writer, "  Relying Party: %s\n", status.RelyingPartyID)
		if len(status.Origins) > 0 {
			fmt.Fprintf(p.writer, "  Origins:       %s\n", strings.Join(status.Origins, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
