// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-certcheck/pkg/certcheck"
	"github.com/jeremyhahn/go-certcheck/pkg/dane"
)

var tlsaCmd = &cobra.Command{
	Use:   "tlsa",
	Short: "Print the TLSA record that publishes an endpoint's fingerprint",
	Long: `Fetch the leaf certificate an endpoint presents and print the DANE TLSA
record (selector 0, matching type 1) carrying its SHA-256 fingerprint. Add the
record to the zone and 'certcheck check --dane' will use it as the expected
fingerprint.

Usage 3 (DANE-EE) is the default; usage 1 (PKIX-EE) is also accepted.`,
	RunE: runTLSA,
}

func init() {
	tlsaCmd.Flags().String("url", "", "HTTPS URL of the endpoint (required)")
	tlsaCmd.Flags().Uint8("usage", dane.UsageDANEEE, "TLSA certificate usage (1 or 3)")
	addConnectionFlags(tlsaCmd)
}

func runTLSA(cmd *cobra.Command, args []string) error {
	rawURL, _ := cmd.Flags().GetString("url")
	usage, _ := cmd.Flags().GetUint8("usage")
	allowNonHTTPS, _ := cmd.Flags().GetBool("allow-non-https")

	if rawURL == "" {
		return fmt.Errorf("%w: --url is required", ErrInvalidInput)
	}
	if usage != dane.UsagePKIXEE && usage != dane.UsageDANEEE {
		return fmt.Errorf("%w: --usage must be 1 or 3", ErrInvalidInput)
	}

	target, host, port, err := endpoint(rawURL)
	if err != nil {
		return err
	}
	if target.Scheme != "https" && !allowNonHTTPS {
		return fmt.Errorf("%w: URL is not HTTPS", ErrInvalidInput)
	}

	cfg, err := connectorConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	connector, err := certcheck.NewTLSConnector(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chain, err := connector.PeerCertificates(ctx, target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	if len(chain) == 0 {
		return fmt.Errorf("%w: %w", ErrCheckFailed, certcheck.ErrNoCertificates)
	}

	record, err := dane.GenerateRecord(chain[0], host, port, usage)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	slog.Debug("generated TLSA record", "name", record.Name, "usage", record.Usage)

	out, err := renderRecord(record)
	if err != nil {
		return err
	}
	return writeOutput(out)
}

// renderRecord emits the zone file line for text output and the full record
// otherwise.
func renderRecord(record *dane.ZoneRecord) ([]byte, error) {
	switch format {
	case formatText, formatFingerprints:
		return []byte(record.Line + "\n"), nil
	case formatJSON:
		return renderJSONValue(record)
	case formatYAML:
		return renderYAMLValue(record)
	default:
		return nil, fmt.Errorf("%w: unknown --format %q", ErrInvalidInput, format)
	}
}
