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
	"github.com/jeremyhahn/go-certcheck/pkg/fingerprint"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check an endpoint's leaf certificate against a fingerprint",
	Long: `Connect to an HTTPS endpoint, compute the SHA-256 fingerprint of the leaf
certificate it presents, and compare it with the expected fingerprint.

The expected fingerprint comes from --fingerprint, or with --dane from the
TLSA records published at _<port>._tcp.<host>. Only records with selector 0
and matching type 1 (full certificate SHA-256) are used.

Exit status: 0 when the fingerprint matched, 1 when the certificate could not
be retrieved or did not match, 2 on invalid input.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("url", "", "HTTPS URL of the endpoint (required)")
	checkCmd.Flags().String("fingerprint", "", "expected SHA-256 fingerprint, hex with optional colons")
	checkCmd.Flags().Bool("dane", false, "read the expected fingerprint from DNS TLSA records")
	checkCmd.Flags().String("dns-server", "", "DNS server for --dane lookups (default: /etc/resolv.conf)")
	checkCmd.Flags().Bool("require-dnssec", false, "require the AD flag on --dane responses")
	addConnectionFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	rawURL, _ := cmd.Flags().GetString("url")
	expected, _ := cmd.Flags().GetString("fingerprint")
	useDANE, _ := cmd.Flags().GetBool("dane")

	if rawURL == "" {
		return fmt.Errorf("%w: --url is required", ErrInvalidInput)
	}
	if useDANE && expected != "" {
		return fmt.Errorf("%w: --fingerprint and --dane are mutually exclusive", ErrInvalidInput)
	}
	if !useDANE && expected == "" {
		return fmt.Errorf("%w: --fingerprint or --dane is required", ErrInvalidInput)
	}

	checker, err := newCheckerFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *certcheck.Result
	if useDANE {
		result, err = checkWithDANE(ctx, cmd, checker, rawURL)
	} else {
		result, err = checker.Check(ctx, &certcheck.Request{URL: rawURL, Fingerprint: expected})
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}

	out, err := render([]report{newReport(rawURL, result, nil)}, true)
	if err != nil {
		return err
	}
	if err := writeOutput(out); err != nil {
		return err
	}

	if !result.FingerprintMatched {
		return fmt.Errorf("%w: %s presented %s", ErrFingerprintMismatch, rawURL, result.Fingerprint)
	}
	return nil
}

// checkWithDANE inspects the endpoint and matches its fingerprint against
// every leaf digest published in DNS for the URL's host and port.
func checkWithDANE(ctx context.Context, cmd *cobra.Command, checker *certcheck.Checker, rawURL string) (*certcheck.Result, error) {
	if _, err := checker.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	_, host, port, err := endpoint(rawURL)
	if err != nil {
		return nil, err
	}

	resolver, err := dane.NewResolver(resolverConfigFromFlags(cmd))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDANELookupFailed, err)
	}

	published, err := resolver.LookupFingerprints(ctx, host, port)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDANELookupFailed, err)
	}
	slog.Debug("DANE fingerprints", "host", host, "port", port, "count", len(published))

	result, err := checker.Inspect(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	result.ExpectedFingerprint = published[0]
	for _, fp := range published {
		if fingerprint.Equal(result.Fingerprint, fp) {
			result.ExpectedFingerprint = fp
			result.FingerprintMatched = true
			break
		}
	}
	return result, nil
}

// resolverConfigFromFlags builds the TLSA resolver settings. Lookups share
// the --timeout budget of the handshake.
func resolverConfigFromFlags(cmd *cobra.Command) *dane.ResolverConfig {
	dnsServer, _ := cmd.Flags().GetString("dns-server")
	requireAD, _ := cmd.Flags().GetBool("require-dnssec")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	return &dane.ResolverConfig{
		Server:    dnsServer,
		RequireAD: requireAD,
		Timeout:   timeout,
	}
}
