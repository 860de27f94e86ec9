// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-certcheck/pkg/certcheck"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL...",
	Short: "Print the leaf certificate fingerprints of endpoints",
	Long: `Connect to each endpoint, read the leaf certificate, and print its subject,
issuer, validity window, and SHA-256 fingerprint. Endpoints are inspected
concurrently; a failure on one does not stop the others.

Use --format fingerprints for a JSON array of colon-separated fingerprints
suitable for pasting into a configuration. Arguments without a scheme, such
as example.com or example.com:8443, are treated as https URLs.`,
	Example: `  certcheck fetch example.com https://example.org:8443
  certcheck fetch --format fingerprints api.example.com`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int("concurrency", certcheck.DefaultConcurrency, "maximum concurrent handshakes")
	addConnectionFlags(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one URL is required", ErrInvalidInput)
	}
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency < 0 {
		return fmt.Errorf("%w: --concurrency must not be negative", ErrInvalidInput)
	}

	checker, err := newCheckerFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("fetching certificates", "endpoints", len(args), "concurrency", concurrency)

	targets := make([]string, len(args))
	for i, arg := range args {
		targets[i] = normalizeTarget(arg)
	}

	items, batchErr := checker.InspectAll(ctx, targets, concurrency)
	reports := make([]report, 0, len(items))
	for _, item := range items {
		reports = append(reports, newReport(item.URL, item.Result, item.Err))
	}

	out, err := render(reports, false)
	if err != nil {
		return err
	}
	if err := writeOutput(out); err != nil {
		return err
	}

	if batchErr != nil {
		var agg *certcheck.AggregateError
		if errors.As(batchErr, &agg) && len(args) == 1 {
			return fmt.Errorf("%w: %w", ErrFetchFailed, agg.Items[0].Err)
		}
		return fmt.Errorf("%w: %w", ErrFetchFailed, batchErr)
	}
	return nil
}

// normalizeTarget prefixes https:// to an argument that names no scheme.
func normalizeTarget(arg string) string {
	if strings.Contains(arg, "://") {
		return arg
	}
	return "https://" + arg
}
