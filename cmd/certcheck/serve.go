// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-certcheck/pkg/rpc"
)

// shutdownTimeout bounds the graceful drain of in-flight checks.
const shutdownTimeout = 10 * time.Second

// serveCmd exposes the certificate check as a JSON endpoint.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve certificate checks over HTTP",
	Long: `Run an HTTP server that accepts certificate check requests.

  POST /v1/certificate/check
  {"url": "https://example.com", "fingerprint": "AB:CD:..."}

Set "method" to "inspectCertificate" to read a fingerprint without comparing
it. Requests are rate limited per client IP. Failures carry the stage that
failed: 400 invalid input, 502 certificate retrieval, 422 unusable
certificate, 429 rate limited.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", rpc.DefaultListenAddr, "TCP listen address")
	serveCmd.Flags().Float64("rate", rpc.DefaultRateLimit, "per-IP requests per second")
	serveCmd.Flags().Int("burst", rpc.DefaultRateBurst, "per-IP burst size")
	serveCmd.Flags().Int64("max-body", rpc.DefaultMaxBodyBytes, "maximum request body size in bytes")
	addConnectionFlags(serveCmd)
}

// runServe starts the rpc server and blocks until SIGINT or SIGTERM.
func runServe(cmd *cobra.Command, args []string) error {
	listenAddr, _ := cmd.Flags().GetString("listen")
	rateLimit, _ := cmd.Flags().GetFloat64("rate")
	burst, _ := cmd.Flags().GetInt("burst")
	maxBody, _ := cmd.Flags().GetInt64("max-body")

	if listenAddr == "" {
		return fmt.Errorf("%w: --listen is required", ErrInvalidInput)
	}
	if rateLimit <= 0 || burst <= 0 {
		return fmt.Errorf("%w: --rate and --burst must be positive", ErrInvalidInput)
	}

	checker, err := newCheckerFromFlags(cmd)
	if err != nil {
		return err
	}

	server, err := rpc.NewServer(&rpc.ServerConfig{
		ListenAddr:   listenAddr,
		Checker:      checker,
		MaxBodyBytes: maxBody,
		RateLimit:    rateLimit,
		RateBurst:    burst,
		Logger:       slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerStart, err)
	}

	sigCtx, sigStop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer sigStop()

	if err := server.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrServerStart, err)
	}

	<-sigCtx.Done()
	slog.Info("shutdown signal received")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	if err := server.Stop(stopCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrServerStart, err)
	}

	slog.Info("server stopped")
	return nil
}
