// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-certcheck/pkg/certcheck"
)

// addConnectionFlags registers the flags shared by every command that
// performs a handshake.
func addConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", certcheck.DefaultConnectTimeout, "connect and handshake timeout")
	cmd.Flags().String("proxy", "", "proxy URL for outbound connections (http://host:port or socks5://host:port)")
	cmd.Flags().Bool("allow-non-https", false, "accept URLs with a scheme other than https")
}

// newCheckerFromFlags builds a Checker from the connection flags of cmd.
func newCheckerFromFlags(cmd *cobra.Command) (*certcheck.Checker, error) {
	cfg, err := connectorConfigFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	allowNonHTTPS, _ := cmd.Flags().GetBool("allow-non-https")

	return certcheck.NewChecker(&certcheck.Config{
		ConnectorConfig: cfg,
		AllowNonHTTPS:   allowNonHTTPS,
		Logger:          slog.Default(),
	})
}

func connectorConfigFromFlags(cmd *cobra.Command) (*certcheck.ConnectorConfig, error) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: --timeout must be positive", ErrInvalidInput)
	}
	proxyURL, _ := cmd.Flags().GetString("proxy")

	return &certcheck.ConnectorConfig{
		Timeout:  timeout,
		ProxyURL: proxyURL,
		Logger:   slog.Default(),
	}, nil
}

// endpoint splits an absolute URL into host and numeric port, defaulting
// the port to 443.
func endpoint(rawURL string) (*url.URL, string, uint16, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	host := u.Hostname()
	if !u.IsAbs() || host == "" {
		return nil, "", 0, fmt.Errorf("%w: URL must be absolute with a host: %q", ErrInvalidInput, rawURL)
	}

	portStr := u.Port()
	if portStr == "" {
		portStr = certcheck.DefaultPort
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return nil, "", 0, fmt.Errorf("%w: invalid port %q", ErrInvalidInput, portStr)
	}
	return u, host, uint16(port), nil
}
