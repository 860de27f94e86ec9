// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package certcheck

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// DefaultConnectTimeout bounds the dial and TLS handshake of one check.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultPort is used when the URL carries no explicit port.
	DefaultPort = "443"
)

// NewTrustingTLSConfig returns a TLS client configuration that accepts any
// certificate chain the server presents, failing only when the chain is empty.
//
// The configuration exists so the leaf certificate can be observed and pinned
// by the caller. It must never be used for exchanging data; TLSConnector is
// its only user and tears the connection down right after the handshake.
func NewTrustingTLSConfig(serverName string) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true, //nolint:gosec // Trust is decided by fingerprint comparison, not the TLS stack
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) == 0 {
				return ErrNoCertificates
			}
			return nil
		},
	}
}

// TLSConnector retrieves peer certificates with a single trusting TLS handshake.
type TLSConnector struct {
	dialer  proxy.ContextDialer
	timeout time.Duration
	logger  *slog.Logger
}

// NewTLSConnector creates a TLSConnector. A nil config uses all defaults.
func NewTLSConnector(cfg *ConnectorConfig) (*TLSConnector, error) {
	if cfg == nil {
		cfg = &ConnectorConfig{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var dialer proxy.ContextDialer = &net.Dialer{Timeout: timeout}
	if cfg.Dialer != nil {
		dialer = cfg.Dialer
	}

	if cfg.ProxyURL != "" {
		proxied, err := proxyDialer(cfg.ProxyURL, dialer)
		if err != nil {
			return nil, err
		}
		dialer = proxied
	}

	return &TLSConnector{
		dialer:  dialer,
		timeout: timeout,
		logger:  logger.With("component", "tls_connector"),
	}, nil
}

// PeerCertificates dials the host and port implied by target, completes a
// trusting TLS handshake, and returns the raw DER chain presented by the peer.
// The connection is closed before returning on every path. No application
// data is exchanged.
func (c *TLSConnector) PeerCertificates(ctx context.Context, target *url.URL) ([][]byte, error) {
	if target == nil || target.Hostname() == "" {
		return nil, fmt.Errorf("%w: no host in target URL", ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addr := targetAddr(target)
	c.logger.Debug("dialing", "addr", addr)

	rawConn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	conn := tls.Client(rawConn, NewTrustingTLSConfig(target.Hostname()))
	defer conn.Close()

	if err := conn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("tls handshake with %s: %w", addr, err)
	}

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, ErrNoCertificates
	}

	chain := make([][]byte, 0, len(state.PeerCertificates))
	for _, cert := range state.PeerCertificates {
		chain = append(chain, cert.Raw)
	}

	c.logger.Debug("handshake complete",
		"addr", addr,
		"tls_version", tls.VersionName(state.Version),
		"certificates", len(chain))
	return chain, nil
}

// targetAddr returns host:port for target, defaulting the port to 443.
// The default applies to any scheme since the connector always speaks TLS.
func targetAddr(target *url.URL) string {
	port := target.Port()
	if port == "" {
		port = DefaultPort
	}
	return net.JoinHostPort(target.Hostname(), port)
}

// forwardDialer adapts a ContextDialer to the proxy.Dialer interface that
// proxy.FromURL expects for its forward hop.
type forwardDialer struct {
	proxy.ContextDialer
}

// Dial connects without a deadline beyond the wrapped dialer's own.
func (d forwardDialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

// proxyDialer builds a context-aware dialer that tunnels through the proxy at rawURL.
func proxyDialer(rawURL string, forward proxy.ContextDialer) (proxy.ContextDialer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: proxy URL: %w", ErrInvalidArgument, err)
	}
	d, err := proxy.FromURL(u, forwardDialer{forward})
	if err != nil {
		return nil, fmt.Errorf("%w: proxy URL: %w", ErrInvalidArgument, err)
	}
	xd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("%w: proxy scheme %q does not support DialContext", ErrInvalidArgument, u.Scheme)
	}
	return xd, nil
}
