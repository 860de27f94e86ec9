// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package certcheck

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// Request identifies the endpoint to check and the fingerprint it must present.
type Request struct {
	// URL is the absolute https URL of the endpoint (e.g., "https://example.com:8443").
	URL string `json:"url"`

	// Fingerprint is the expected hex-encoded SHA-256 fingerprint of the leaf
	// certificate. Colon separators are optional and case is ignored.
	Fingerprint string `json:"fingerprint"`
}

// Result describes the leaf certificate an endpoint presented and whether it
// matched the expected fingerprint.
type Result struct {
	// Subject is the subject distinguished name of the leaf certificate.
	Subject string `json:"subject"`

	// Issuer is the issuer distinguished name of the leaf certificate.
	Issuer string `json:"issuer"`

	// ValidFrom is the start of the validity window in RFC 3339 (UTC).
	ValidFrom string `json:"validFrom"`

	// ValidTo is the end of the validity window in RFC 3339 (UTC).
	ValidTo string `json:"validTo"`

	// Fingerprint is the computed SHA-256 fingerprint of the leaf certificate
	// DER encoding, uppercase hex without separators. It is populated even
	// when the fingerprint did not match.
	Fingerprint string `json:"fingerprint"`

	// ExpectedFingerprint is the normalized expected fingerprint. Empty for inspections.
	ExpectedFingerprint string `json:"expectedFingerprint,omitempty"`

	// FingerprintMatched reports whether Fingerprint equals ExpectedFingerprint.
	FingerprintMatched bool `json:"fingerprintMatched"`

	// SPKIPin is the hex SHA-256 of the leaf's SubjectPublicKeyInfo.
	SPKIPin string `json:"spkiPin,omitempty"`

	// ChainLength is the number of certificates the peer presented.
	ChainLength int `json:"chainLength,omitempty"`
}

// Connector retrieves the certificate chain an endpoint presents during a
// TLS handshake. Implementations must close any connection they open before
// returning and must not retry.
type Connector interface {
	// PeerCertificates returns the DER-encoded certificates presented by the
	// peer, leaf first.
	PeerCertificates(ctx context.Context, target *url.URL) ([][]byte, error)
}

// Config configures a Checker.
type Config struct {
	// Connector retrieves peer certificates. Defaults to a TLSConnector built
	// from ConnectorConfig.
	Connector Connector

	// ConnectorConfig configures the default TLSConnector. Ignored when
	// Connector is set.
	ConnectorConfig *ConnectorConfig

	// AllowNonHTTPS disables the https scheme check. This reproduces a
	// legacy variant that skipped the check; the connector still performs a
	// TLS handshake with the host. Leave false.
	AllowNonHTTPS bool

	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// ConnectorConfig configures a TLSConnector.
type ConnectorConfig struct {
	// Timeout bounds dial plus handshake. Defaults to DefaultConnectTimeout.
	Timeout time.Duration

	// ProxyURL optionally routes the connection through a proxy
	// (e.g., "socks5://127.0.0.1:1080").
	ProxyURL string

	// Dialer overrides the network dialer. Mainly useful for tests.
	Dialer proxy.ContextDialer

	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}
