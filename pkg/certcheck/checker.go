// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package certcheck

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jeremyhahn/go-certcheck/pkg/fingerprint"
)

// schemeHTTPS is the only URL scheme accepted unless AllowNonHTTPS is set.
const schemeHTTPS = "https"

// Checker runs certificate checks. It holds no per-call state and is safe
// for concurrent use.
type Checker struct {
	connector     Connector
	allowNonHTTPS bool
	logger        *slog.Logger
}

// NewChecker creates a Checker. A nil config uses a default TLSConnector.
func NewChecker(cfg *Config) (*Checker, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	connector := cfg.Connector
	if connector == nil {
		connCfg := cfg.ConnectorConfig
		if connCfg == nil {
			connCfg = &ConnectorConfig{Logger: logger}
		}
		tc, err := NewTLSConnector(connCfg)
		if err != nil {
			return nil, err
		}
		connector = tc
	}

	return &Checker{
		connector:     connector,
		allowNonHTTPS: cfg.AllowNonHTTPS,
		logger:        logger.With("component", "certcheck"),
	}, nil
}

// Check retrieves the leaf certificate of req.URL and compares its
// fingerprint against req.Fingerprint. A mismatch is not an error: it is
// reported through Result.FingerprintMatched, and Result.Fingerprint always
// holds the computed digest.
func (c *Checker) Check(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is required", ErrInvalidArgument)
	}
	if req.URL == "" || req.Fingerprint == "" {
		return nil, fmt.Errorf("%w: URL and fingerprint are required", ErrInvalidArgument)
	}

	expected, err := fingerprint.Validate(req.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	target, err := c.ValidateURL(req.URL)
	if err != nil {
		return nil, err
	}

	result, err := c.retrieve(ctx, target)
	if err != nil {
		return nil, err
	}

	result.ExpectedFingerprint = expected
	result.FingerprintMatched = fingerprint.Equal(result.Fingerprint, expected)

	c.logger.Info("certificate checked",
		"url", target.Redacted(),
		"fingerprint", result.Fingerprint,
		"matched", result.FingerprintMatched)
	return result, nil
}

// Inspect retrieves the leaf certificate of rawURL and reports its metadata
// and fingerprint without comparing against an expected value.
func (c *Checker) Inspect(ctx context.Context, rawURL string) (*Result, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidArgument)
	}

	target, err := c.ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	result, err := c.retrieve(ctx, target)
	if err != nil {
		return nil, err
	}

	c.logger.Info("certificate inspected", "url", target.Redacted(), "fingerprint", result.Fingerprint)
	return result, nil
}

// ValidateURL parses rawURL and applies the checker's URL rules: absolute,
// with a host, and https unless AllowNonHTTPS is set. Failures wrap
// ErrInvalidArgument. No network I/O is performed.
func (c *Checker) ValidateURL(rawURL string) (*url.URL, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed URL: %w", ErrInvalidArgument, err)
	}
	if !target.IsAbs() || target.Hostname() == "" {
		return nil, fmt.Errorf("%w: URL must be absolute with a host: %q", ErrInvalidArgument, rawURL)
	}
	if target.Scheme != schemeHTTPS && !c.allowNonHTTPS {
		return nil, fmt.Errorf("%w: URL is not HTTPS", ErrInvalidArgument)
	}
	return target, nil
}

// retrieve runs the connect, digest, and assemble stages for target.
func (c *Checker) retrieve(ctx context.Context, target *url.URL) (*Result, error) {
	c.logger.Debug("retrieving peer certificate", "url", target.Redacted())

	chain, err := c.connector.PeerCertificates(ctx, target)
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrCertificateRetrievalFailed, err)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrCertificateRetrievalFailed, ErrNoCertificates)
	}

	leaf := chain[0]
	fp, err := fingerprint.Compute(leaf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingFailed, err)
	}

	result, err := assemble(leaf)
	if err != nil {
		return nil, err
	}
	result.Fingerprint = fp
	result.ChainLength = len(chain)
	return result, nil
}

// assemble extracts display metadata from the leaf DER.
func assemble(der []byte) (*Result, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedCertificateType, err)
	}
	return &Result{
		Subject:   cert.Subject.String(),
		Issuer:    cert.Issuer.String(),
		ValidFrom: cert.NotBefore.UTC().Format(time.RFC3339),
		ValidTo:   cert.NotAfter.UTC().Format(time.RFC3339),
		SPKIPin:   fingerprint.ComputeSPKI(cert),
	}, nil
}

// Check runs a single certificate check with a default Checker.
func Check(ctx context.Context, req *Request) (*Result, error) {
	checker, err := NewChecker(nil)
	if err != nil {
		return nil, err
	}
	return checker.Check(ctx, req)
}
