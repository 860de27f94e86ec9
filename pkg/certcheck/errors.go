// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package certcheck verifies that the leaf certificate presented by an HTTPS
// endpoint matches an operator-supplied SHA-256 fingerprint.
//
// The check runs as a linear pipeline: the request is validated, a TLS
// handshake is performed with chain validation disabled so the raw leaf
// certificate can be observed, the leaf DER is digested, and the digest is
// compared against the expected value. The trust decision is the
// FingerprintMatched field of the result; the TLS layer never makes it.
//
// Every stage fails fast. Errors wrap one of the sentinels below so callers
// can identify the failed stage with errors.Is while the message keeps the
// underlying cause.
package certcheck

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is returned when the URL or fingerprint is missing or
	// malformed, or the URL does not use the https scheme. No network I/O is
	// attempted.
	ErrInvalidArgument = errors.New("certcheck: invalid argument")

	// ErrCertificateRetrievalFailed is returned when the peer certificate could
	// not be obtained: DNS failure, connection refused, timeout, handshake
	// failure, or an empty certificate chain.
	ErrCertificateRetrievalFailed = errors.New("certcheck: certificate retrieval failed")

	// ErrNoCertificates is returned by the trusting TLS configuration when the
	// peer presents an empty certificate chain. It is always wrapped by
	// ErrCertificateRetrievalFailed when surfaced from a check.
	ErrNoCertificates = errors.New("certcheck: no certificates presented")

	// ErrEncodingFailed is returned when the leaf certificate has no DER
	// encoding to digest.
	ErrEncodingFailed = errors.New("certcheck: certificate encoding failed")

	// ErrUnsupportedCertificateType is returned when the leaf certificate is
	// not a parseable X.509 certificate.
	ErrUnsupportedCertificateType = errors.New("certcheck: unsupported certificate type")

	// ErrBatchFailed is returned when at least one item of a batch failed.
	ErrBatchFailed = errors.New("certcheck: batch failed")
)

// ItemError records the failure of a single batch item.
type ItemError struct {
	// URL is the endpoint that was checked.
	URL string

	// Err is the underlying error from the check.
	Err error
}

// Error returns a formatted error message including the URL.
func (e *ItemError) Error() string {
	return fmt.Sprintf("certcheck %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// AggregateError collects the failures of a batch run.
type AggregateError struct {
	// Items contains the individual failures in input order.
	Items []ItemError
}

// Error returns a formatted message listing every failed URL.
func (e *AggregateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "certcheck: %d check(s) failed: [", len(e.Items))
	for i, item := range e.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", item.URL, item.Err)
	}
	b.WriteString("]")
	return b.String()
}

// Unwrap returns ErrBatchFailed for use with errors.Is.
func (e *AggregateError) Unwrap() error {
	return ErrBatchFailed
}
