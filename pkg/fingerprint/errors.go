// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package fingerprint computes and compares SHA-256 certificate fingerprints.
// A fingerprint is the SHA-256 digest of a certificate's DER encoding rendered
// as uppercase hex without separators. Expected values supplied by operators
// may carry colon separators and any letter case.
package fingerprint

import "errors"

var (
	// ErrEncodingFailed is returned when a certificate has no DER encoding to digest.
	ErrEncodingFailed = errors.New("fingerprint: certificate encoding unavailable")

	// ErrEmpty is returned when an expected fingerprint is empty after normalization.
	ErrEmpty = errors.New("fingerprint: empty fingerprint")

	// ErrInvalidFormat is returned when an expected fingerprint contains non-hex characters.
	ErrInvalidFormat = errors.New("fingerprint: invalid fingerprint format")
)
