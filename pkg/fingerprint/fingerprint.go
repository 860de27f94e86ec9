// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package fingerprint

import (
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"
)

// separators lists the characters stripped from operator-supplied fingerprints.
var separators = strings.NewReplacer(":", "", " ", "")

// Compute returns the SHA-256 digest of the DER bytes as uppercase hex.
// The bytes are hashed exactly as given.
func Compute(der []byte) (string, error) {
	if len(der) == 0 {
		return "", ErrEncodingFailed
	}
	sum := sha256.Sum256(der)
	return strings.ToUpper(hex.EncodeToString(sum[:])), nil
}

// ComputeCertificate returns the fingerprint of a parsed certificate's raw DER encoding.
func ComputeCertificate(cert *x509.Certificate) (string, error) {
	if cert == nil {
		return "", ErrEncodingFailed
	}
	return Compute(cert.Raw)
}

// ComputeSPKI returns the SHA-256 hash of a certificate's SubjectPublicKeyInfo
// as lowercase hex, the form used for SPKI pins.
func ComputeSPKI(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return hex.EncodeToString(sum[:])
}

// Normalize strips colon and space separators and upper-cases the result.
func Normalize(s string) string {
	return strings.ToUpper(separators.Replace(strings.TrimSpace(s)))
}

// Validate normalizes an expected fingerprint and checks that it is non-empty hex.
// The digest length is not enforced; a short value simply never matches.
func Validate(s string) (string, error) {
	normalized := Normalize(s)
	if normalized == "" {
		return "", ErrEmpty
	}
	for _, r := range normalized {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return "", fmt.Errorf("%w: unexpected character %q", ErrInvalidFormat, r)
		}
	}
	return normalized, nil
}

// Equal reports whether two fingerprints are the same digest, ignoring
// separators and case. The comparison runs in constant time for equal-length input.
func Equal(computed, expected string) bool {
	a := Normalize(computed)
	b := Normalize(expected)
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Format renders a fingerprint as colon-separated uppercase byte pairs
// (e.g., "AB:CD:EF"). Odd-length input keeps its trailing nibble as the last group.
func Format(s string) string {
	normalized := Normalize(s)
	if normalized == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(normalized) + len(normalized)/2)
	for i := 0; i < len(normalized); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		end := min(i+2, len(normalized))
		b.WriteString(normalized[i:end])
	}
	return b.String()
}
