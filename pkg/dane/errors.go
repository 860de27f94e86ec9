// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package dane reads and publishes certificate fingerprints as RFC 6698 TLSA
// records. A TLSA record with selector 0 (full certificate) and matching type
// 1 (SHA-256) carries exactly the leaf fingerprint certcheck computes, which
// lets an operator publish the expected fingerprint in DNS instead of
// distributing it by hand.
package dane

import "errors"

// DNS lookup errors indicate issues resolving TLSA records.
var (
	// ErrNoTLSARecords indicates no TLSA records were found for the queried name.
	ErrNoTLSARecords = errors.New("dane: no TLSA records found")

	// ErrNoFingerprintRecords indicates TLSA records exist but none pin a
	// leaf certificate by its full SHA-256 digest.
	ErrNoFingerprintRecords = errors.New("dane: no leaf certificate SHA-256 TLSA records")

	// ErrDNSLookupFailed indicates the DNS query for TLSA records failed.
	ErrDNSLookupFailed = errors.New("dane: DNS lookup failed")

	// ErrDNSSECRequired indicates DNSSEC validation is required but the
	// Authenticated Data (AD) flag was not set in the DNS response.
	ErrDNSSECRequired = errors.New("dane: DNSSEC validation required but AD flag not set")
)

// Input validation errors indicate invalid parameters were provided.
var (
	// ErrInvalidCertificate indicates an empty certificate encoding was provided.
	ErrInvalidCertificate = errors.New("dane: invalid certificate")

	// ErrInvalidHostname indicates an empty or malformed hostname was provided.
	ErrInvalidHostname = errors.New("dane: invalid hostname")

	// ErrInvalidPort indicates port number zero was provided.
	ErrInvalidPort = errors.New("dane: invalid port")

	// ErrUnsupportedUsage indicates a certificate usage that does not pin an end-entity certificate.
	ErrUnsupportedUsage = errors.New("dane: unsupported TLSA usage")
)

// ErrResolverConfig indicates the resolver configuration is invalid.
var ErrResolverConfig = errors.New("dane: invalid resolver configuration")
