// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import "time"

// Certificate Usage values as defined in RFC 6698 Section 2.1.1. Only the
// end-entity usages describe a leaf certificate pin.
const (
	// UsagePKIXEE (PKIX-EE) pins the end-entity certificate and also expects
	// PKIX validation to succeed.
	UsagePKIXEE uint8 = 1

	// UsageDANEEE (DANE-EE) pins the end-entity certificate; the record alone
	// establishes trust.
	UsageDANEEE uint8 = 3
)

// SelectorFullCert selects the full DER-encoded certificate (RFC 6698 Section 2.1.2).
const SelectorFullCert uint8 = 0

// MatchingSHA256 compares a SHA-256 hash of the selected data (RFC 6698 Section 2.1.3).
const MatchingSHA256 uint8 = 1

// Record is a TLSA resource record as returned by a lookup.
type Record struct {
	Usage        uint8
	Selector     uint8
	MatchingType uint8

	// Data is the Certificate Association Data, uppercase hex.
	Data string
}

// pinsLeafDigest reports whether the record carries a full-certificate
// SHA-256 digest of an end-entity certificate.
func (r Record) pinsLeafDigest() bool {
	return (r.Usage == UsagePKIXEE || r.Usage == UsageDANEEE) &&
		r.Selector == SelectorFullCert &&
		r.MatchingType == MatchingSHA256
}

// ResolverConfig configures the DNS resolver used for TLSA lookups.
type ResolverConfig struct {
	// Server is the DNS resolver address (e.g., "9.9.9.9:53").
	// When empty, the first nameserver in /etc/resolv.conf is used.
	Server string

	// UseTLS enables DNS-over-TLS (DoT) on port 853.
	UseTLS bool

	// TLSServerName is the SNI value for DNS-over-TLS connections.
	TLSServerName string

	// RequireAD requires the Authenticated Data (AD) flag in DNS responses,
	// indicating the resolver has validated DNSSEC signatures.
	RequireAD bool

	// Timeout is the maximum duration for a DNS query. Default: 5 seconds.
	Timeout time.Duration
}

// ZoneRecord is a TLSA record formatted for a DNS zone file.
type ZoneRecord struct {
	// Name is the DNS owner name (e.g., "_443._tcp.www.example.com.").
	Name string `json:"name"`

	Usage        uint8 `json:"usage"`
	Selector     uint8 `json:"selector"`
	MatchingType uint8 `json:"matchingType"`

	// Data is the hex-encoded Certificate Association Data.
	Data string `json:"data"`

	// Line is the full zone file line
	// (e.g., "_443._tcp.www.example.com. IN TLSA 3 0 1 a1b2c3...").
	Line string `json:"line"`
}
