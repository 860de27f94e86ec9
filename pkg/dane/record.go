// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/jeremyhahn/go-certcheck/pkg/fingerprint"
)

// GenerateRecord builds the TLSA record that publishes the fingerprint of
// the DER-encoded leaf certificate for hostname and port. Usage must be
// UsagePKIXEE or UsageDANEEE.
func GenerateRecord(der []byte, hostname string, port uint16, usage uint8) (*ZoneRecord, error) {
	if len(der) == 0 {
		return nil, ErrInvalidCertificate
	}
	if err := validateHostPort(hostname, port); err != nil {
		return nil, err
	}
	if usage != UsagePKIXEE && usage != UsageDANEEE {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedUsage, usage)
	}

	fp, err := fingerprint.Compute(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCertificate, err)
	}
	data := strings.ToLower(fp)

	rr := &dns.TLSA{
		Hdr: dns.RR_Header{
			Name:   formatTLSAName(hostname, port),
			Rrtype: dns.TypeTLSA,
			Class:  dns.ClassINET,
		},
		Usage:        usage,
		Selector:     SelectorFullCert,
		MatchingType: MatchingSHA256,
		Certificate:  data,
	}

	return &ZoneRecord{
		Name:         rr.Hdr.Name,
		Usage:        rr.Usage,
		Selector:     rr.Selector,
		MatchingType: rr.MatchingType,
		Data:         data,
		Line:         fmt.Sprintf("%s IN TLSA %d %d %d %s", rr.Hdr.Name, rr.Usage, rr.Selector, rr.MatchingType, rr.Certificate),
	}, nil
}
