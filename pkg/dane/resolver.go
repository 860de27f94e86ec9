// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultDNSPort    = "53"
	defaultDoTPort    = "853"
	resolvConfPath    = "/etc/resolv.conf"
	maxHostnameLength = 253
)

// Resolver looks up TLSA records with optional DNSSEC enforcement and
// DNS-over-TLS transport.
type Resolver struct {
	requireAD bool
	client    *dns.Client
	server    string
}

// NewResolver creates a Resolver. Unset fields fall back to defaults; an
// empty Server resolves the system nameserver from /etc/resolv.conf.
func NewResolver(cfg *ResolverConfig) (*Resolver, error) {
	if cfg == nil {
		return nil, ErrResolverConfig
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &dns.Client{
		Net:     "udp",
		Timeout: timeout,
	}
	port := defaultDNSPort

	if cfg.UseTLS {
		client.Net = "tcp-tls"
		client.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cfg.TLSServerName,
		}
		port = defaultDoTPort
	}

	server := cfg.Server
	if server == "" {
		systemCfg, err := dns.ClientConfigFromFile(resolvConfPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResolverConfig, err)
		}
		if len(systemCfg.Servers) == 0 {
			return nil, fmt.Errorf("%w: no nameservers in %s", ErrResolverConfig, resolvConfPath)
		}
		server = systemCfg.Servers[0]
		if systemCfg.Port != "" && !cfg.UseTLS {
			port = systemCfg.Port
		}
	}

	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(strings.Trim(server, "[]"), port)
	}

	return &Resolver{
		requireAD: cfg.RequireAD,
		client:    client,
		server:    server,
	}, nil
}

// Server returns the resolver address queries are sent to.
func (r *Resolver) Server() string {
	return r.server
}

// LookupTLSA queries "_<port>._tcp.<hostname>." for TLSA records.
func (r *Resolver) LookupTLSA(ctx context.Context, hostname string, port uint16) ([]Record, error) {
	if err := validateHostPort(hostname, port); err != nil {
		return nil, err
	}

	msg := new(dns.Msg)
	msg.SetQuestion(formatTLSAName(hostname, port), dns.TypeTLSA)
	msg.SetEdns0(4096, true)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDNSLookupFailed, err)
	}
	if resp == nil {
		return nil, ErrDNSLookupFailed
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: rcode %s", ErrDNSLookupFailed, dns.RcodeToString[resp.Rcode])
	}
	if r.requireAD && !resp.AuthenticatedData {
		return nil, ErrDNSSECRequired
	}

	records := make([]Record, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		tlsa, ok := rr.(*dns.TLSA)
		if !ok {
			continue
		}
		records = append(records, Record{
			Usage:        tlsa.Usage,
			Selector:     tlsa.Selector,
			MatchingType: tlsa.MatchingType,
			Data:         strings.ToUpper(tlsa.Certificate),
		})
	}

	if len(records) == 0 {
		return nil, ErrNoTLSARecords
	}
	return records, nil
}

// LookupFingerprints returns the leaf certificate SHA-256 fingerprints
// published for hostname and port, in answer order and without duplicates.
// Only end-entity records with selector 0 and matching type 1 qualify.
func (r *Resolver) LookupFingerprints(ctx context.Context, hostname string, port uint16) ([]string, error) {
	records, err := r.LookupTLSA(ctx, hostname, port)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(records))
	fingerprints := make([]string, 0, len(records))
	for _, rec := range records {
		if !rec.pinsLeafDigest() {
			continue
		}
		if _, dup := seen[rec.Data]; dup {
			continue
		}
		seen[rec.Data] = struct{}{}
		fingerprints = append(fingerprints, rec.Data)
	}

	if len(fingerprints) == 0 {
		return nil, ErrNoFingerprintRecords
	}
	return fingerprints, nil
}

func validateHostPort(hostname string, port uint16) error {
	if hostname == "" || len(hostname) > maxHostnameLength || strings.ContainsRune(hostname, 0) {
		return ErrInvalidHostname
	}
	if port == 0 {
		return ErrInvalidPort
	}
	return nil
}

// formatTLSAName builds the absolute owner name "_<port>._tcp.<hostname>.".
func formatTLSAName(hostname string, port uint16) string {
	return fmt.Sprintf("_%d._tcp.%s", port, dns.Fqdn(hostname))
}
