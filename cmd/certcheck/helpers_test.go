// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/miekg/dns"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// setFlags sets flags on cmd and restores their defaults when the test ends.
func setFlags(t *testing.T, cmd *cobra.Command, kv map[string]string) {
	t.Helper()
	for name, value := range kv {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, "unknown flag %q", name)
		require.NoError(t, cmd.Flags().Set(name, value))
		t.Cleanup(func() {
			_ = flag.Value.Set(flag.DefValue)
			flag.Changed = false
		})
	}
}

// captureOutput redirects writeOutput to a temp file and returns a reader for it.
func captureOutput(t *testing.T) func() string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out")
	outputFile = path
	t.Cleanup(func() { outputFile = "" })

	return func() string {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(data)
	}
}

func useFormat(t *testing.T, f string) {
	t.Helper()
	format = f
	t.Cleanup(func() { format = formatText })
}

// startTLSEndpoint starts an HTTPS server and returns its URL and the
// uppercase hex SHA-256 of its leaf certificate.
func startTLSEndpoint(t *testing.T) (string, string) {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	sum := sha256.Sum256(srv.Certificate().Raw)
	return srv.URL, strings.ToUpper(hex.EncodeToString(sum[:]))
}

// closedAddr returns a loopback address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// startTLSADNS starts a UDP DNS server answering every TLSA query with a
// DANE-EE full-certificate SHA-256 record for each fingerprint.
func startTLSADNS(t *testing.T, fingerprints ...string) string {
	t.Helper()

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		for _, q := range r.Question {
			if q.Qtype != dns.TypeTLSA {
				continue
			}
			for _, fp := range fingerprints {
				m.Answer = append(m.Answer, &dns.TLSA{
					Hdr:          dns.RR_Header{Name: q.Name, Rrtype: dns.TypeTLSA, Class: dns.ClassINET, Ttl: 300},
					Usage:        3,
					Selector:     0,
					MatchingType: 1,
					Certificate:  strings.ToLower(fp),
				})
			}
		}
		_ = w.WriteMsg(m)
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &dns.Server{PacketConn: pc, Handler: handler}
	started := make(chan struct{})
	server.NotifyStartedFunc = func() { close(started) }
	go func() { _ = server.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = server.Shutdown() })

	return pc.LocalAddr().String()
}
