// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

//go:build integration

package integration

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

// Global state populated by TestMain.
var (
	projectRoot string
	cliBinary   string
)

const testVersion = "0.0.0-integration"

// TestMain builds the CLI binary once into a temp directory and runs the
// suite against it.
func TestMain(m *testing.M) {
	var err error

	projectRoot, err = findProjectRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	binDir, err := os.MkdirTemp("", "certcheck-integration-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	cliBinary = filepath.Join(binDir, "certcheck")

	fmt.Println("==> Building CLI binary...")
	build := exec.Command("go", "build",
		"-ldflags", "-X main.version="+testVersion,
		"-o", cliBinary, "./cmd/certcheck")
	build.Dir = projectRoot
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: go build failed: %v\n", err)
		os.RemoveAll(binDir) //nolint:errcheck
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(binDir) //nolint:errcheck
	os.Exit(code)
}

// ---------------------------------------------------------------------------
// CLI: version
// ---------------------------------------------------------------------------

func TestVersion(t *testing.T) {
	stdout := runCLIMustSucceed(t, "version")
	expected := fmt.Sprintf("certcheck version %s\n", testVersion)
	if stdout != expected {
		t.Fatalf("version mismatch:\n  got:  %q\n  want: %q", stdout, expected)
	}
}

// ---------------------------------------------------------------------------
// CLI: check
// ---------------------------------------------------------------------------

func TestCheckMatch(t *testing.T) {
	serverURL, fp := startHTTPSServer(t)

	stdout := runCLIMustSucceed(t, "check", "--url", serverURL, "--fingerprint", colonize(strings.ToLower(fp)), "--format", "json")

	var rep struct {
		URL    string `json:"url"`
		Result struct {
			Fingerprint        string `json:"fingerprint"`
			FingerprintMatched bool   `json:"fingerprintMatched"`
			ValidFrom          string `json:"validFrom"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("parsing check output: %v\n%s", err, stdout)
	}
	if rep.Result.Fingerprint != fp {
		t.Fatalf("fingerprint: got %s, want %s", rep.Result.Fingerprint, fp)
	}
	if !rep.Result.FingerprintMatched {
		t.Fatal("expected fingerprintMatched=true")
	}
	if _, err := time.Parse(time.RFC3339, rep.Result.ValidFrom); err != nil {
		t.Fatalf("validFrom is not RFC 3339: %q", rep.Result.ValidFrom)
	}
}

func TestCheckMismatchExitCode(t *testing.T) {
	serverURL, _ := startHTTPSServer(t)

	_, _, err := runCLI(t, "check", "--url", serverURL, "--fingerprint", strings.Repeat("AB", 32))
	assertExitCode(t, err, 1)
}

func TestCheckInvalidInputExitCode(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing url", args: []string{"check", "--fingerprint", "AA"}},
		{name: "http url", args: []string{"check", "--url", "http://127.0.0.1:1", "--fingerprint", "AA"}},
		{name: "non-hex fingerprint", args: []string{"check", "--url", "https://127.0.0.1:1", "--fingerprint", "zz"}},
		{name: "unknown flag", args: []string{"check", "--bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			assertExitCode(t, err, 2)
		})
	}
}

func TestCheckConnectionRefused(t *testing.T) {
	addr := fmt.Sprintf("127.0.0.1:%d", findFreePort(t))

	_, stderr, err := runCLI(t, "check", "--url", "https://"+addr, "--fingerprint", "AA", "--timeout", "2s")
	assertExitCode(t, err, 1)
	if !strings.Contains(stderr, "certificate retrieval failed") {
		t.Fatalf("expected retrieval failure in stderr, got:\n%s", stderr)
	}
}

// ---------------------------------------------------------------------------
// CLI: fetch, tlsa
// ---------------------------------------------------------------------------

func TestFetchFingerprints(t *testing.T) {
	urlA, fpA := startHTTPSServer(t)
	urlB, fpB := startHTTPSServer(t)

	stdout := runCLIMustSucceed(t, "fetch", urlA, urlB, "--format", "fingerprints")

	var fps []string
	if err := json.Unmarshal([]byte(stdout), &fps); err != nil {
		t.Fatalf("parsing fetch output: %v\n%s", err, stdout)
	}
	want := []string{colonize(fpA), colonize(fpB)}
	if len(fps) != 2 || fps[0] != want[0] || fps[1] != want[1] {
		t.Fatalf("fingerprints: got %v, want %v", fps, want)
	}
}

func TestTLSARecord(t *testing.T) {
	serverURL, fp := startHTTPSServer(t)
	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatal(err)
	}

	stdout := runCLIMustSucceed(t, "tlsa", "--url", serverURL)
	want := fmt.Sprintf("_%s._tcp.127.0.0.1. IN TLSA 3 0 1 %s\n", u.Port(), strings.ToLower(fp))
	if stdout != want {
		t.Fatalf("tlsa record:\n  got:  %q\n  want: %q", stdout, want)
	}
}

func TestOutputToFile(t *testing.T) {
	serverURL, fp := startHTTPSServer(t)
	outFile := filepath.Join(t.TempDir(), "result.yaml")

	stdout := runCLIMustSucceed(t, "check", "--url", serverURL, "--fingerprint", fp, "--format", "yaml", "--output", outFile)
	if stdout != "" {
		t.Fatalf("expected empty stdout with --output, got %q", stdout)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("reading output file: %v", err)
	}
	if !strings.Contains(string(data), "fingerprintMatched: true") {
		t.Fatalf("unexpected yaml output:\n%s", data)
	}
}

// ---------------------------------------------------------------------------
// CLI: serve
// ---------------------------------------------------------------------------

func TestServeCheck(t *testing.T) {
	serverURL, fp := startHTTPSServer(t)
	addr := fmt.Sprintf("127.0.0.1:%d", findFreePort(t))

	cmd := exec.Command(cliBinary, "serve", "--listen", addr)
	cmd.Dir = projectRoot
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting serve: %v", err)
	}
	defer func() {
		cmd.Process.Signal(syscall.SIGTERM) //nolint:errcheck
		cmd.Wait()                          //nolint:errcheck
		t.Logf("serve stderr:\n%s", stderr.String())
	}()

	if err := waitForPort(addr, 10*time.Second); err != nil {
		t.Fatal(err)
	}

	body := fmt.Sprintf(`{"url":%q,"fingerprint":%q}`, serverURL, fp)
	resp, err := http.Post("http://"+addr+"/v1/certificate/check", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST check: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var out struct {
		Result struct {
			FingerprintMatched bool `json:"fingerprintMatched"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !out.Result.FingerprintMatched {
		t.Fatal("expected fingerprintMatched=true")
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// runCLI executes the CLI binary with the given arguments and returns stdout,
// stderr, and any error.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Logf("CLI: %s %s", cliBinary, strings.Join(args, " "))

	cmd := exec.Command(cliBinary, args...)
	cmd.Dir = projectRoot

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	stderrStr := stderr.String()
	if stderrStr != "" {
		t.Logf("stderr:\n%s", stderrStr)
	}

	return stdout.String(), stderrStr, err
}

// runCLIMustSucceed executes the CLI and fails the test if it returns an error.
func runCLIMustSucceed(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("CLI command failed: %v\nstdout: %s\nstderr: %s", err, stdout, stderr)
	}
	return stdout
}

func assertExitCode(t *testing.T, err error, want int) {
	t.Helper()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected exit code %d, got err=%v", want, err)
	}
	if got := exitErr.ExitCode(); got != want {
		t.Fatalf("exit code: got %d, want %d", got, want)
	}
}

// startHTTPSServer starts a TLS server with a self-signed certificate and
// returns its URL and the uppercase hex SHA-256 of the leaf DER.
func startHTTPSServer(t *testing.T) (string, string) {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	sum := sha256.Sum256(srv.Certificate().Raw)
	return srv.URL, strings.ToUpper(hex.EncodeToString(sum[:]))
}

func colonize(s string) string {
	parts := make([]string, 0, len(s)/2)
	for i := 0; i+2 <= len(s); i += 2 {
		parts = append(parts, s[i:i+2])
	}
	return strings.Join(parts, ":")
}

// waitForPort polls a TCP address until a connection is accepted or timeout.
func waitForPort(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("port %s not ready after %v", addr, timeout)
}

// findFreePort binds to :0, closes the listener, and returns the assigned port.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// findProjectRoot walks up from the current directory to find go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find go.mod in any parent directory")
		}
		dir = parent
	}
}
