// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"errors"

	"github.com/jeremyhahn/go-certcheck/pkg/certcheck"
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates the command completed and, for check, the
	// fingerprint matched.
	ExitSuccess = 0

	// ExitCheckFailed indicates a retrieval failure or a fingerprint mismatch.
	ExitCheckFailed = 1

	// ExitConfigError indicates a configuration or input validation error.
	ExitConfigError = 2
)

// Sentinel errors for CLI operations.
var (
	// ErrInvalidInput is returned when required input parameters are missing or invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCheckFailed is returned when the certificate could not be checked.
	ErrCheckFailed = errors.New("check failed")

	// ErrFingerprintMismatch is returned when the presented certificate does
	// not match the expected fingerprint.
	ErrFingerprintMismatch = errors.New("fingerprint mismatch")

	// ErrFetchFailed is returned when one or more endpoints could not be inspected.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrDANELookupFailed is returned when no expected fingerprint could be read from DNS.
	ErrDANELookupFailed = errors.New("DANE lookup failed")

	// ErrFileOperation is returned when a file read or write operation fails.
	ErrFileOperation = errors.New("file operation failed")

	// ErrServerStart is returned when the rpc server fails to start or stop.
	ErrServerStart = errors.New("serve: server start failed")
)

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrInvalidInput), errors.Is(err, certcheck.ErrInvalidArgument):
		return ExitConfigError
	default:
		return ExitCheckFailed
	}
}
