// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeremyhahn/go-certcheck/pkg/certcheck"
)

func TestMain_ExitCodeOnInvalidInput(t *testing.T) {
	exitCodeSeen := -1
	exitFunc = func(code int) { exitCodeSeen = code }
	defer func() { exitFunc = os.Exit }()

	rootCmd.SetArgs([]string{"check"})
	defer rootCmd.SetArgs(nil)

	main()
	assert.Equal(t, ExitConfigError, exitCodeSeen)
}

func TestMain_NoExitOnSuccess(t *testing.T) {
	called := false
	exitFunc = func(int) { called = true }
	defer func() { exitFunc = os.Exit }()

	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	main()
	assert.False(t, called)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "invalid input", err: fmt.Errorf("%w: --url is required", ErrInvalidInput), want: ExitConfigError},
		{name: "invalid argument", err: fmt.Errorf("%w: %w", ErrCheckFailed, certcheck.ErrInvalidArgument), want: ExitConfigError},
		{name: "retrieval", err: fmt.Errorf("%w: %w", ErrCheckFailed, certcheck.ErrCertificateRetrievalFailed), want: ExitCheckFailed},
		{name: "mismatch", err: ErrFingerprintMismatch, want: ExitCheckFailed},
		{name: "other", err: errors.New("boom"), want: ExitCheckFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
