// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogging_Levels(t *testing.T) {
	defer func() {
		quiet, debug, logFormat = false, false, "text"
		initLogging()
	}()

	tests := []struct {
		name      string
		quiet     bool
		debug     bool
		logFormat string
		want      slog.Level
	}{
		{name: "default", logFormat: "text", want: slog.LevelInfo},
		{name: "debug", debug: true, logFormat: "text", want: slog.LevelDebug},
		{name: "quiet", quiet: true, logFormat: "json", want: slog.LevelError},
		{name: "debug wins over quiet", quiet: true, debug: true, logFormat: "text", want: slog.LevelDebug},
		{name: "unknown format falls back", logFormat: "invalid", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiet, debug, logFormat = tt.quiet, tt.debug, tt.logFormat
			initLogging()
			assert.Equal(t, tt.want, logLevel.Level())
		})
	}
}

func TestWriteOutput_Stdout(t *testing.T) {
	outputFile = ""
	assert.NoError(t, writeOutput([]byte("")))
}

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	outputFile = path
	defer func() { outputFile = "" }()

	require.NoError(t, writeOutput([]byte(`{"fingerprintMatched":true}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"fingerprintMatched":true}`, string(data))
}

func TestWriteOutput_InvalidPath(t *testing.T) {
	outputFile = "/nonexistent/dir/result.json"
	defer func() { outputFile = "" }()

	err := writeOutput([]byte("x"))
	assert.ErrorIs(t, err, ErrFileOperation)
}

func TestRootCmd_HasExpectedSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"version", "check", "fetch", "tlsa", "serve"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRootCmd_HasExpectedFlags(t *testing.T) {
	for _, name := range []string{"quiet", "debug", "format", "output", "log-format"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing flag %q", name)
	}
}

func TestRootCmd_FlagErrorIsInvalidInput(t *testing.T) {
	rootCmd.SetArgs([]string{"version", "--no-such-flag"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, ExitConfigError, exitCode(err))
}
