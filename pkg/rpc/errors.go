// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package rpc exposes the certificate check to a host runtime as a JSON
// message handler and an HTTP endpoint.
package rpc

import "errors"

// Sentinel errors for the rpc package.
var (
	// ErrServerNotStarted indicates an operation was attempted before the server was started.
	ErrServerNotStarted = errors.New("rpc: server not started")

	// ErrServerAlreadyStarted indicates Start was called on an already-running server.
	ErrServerAlreadyStarted = errors.New("rpc: server already started")

	// ErrInvalidRequest indicates the client sent a malformed or unparseable request.
	ErrInvalidRequest = errors.New("rpc: invalid request")

	// ErrMethodNotFound indicates the requested method is not registered in the handler dispatch map.
	ErrMethodNotFound = errors.New("rpc: method not found")

	// ErrCheckerNotConfigured indicates no certificate checker was provided.
	ErrCheckerNotConfigured = errors.New("rpc: checker not configured")

	// ErrRequestTooLarge indicates the request body exceeds MaxBodyBytes.
	ErrRequestTooLarge = errors.New("rpc: request too large")

	// ErrRateLimited indicates the client was rejected due to per-IP rate limiting.
	ErrRateLimited = errors.New("rpc: rate limited")
)
