// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package rpc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jeremyhahn/go-certcheck/pkg/certcheck"
)

// Method names accepted by Handler.
const (
	MethodCheckCertificate   = "checkCertificate"
	MethodInspectCertificate = "inspectCertificate"
)

// Request is the JSON request format for rpc operations.
type Request struct {
	// Method identifies the operation to perform. Empty defaults to
	// checkCertificate.
	Method string `json:"method,omitempty"`

	// URL is the HTTPS endpoint whose leaf certificate is examined.
	URL string `json:"url"`

	// Fingerprint is the expected SHA-256 fingerprint. Required by
	// checkCertificate, ignored by inspectCertificate.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Response is the JSON response format for rpc operations.
type Response struct {
	// Result is the check result on success.
	Result *certcheck.Result `json:"result,omitempty"`

	// Error contains the error message if the operation failed.
	Error string `json:"error,omitempty"`
}

// CertificateChecker is the subset of *certcheck.Checker the handler needs.
type CertificateChecker interface {
	Check(ctx context.Context, req *certcheck.Request) (*certcheck.Result, error)
	Inspect(ctx context.Context, rawURL string) (*certcheck.Result, error)
}

type handlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Handler dispatches rpc requests to the certificate checker using
// map-based dispatch.
type Handler struct {
	checker  CertificateChecker
	handlers map[string]handlerFunc
	logger   *slog.Logger
}

// NewHandler creates a Handler. The checker may be nil; requests will
// receive ErrCheckerNotConfigured.
func NewHandler(checker CertificateChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		checker: checker,
		logger:  logger.With("component", "rpc-handler"),
	}

	h.handlers = map[string]handlerFunc{
		MethodCheckCertificate:   h.handleCheck,
		MethodInspectCertificate: h.handleInspect,
	}

	return h
}

// Handle dispatches the request based on its Method field. Returns
// ErrInvalidRequest for nil requests and ErrMethodNotFound for unregistered
// methods.
func (h *Handler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	method := req.Method
	if method == "" {
		method = MethodCheckCertificate
	}

	handler, ok := h.handlers[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, req.Method)
	}

	if h.checker == nil {
		return nil, ErrCheckerNotConfigured
	}

	return handler(ctx, req)
}

func (h *Handler) handleCheck(ctx context.Context, req *Request) (*Response, error) {
	result, err := h.checker.Check(ctx, &certcheck.Request{
		URL:         req.URL,
		Fingerprint: req.Fingerprint,
	})
	if err != nil {
		h.logger.Debug("check failed", "error", err)
		return nil, err
	}
	return &Response{Result: result}, nil
}

func (h *Handler) handleInspect(ctx context.Context, req *Request) (*Response, error) {
	result, err := h.checker.Inspect(ctx, req.URL)
	if err != nil {
		h.logger.Debug("inspect failed", "error", err)
		return nil, err
	}
	return &Response{Result: result}, nil
}
