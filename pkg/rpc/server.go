// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jeremyhahn/go-certcheck/pkg/certcheck"
)

// Default configuration values for the rpc server.
const (
	// DefaultListenAddr is the default TCP address the server binds to.
	DefaultListenAddr = ":8446"

	// DefaultReadTimeout bounds reading a full request.
	DefaultReadTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds a full request/response cycle, including
	// the outbound TLS handshake.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultMaxBodyBytes is the largest accepted request body.
	DefaultMaxBodyBytes int64 = 16 << 10

	// DefaultRateLimit is the default token refill rate (requests per second per IP).
	DefaultRateLimit = 10.0

	// DefaultRateBurst is the default maximum burst size for the rate limiter.
	DefaultRateBurst = 20

	// CheckPath is the endpoint accepting Request bodies.
	CheckPath = "/v1/certificate/check"
)

// ServerConfig configures the rpc HTTP server.
type ServerConfig struct {
	// ListenAddr is the TCP address to bind (e.g., ":8446").
	ListenAddr string

	// Checker performs the certificate checks. Required.
	Checker CertificateChecker

	// ReadTimeout is replaced with DefaultReadTimeout when zero.
	ReadTimeout time.Duration

	// WriteTimeout is replaced with DefaultWriteTimeout when zero.
	WriteTimeout time.Duration

	// MaxBodyBytes is replaced with DefaultMaxBodyBytes when zero or negative.
	MaxBodyBytes int64

	// RateLimit is the per-IP token refill rate in requests per second.
	// Zero value is replaced with DefaultRateLimit.
	RateLimit float64

	// RateBurst is replaced with DefaultRateBurst when zero.
	RateBurst int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server serves the certificate check over HTTP.
type Server struct {
	config  ServerConfig
	handler *Handler
	limiter *clientLimiter
	mux     *http.ServeMux
	logger  *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewServer validates cfg, applies defaults and builds the route table.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil || cfg.Checker == nil {
		return nil, ErrCheckerNotConfigured
	}

	c := *cfg
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = DefaultRateBurst
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	s := &Server{
		config:  c,
		handler: NewHandler(c.Checker, c.Logger),
		limiter: newClientLimiter(c.RateLimit, c.RateBurst, bucketIdleAge, sweepInterval),
		mux:     http.NewServeMux(),
		logger:  c.Logger.With("component", "rpc-server"),
	}
	s.mux.HandleFunc("POST "+CheckPath, s.serveCheck)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return s, nil
}

// ServeHTTP routes a single request. It lets the server be mounted under
// httptest or another mux without calling Start.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start binds the listener and serves in the background. A stopped server
// may be started again.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return ErrServerAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.httpServer = srv
	s.listener = ln
	s.limiter.Start()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", "error", err)
		}
	}()

	s.logger.Info("rpc server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts the server down, waiting for in-flight checks
// until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return ErrServerNotStarted
	}
	s.limiter.Stop()
	return srv.Shutdown(ctx)
}

func (s *Server) serveCheck(w http.ResponseWriter, r *http.Request) {
	if ok, wait := s.limiter.Reserve(clientIP(r)); !ok {
		if wait > 0 {
			w.Header().Set("Retry-After", retryAfter(wait))
		}
		s.writeError(w, ErrRateLimited)
		return
	}

	var req Request
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, ErrRequestTooLarge)
			return
		}
		s.writeError(w, errors.Join(ErrInvalidRequest, err))
		return
	}

	resp, err := s.handler.Handle(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, &Response{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response failed", "error", err)
	}
}

// statusFor maps an error to the HTTP status reported to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrMethodNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, certcheck.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, certcheck.ErrCertificateRetrievalFailed):
		return http.StatusBadGateway
	case errors.Is(err, certcheck.ErrEncodingFailed), errors.Is(err, certcheck.ErrUnsupportedCertificateType):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// retryAfter renders wait as whole seconds, rounded up.
func retryAfter(wait time.Duration) string {
	secs := int64((wait + time.Second - 1) / time.Second)
	return strconv.FormatInt(max(secs, 1), 10)
}

// clientIP extracts the host part of the remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
