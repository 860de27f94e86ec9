// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package certcheck

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// ErrProxyRefused is returned when an HTTP proxy answers CONNECT with a
// non-2xx status.
var ErrProxyRefused = errors.New("certcheck: proxy refused CONNECT")

func init() {
	proxy.RegisterDialerType("http", newHTTPConnectDialer)
}

// httpConnectDialer tunnels TCP connections through an HTTP proxy using the
// CONNECT method.
type httpConnectDialer struct {
	proxyAddr string
	auth      string
	forward   proxy.Dialer
}

func newHTTPConnectDialer(u *url.URL, forward proxy.Dialer) (proxy.Dialer, error) {
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: proxy URL has no host", ErrInvalidArgument)
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}

	d := &httpConnectDialer{
		proxyAddr: net.JoinHostPort(u.Hostname(), port),
		forward:   forward,
	}
	if u.User != nil {
		password, _ := u.User.Password()
		creds := u.User.Username() + ":" + password
		d.auth = "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
	}
	return d, nil
}

// Dial connects to addr through the proxy without a deadline.
func (d *httpConnectDialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

// DialContext opens a connection to the proxy, issues CONNECT for addr, and
// returns the tunnelled connection once the proxy answers 2xx.
func (d *httpConnectDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var (
		conn net.Conn
		err  error
	)
	if xd, ok := d.forward.(proxy.ContextDialer); ok {
		conn, err = xd.DialContext(ctx, network, d.proxyAddr)
	} else {
		conn, err = d.forward.Dial(network, d.proxyAddr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial proxy %s: %w", d.proxyAddr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})

	tunnel, err := d.connect(conn, addr)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		conn.Close()
		return nil, err
	}

	_ = tunnel.SetDeadline(time.Time{})
	return tunnel, nil
}

func (d *httpConnectDialer) connect(conn net.Conn, addr string) (net.Conn, error) {
	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}
	if d.auth != "" {
		req.Header.Set("Proxy-Authorization", d.auth)
	}
	if err := req.Write(conn); err != nil {
		return nil, fmt.Errorf("write CONNECT to %s: %w", d.proxyAddr, err)
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		return nil, fmt.Errorf("read CONNECT response from %s: %w", d.proxyAddr, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrProxyRefused, resp.Status)
	}

	if br.Buffered() > 0 {
		return &bufferedConn{Conn: conn, r: br}, nil
	}
	return conn, nil
}

// bufferedConn drains bytes the proxy sent after its CONNECT reply before
// reading from the socket again.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
