// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package rpc

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	bucketIdleAge = 5 * time.Minute
	sweepInterval = time.Minute
)

type bucket struct {
	tokens *rate.Limiter
	used   time.Time
}

// clientLimiter throttles check requests per client IP. Buckets idle longer
// than idleAge are dropped by a sweep that runs between Start and Stop.
type clientLimiter struct {
	limit    rate.Limit
	burst    int
	idleAge  time.Duration
	interval time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	done    chan struct{}
}

func newClientLimiter(perSecond float64, burst int, idleAge, interval time.Duration) *clientLimiter {
	return &clientLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idleAge:  idleAge,
		interval: interval,
		buckets:  make(map[string]*bucket),
	}
}

// Reserve takes one token from ip's bucket. When none is available it
// returns false and the wait until the next token; the token is not held.
func (cl *clientLimiter) Reserve(ip string) (bool, time.Duration) {
	now := time.Now()

	cl.mu.Lock()
	b, ok := cl.buckets[ip]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(cl.limit, cl.burst)}
		cl.buckets[ip] = b
	}
	b.used = now
	cl.mu.Unlock()

	r := b.tokens.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// Clients returns the number of tracked client IPs.
func (cl *clientLimiter) Clients() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.buckets)
}

// Start launches the idle sweep. No-op when it is already running.
func (cl *clientLimiter) Start() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.done != nil {
		return
	}
	cl.done = make(chan struct{})
	go cl.sweep(cl.done)
}

// Stop ends the idle sweep. A later Start launches a new one.
func (cl *clientLimiter) Stop() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.done == nil {
		return
	}
	close(cl.done)
	cl.done = nil
}

func (cl *clientLimiter) sweeping() bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.done != nil
}

func (cl *clientLimiter) sweep(done <-chan struct{}) {
	ticker := time.NewTicker(cl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			cl.dropIdle(now)
		}
	}
}

func (cl *clientLimiter) dropIdle(now time.Time) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for ip, b := range cl.buckets {
		if now.Sub(b.used) > cl.idleAge {
			delete(cl.buckets, ip)
		}
	}
}
