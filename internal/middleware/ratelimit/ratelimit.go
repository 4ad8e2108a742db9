// Package ratelimit throttles outgoing requests per host with a fixed
// one-minute window. Requests over the limit wait for the next window
// instead of failing.
package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter counts requests per key in fixed windows.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window

	requestsPerWindow int
	window            time.Duration
	now               func() time.Time

	waits atomic.Int64
}

type window struct {
	start    time.Time
	requests int
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	// Window overrides the one-minute window. Tests use it.
	Window time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{RequestsPerMinute: 120, Window: time.Minute}
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	return &Limiter{
		clients:           make(map[string]*window),
		requestsPerWindow: config.RequestsPerMinute,
		window:            config.Window,
		now:               time.Now,
	}
}

// reserve books a slot for key and returns how long the caller must wait
// before using it.
func (rl *Limiter) reserve(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.clients[key] = &window{start: now, requests: 1}
		return 0
	}
	if w.requests < rl.requestsPerWindow {
		w.requests++
		return 0
	}
	// Move the booking into the next window.
	delay := w.start.Add(rl.window).Sub(now)
	rl.clients[key] = &window{start: w.start.Add(rl.window), requests: 1}
	return delay
}

// Wait blocks until a request for key may proceed or ctx is done.
func (rl *Limiter) Wait(ctx context.Context, key string) error {
	delay := rl.reserve(key)
	if delay <= 0 {
		return nil
	}
	rl.waits.Add(1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Waits returns how many requests had to wait.
func (rl *Limiter) Waits() int64 {
	return rl.waits.Load()
}

// Transport is an http.RoundTripper that waits on a Limiter keyed by host.
type Transport struct {
	base    http.RoundTripper
	limiter *Limiter
}

// NewTransport wraps base. A nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, limiter *Limiter) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, limiter: limiter}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context(), req.URL.Host); err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	return t.base.RoundTrip(req)
}
