// Package trace stamps outgoing API requests with a request id and keeps
// simple counters about them.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// HeaderRequestID carries the id the server can log alongside ours.
const HeaderRequestID = "X-Request-ID"

type contextKey struct{}

// Metrics is a point-in-time view of the transport counters.
type Metrics struct {
	TotalRequests       int64
	Failures            int64
	AverageResponseTime time.Duration
}

// Transport is an http.RoundTripper that ensures every request carries an
// X-Request-ID and records request counts and latency.
type Transport struct {
	base http.RoundTripper

	total    atomic.Int64
	failures atomic.Int64
	elapsed  atomic.Int64 // nanoseconds, summed
}

// NewTransport wraps base. A nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderRequestID) == "" {
		id := RequestID(req.Context())
		if id == "" {
			id = NewRequestID()
		}
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set(HeaderRequestID, id)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	t.elapsed.Add(int64(time.Since(start)))
	t.total.Add(1)
	if err != nil || resp.StatusCode >= 500 {
		t.failures.Add(1)
	}
	return resp, err
}

// Metrics returns the current counters.
func (t *Transport) Metrics() Metrics {
	total := t.total.Load()
	m := Metrics{TotalRequests: total, Failures: t.failures.Load()}
	if total > 0 {
		m.AverageResponseTime = time.Duration(t.elapsed.Load() / total)
	}
	return m
}

// NewRequestID returns a fresh random id.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID pins the id used for requests made with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// RequestID extracts the id set by WithRequestID.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
