// Package api is the HTTP transport for the planejai API: URL building,
// cookie-forwarding requests, uniform error classification and the session
// guard.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	applog "planejai/internal/log"
	"planejai/internal/middleware/ratelimit"
	"planejai/internal/middleware/trace"
)

const (
	defaultTimeout  = 30 * time.Second
	maxErrorBody    = 64 << 10
	contentTypeJSON = "application/json"
)

// Request describes one call. Params with empty values are not sent.
type Request struct {
	Method  string
	Params  map[string]string
	Body    any
	Headers map[string]string
}

// Options configures a Client.
type Options struct {
	// BaseURL is prepended to every path. Empty means paths are used as-is.
	BaseURL string
	// Timeout bounds each request. Zero uses 30s.
	Timeout time.Duration
	// Jar holds the session cookie. Nil creates an in-memory jar.
	Jar http.CookieJar
	// HTTPClient overrides the underlying client. Its Jar is replaced by Jar.
	HTTPClient *http.Client
	// RequestsPerMinute throttles requests per host. Zero disables it.
	RequestsPerMinute int
	Guard             *Guard
	Logger            *applog.Logger
}

// Client issues JSON requests against the API.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	guard   *Guard
	trace   *trace.Transport
	logger  *applog.Logger
}

// NewClient builds a Client. It fails only when BaseURL is not a valid URL.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid base url scheme %q: must be http or https", u.Scheme)
		}
	}

	jar := opts.Jar
	if jar == nil {
		j, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		jar = j
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		cp := *opts.HTTPClient
		hc = &cp
	}
	hc.Jar = jar

	rt := hc.Transport
	if opts.RequestsPerMinute > 0 {
		rt = ratelimit.NewTransport(rt, ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}))
	}
	tr := trace.NewTransport(rt)
	hc.Transport = tr

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	guard := opts.Guard
	if guard == nil {
		guard = NewGuard(nil)
	}

	return &Client{
		baseURL: base,
		timeout: timeout,
		http:    hc,
		guard:   guard,
		trace:   tr,
		logger:  applog.OrDefault(opts.Logger, applog.ComponentAPI),
	}, nil
}

// Metrics returns request counters for this client.
func (c *Client) Metrics() trace.Metrics {
	return c.trace.Metrics()
}

// Guard returns the session guard used by the client.
func (c *Client) Guard() *Guard {
	return c.guard
}

// Jar returns the cookie jar holding the session.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// BuildURL joins the base URL, path and the non-empty params.
func (c *Client) BuildURL(path string, params map[string]string) string {
	u := c.baseURL + path
	if q := encodeParams(params); q != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + q
	}
	return u
}

func encodeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range params {
		if k == "" || v == "" {
			continue
		}
		values.Set(k, v)
	}
	return values.Encode()
}

// Request performs the call and decodes a 2xx JSON body into out (if out is
// non-nil). Network failures and non-2xx responses are returned as *Error.
// Encoding the body, building the request and decoding a 2xx response fail
// with a plain wrapped error instead.
func (c *Client) Request(ctx context.Context, path string, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.BuildURL(path, req.Params)
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	requestID := trace.RequestID(ctx)
	if requestID == "" {
		requestID = trace.NewRequestID()
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set(trace.HeaderRequestID, requestID)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	fields := applog.NewFields().
		WithHTTPRequest(method, path, httpReq.URL.RawQuery).
		WithRequestID(requestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		apiErr := networkError(err)
		c.logger.WarnContext(ctx, "API request failed",
			append(fields.WithError(err).ToSlice(), applog.FieldErrorKind, apiErr.Kind.String())...)
		return apiErr
	}
	defer resp.Body.Close()

	elapsed := time.Since(start).Milliseconds()
	fields = fields.WithHTTPResponse(resp.StatusCode, elapsed, resp.StatusCode < 300)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.DebugContext(ctx, "API request completed", fields.ToSlice()...)
		if !c.guard.Allowed(path) {
			c.guard.MarkAuthenticated()
		}
		return decodeBody(resp.Body, out)
	}

	if c.guard.Intercepts(path, resp.StatusCode) {
		c.logger.WarnContext(ctx, "Session expired", fields.ToSlice()...)
		c.guard.Expire()
		return sessionExpiredError(resp.StatusCode, resp.Status)
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := classify(resp.StatusCode, resp.Status, raw)

	level := slog.LevelWarn
	if apiErr.Kind == KindServer {
		level = slog.LevelError
	}
	c.logger.Log(ctx, level, "API request returned error",
		append(fields.ToSlice(), applog.FieldError, apiErr.Message, applog.FieldErrorKind, apiErr.Kind.String())...)

	return apiErr
}

func decodeBody(r io.Reader, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Get issues a GET with query params.
func (c *Client) Get(ctx context.Context, path string, params map[string]string, out any) error {
	return c.Request(ctx, path, Request{Method: http.MethodGet, Params: params}, out)
}

// Delete issues a DELETE without a body.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Request(ctx, path, Request{Method: http.MethodDelete}, out)
}

// Post issues a POST with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, path, Request{Method: http.MethodPost, Body: body}, out)
}

// Put issues a PUT with body encoded as JSON.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, path, Request{Method: http.MethodPut, Body: body}, out)
}

// Patch issues a PATCH with body encoded as JSON.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, path, Request{Method: http.MethodPatch, Body: body}, out)
}
