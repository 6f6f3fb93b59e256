// Package fetch wraps net/http with a per-call timeout, JSON/text response
// negotiation and a uniform error taxonomy for the lookup layer.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

const (
	// DefaultTimeout bounds every call that does not set its own.
	DefaultTimeout = 15 * time.Second
	// TenantHeader carries the active tenant to lookup endpoints.
	TenantHeader = "X-Tenant-ID"

	maxBodyBytes = 8 << 20
)

// Caller is the request primitive consumed by the lookup normaliser.
type Caller interface {
	Call(ctx context.Context, url string, req Request) (*Response, error)
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, url string, req Request) (*Response, error)

// Call implements Caller.
func (f CallerFunc) Call(ctx context.Context, url string, req Request) (*Response, error) {
	return f(ctx, url, req)
}

// Request configures a single call. Body values that are io.Reader, []byte or
// string are sent untouched without a content type so the caller (or a
// multipart writer) owns it; any other value is JSON encoded.
type Request struct {
	Method  string
	Body    any
	Headers map[string]string
	Timeout time.Duration
}

// Response is a negotiated response. Data is set for structured (JSON) bodies,
// Text otherwise.
type Response struct {
	Status int
	Header http.Header
	JSON   bool
	Data   any
	Text   string
}

// Client issues calls with default headers and timeout.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	headers    map[string]string
	logger     logr.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the default per-call timeout. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHeader adds a header sent on every call.
func WithHeader(name, value string) Option {
	return func(c *Client) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		c.headers[http.CanonicalHeaderKey(name)] = value
	}
}

// WithTenant scopes every call to tenant through TenantHeader.
func WithTenant(tenant string) Option {
	return func(c *Client) {
		if tenant = strings.TrimSpace(tenant); tenant != "" {
			c.headers[TenantHeader] = tenant
		}
	}
}

// WithLogger attaches a logger for call diagnostics.
func WithLogger(logger logr.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New constructs a Client with a 15s default timeout.
func New(options ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		headers:    map[string]string{"Accept": "application/json, text/plain;q=0.9, */*;q=0.5"},
		logger:     logr.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Call performs the request. It fails with *TimeoutError when the deadline
// passes, *HTTPError on non-2xx statuses and *MalformedResponseError when a
// structured body cannot be decoded. Transport failures are returned wrapped.
func (c *Client) Call(ctx context.Context, url string, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: encode body: %w", err)
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}

	httpReq, err := http.NewRequestWithContext(callCtx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("fetch: request: %w", err)
	}
	for name, value := range c.headers {
		httpReq.Header.Set(name, value)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isDeadline(callCtx, err) {
			c.logger.V(1).Info("fetch timed out", "url", url, "timeout", timeout)
			return nil, &TimeoutError{URL: url, Timeout: timeout}
		}
		return nil, fmt.Errorf("fetch: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isDeadline(callCtx, err) {
			return nil, &TimeoutError{URL: url, Timeout: timeout}
		}
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}

	out := &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		JSON:   isStructured(resp.Header.Get("Content-Type")),
	}
	c.logger.V(1).Info("fetch", "method", method, "url", url, "status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{URL: url, Status: resp.StatusCode, Body: bestEffortBody(raw, out.JSON)}
	}

	if !out.JSON {
		out.Text = string(raw)
		return out, nil
	}
	data, err := decodeJSON(raw)
	if err != nil {
		return nil, &MalformedResponseError{URL: url, Err: err}
	}
	out.Data = data
	return out, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return b, "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	case string:
		return strings.NewReader(b), "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func isStructured(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func decodeJSON(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func bestEffortBody(raw []byte, structured bool) any {
	if structured {
		if data, err := decodeJSON(raw); err == nil {
			return data
		}
	}
	return string(raw)
}

func isDeadline(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
