// Package apiclient is the single HTTP gateway to the marketplace backend.
// It owns the cookie jar, attaches the CSRF header to mutating requests and
// turns failures into *apierror.Error values.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/publicsuffix"

	"homefinder-client/internal/observability/metrics"
	"homefinder-client/pkg/apierror"
	"homefinder-client/pkg/uid"
)

// LoginPath is exempt from the unauthorized hook: a 401 there means bad
// credentials, not an expired session.
const LoginPath = "/auth/login"

const (
	defaultTimeout    = 30 * time.Second
	defaultCSRFCookie = "csrf_access_token"
	defaultCSRFHeader = "X-CSRF-TOKEN"
	maxResponseBytes  = 10 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	CSRFCookie string
	CSRFHeader string
	// Transport is wrapped with OpenTelemetry instrumentation. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client sends JSON requests to the backend. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        *cookiejar.Jar
	csrfCookie string
	csrfHeader string
	logger     *slog.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

// New creates a Client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CSRFCookie == "" {
		opts.CSRFCookie = defaultCSRFCookie
	}
	if opts.CSRFHeader == "" {
		opts.CSRFHeader = defaultCSRFHeader
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Jar:       jar,
			Transport: otelhttp.NewTransport(transport),
		},
		jar:        jar,
		csrfCookie: opts.CSRFCookie,
		csrfHeader: opts.CSRFHeader,
		logger:     logger,
	}, nil
}

// OnUnauthorized registers fn to run when a response other than the login
// response comes back 401. fn must not issue requests through this client.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get sends a GET with the given query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (int, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) (int, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) (int, error) {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch sends a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) (int, error) {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete sends a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) (int, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends a request with an optional JSON body and decodes a JSON response
// into out when out is non-nil. It returns the response status, or 0 when
// no response was received.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (int, error) {
	return c.do(ctx, method, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (int, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, query, reader, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) (int, error) {
	u := c.resolve(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	requestID := uid.New()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if isMutating(method) {
		if token := c.CSRFToken(); token != "" {
			req.Header.Set(c.csrfHeader, token)
		}
	}

	route := routeLabel(path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveClientRequest(method, route, 0, time.Since(start))
		c.logger.Warn("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return 0, apierror.Network(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	metrics.ObserveClientRequest(method, route, resp.StatusCode, time.Since(start))
	if err != nil {
		return resp.StatusCode, apierror.Network(fmt.Errorf("read response body: %w", err))
	}

	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", requestID),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusUnauthorized && !strings.HasSuffix(strings.TrimRight(path, "/"), LoginPath) {
			c.unauthorized()
		}
		return resp.StatusCode, apierror.FromResponse(resp.StatusCode, data)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, &apierror.Error{
				StatusCode: resp.StatusCode,
				Code:       "INVALID_RESPONSE",
				Message:    fmt.Sprintf("decode %s %s response: %v", method, path, err),
				Body:       data,
			}
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) resolve(path string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	return &u
}

// CSRFToken returns the CSRF cookie currently held for the backend, or "".
func (c *Client) CSRFToken() string {
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		if cookie.Name == c.csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

// Cookies returns the cookies the jar would send to the backend.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// SetCookies loads previously saved cookies into the jar.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.baseURL, cookies)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

var idSegment = regexp.MustCompile(`^([0-9]+|[0-9a-fA-F-]{36})$`)

// routeLabel replaces id segments so metrics labels stay bounded.
func routeLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		if idSegment.MatchString(s) {
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}
