// Package api implements the tracker REST client. Every response is
// classified into a typed outcome: success (decoded value), not-modified,
// or one of the error types in errors.go. Conditional-GET caching is driven
// by the sync engine's stored etags, not by an HTTP cache.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/turnernet/tracksync/internal/shared/logger"
)

const (
	defaultTimeout = 15 * time.Second
	// Maximum response body size (8MB). Sync pages are capped at 200 items
	// so anything larger is a misbehaving server.
	maxResponseSize = 8 << 20
)

// AuthProvider supplies authentication headers and reacts to 401 responses.
type AuthProvider interface {
	// AuthHeaders returns the headers to attach to every request.
	AuthHeaders(ctx context.Context) (map[string]string, error)
	// HandleUnauthorized invalidates cached credentials after a 401.
	HandleUnauthorized(ctx context.Context) error
}

// Client is the tracker API client.
type Client struct {
	baseURL    string
	auth       AuthProvider
	httpClient *http.Client
	logger     logger.Interface
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates a new tracker API client.
func NewClient(baseURL string, auth AuthProvider, log logger.Interface, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is a classified successful (or not-modified) API response.
type Response[T any] struct {
	// Value is nil for 304 Not Modified and empty bodies.
	Value        *T
	ETag         string
	LastModified *time.Time
	StatusCode   int
}

// Send performs req and decodes a 2xx body into T. 304 returns a Response
// with a nil Value. All other statuses return a typed error; a 401 invokes
// the auth provider's unauthorized handler before surfacing.
func Send[T any](ctx context.Context, c *Client, req Request) (*Response[T], error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debugw("api request",
		"method", httpReq.Method,
		"url", httpReq.URL.String(),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &NetworkError{cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &NetworkError{cause: err}
	}

	out := &Response[T]{
		ETag:         resp.Header.Get("ETag"),
		LastModified: parseLastModified(resp),
		StatusCode:   resp.StatusCode,
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if len(bytes.TrimSpace(body)) == 0 {
			return out, nil
		}
		var value T
		if err := json.Unmarshal(body, &value); err != nil {
			c.logger.Errorw("response decode failed",
				"url", httpReq.URL.String(),
				"error", err,
				"body", truncateBody(body),
			)
			return nil, &DecodingError{cause: err}
		}
		out.Value = &value
		return out, nil
	case resp.StatusCode == http.StatusNotModified:
		return out, nil
	case resp.StatusCode == http.StatusUnauthorized:
		if c.auth != nil {
			if err := c.auth.HandleUnauthorized(ctx); err != nil {
				c.logger.Warnw("unauthorized handler failed", "error", err)
			}
		}
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrForbidden
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitedError{RetryAfter: parseRetryAfter(resp)}
	default:
		return nil, &ServerError{Status: resp.StatusCode}
	}
}

// SendDiscard performs req and ignores any response body. Used for DELETE
// and other endpoints whose body carries nothing of interest.
func SendDiscard(ctx context.Context, c *Client, req Request) error {
	_, err := Send[json.RawMessage](ctx, c, req)
	return err
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var reqBody io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Set(key, value)
		}
	}

	if c.auth != nil {
		authHeaders, err := c.auth.AuthHeaders(ctx)
		if err != nil {
			// No usable credentials is an auth failure, same as a 401.
			return nil, ErrUnauthorized
		}
		for key, value := range authHeaders {
			httpReq.Header.Set(key, value)
		}
	}

	return httpReq, nil
}

func parseLastModified(resp *http.Response) *time.Time {
	value := resp.Header.Get("Last-Modified")
	if value == "" {
		return nil
	}
	t, err := http.ParseTime(value)
	if err != nil {
		return nil
	}
	return &t
}

// parseRetryAfter reads a Retry-After header: numeric seconds, or an HTTP
// date converted to a relative delay.
func parseRetryAfter(resp *http.Response) *time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return nil
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		d := time.Duration(seconds * float64(time.Second))
		if d < 0 {
			d = 0
		}
		return &d
	}
	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return &d
	}
	return nil
}

func truncateBody(body []byte) string {
	const limit = 2048
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}
