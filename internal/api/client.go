// Package api is the HTTP client for the platform's admin REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every request so a dead backend surfaces as an error
const DefaultTimeout = 30 * time.Second

const maxBodyBytes = 8 << 20

// TokenSource supplies the bearer token of the current session, if any
type TokenSource interface {
	Token() (string, bool)
}

// Client issues authenticated requests and unwraps the {success, ...} envelope
type Client struct {
	baseURL    *url.URL
	tokens     TokenSource
	httpClient *http.Client
	timeout    time.Duration
	logger     *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the request logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the API at baseURL. tokens may be nil for
// unauthenticated use (login).
func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		tokens:     tokens,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request describes one API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Do performs req and decodes the payload into out (which may be nil).
// Every failure is returned as *Error. Do never retries.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	requestID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return &Error{Kind: KindTransport, Message: "failed to encode request", RequestID: requestID, Err: err}
		}
		body = bytes.NewReader(raw)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return &Error{Kind: KindTransport, Message: "failed to build request", RequestID: requestID, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Printf("api: %s %s failed after %s [%s]: %v", method, req.Path, time.Since(start), requestID, err)
		return &Error{Kind: KindTransport, Message: "request failed", RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.logger.Printf("api: %s %s -> %d in %s (%d bytes) [%s]", method, req.Path, resp.StatusCode, time.Since(start), len(raw), requestID)
	if err != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Message: "failed to read response", RequestID: requestID, Err: err}
	}

	return decode(resp.StatusCode, requestID, raw, out)
}

func decode(status int, requestID string, raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Kind: KindTransport, Status: status, Message: "invalid response body", RequestID: requestID, Err: err}
	}

	if env.Success == nil || !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = "request failed"
		}
		kind := KindRejected
		if status == http.StatusUnauthorized {
			kind = KindUnauthenticated
		}
		return &Error{Kind: kind, Status: status, Message: msg, RequestID: requestID}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindTransport, Status: status, Message: "unexpected response payload", RequestID: requestID, Err: err}
	}
	return nil
}
