// Package upstream is the shared JSON-over-HTTP client used for the
// security-scan and market-data providers and for the proxy endpoints.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"token-audit/internal/observability"
	"token-audit/internal/tracing"
)

// Default configuration values.
const (
	DefaultTimeout = 15 * time.Second

	// maxErrorBody bounds how much of an error body is read into a description.
	maxErrorBody = 4 << 10
)

// HTTPError is returned when the remote side answered with a response that
// signals failure. It is the "structured response" error class: callers can
// show Description to users.
type HTTPError struct {
	Provider    string
	StatusCode  int
	Description string
}

func (e *HTTPError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Description)
}

// Client performs GET requests against one base URL and decodes JSON bodies.
type Client struct {
	provider string
	baseURL  string
	client   *http.Client
	header   http.Header
	limiter  *rate.Limiter
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

// WithRateLimit paces outgoing requests to rps with the given burst.
// rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a client for provider rooted at baseURL.
func New(provider, baseURL string, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   &http.Client{Timeout: DefaultTimeout},
		header:   make(http.Header),
	}
	c.header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider name used in errors and metrics.
func (c *Client) Provider() string {
	return c.provider
}

// GetJSON issues GET baseURL+path?query and decodes a 2xx body into out.
// endpoint is a low-cardinality label for metrics and spans.
// Non-2xx responses become *HTTPError. There is no retry.
func (c *Client) GetJSON(ctx context.Context, endpoint, path string, query url.Values, out interface{}) (err error) {
	ctx, span := tracing.Tracer("token-audit/upstream").Start(ctx, c.provider+"."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upstream.provider", c.provider),
			attribute.String("upstream.endpoint", endpoint),
		),
	)
	start := time.Now()
	status := "transport_error"
	defer func() {
		observability.RecordUpstream(c.provider, endpoint, status, time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s rate limit wait: %w", c.provider, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			Provider:    c.provider,
			StatusCode:  resp.StatusCode,
			Description: describe(body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		status = "decode_error"
		return fmt.Errorf("%s decode response: %w", c.provider, err)
	}
	return nil
}

// errorBody covers the error shapes the providers and the proxy emit.
type errorBody struct {
	Description string `json:"description"`
	Message     string `json:"message"`
	Error       string `json:"error"`
}

// describe extracts a human-readable description from an error body.
func describe(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Description != "":
			return eb.Description
		case eb.Message != "":
			return eb.Message
		case eb.Error != "":
			return eb.Error
		}
		return ""
	}
	return strings.TrimSpace(string(body))
}
