// Package trade provides the remote trade API client: the shared HTTP
// transport, the query dispatcher and the paged listing fetcher.
package trade

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

	"github.com/zhuliguang/Sidekick/internal/metrics"
)

const (
	// DefaultBaseURL is the root of every API path used by this package.
	DefaultBaseURL = "https://www.pathofexile.com/api/trade/"

	defaultUserAgent = "sidekick/dev (+https://github.com/zhuliguang/Sidekick)"
)

// API is the narrow view of the remote trade API used by the synchronizer,
// the dispatcher and the listing fetcher. Paths are relative to the base URL.
type API interface {
	Get(ctx context.Context, path string, query url.Values, dst any) error
	Post(ctx context.Context, path string, body, dst any) error
}

// StatusError is returned when the remote side answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"trade API error (status %d) for %s %s: %s",
		e.StatusCode, e.Method, e.Path, e.Body,
	)
}

// Client implements API over a single shared *http.Client. It is safe for
// concurrent use.
type Client struct {
	baseURL     string
	userAgent   string
	client      *http.Client
	rateLimiter *RateLimiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the default API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient overrides the shared HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimiter makes every request wait on r first. A 429 answer pauses
// r for the duration given in Retry-After.
func WithRateLimiter(r *RateLimiter) ClientOption {
	return func(c *Client) {
		c.rateLimiter = r
	}
}

// NewClient creates a trade API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: defaultUserAgent,
		client:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/") + "/"
	return c
}

// Get performs a GET request and decodes the JSON response into dst.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dst any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dst)
}

// Post performs a POST request with a JSON body and decodes the response into dst.
func (c *Client) Post(ctx context.Context, path string, body, dst any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, dst)
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body, dst any,
) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	u := c.baseURL + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.TradeAPIRequestsTotal.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("executing %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	metrics.TradeAPIRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.throttle(resp.Header.Get("Retry-After"))
		}
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, dst); err != nil {
		return fmt.Errorf("parsing response of %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) throttle(retryAfter string) {
	metrics.TradeAPIThrottledTotal.Inc()
	if c.rateLimiter == nil {
		return
	}
	secs, err := strconv.Atoi(strings.TrimSpace(retryAfter))
	if err != nil || secs <= 0 {
		return
	}
	c.rateLimiter.Penalize(time.Duration(secs) * time.Second)
}

// IsStatus reports whether err carries a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
