package codacy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	apperrors "github.com/kurihiro0119/codacy-standards-report/internal/errors"
)

const (
	DefaultBaseURL    = "https://app.codacy.com/api/v3"
	DefaultMaxRetries = 3

	tokenHeader = "api-token"
)

// Client issues requests against the Codacy API with retry and rate limit handling
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	maxRetries  int
	waiter      Waiter
	logger      *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithTokenSource resolves the API token per request instead of using a static one
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		if ts != nil {
			c.tokenSource = ts
		}
	}
}

// WithMaxRetries sets how many attempts a request gets before failing
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithWaiter replaces the sleeper used between attempts
func WithWaiter(w Waiter) Option {
	return func(c *Client) {
		c.waiter = w
	}
}

// WithLogger sets the logger used for retry diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new Codacy API client.
// The token is sent as-is on every request; the caller resolves it.
func NewClient(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		maxRetries:  DefaultMaxRetries,
		waiter:      NewWaiter(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root all paths are resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request for path and decodes the JSON response into out
func (c *Client) Get(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, c.baseURL+path, params, nil, out)
}

// Post issues a POST request with a JSON body for path and decodes the JSON response into out
func (c *Client) Post(ctx context.Context, path string, params url.Values, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, c.baseURL+path, params, body, out)
}

// Do sends a request and decodes the JSON response into out (ignored when nil).
//
// A 429 response waits for Retry-After and consumes one attempt without
// exponential backoff. Any other failure consumes one attempt and waits
// 2^attempt seconds. Once every attempt is used a *errors.RequestError is
// returned carrying the last underlying error.
func (c *Client) Do(ctx context.Context, method, rawURL string, params url.Values, body, out interface{}) error {
	if method != http.MethodGet && method != http.MethodPost {
		return fmt.Errorf("unsupported HTTP method: %s", method)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var payload []byte
	if method == http.MethodPost {
		if body == nil {
			body = struct{}{}
		}
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	retries := 0
	for retries < c.maxRetries {
		resp, err := c.send(ctx, method, u.String(), payload)
		if err == nil && resp.StatusCode == http.StatusTooManyRequests {
			delay := retryAfter(resp.Header.Get("Retry-After"), time.Now())
			lastErr = statusError(resp)

			c.logger.Warn("Rate limited, waiting before retry",
				zap.String("method", method),
				zap.String("url", u.String()),
				zap.Duration("retry_after", delay))

			if err := c.waiter.Wait(ctx, delay); err != nil {
				return err
			}
			retries++
			continue
		}

		if err == nil {
			err = decodeResponse(resp, out)
			if err == nil {
				return nil
			}
		}

		lastErr = err
		retries++
		if retries == c.maxRetries {
			break
		}

		delay := backoffDelay(retries)
		c.logger.Warn("Request failed, retrying",
			zap.String("method", method),
			zap.String("url", u.String()),
			zap.Int("attempt", retries),
			zap.Int("max_retries", c.maxRetries),
			zap.Duration("backoff", delay),
			zap.Error(err))

		if err := c.waiter.Wait(ctx, delay); err != nil {
			return err
		}
	}

	return &apperrors.RequestError{
		Method:   method,
		URL:      u.String(),
		Attempts: retries,
		Err:      lastErr,
	}
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain API token: %w", err)
	}
	req.Header.Set(tokenHeader, token.AccessToken)
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// statusError drains and closes the body, returning a StatusError for resp
func statusError(resp *http.Response) *apperrors.StatusError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &apperrors.StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
