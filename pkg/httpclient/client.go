package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/gift-wallet/pkg/resilience"
)

const defaultTimeout = 30 * time.Second

// HTTPError is returned for responses with a 4xx/5xx status code.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Client is a JSON HTTP client with optional retry support.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig *resilience.RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithRetry enables retries with the given config.
func WithRetry(config resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retryConfig = &config
	}
}

// WithDefaultRetry enables retries with the default policy and HTTP-aware
// error classification.
func WithDefaultRetry() Option {
	return func(c *Client) {
		config := resilience.DefaultRetryConfig()
		config.RetryableChecker = isHTTPRetryable
		c.retryConfig = &config
	}
}

// NewClient creates a client for the given base URL. An optional timeout
// overrides the default; zero keeps the default.
func NewClient(baseURL string, timeout ...time.Duration) *Client {
	t := defaultTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		t = timeout[0]
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: t,
		},
	}
}

// Get performs a GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, headers)
}

// Post performs a POST request with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body, headers)
}

// PostWithIdempotency performs a POST carrying an Idempotency-Key header,
// generating one when the caller does not provide it.
func (c *Client) PostWithIdempotency(ctx context.Context, path string, body interface{}, headers map[string]string, idempotencyKey string) ([]byte, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	merged := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		merged[k] = v
	}
	merged["Idempotency-Key"] = idempotencyKey

	return c.do(ctx, http.MethodPost, path, body, merged)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, headers map[string]string) ([]byte, error) {
	operation := func(ctx context.Context) (interface{}, error) {
		return c.doOnce(ctx, method, path, body, headers)
	}

	var result interface{}
	var err error
	if c.retryConfig != nil {
		result, err = resilience.Retry(ctx, *c.retryConfig, operation)
	} else {
		result, err = operation(ctx)
	}
	if err != nil {
		return nil, err
	}
	respBody, _ := result.([]byte)
	return respBody, nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body interface{}, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// isHTTPRetryable treats transport errors and retryable status codes as
// transient. Non-HTTPError failures are assumed to be network-level.
func isHTTPRetryable(err error) bool {
	if err == nil {
		return false
	}
	if httpErr, ok := err.(*HTTPError); ok {
		return resilience.IsRetryableHTTPStatus(httpErr.StatusCode)
	}
	return true
}
