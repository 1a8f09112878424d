// Package apiclient wraps calls to the analysis backend with per-attempt
// timeouts, bounded exponential-backoff retries and a normalized error
// taxonomy, so callers never see raw transport failures.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/medfin/platform/pkg/logger"
)

// Defaults applied when an Options field is left zero.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = 1 * time.Second

	healthCheckTimeout = 5 * time.Second
	healthCheckRetries = 1

	maxResponseBody = 8 << 20
)

// Recorder observes client traffic. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordAttempt(method string, status int, duration time.Duration)
	RecordRetry(method string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAttempt(string, int, time.Duration) {}
func (nopRecorder) RecordRetry(string)                       {}

// Options configures a single request. Zero fields take the defaults above.
type Options struct {
	Method     string
	Body       interface{}
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Header     http.Header
}

// Response is a settled successful response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// IsJSON reports whether the response declared a JSON content type.
func (r *Response) IsJSON() bool {
	ct := r.Header.Get("Content-Type")
	return strings.Contains(ct, "application/json")
}

// JSON decodes the body into target. Non-JSON responses return an error so
// shape mismatches surface at the boundary.
func (r *Response) JSON(target interface{}) error {
	if !r.IsJSON() {
		return fmt.Errorf("response is %q, not JSON", r.Header.Get("Content-Type"))
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Text returns the raw body as a string.
func (r *Response) Text() string { return string(r.Body) }

// Config configures the client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Log        *logger.Logger
	Metrics    Recorder
}

// Client performs requests against a single backend origin. It is stateless
// apart from the fixed base URL and safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
	metrics Recorder

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a client for the given backend origin.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client-level timeout: each attempt is bounded by its own
		// context deadline instead.
		httpClient = &http.Client{}
	}
	log := cfg.Log
	if log == nil {
		log = logger.NewDefault("apiclient")
	}
	rec := cfg.Metrics
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		log:     log,
		metrics: rec,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do executes a request with retry and timeout handling. On failure the
// returned error is always an *APIError (unless the caller's context was
// cancelled first).
func (c *Client) Do(ctx context.Context, path string, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	// Zero means default; negative means no retries at all. Either way at
	// least one attempt runs.
	retries := opts.Retries
	switch {
	case retries == 0:
		retries = DefaultRetries
	case retries < 0:
		retries = 0
	}
	retryDelay := opts.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}

	var bodyBytes []byte
	contentType := ""
	switch body := opts.Body.(type) {
	case nil:
	case []byte:
		bodyBytes = body
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{
				Status:  StatusNetworkError,
				Code:    "encode_error",
				Message: fmt.Sprintf("encode request body: %v", err),
			}
		}
		bodyBytes = encoded
		contentType = "application/json"
	}

	var lastErr *APIError
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			c.metrics.RecordRetry(method)
			backoff := retryDelay * (1 << (attempt - 1))
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		resp, apiErr := c.attempt(ctx, method, path, bodyBytes, contentType, opts.Header, timeout)
		if apiErr == nil {
			return resp, nil
		}
		lastErr = apiErr
		if !apiErr.Retryable() {
			return nil, apiErr
		}
		// Honor caller cancellation between attempts.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.WithField("path", path).
			WithField("attempt", attempt+1).
			WithField("status", apiErr.Status).
			Warn("request failed, will retry")
	}
	return nil, lastErr
}

// attempt performs one bounded request. A nil *APIError means success.
func (c *Client) attempt(ctx context.Context, method, path string, body []byte, contentType string, header http.Header, timeout time.Duration) (*Response, *APIError) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &APIError{Status: StatusNetworkError, Code: "bad_request", Message: err.Error()}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		status := StatusNetworkError
		code := "network_error"
		message := "request failed: no response from server"
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			status = StatusTimeout
			code = "timeout"
			message = fmt.Sprintf("request timed out after %s", timeout)
		}
		c.metrics.RecordAttempt(method, status, time.Since(start))
		return nil, &APIError{Status: status, Code: code, Message: message}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	c.metrics.RecordAttempt(method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &APIError{Status: StatusNetworkError, Code: "read_error", Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errorFromResponse(resp.StatusCode, data)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// errorFromResponse extracts a structured error from the backend's JSON error
// shape, falling back to the raw body text.
func errorFromResponse(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	var payload struct {
		Error   string                 `json:"error"`
		Message string                 `json:"message"`
		Detail  string                 `json:"detail"`
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Error != "":
			apiErr.Message = payload.Error
		case payload.Detail != "":
			apiErr.Message = payload.Detail
		}
		apiErr.Code = payload.Code
		apiErr.Details = payload.Details
	} else if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}

// Get performs a GET request and decodes the JSON response into target.
func (c *Client) Get(ctx context.Context, path string, target interface{}) error {
	return c.requestJSON(ctx, path, Options{Method: http.MethodGet}, target)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, target interface{}) error {
	return c.requestJSON(ctx, path, Options{Method: http.MethodPost, Body: body}, target)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, target interface{}) error {
	return c.requestJSON(ctx, path, Options{Method: http.MethodPut, Body: body}, target)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, target interface{}) error {
	return c.requestJSON(ctx, path, Options{Method: http.MethodDelete}, target)
}

func (c *Client) requestJSON(ctx context.Context, path string, opts Options, target interface{}) error {
	resp, err := c.Do(ctx, path, opts)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return resp.JSON(target)
}

// Upload sends a file as multipart/form-data under fieldName, with extra
// fields flattened alongside it. Non-string extras are JSON-encoded. The
// content type carries the computed multipart boundary.
func (c *Client) Upload(ctx context.Context, path, fieldName, fileName string, file io.Reader, extra map[string]interface{}, target interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		return &APIError{Status: StatusNetworkError, Code: "encode_error", Message: err.Error()}
	}
	if _, err := io.Copy(part, file); err != nil {
		return &APIError{Status: StatusNetworkError, Code: "encode_error", Message: fmt.Sprintf("read upload: %v", err)}
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		value, ok := extra[k].(string)
		if !ok {
			encoded, err := json.Marshal(extra[k])
			if err != nil {
				return &APIError{Status: StatusNetworkError, Code: "encode_error", Message: err.Error()}
			}
			value = string(encoded)
		}
		if err := writer.WriteField(k, value); err != nil {
			return &APIError{Status: StatusNetworkError, Code: "encode_error", Message: err.Error()}
		}
	}
	if err := writer.Close(); err != nil {
		return &APIError{Status: StatusNetworkError, Code: "encode_error", Message: err.Error()}
	}

	header := make(http.Header)
	header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.Do(ctx, path, Options{
		Method: http.MethodPost,
		Body:   buf.Bytes(),
		Header: header,
	})
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return resp.JSON(target)
}

// HealthCheck performs a single best-effort liveness probe: short timeout,
// one retry, and any failure collapses to false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.Do(ctx, "/health", Options{
		Method:  http.MethodGet,
		Timeout: healthCheckTimeout,
		Retries: healthCheckRetries,
	})
	return err == nil
}
