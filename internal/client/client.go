// Package client issues backend requests with per-attempt timeouts and
// bounded fixed-delay retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"promptdeck/internal/config"
	"promptdeck/internal/logging"
	"promptdeck/internal/models"
)

const (
	HeaderContentType = "Content-Type"
	HeaderRequestID   = "X-Request-ID"
	ContentTypeJSON   = "application/json"

	maxErrorBodyBytes = 64 << 10
)

// ErrAllAttemptsFailed is returned if the retry loop ends without a response or a transport error.
var ErrAllAttemptsFailed = errors.New("all API request attempts failed")

// TransportError means the HTTP exchange itself never completed (timeout,
// connection failure, cancellation). It is the only failure that is retried.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Attempts == 1 {
		return fmt.Sprintf("request failed after 1 attempt: %v", e.Err)
	}
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is an application-level failure carried by a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string { return e.Message }

// RequestOptions describes one logical request. Body is replayed on each attempt.
type RequestOptions struct {
	Method string
	Header http.Header
	Body   []byte
}

type Client struct {
	httpClient *http.Client
	timeouts   config.TimeoutConfig
	logger     *slog.Logger
}

// New returns a client. A nil httpClient uses a fresh http.Client without its own timeout;
// per-attempt timeouts come from timeouts.
func New(httpClient *http.Client, timeouts config.TimeoutConfig, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		timeouts:   timeouts,
		logger:     logging.OrDefault(logger),
	}
}

func (c *Client) Timeouts() config.TimeoutConfig {
	return c.timeouts
}

// ProbeHealth reports whether the profile's health endpoint answers 2xx within
// the health timeout on any of up to MaxRetries attempts. It never fails.
func (c *Client) ProbeHealth(ctx context.Context, p models.Profile) bool {
	for attempt := 1; attempt <= c.timeouts.MaxRetries; attempt++ {
		err := c.probeOnce(ctx, p.HealthEndpoint)
		if err == nil {
			return true
		}

		c.logger.Warn("API health check attempt failed",
			"profile", p.ID,
			"attempt", attempt,
			"error", err)

		if attempt < c.timeouts.MaxRetries {
			if !sleep(ctx, c.timeouts.RetryDelay) {
				return false
			}
		}
	}
	return false
}

func (c *Client) probeOnce(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.HealthCheck)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set(HeaderContentType, ContentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unhealthy status: %s", resp.Status)
	}
	return nil
}

// SendRequest dispatches the request, retrying only on transport failure.
// Any completed exchange is returned as-is, including 4xx/5xx. retries <= 0
// means the configured MaxRetries. The caller must close the response body.
func (c *Client) SendRequest(ctx context.Context, endpoint string, opts RequestOptions, retries int) (*http.Response, error) {
	if retries <= 0 {
		retries = c.timeouts.MaxRetries
	}
	requestID := uuid.NewString()

	for attempt := 1; attempt <= retries; attempt++ {
		resp, err := c.attempt(ctx, endpoint, opts, requestID)
		if err == nil {
			return resp, nil
		}

		c.logger.Warn("API request attempt failed",
			"endpoint", endpoint,
			"request_id", requestID,
			"attempt", attempt,
			"error", err)

		// Parent cancellation is not a transient failure.
		if ctx.Err() != nil {
			return nil, &TransportError{Attempts: attempt, Err: err}
		}
		if attempt == retries {
			return nil, &TransportError{Attempts: attempt, Err: err}
		}
		if !sleep(ctx, c.timeouts.RetryDelay) {
			return nil, &TransportError{Attempts: attempt, Err: ctx.Err()}
		}
	}

	return nil, ErrAllAttemptsFailed
}

// attempt runs one exchange with a hard timeout on reaching the response
// headers. The body stays readable afterwards; closing it releases the attempt.
func (c *Client) attempt(ctx context.Context, endpoint string, opts RequestOptions, requestID string) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(attemptCtx, method, endpoint, body)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header = mergeHeaders(opts.Header)
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, requestID)
	}

	timeout := c.timeouts.APIRequest
	timer := time.AfterFunc(timeout, cancel)
	resp, err := c.httpClient.Do(req)
	if !timer.Stop() {
		if err == nil {
			resp.Body.Close()
		}
		cancel()
		return nil, fmt.Errorf("request timed out after %s: %w", timeout, context.DeadlineExceeded)
	}
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.Body == http.NoBody {
		cancel()
		return resp, nil
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// mergeHeaders applies the JSON content type default, then caller headers on top.
func mergeHeaders(caller http.Header) http.Header {
	h := http.Header{}
	h.Set(HeaderContentType, ContentTypeJSON)
	for k, vs := range caller {
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	return h
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// ReadErrorBody consumes a non-2xx response and returns its error. The
// message is the JSON `error` field when present, else "HTTP <code>: <text>".
// A nil body yields the status text.
func ReadErrorBody(resp *http.Response) *HTTPError {
	if resp.Body != nil {
		defer resp.Body.Close()

		var payload struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: payload.Error}
		}
	}
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}

// sleep waits d or until ctx is done. It reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
