package linededup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// maxErrorBody bounds how much of a rejection body is read.
const maxErrorBody = 4096

// httpTransport handles HTTP communication with the linededup server.
type httpTransport struct {
	client     *http.Client
	endpoint   string
	maxRetries int
	backoff    func(attempt int) time.Duration
}

// newHTTPTransport creates a new HTTP transport with the given configuration.
func newHTTPTransport(cfg Config) *httpTransport {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
		}
	}
	return &httpTransport{
		client:     client,
		endpoint:   cfg.Endpoint,
		maxRetries: cfg.MaxRetries,
		backoff:    exponentialBackoff,
	}
}

// response is a successful reply.
type response struct {
	body      []byte
	requestID string
}

// post sends body to path. It retries on 5xx errors and transport failures
// with exponential backoff and jitter. 4xx responses are returned at once as
// *APIError.
func (t *httpTransport) post(ctx context.Context, path, requestID string, body []byte) (*response, error) {
	url := t.endpoint + path

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			// Wait with exponential backoff and jitter before retry
			delay := t.backoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("linededup: failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)

		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("linededup: request failed: %w", err)
			continue
		}

		// Success: 2xx status codes
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				lastErr = fmt.Errorf("linededup: failed to read response: %w", err)
				continue
			}
			return &response{body: data, requestID: resp.Header.Get("X-Request-ID")}, nil
		}

		apiErr := decodeAPIError(resp)

		// Client error (4xx): don't retry, return immediately
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, apiErr
		}

		// Server error (5xx): retry
		lastErr = apiErr
	}

	return nil, lastErr
}

// decodeAPIError reads the rejection body and closes it. JSON bodies carry a
// code and message; anything else becomes the message verbatim.
func decodeAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	// Read and discard the rest to enable connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
		return apiErr
	}

	apiErr.Message = string(bytes.TrimSpace(data))
	return apiErr
}

// exponentialBackoff calculates the backoff duration for a given attempt.
// Uses exponential backoff with full jitter.
// Base delay is 100ms, max delay is 10s.
func exponentialBackoff(attempt int) time.Duration {
	const (
		baseDelay = 100 * time.Millisecond
		maxDelay  = 10 * time.Second
	)

	// Calculate exponential delay: baseDelay * 2^attempt
	delay := float64(baseDelay) * math.Pow(2, float64(attempt))

	// Cap at max delay
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}

	// Add full jitter: random value between 0 and delay
	jitter := rand.Float64() * delay

	return time.Duration(jitter)
}
