// Package remote talks to the content backend and the university directory
// over HTTP.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

const (
	maxBodyBytes   = 8 << 20
	maxErrorDetail = 512
)

var retryBackoff = 200 * time.Millisecond

// client performs JSON requests against one upstream, retrying transport
// errors and 429/502/503/504 answers with exponential backoff.
type client struct {
	service    string
	httpClient *http.Client
	maxRetries int
	logger     utils.Logger
}

func newClient(service string, httpClient *http.Client, maxRetries int, logger utils.Logger) *client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &client{
		service:    service,
		httpClient: httpClient,
		maxRetries: maxRetries,
		logger:     logger.With("upstream", service),
	}
}

func (c *client) do(ctx context.Context, method, url string, body []byte) (*repositories.RawResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryBackoff << (attempt - 1)
			c.logger.Warn("Retrying upstream request",
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"backoff", backoff.String(),
				"error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.once(ctx, method, url, body)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *client) once(ctx context.Context, method, url string, body []byte) (*repositories.RawResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Upstream request failed", "method", method, "url", url, "error", err)
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug("Upstream response",
		"method", method,
		"url", url,
		"status_code", resp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start).String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := string(data)
		if len(detail) > maxErrorDetail {
			detail = detail[:maxErrorDetail]
		}
		c.logger.Error("Upstream returned an error status",
			"method", method,
			"url", url,
			"status_code", resp.StatusCode,
			"body", detail)
		return nil, &repositories.UpstreamError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       detail,
		}
	}

	return &repositories.RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func retryable(err error) bool {
	if _, ok := err.(*transportError); ok {
		return true
	}
	if ue, ok := err.(*repositories.UpstreamError); ok {
		switch ue.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
