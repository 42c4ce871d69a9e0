// Package fetch performs JSON GET requests against provider APIs with
// bounded retries and linear backoff.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultTimeout     = 5 * time.Second

	// Responses are read through a limit reader so a misbehaving upstream
	// cannot balloon memory.
	maxBodyBytes = 2 << 20

	// Cap on how much of a non-2xx body is quoted in the error.
	errSnippetBytes = 120

	userAgent = "chainprobe/1.0"
)

// Client retries transient failures (network errors, non-2xx statuses) with
// a delay that grows linearly per attempt: the first retry waits one base
// delay, the second two, and so on. Each attempt carries its own timeout so
// a hung upstream cannot stall a resolution indefinitely.
type Client struct {
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration
	sleep       func(context.Context, time.Duration) error
	log         *slog.Logger
}

// Options configures a Client. Zero fields fall back to defaults.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger

	// Sleep replaces the backoff wait, for tests.
	Sleep func(context.Context, time.Duration) error
}

func New(opts Options) *Client {
	c := &Client{
		httpClient:  opts.HTTPClient,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		timeout:     opts.Timeout,
		sleep:       opts.Sleep,
		log:         opts.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.baseDelay <= 0 {
		c.baseDelay = DefaultBaseDelay
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// terminalError marks failures no further attempt can repair, such as a
// malformed URL or a body that is not JSON.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// GetJSON fetches the URL and returns the decoded JSON body. Intermediate
// attempt failures are logged; only the final aggregate error is returned.
func (c *Client) GetJSON(ctx context.Context, url string) (any, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * c.baseDelay
			c.log.Debug("retrying request", "url", url, "attempt", attempt, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		payload, err := c.getOnce(ctx, url)
		if err == nil {
			return payload, nil
		}

		var term *terminalError
		if errors.As(err, &term) {
			return nil, term.err
		}

		lastErr = err
		c.log.Warn("request attempt failed", "url", url, "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string) (any, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &terminalError{err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errSnippetBytes))
		if s := strings.TrimSpace(string(snippet)); s != "" {
			return nil, fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, s)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, &terminalError{err: fmt.Errorf("decode response: %w", err)}
	}
	return payload, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
