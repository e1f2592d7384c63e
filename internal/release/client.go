// Package release fetches the latest released archive for a repository
// from a GitHub-style hosting API.
//
// The primary purpose of this package is to abstract the two read-only
// API calls the pipeline needs (latest-release metadata, asset listing)
// plus the asset download itself, and to classify their failures into
// the pipeline's error taxonomy (release lookup / asset lookup /
// download / timeout).
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// defaultRequestTimeout bounds each individual remote call (both lookups
// and the download). Without it a stalled remote would block the run
// indefinitely; for a one-shot tool a generous fixed bound per request
// is enough.
const defaultRequestTimeout = 30 * time.Second

// DefaultBaseURL is the GitHub REST API root. Overridable via the
// GITHUB_API_URL environment variable or the config file, for testing
// and for GitHub Enterprise style deployments.
const DefaultBaseURL = "https://api.github.com"

// userAgent identifies the tool to the remote API. GitHub rejects
// requests without a User-Agent header.
const userAgent = "quilt"

// Client wraps an http.Client with the hosting-API base URL and the
// per-request timeout. It handles request construction, status checking,
// and JSON decoding; the fetch pipeline in fetcher.go layers the error
// taxonomy on top.
//
// Usage:
//
//	c := release.NewClient()
//	assets, err := c.FetchAllLatest(ctx, descriptors, ws)
type Client struct {
	// httpClient is the underlying HTTP client. We wrap it rather than
	// embedding it to control the exposed API surface.
	httpClient *http.Client

	// baseURL is the API root, without a trailing slash.
	baseURL string

	// timeout is applied per request via a child context.
	timeout time.Duration
}

// NewClient creates a client for the default hosting API.
//
// The base URL resolution order is:
//  1. GITHUB_API_URL environment variable (if set, used as-is)
//  2. the public GitHub API root
func NewClient() *Client {
	base := os.Getenv("GITHUB_API_URL")
	if base == "" {
		base = DefaultBaseURL
	}
	return NewClientWithOptions(base, defaultRequestTimeout)
}

// NewClientWithOptions creates a client against a specific API root with
// a specific per-request timeout. Tests use this to point the client at
// an httptest server and to shrink the timeout.
func NewClientWithOptions(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// getJSON performs a GET against url and decodes the JSON response body
// into out. Non-2xx statuses are returned as errors carrying the status
// line, so rate-limiting responses (403/429) surface to the caller
// rather than being silently retried.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// get performs a GET with the per-request timeout applied and verifies
// the response status. The caller owns the response body on success.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	// Child context with timeout so a stalled remote cannot block the
	// run past the configured bound. The deadline error is preserved in
	// the chain so the fetcher can classify it as a Timeout failure.
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json, application/octet-stream;q=0.9, */*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("GET %s returned %s", url, resp.Status)
	}

	// Tie the context's lifetime to the body: cancelling before the body
	// is fully read would abort the transfer, so cancel only on close.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases a request context when the response body is
// closed, keeping the timeout active for the whole body transfer.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// isTimeout reports whether err was caused by the per-request deadline.
// Both the raw context error and net/http's url.Error wrapping of it are
// covered by errors.Is.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
