// Package api is the HTTP/JSON client for the remote OCR and summary service.
// Every id-keyed summary operation checks the identifier locally and refuses
// to issue a request for a malformed one.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is where the service listens in a local setup.
	DefaultBaseURL = "http://localhost:8000/api"

	// DefaultTimeout bounds a single request. Summary generation can take
	// minutes so this is generous.
	DefaultTimeout = 5 * time.Minute

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// Config holds the client settings.
type Config struct {
	// BaseURL is the service root, including any path prefix.
	BaseURL string

	// Timeout bounds each request.
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// Client talks to the remote service.
type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https",
			cfg.BaseURL)
	}

	return &Client{
		base: base,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With("component", "api"),
	}, nil
}

// BaseURL returns the service root the client was built for.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// endpoint joins path segments onto the base URL, escaping each segment.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := *c.base

	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.RawPath = c.base.EscapedPath() + "/" + strings.Join(escaped, "/")
	u.Path = c.base.Path + "/" + strings.Join(segments, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	return u.String()
}

// do performs one request. A nil body sends no payload and a nil out
// discards the response body.
func (c *Client) do(ctx context.Context, method, target string, body,
	out any) error {

	reqID := uuid.New().String()
	start := time.Now()

	var payload io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.DebugContext(ctx, "Sending request",
		"req_id", reqID,
		"method", method,
		"url", target,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "Request failed",
			"req_id", reqID,
			"method", method,
			"url", target,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)

		return &RemoteError{
			Method: method,
			URL:    target,
			Err:    err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("read response: %w", err),
		}
	}

	c.log.DebugContext(ctx, "Received response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return newRemoteError(method, target, resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	return nil
}
