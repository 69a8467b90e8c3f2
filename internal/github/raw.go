package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody bounds how much of a failed response is kept on RequestError.
const maxErrorBody = 2048

// Options tune a single raw GET.
type Options struct {
	// Timeout bounds the whole call including the body read. Zero means no
	// per-call limit beyond the context.
	Timeout time.Duration
	// Limit caps the number of body bytes read. Zero reads everything.
	Limit int64
}

// Get issues a GET against an absolute URL with the client's identifying and
// authorization headers and returns the (possibly truncated) body.
func (c *Client) Get(ctx context.Context, u string, opts Options) ([]byte, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &RequestError{URL: u, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{URL: u, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{URL: u, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var r io.Reader = resp.Body
	if opts.Limit > 0 {
		r = io.LimitReader(resp.Body, opts.Limit)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, &RequestError{URL: u, Err: fmt.Errorf("reading response: %w", err)}
	}
	return body, nil
}

// escapePath escapes each segment of a slash-separated path.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
