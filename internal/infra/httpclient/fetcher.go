// Package httpclient holds the outbound request primitives of the worker:
// a plain fetcher with rotating User-Agent headers and a Cloudflare-edge
// proxy client that falls back to direct fetch when the edge misbehaves.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const maxBodySize = 10 * 1024 * 1024 // 10MB

// RequestError reports a failed outbound GET: either the transport failed
// or the origin answered with a non-2xx status.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request %s failed: status %d", e.URL, e.StatusCode)
}

// Unwrap exposes the underlying transport error, if any.
func (e *RequestError) Unwrap() error { return e.Err }

// Fetcher issues plain GET requests with a rotating User-Agent and the
// fixed accessory headers scraped origins expect. No retry at this layer;
// timeouts come from the injected http.Client.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher using the given HTTP client.
func NewFetcher(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Headers returns a fresh header set with a randomly chosen User-Agent.
func (f *Fetcher) Headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", randomUserAgent())
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Referer", "https://www.google.com")
	h.Set("Connection", "keep-alive")
	h.Set("Accept", "*/*")
	return h
}

// FetchText GETs the given absolute URL and returns the response body as
// text. Any transport failure or non-2xx status yields a *RequestError.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header = f.Headers()

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &RequestError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RequestError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := readBody(resp)
	if err != nil {
		return "", &RequestError{URL: url, Err: err}
	}
	return body, nil
}

// readBody drains a response body up to the size cap.
func readBody(resp *http.Response) (string, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
