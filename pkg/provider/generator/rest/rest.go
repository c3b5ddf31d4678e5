// Package rest implements the generator.Provider interface against the
// dialogue backend's HTTP generation endpoint.
//
// Requests are JSON: {"input": ..., "history": [...]} for a real turn, or
// {"warm": true} for a warm-up. The response is a chunked byte stream of
// record-separator-delimited JSON records; this package hands the raw
// stream to the caller without buffering it.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/voicewire/voicewire/pkg/provider/generator"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. The default client
// has no timeout: generation streams stay open for the full response and
// are bounded by the request context instead.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// Client implements [generator.Provider] over HTTP.
type Client struct {
	url string
	hc  *http.Client
}

var _ generator.Provider = (*Client)(nil)

// New creates a Client posting generation requests to url (e.g.
// "https://host/generate").
func New(url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("generator: url must not be empty")
	}
	c := &Client{
		url: url,
		hc:  &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Generate implements [generator.Provider].
func (c *Client) Generate(ctx context.Context, req generator.Request) (io.ReadCloser, error) {
	if req.History == nil {
		// Marshal as [] rather than null.
		req.History = []string{}
	}
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Warm implements [generator.Provider].
func (c *Client) Warm(ctx context.Context) error {
	resp, err := c.post(ctx, map[string]bool{"warm": true})
	if err != nil {
		return err
	}
	// No streamed body is expected; drain whatever is there so the
	// connection can be reused.
	io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// post sends payload as JSON and returns the response once the status has
// been validated. The caller owns the body.
func (c *Client) post(ctx context.Context, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("generator: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("generator: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generator: post request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("generator: unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}
