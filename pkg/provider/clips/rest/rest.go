// Package rest implements the clips.Fetcher interface against the dialogue
// backend's HTTP audio endpoint: GET /audio/{handle} returns 202 while
// synthesis is in flight and the encoded bytes once done; DELETE cancels a
// no-longer-wanted clip.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voicewire/voicewire/pkg/provider/clips"
)

const defaultTimeout = 60 * time.Second

// maxClipBytes bounds a single clip download (a ~10 s WAV clip is well
// under this).
const maxClipBytes = 32 << 20

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// Client implements [clips.Fetcher] over HTTP.
type Client struct {
	baseURL string
	hc      *http.Client
}

var _ clips.Fetcher = (*Client)(nil)

// New creates a Client resolving handles under baseURL (e.g.
// "https://host/audio"); the handle is appended as a path element.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("clips: base URL must not be empty")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Fetch implements [clips.Fetcher].
func (c *Client) Fetch(ctx context.Context, handle string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.clipURL(handle), nil)
	if err != nil {
		return nil, fmt.Errorf("clips: build request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clips: fetch %q: %w", handle, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted:
		io.Copy(io.Discard, resp.Body)
		return nil, clips.ErrNotReady
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipBytes))
		if err != nil {
			return nil, fmt.Errorf("clips: read clip %q: %w", handle, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("clips: fetch %q: unexpected status %d", handle, resp.StatusCode)
	}
}

// Cancel implements [clips.Fetcher].
func (c *Client) Cancel(ctx context.Context, handle string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.clipURL(handle), nil)
	if err != nil {
		return fmt.Errorf("clips: build cancel request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("clips: cancel %q: %w", handle, err)
	}
	io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) clipURL(handle string) string {
	return c.baseURL + "/" + handle
}
