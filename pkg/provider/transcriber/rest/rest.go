// Package rest implements the transcriber.Provider interface against the
// dialogue backend's HTTP transcription endpoint.
//
// The wire contract: POST the segment as raw little-endian float32 PCM with
// Content-Type "audio/float32"; the response body is a JSON-encoded string
// holding the transcript. Any non-2xx status is fatal for that segment.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voicewire/voicewire/pkg/audio"
	"github.com/voicewire/voicewire/pkg/provider/transcriber"
)

const (
	contentType    = "audio/float32"
	defaultTimeout = 60 * time.Second

	// maxTranscriptBytes bounds the response body read. Transcripts of a
	// 10 s segment are a few hundred bytes; a megabyte is a broken server.
	maxTranscriptBytes = 1 << 20
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Useful for tests and
// for callers that need custom transport settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// Client implements [transcriber.Provider] over HTTP.
type Client struct {
	url string
	hc  *http.Client
}

var _ transcriber.Provider = (*Client)(nil)

// New creates a Client posting segments to url (e.g.
// "https://host/transcribe").
func New(url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("transcriber: url must not be empty")
	}
	c := &Client{
		url: url,
		hc:  &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Transcribe implements [transcriber.Provider].
func (c *Client) Transcribe(ctx context.Context, samples []float32) (string, error) {
	body := audio.EncodeFloat32LE(samples)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("transcriber: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcriber: post segment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcriber: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTranscriptBytes))
	if err != nil {
		return "", fmt.Errorf("transcriber: read response: %w", err)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", fmt.Errorf("transcriber: decode response: %w", err)
	}
	return text, nil
}
