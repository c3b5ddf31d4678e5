// Package generator defines the Provider interface for the response
// generation service.
//
// Generation takes the user's accumulated input plus the prior turn history
// and returns a streamed reply: a record-separator-delimited sequence of
// typed JSON records interleaving text deltas and audio-clip handles, as
// decoded by the internal/response package. The stream is single-use;
// re-reading a reply requires a fresh request.
package generator

import (
	"context"
	"io"
)

// Request is the input to one generation call.
type Request struct {
	// Input is the user's transcribed utterance for this turn.
	Input string `json:"input"`

	// History holds the prior turn texts in order, alternating bot and
	// user, excluding the in-progress turn.
	History []string `json:"history"`
}

// Provider streams generated responses.
type Provider interface {
	// Generate starts a generation request and returns the raw response
	// stream. The caller must close the returned reader. An error means
	// the request could not be established (a turn-level failure); errors
	// after streaming has begun surface through the reader.
	Generate(ctx context.Context, req Request) (io.ReadCloser, error)

	// Warm issues a no-op warm-up request so the service can prime its
	// resources. It succeeds with no streamed body.
	Warm(ctx context.Context) error
}
