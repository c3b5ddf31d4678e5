// Package clips defines the Fetcher interface for retrieving synthesised
// audio clips by their opaque handles.
//
// Clip synthesis runs asynchronously on the backend: a handle arrives in
// the generation stream before the audio exists, so fetching may report
// "not ready" ([ErrNotReady]) any number of times before the bytes land.
// Each clip's bytes are meaningfully retrievable exactly once — callers do
// not re-fetch a clip they have already played.
package clips

import (
	"context"
	"errors"
)

// ErrNotReady reports that the clip's synthesis has not finished yet; the
// caller should retry the same handle.
var ErrNotReady = errors.New("clips: clip not ready")

// Fetcher retrieves and cancels clips by handle.
//
// Implementations must be safe for concurrent use.
type Fetcher interface {
	// Fetch returns the clip's encoded audio bytes, [ErrNotReady] when
	// synthesis is still in progress, or another error when the clip is
	// unrecoverable (the caller drops it and moves on).
	Fetch(ctx context.Context, handle string) ([]byte, error)

	// Cancel tells the backend the clip is no longer wanted. Best effort,
	// fire-and-forget: failures are reported but carry no consequence.
	Cancel(ctx context.Context, handle string) error
}
