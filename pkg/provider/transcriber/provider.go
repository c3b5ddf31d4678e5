// Package transcriber defines the Provider interface for speech-to-text
// transcription of finished utterance segments.
//
// A transcription is one synchronous request per segment: raw mono float32
// PCM in, transcript text out. Latency is unbounded but every call
// eventually resolves; callers dispatch segments concurrently and reconcile
// the asynchronous results themselves (see the turn controller's
// pending-segment counter).
//
// Implementations must be safe for concurrent use: multiple segments may be
// in flight at once.
package transcriber

import "context"

// Provider transcribes one audio segment per call.
type Provider interface {
	// Transcribe sends the segment's samples (normalised mono PCM at the
	// pipeline sample rate) and returns its transcript text. An empty or
	// nil samples slice is a valid warm-up call: the service responds with
	// an empty transcript and the round-trip primes its resources.
	//
	// A non-nil error means this segment's transcription is unrecoverable;
	// the caller decides how to make progress (typically by treating it as
	// an empty transcript).
	Transcribe(ctx context.Context, samples []float32) (string, error)
}
