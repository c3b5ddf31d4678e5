// Package audio defines the types and device interfaces for audio capture
// and playback in voicewire.
//
// The two primary abstractions are:
//
//   - [CaptureDevice] — a microphone-like source that delivers a continuous
//     stream of fixed-size [Frame] values in capture order.
//   - [Player] — a speaker-like sink that plays one encoded audio clip to
//     completion.
//
// Implementations are provided by device-specific adapter packages (e.g.,
// audio/portaudio). The interfaces are intentionally narrow so the pipeline
// core stays decoupled from device details and tests can run without any
// audio hardware or cgo.
package audio

import "context"

// CaptureDevice is a continuous source of captured audio frames.
//
// Implementations must deliver frames in capture order and must never
// reorder them. The frame channel is closed when the device is closed.
type CaptureDevice interface {
	// Frames returns the channel on which captured frames are delivered.
	// The same channel is returned for the lifetime of the device.
	Frames() <-chan Frame

	// Start begins (or resumes) capture. Calling Start on a running device
	// is a no-op.
	Start() error

	// Stop pauses capture without releasing the underlying device. Frames
	// captured while stopped are discarded. Calling Stop on a stopped
	// device is a no-op.
	Stop() error

	// Close releases the device and closes the frame channel. After Close,
	// Start and Stop return errors.
	Close() error
}

// Player plays a single encoded audio clip to completion.
//
// Play blocks until the clip has finished playing or ctx is cancelled.
// Implementations decode the clip container themselves; the pipeline treats
// clip bytes as opaque.
type Player interface {
	Play(ctx context.Context, clip []byte) error
}
