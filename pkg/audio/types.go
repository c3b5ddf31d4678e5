package audio

import "time"

// Frame represents a single fixed-size frame of captured audio flowing
// through the pipeline. Frames are the atomic unit of audio transport —
// produced by a capture device, gated by the segmenter, and accumulated
// into utterance segments.
type Frame struct {
	// Samples holds normalised mono PCM samples in the range [-1, 1].
	Samples []float32

	// SampleRate in Hz (e.g., 48000 for browser-equivalent capture, 16000 for
	// dedicated STT input).
	SampleRate int

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Duration returns the wall-clock span covered by the frame's samples.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
}
