// Package segmenter converts a continuous stream of fixed-size audio frames
// into discrete utterance segments plus edge-triggered talking/silence
// events.
//
// The algorithm gates on a smoothed average amplitude: each frame's mean
// absolute amplitude enters a bounded ring-buffer window, and the window
// average is compared against a silence threshold. While the average stays
// above the threshold the frame data accumulates into an utterance buffer;
// when it falls to or below the threshold (or the buffer is about to
// overflow) a segment boundary is declared and the accumulated audio is
// emitted — provided it exceeds a minimum duration floor that filters out
// noise blips.
//
// ProcessFrame is a synchronous, non-blocking computation intended to be
// called from a single goroutine in frame-capture order; the segmenter owns
// all of its state exclusively and performs no locking.
package segmenter

import (
	"fmt"
	"math"
	"time"
)

// Defaults match a 48 kHz capture pipeline delivering 128-sample frames:
// 180 window entries ≈ 0.5 s of smoothing, a 10 s utterance cap, and a 1 s
// minimum segment.
const (
	DefaultSampleRate       = 48000
	DefaultWindowSize       = 180
	DefaultSilenceThreshold = 0.02
	DefaultMinSegment       = time.Second
	DefaultMaxSegment       = 10 * time.Second
)

// Edge is an edge-triggered talking/silence transition.
type Edge int

const (
	// EdgeNone means the frame did not change the talking classification.
	EdgeNone Edge = iota

	// EdgeTalking means the smoothed amplitude rose above the silence
	// threshold on this frame.
	EdgeTalking

	// EdgeSilence means the smoothed amplitude fell to or below the silence
	// threshold on this frame.
	EdgeSilence
)

// String returns the human-readable name of the edge.
func (e Edge) String() string {
	switch e {
	case EdgeTalking:
		return "talking"
	case EdgeSilence:
		return "silence"
	default:
		return "none"
	}
}

// Result is the outcome of processing one frame.
type Result struct {
	// Edge is non-EdgeNone only when the talking/silence classification
	// changed on this frame.
	Edge Edge

	// Segment holds a finished utterance when a boundary was declared and
	// the accumulated audio exceeded the minimum duration floor. Ownership
	// of the slice transfers to the caller; the segmenter never touches it
	// again. Nil when no segment was emitted.
	Segment []float32

	// Discarded is set when an utterance ended below the minimum duration
	// floor and its audio was dropped. Only reported at the end of a talking
	// stretch, not on every silent frame.
	Discarded bool
}

// Config holds the tunable parameters of a [Segmenter].
type Config struct {
	// SampleRate of the incoming frames in Hz.
	SampleRate int

	// WindowSize is the number of per-frame amplitudes retained for
	// smoothing.
	WindowSize int

	// SilenceThreshold is the smoothed-amplitude level at or below which a
	// frame is classified as silent.
	SilenceThreshold float64

	// MinSegment is the duration floor below which a finished utterance is
	// discarded instead of emitted.
	MinSegment time.Duration

	// MaxSegment caps the utterance buffer; reaching it forces a boundary.
	MaxSegment time.Duration
}

// withDefaults fills zero-valued fields with the package defaults.
func (c Config) withDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.WindowSize == 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.SilenceThreshold == 0 {
		c.SilenceThreshold = DefaultSilenceThreshold
	}
	if c.MinSegment == 0 {
		c.MinSegment = DefaultMinSegment
	}
	if c.MaxSegment == 0 {
		c.MaxSegment = DefaultMaxSegment
	}
	return c
}

// Segmenter accumulates frames into utterance segments. It is not safe for
// concurrent use; all methods must be called from the frame-processing
// goroutine.
type Segmenter struct {
	cfg        Config
	window     *amplitudeWindow
	buffer     []float32
	writeIdx   int
	minSamples int
	talking    bool
	stopped    bool
}

// New creates a Segmenter. Zero-valued config fields take the package
// defaults; an invalid combination (min ≥ max, negative threshold) is an
// error.
func New(cfg Config) (*Segmenter, error) {
	cfg = cfg.withDefaults()
	if cfg.SampleRate < 0 || cfg.WindowSize < 0 || cfg.SilenceThreshold < 0 {
		return nil, fmt.Errorf("segmenter: negative config value: %+v", cfg)
	}
	if cfg.MinSegment >= cfg.MaxSegment {
		return nil, fmt.Errorf("segmenter: min segment %v must be below max %v", cfg.MinSegment, cfg.MaxSegment)
	}

	capacity := int(cfg.MaxSegment.Seconds() * float64(cfg.SampleRate))
	minSamples := int(cfg.MinSegment.Seconds() * float64(cfg.SampleRate))

	return &Segmenter{
		cfg:        cfg,
		window:     newAmplitudeWindow(cfg.WindowSize),
		buffer:     make([]float32, capacity),
		minSamples: minSamples,
	}, nil
}

// ProcessFrame classifies one frame and appends it to the in-progress
// utterance. It returns the talking/silence edge, if any, and a finished
// segment when a boundary fires with enough accumulated audio.
//
// A zero-length frame is a no-op. When the segmenter is stopped, all frames
// are ignored and the zero Result is returned.
func (s *Segmenter) ProcessFrame(samples []float32) Result {
	if s.stopped || len(samples) == 0 {
		return Result{}
	}

	avg := s.window.push(meanAbs(samples))

	var res Result
	talking := avg > s.cfg.SilenceThreshold
	if talking != s.talking {
		s.talking = talking
		if talking {
			res.Edge = EdgeTalking
		} else {
			res.Edge = EdgeSilence
		}
	}

	// Append as much of the frame as fits; the remainder is carried into the
	// fresh buffer after the forced boundary below so no samples are lost.
	n := copy(s.buffer[s.writeIdx:], samples)
	s.writeIdx += n
	leftover := samples[n:]

	remaining := len(s.buffer) - s.writeIdx
	if !talking || remaining < len(samples) {
		if s.writeIdx > s.minSamples {
			res.Segment = make([]float32, s.writeIdx)
			copy(res.Segment, s.buffer[:s.writeIdx])
		} else if res.Edge == EdgeSilence {
			res.Discarded = true
		}
		s.writeIdx = copy(s.buffer, leftover)
	}

	return res
}

// Stop freezes the segmenter: subsequent frames are ignored and all state is
// preserved. Used to pause capture while the bot is speaking without tearing
// down the audio pipeline. Stopping an already-stopped segmenter is a no-op.
func (s *Segmenter) Stop() {
	s.stopped = true
}

// Start resumes frame processing. The utterance write offset is reset to
// zero and the amplitude window is cleared so stale pre-pause audio cannot
// leak into the next segment. No segment is emitted.
func (s *Segmenter) Start() {
	s.stopped = false
	s.writeIdx = 0
	s.window.reset()
	s.talking = false
}

// Stopped reports whether the segmenter is currently ignoring frames.
func (s *Segmenter) Stopped() bool {
	return s.stopped
}

// meanAbs returns the mean absolute amplitude of the frame.
func meanAbs(samples []float32) float64 {
	var sum float64
	for _, v := range samples {
		sum += math.Abs(float64(v))
	}
	return sum / float64(len(samples))
}
