// Package config provides the configuration schema and loader for the
// voicewire client.
package config

import "time"

// LogLevel controls log verbosity for the voicewire process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for voicewire.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Services  ServicesConfig  `yaml:"services"`
	Audio     AudioConfig     `yaml:"audio"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Turn      TurnConfig      `yaml:"turn"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Chat      ChatConfig      `yaml:"chat"`
}

// ServerConfig holds logging and observability settings.
type ServerConfig struct {
	// MetricsAddr is the TCP address the metrics/health HTTP server listens
	// on (e.g., ":9091"). Empty disables the server.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ServicesConfig points at the three backend services the client consumes.
type ServicesConfig struct {
	// TranscribeURL is the transcription endpoint. One utterance segment of
	// raw float32 PCM is posted per request.
	TranscribeURL string `yaml:"transcribe_url"`

	// GenerateURL is the response-generation endpoint. The response body is
	// a record-separated stream of typed events.
	GenerateURL string `yaml:"generate_url"`

	// ClipsBaseURL is the base URL for audio clip retrieval; clip handles
	// are appended as a path segment.
	ClipsBaseURL string `yaml:"clips_base_url"`

	// RequestTimeout bounds each transcription and clip fetch round-trip.
	// Generation streams are bounded by the session context instead.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// AudioConfig holds microphone and device settings.
type AudioConfig struct {
	// SampleRate is the capture rate in Hz.
	SampleRate int `yaml:"sample_rate"`

	// FrameSize is the number of samples delivered per capture callback.
	FrameSize int `yaml:"frame_size"`

	// InputDevice selects the capture device by substring match against the
	// device name. Empty selects the system default.
	InputDevice string `yaml:"input_device"`
}

// SegmenterConfig tunes utterance boundary detection.
type SegmenterConfig struct {
	// WindowSize is the number of per-frame amplitude entries in the
	// smoothing window.
	WindowSize int `yaml:"window_size"`

	// SilenceThreshold is the smoothed mean-amplitude level below which the
	// user counts as silent.
	SilenceThreshold float64 `yaml:"silence_threshold"`

	// MinSegment is the shortest utterance worth transcribing; shorter
	// buffered audio is discarded at a boundary.
	MinSegment time.Duration `yaml:"min_segment"`

	// MaxSegment caps the utterance buffer; reaching it forces a boundary.
	MaxSegment time.Duration `yaml:"max_segment"`
}

// TurnConfig tunes the turn-taking state machine.
type TurnConfig struct {
	// SilenceDelay is how long the user must stay silent, with all segments
	// transcribed, before the bot takes its turn.
	SilenceDelay time.Duration `yaml:"silence_delay"`
}

// PlaybackConfig tunes the clip playback queue.
type PlaybackConfig struct {
	// RetryDelay is the pause between fetch attempts while a clip is still
	// being synthesised.
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// ChatConfig holds conversation presentation settings.
type ChatConfig struct {
	// Greeting overrides the bot turn shown before the user speaks.
	// Empty keeps the built-in default.
	Greeting string `yaml:"greeting"`
}
