package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults returns a Config with every tunable set to its built-in value.
// Loading merges file values over these.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			MetricsAddr: ":9091",
			LogLevel:    LogInfo,
		},
		Services: ServicesConfig{
			RequestTimeout: 60 * time.Second,
		},
		Audio: AudioConfig{
			SampleRate: 48000,
			FrameSize:  2048,
		},
		Segmenter: SegmenterConfig{
			WindowSize:       180,
			SilenceThreshold: 0.02,
			MinSegment:       time.Second,
			MaxSegment:       10 * time.Second,
		},
		Turn: TurnConfig{
			SilenceDelay: 3 * time.Second,
		},
		Playback: PlaybackConfig{
			RetryDelay: 250 * time.Millisecond,
		},
	}
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over [Defaults] and validates
// the result. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Services
	if cfg.Services.TranscribeURL == "" {
		errs = append(errs, errors.New("services.transcribe_url is required"))
	} else {
		errs = appendURLError(errs, "services.transcribe_url", cfg.Services.TranscribeURL)
	}
	if cfg.Services.GenerateURL == "" {
		errs = append(errs, errors.New("services.generate_url is required"))
	} else {
		errs = appendURLError(errs, "services.generate_url", cfg.Services.GenerateURL)
	}
	if cfg.Services.ClipsBaseURL == "" {
		errs = append(errs, errors.New("services.clips_base_url is required"))
	} else {
		errs = appendURLError(errs, "services.clips_base_url", cfg.Services.ClipsBaseURL)
	}
	if cfg.Services.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("services.request_timeout %v must not be negative", cfg.Services.RequestTimeout))
	}

	// Audio
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FrameSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.frame_size %d must be positive", cfg.Audio.FrameSize))
	}

	// Segmenter
	if cfg.Segmenter.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("segmenter.window_size %d must be positive", cfg.Segmenter.WindowSize))
	}
	if cfg.Segmenter.SilenceThreshold < 0 {
		errs = append(errs, fmt.Errorf("segmenter.silence_threshold %v must not be negative", cfg.Segmenter.SilenceThreshold))
	}
	if cfg.Segmenter.MinSegment < 0 || cfg.Segmenter.MaxSegment <= 0 {
		errs = append(errs, errors.New("segmenter.min_segment must not be negative and segmenter.max_segment must be positive"))
	} else if cfg.Segmenter.MinSegment >= cfg.Segmenter.MaxSegment {
		errs = append(errs, fmt.Errorf("segmenter.min_segment %v must be below segmenter.max_segment %v", cfg.Segmenter.MinSegment, cfg.Segmenter.MaxSegment))
	}

	// Turn / playback
	if cfg.Turn.SilenceDelay <= 0 {
		errs = append(errs, fmt.Errorf("turn.silence_delay %v must be positive", cfg.Turn.SilenceDelay))
	} else if cfg.Turn.SilenceDelay < 500*time.Millisecond {
		slog.Warn("turn.silence_delay is very short; the bot may interrupt mid-sentence",
			"silence_delay", cfg.Turn.SilenceDelay)
	}
	if cfg.Playback.RetryDelay <= 0 {
		errs = append(errs, fmt.Errorf("playback.retry_delay %v must be positive", cfg.Playback.RetryDelay))
	}

	return errors.Join(errs...)
}

func appendURLError(errs []error, field, raw string) []error {
	u, err := url.Parse(raw)
	if err != nil {
		return append(errs, fmt.Errorf("%s %q is not a valid URL: %w", field, raw, err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return append(errs, fmt.Errorf("%s %q must use http or https", field, raw))
	}
	return errs
}
