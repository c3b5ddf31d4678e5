package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/voicewire/voicewire/internal/config"
)

const validYAML = `
server:
  metrics_addr: ":9091"
  log_level: info
services:
  transcribe_url: "http://localhost:8000/transcribe"
  generate_url: "http://localhost:8000/generate"
  clips_base_url: "http://localhost:8000/audio"
`

func TestLoadFromReader_AppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("audio.sample_rate = %d, want default 48000", cfg.Audio.SampleRate)
	}
	if cfg.Segmenter.WindowSize != 180 {
		t.Errorf("segmenter.window_size = %d, want default 180", cfg.Segmenter.WindowSize)
	}
	if cfg.Turn.SilenceDelay != 3*time.Second {
		t.Errorf("turn.silence_delay = %v, want default 3s", cfg.Turn.SilenceDelay)
	}
	if cfg.Playback.RetryDelay != 250*time.Millisecond {
		t.Errorf("playback.retry_delay = %v, want default 250ms", cfg.Playback.RetryDelay)
	}
}

func TestLoadFromReader_OverridesDefaults(t *testing.T) {
	t.Parallel()
	yaml := validYAML + `
segmenter:
  window_size: 90
  silence_threshold: 0.05
turn:
  silence_delay: 2s
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Segmenter.WindowSize != 90 {
		t.Errorf("segmenter.window_size = %d, want 90", cfg.Segmenter.WindowSize)
	}
	if cfg.Segmenter.SilenceThreshold != 0.05 {
		t.Errorf("segmenter.silence_threshold = %v, want 0.05", cfg.Segmenter.SilenceThreshold)
	}
	if cfg.Turn.SilenceDelay != 2*time.Second {
		t.Errorf("turn.silence_delay = %v, want 2s", cfg.Turn.SilenceDelay)
	}
	// A partial override must not clobber unrelated defaults.
	if cfg.Segmenter.MinSegment != time.Second {
		t.Errorf("segmenter.min_segment = %v, want default 1s", cfg.Segmenter.MinSegment)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := validYAML + `
segmneter:
  window_size: 90
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for misspelled section, got nil")
	}
}

func TestValidate_MissingServiceURLs(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("server:\n  log_level: info\n"))
	if err == nil {
		t.Fatal("expected error for missing service URLs, got nil")
	}
	for _, field := range []string{"transcribe_url", "generate_url", "clips_base_url"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %s, got: %v", field, err)
		}
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	t.Parallel()
	yaml := strings.Replace(validYAML, "log_level: info", "log_level: loud", 1)
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Fatalf("expected log_level error, got: %v", err)
	}
}

func TestValidate_NonHTTPServiceURL(t *testing.T) {
	t.Parallel()
	yaml := strings.Replace(validYAML,
		`transcribe_url: "http://localhost:8000/transcribe"`,
		`transcribe_url: "ftp://localhost/transcribe"`, 1)
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "http or https") {
		t.Fatalf("expected URL scheme error, got: %v", err)
	}
}

func TestValidate_SegmentBoundsOrdered(t *testing.T) {
	t.Parallel()
	yaml := validYAML + `
segmenter:
  min_segment: 10s
  max_segment: 1s
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "min_segment") {
		t.Fatalf("expected min/max ordering error, got: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
audio:
  sample_rate: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	for _, want := range []string{"log_level", "sample_rate", "transcribe_url"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error should mention %s, got: %v", want, err)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	if _, err := config.Load("/nonexistent/voicewire.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
