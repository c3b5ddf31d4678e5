package config

import "fmt"

// ConfigDiff describes what changed between two loaded configs. The log
// level is the only setting the running process applies in place; every
// other change is reported under RestartRequired so the operator knows the
// reload did not take full effect.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired lists dotted field paths whose new values only take
	// effect after a restart.
	RestartRequired []string
}

// Empty reports whether the diff carries no changes at all.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	restart := func(field string, changed bool) {
		if changed {
			d.RestartRequired = append(d.RestartRequired, field)
		}
	}
	restart("server.metrics_addr", old.Server.MetricsAddr != new.Server.MetricsAddr)
	restart("services.transcribe_url", old.Services.TranscribeURL != new.Services.TranscribeURL)
	restart("services.generate_url", old.Services.GenerateURL != new.Services.GenerateURL)
	restart("services.clips_base_url", old.Services.ClipsBaseURL != new.Services.ClipsBaseURL)
	restart("services.request_timeout", old.Services.RequestTimeout != new.Services.RequestTimeout)
	restart("audio", old.Audio != new.Audio)
	restart("segmenter", old.Segmenter != new.Segmenter)
	restart("turn.silence_delay", old.Turn.SilenceDelay != new.Turn.SilenceDelay)
	restart("playback.retry_delay", old.Playback.RetryDelay != new.Playback.RetryDelay)
	restart("chat.greeting", old.Chat.Greeting != new.Chat.Greeting)

	return d
}

// Summary renders the diff for logging.
func (d ConfigDiff) Summary() string {
	if d.Empty() {
		return "no changes"
	}
	s := ""
	if d.LogLevelChanged {
		s = fmt.Sprintf("log level -> %s", d.NewLogLevel)
	}
	if len(d.RestartRequired) > 0 {
		if s != "" {
			s += "; "
		}
		s += fmt.Sprintf("restart required for %v", d.RestartRequired)
	}
	return s
}
