// Package observe provides application-wide observability primitives for
// voicewire: OpenTelemetry metrics, tracing helpers, structured logging,
// and HTTP middleware for the metrics/health endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voicewire metrics.
const meterName = "github.com/voicewire/voicewire"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscriptionDuration tracks the transcription round-trip per segment.
	TranscriptionDuration metric.Float64Histogram

	// GenerationDuration tracks a full generation stream, first byte to EOF.
	GenerationDuration metric.Float64Histogram

	// ClipFetchDuration tracks one successful clip fetch attempt.
	ClipFetchDuration metric.Float64Histogram

	// PlaybackDuration tracks how long a clip took to play out.
	PlaybackDuration metric.Float64Histogram

	// --- Counters ---

	// SegmentsEmitted counts utterance segments handed to transcription.
	SegmentsEmitted metric.Int64Counter

	// SegmentsDiscarded counts segments dropped for being under the minimum
	// length.
	SegmentsDiscarded metric.Int64Counter

	// ClipRetries counts not-ready responses from the clip service.
	ClipRetries metric.Int64Counter

	// TurnTransitions counts turn state changes. Use with attributes:
	//   attribute.String("from", ...), attribute.String("to", ...)
	TurnTransitions metric.Int64Counter

	// ServiceErrors counts failed backend calls. Use with attribute:
	//   attribute.String("service", ...)
	ServiceErrors metric.Int64Counter

	// --- Gauges ---

	// QueuedClips tracks the number of clips waiting in the playback queue.
	QueuedClips metric.Int64UpDownCounter

	// PendingSegments tracks segments sent for transcription whose text has
	// not come back yet.
	PendingSegments metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscriptionDuration, err = m.Float64Histogram("voicewire.transcription.duration",
		metric.WithDescription("Latency of one segment's transcription round-trip."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GenerationDuration, err = m.Float64Histogram("voicewire.generation.duration",
		metric.WithDescription("Duration of a full response generation stream."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ClipFetchDuration, err = m.Float64Histogram("voicewire.clip_fetch.duration",
		metric.WithDescription("Latency of one successful clip fetch attempt."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PlaybackDuration, err = m.Float64Histogram("voicewire.playback.duration",
		metric.WithDescription("Play-out duration per clip."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.SegmentsEmitted, err = m.Int64Counter("voicewire.segments.emitted",
		metric.WithDescription("Total utterance segments handed to transcription."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsDiscarded, err = m.Int64Counter("voicewire.segments.discarded",
		metric.WithDescription("Total segments dropped for being under the minimum length."),
	); err != nil {
		return nil, err
	}
	if met.ClipRetries, err = m.Int64Counter("voicewire.clip.retries",
		metric.WithDescription("Total not-ready responses from the clip service."),
	); err != nil {
		return nil, err
	}
	if met.TurnTransitions, err = m.Int64Counter("voicewire.turn.transitions",
		metric.WithDescription("Total turn state transitions by source and target state."),
	); err != nil {
		return nil, err
	}
	if met.ServiceErrors, err = m.Int64Counter("voicewire.service.errors",
		metric.WithDescription("Total failed backend service calls by service."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.QueuedClips, err = m.Int64UpDownCounter("voicewire.queued_clips",
		metric.WithDescription("Number of clips waiting in the playback queue."),
	); err != nil {
		return nil, err
	}
	if met.PendingSegments, err = m.Int64UpDownCounter("voicewire.pending_segments",
		metric.WithDescription("Segments awaiting transcription results."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voicewire.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTurnTransition records one turn state change.
func (m *Metrics) RecordTurnTransition(ctx context.Context, from, to string) {
	m.TurnTransitions.Add(ctx, 1,
		metric.WithAttributes(Attr("from", from), Attr("to", to)),
	)
}

// RecordServiceError records a failed backend call for the named service
// ("transcribe", "generate", "clips").
func (m *Metrics) RecordServiceError(ctx context.Context, service string) {
	m.ServiceErrors.Add(ctx, 1,
		metric.WithAttributes(Attr("service", service)),
	)
}
