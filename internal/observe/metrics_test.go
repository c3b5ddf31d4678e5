package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"voicewire.transcription.duration", m.TranscriptionDuration},
		{"voicewire.generation.duration", m.GenerationDuration},
		{"voicewire.clip_fetch.duration", m.ClipFetchDuration},
		{"voicewire.playback.duration", m.PlaybackDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 0.123)
		tc.h.Record(ctx, 0.456)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", tc.name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := hist.DataPoints[0].Count; got != 2 {
				t.Errorf("sample count = %d, want 2", got)
			}
		})
	}
}

func TestTurnTransitionCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTurnTransition(ctx, "bot_done", "waiting_for_transcript")
	m.RecordTurnTransition(ctx, "bot_done", "waiting_for_transcript")
	m.RecordTurnTransition(ctx, "user_silent", "bot_generating")

	rm := collect(t, reader)
	met := findMetric(rm, "voicewire.turn.transitions")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not an int64 sum")
	}
	if len(sum.DataPoints) != 2 {
		t.Fatalf("data points = %d, want 2 attribute sets", len(sum.DataPoints))
	}

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
		from, _ := dp.Attributes.Value(attribute.Key("from"))
		if from.AsString() == "bot_done" && dp.Value != 2 {
			t.Errorf("bot_done transitions = %d, want 2", dp.Value)
		}
	}
	if total != 3 {
		t.Errorf("total transitions = %d, want 3", total)
	}
}

func TestServiceErrorCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordServiceError(ctx, "transcribe")
	m.RecordServiceError(ctx, "clips")
	m.RecordServiceError(ctx, "clips")

	rm := collect(t, reader)
	met := findMetric(rm, "voicewire.service.errors")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum := met.Data.(metricdata.Sum[int64])
	for _, dp := range sum.DataPoints {
		svc, _ := dp.Attributes.Value(attribute.Key("service"))
		switch svc.AsString() {
		case "transcribe":
			if dp.Value != 1 {
				t.Errorf("transcribe errors = %d, want 1", dp.Value)
			}
		case "clips":
			if dp.Value != 2 {
				t.Errorf("clips errors = %d, want 2", dp.Value)
			}
		}
	}
}

func TestGaugeUpDown(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.QueuedClips.Add(ctx, 3)
	m.QueuedClips.Add(ctx, -1)
	m.PendingSegments.Add(ctx, 2)
	m.PendingSegments.Add(ctx, -2)

	rm := collect(t, reader)

	queued := findMetric(rm, "voicewire.queued_clips")
	if queued == nil {
		t.Fatal("queued_clips not found")
	}
	if got := queued.Data.(metricdata.Sum[int64]).DataPoints[0].Value; got != 2 {
		t.Errorf("queued_clips = %d, want 2", got)
	}

	pending := findMetric(rm, "voicewire.pending_segments")
	if pending == nil {
		t.Fatal("pending_segments not found")
	}
	if got := pending.Data.(metricdata.Sum[int64]).DataPoints[0].Value; got != 0 {
		t.Errorf("pending_segments = %d, want 0", got)
	}
}

func TestDefaultMetricsSingleton(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics should return the same instance")
	}
}
