package segmenter

import (
	"testing"
	"time"
)

// testConfig keeps segment sizes small so tests stay readable: 100 Hz
// sample rate, 4-frame smoothing window, 30-sample (300 ms) minimum and
// 50-sample (500 ms) maximum segments. The minimum exceeds the smoothing
// decay (4 frames) so short blips are actually discarded.
func testConfig() Config {
	return Config{
		SampleRate:       100,
		WindowSize:       4,
		SilenceThreshold: 0.02,
		MinSegment:       300 * time.Millisecond,
		MaxSegment:       500 * time.Millisecond,
	}
}

func mustNew(t *testing.T, cfg Config) *Segmenter {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func loudFrame(n int) []float32 {
	f := make([]float32, n)
	for i := range f {
		f[i] = 0.5
	}
	return f
}

func quietFrame(n int) []float32 {
	return make([]float32, n)
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"min above max", Config{MinSegment: 2 * time.Second, MaxSegment: time.Second}},
		{"negative threshold", Config{SilenceThreshold: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestProcessFrame_EdgeTriggered(t *testing.T) {
	s := mustNew(t, testConfig())

	edges := 0
	for i := 0; i < 10; i++ {
		res := s.ProcessFrame(loudFrame(5))
		if res.Edge == EdgeTalking {
			edges++
		} else if res.Edge == EdgeSilence {
			t.Fatalf("frame %d: unexpected silence edge", i)
		}
	}
	if edges != 1 {
		t.Fatalf("got %d talking edges for 10 loud frames, want exactly 1", edges)
	}

	// Silence must also fire exactly once when the window average decays.
	edges = 0
	for i := 0; i < 20; i++ {
		if res := s.ProcessFrame(quietFrame(5)); res.Edge == EdgeSilence {
			edges++
		}
	}
	if edges != 1 {
		t.Fatalf("got %d silence edges, want exactly 1", edges)
	}
}

func TestProcessFrame_MinimumDurationFloor(t *testing.T) {
	s := mustNew(t, testConfig())

	// A two-frame blip: by the time the smoothed average decays below the
	// threshold (4 quiet frames), exactly 30 samples have accumulated —
	// the floor itself, not above it — so nothing may be emitted.
	s.ProcessFrame(loudFrame(5))
	s.ProcessFrame(loudFrame(5))
	discards := 0
	for i := 0; i < 20; i++ {
		res := s.ProcessFrame(quietFrame(5))
		if res.Segment != nil {
			t.Fatalf("emitted %d-sample segment at or below the duration floor", len(res.Segment))
		}
		if res.Discarded {
			discards++
		}
	}
	// The drop is reported once, at the end of the talking stretch, not on
	// every silent frame after it.
	if discards != 1 {
		t.Fatalf("got %d discard reports, want exactly 1", discards)
	}
}

func TestProcessFrame_EmitsSegmentOnSilence(t *testing.T) {
	s := mustNew(t, testConfig())

	fed := 0
	for i := 0; i < 8; i++ {
		s.ProcessFrame(loudFrame(5))
		fed += 5
	}

	// The smoothed average needs a few quiet frames to decay below the
	// threshold; the boundary must then emit everything accumulated.
	var segment []float32
	for i := 0; i < 20 && segment == nil; i++ {
		res := s.ProcessFrame(quietFrame(5))
		fed += 5
		segment = res.Segment
	}
	if segment == nil {
		t.Fatal("no segment emitted after sustained silence")
	}
	if len(segment) <= 30 || len(segment) > fed {
		t.Fatalf("segment has %d samples, fed %d", len(segment), fed)
	}
}

func TestProcessFrame_CapacitySplitNoSampleLoss(t *testing.T) {
	// 50-sample capacity: six 7-sample frames fill to 42, leaving room for 8.
	// The following 10-sample frame fits only partially — it must be split
	// across the forced boundary with the overflow carried into the fresh
	// buffer, losing nothing.
	s := mustNew(t, testConfig())

	total := 0
	for i := 0; i < 6; i++ {
		if res := s.ProcessFrame(loudFrame(7)); res.Segment != nil {
			t.Fatal("premature boundary while filling")
		}
		total += 7
	}

	res := s.ProcessFrame(loudFrame(10))
	total += 10
	if res.Segment == nil {
		t.Fatal("capacity boundary did not fire")
	}
	if len(res.Segment) != 50 {
		t.Fatalf("emitted %d samples, want full 50-sample buffer", len(res.Segment))
	}
	if len(res.Segment)+s.writeIdx != total {
		t.Fatalf("sample loss across capacity boundary: emitted %d + retained %d != fed %d",
			len(res.Segment), s.writeIdx, total)
	}
}

func TestProcessFrame_ZeroLengthNoOp(t *testing.T) {
	s := mustNew(t, testConfig())
	res := s.ProcessFrame(nil)
	if res.Edge != EdgeNone || res.Segment != nil {
		t.Fatalf("zero-length frame produced %+v", res)
	}
}

func TestStopStart_ResetsWithoutSpuriousSegment(t *testing.T) {
	s := mustNew(t, testConfig())

	for i := 0; i < 8; i++ {
		s.ProcessFrame(loudFrame(5))
	}

	s.Stop()
	if res := s.ProcessFrame(loudFrame(5)); res.Edge != EdgeNone || res.Segment != nil {
		t.Fatalf("stopped segmenter processed a frame: %+v", res)
	}

	s.Start()
	if s.writeIdx != 0 {
		t.Fatalf("write offset %d after Start, want 0", s.writeIdx)
	}

	// The pre-stop audio must not surface as a segment after restart.
	for i := 0; i < 20; i++ {
		if res := s.ProcessFrame(quietFrame(5)); res.Segment != nil {
			t.Fatal("stale pre-stop audio emitted after restart")
		}
	}
}

func TestAmplitudeWindow_BoundedSum(t *testing.T) {
	w := newAmplitudeWindow(3)
	w.push(1)
	w.push(2)
	w.push(3)
	// Window full: pushing 4 evicts the 1.
	avg := w.push(4)
	if want := (2.0 + 3.0 + 4.0) / 3.0; avg != want {
		t.Fatalf("avg = %v, want %v", avg, want)
	}
	if w.count != 3 {
		t.Fatalf("count = %d, want 3", w.count)
	}
}
