package app

import (
	"context"
	"errors"
	"time"

	"github.com/voicewire/voicewire/internal/observe"
	"github.com/voicewire/voicewire/pkg/audio"
	"github.com/voicewire/voicewire/pkg/provider/clips"
)

// meteredFetcher wraps the clip fetcher with pipeline metrics: retry counts,
// per-attempt fetch latency and backend errors.
type meteredFetcher struct {
	inner   clips.Fetcher
	metrics *observe.Metrics
}

var _ clips.Fetcher = (*meteredFetcher)(nil)

func (f *meteredFetcher) Fetch(ctx context.Context, handle string) ([]byte, error) {
	ctx, span := observe.StartSpan(ctx, "fetch-clip")
	defer span.End()

	start := time.Now()
	data, err := f.inner.Fetch(ctx, handle)
	switch {
	case err == nil:
		f.metrics.ClipFetchDuration.Record(ctx, time.Since(start).Seconds())
	case errors.Is(err, clips.ErrNotReady):
		f.metrics.ClipRetries.Add(ctx, 1)
	default:
		f.metrics.RecordServiceError(ctx, "clips")
		// The queue drops the clip on a fatal error; it never reaches Play.
		f.metrics.QueuedClips.Add(ctx, -1)
	}
	return data, err
}

func (f *meteredFetcher) Cancel(ctx context.Context, handle string) error {
	return f.inner.Cancel(ctx, handle)
}

// meteredPlayer wraps the audio player with play-out timing and keeps the
// queued-clips gauge honest: the session increments it on enqueue, the
// player decrements it when a clip starts playing.
type meteredPlayer struct {
	inner   audio.Player
	metrics *observe.Metrics
}

var _ audio.Player = (*meteredPlayer)(nil)

func (p *meteredPlayer) Play(ctx context.Context, clip []byte) error {
	p.metrics.QueuedClips.Add(ctx, -1)
	start := time.Now()
	err := p.inner.Play(ctx, clip)
	p.metrics.PlaybackDuration.Record(ctx, time.Since(start).Seconds())
	return err
}
