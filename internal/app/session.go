package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voicewire/voicewire/internal/observe"
	"github.com/voicewire/voicewire/internal/response"
	"github.com/voicewire/voicewire/internal/segmenter"
	"github.com/voicewire/voicewire/pkg/audio"
	"github.com/voicewire/voicewire/pkg/provider/generator"
)

// Run executes the session: backend warm-up, then the frame loop until ctx
// is cancelled or the capture device closes its frame channel. Run tears the
// pipeline down before returning and must only be called once.
func (s *Session) Run(ctx context.Context) error {
	s.runCtx.Store(ctx)

	s.warmUp(ctx)

	if err := s.device.Start(); err != nil {
		return fmt.Errorf("app: start capture: %w", err)
	}
	defer s.device.Stop()
	defer s.queue.Close()
	defer s.ctrl.Close()

	// Keep the device's producer from backing up on the frame channel once
	// the loop below stops reading; the goroutine exits when the caller
	// closes the device.
	defer func() { go audio.Drain(s.device.Frames()) }()

	s.logger.Info("session running",
		"sample_rate", s.cfg.Audio.SampleRate,
		"silence_delay", s.cfg.Turn.SilenceDelay,
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-s.device.Frames():
			if !ok {
				s.logger.Info("capture device closed, session ending")
				return nil
			}
			s.handleFrame(ctx, f)
		}
	}
}

// warmUp issues the cheap priming calls both backends accept so their models
// are loaded before the user first speaks. Failure is not fatal; the first
// real turn is just slower, so the readiness flag stays unset.
func (s *Session) warmUp(ctx context.Context) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.providers.Transcriber.Transcribe(gctx, nil)
		return err
	})
	g.Go(func() error {
		return s.providers.Generator.Warm(gctx)
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("backend warm-up failed, continuing cold", "err", err)
		return
	}
	if s.ready != nil {
		s.ready.Set()
	}
	s.logger.Info("backend warm-up complete", "took", time.Since(start))
}

// handleFrame runs the per-frame pipeline: apply the capture gate, classify
// the frame, forward edges to the turn controller and dispatch any finished
// segment for transcription. It never blocks.
func (s *Session) handleFrame(ctx context.Context, f audio.Frame) {
	if s.capture.Load() {
		if s.seg.Stopped() {
			s.seg.Start()
		}
	} else {
		if !s.seg.Stopped() {
			s.seg.Stop()
		}
		return
	}

	res := s.seg.ProcessFrame(f.Samples)

	switch res.Edge {
	case segmenter.EdgeTalking:
		s.ctrl.TalkingEdge()
	case segmenter.EdgeSilence:
		s.ctrl.SilenceEdge()
	}

	if res.Discarded {
		s.metrics.SegmentsDiscarded.Add(ctx, 1)
	}
	if res.Segment != nil {
		s.metrics.SegmentsEmitted.Add(ctx, 1)
		s.metrics.PendingSegments.Add(ctx, 1)
		s.ctrl.SegmentFinished()
		go s.transcribe(ctx, res.Segment)
	}
}

// transcribe sends one segment to the transcription service and reports the
// text back to the turn controller. A failed call still makes progress: it
// counts as an empty transcript so the turn is never stuck waiting.
func (s *Session) transcribe(ctx context.Context, samples []float32) {
	ctx, span := observe.StartSpan(ctx, "transcribe-segment")
	defer span.End()

	start := time.Now()
	text, err := s.providers.Transcriber.Transcribe(ctx, samples)
	s.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	s.metrics.PendingSegments.Add(ctx, -1)

	if err != nil {
		s.metrics.RecordServiceError(ctx, "transcribe")
		s.logger.Warn("transcription failed, treating segment as empty", "err", err)
		s.ctrl.TranscriptFailed()
		return
	}
	s.ctrl.TranscriptReceived(text)
}

// runGeneration owns one bot turn: it requests the response stream, feeds
// text deltas into the chat log and clip handles into the playback queue,
// and reports the outcome to the turn controller.
func (s *Session) runGeneration(ctx context.Context, input string, turnIndex int) {
	ctx, span := observe.StartSpan(ctx, "generate-turn")
	defer span.End()

	logger := s.logger.With("turn", turnIndex)
	start := time.Now()

	// History excludes the greeting and the input just spoken; the input
	// rides in its own field.
	history := s.log.History()
	s.log.AppendUser(input)

	body, err := s.providers.Generator.Generate(ctx, generator.Request{
		Input:   input,
		History: history,
	})
	if err != nil {
		s.metrics.RecordServiceError(ctx, "generate")
		logger.Error("generation request failed", "err", err)
		s.ctrl.GenerationFailed()
		return
	}
	defer body.Close()

	dec := response.NewDecoder(body)
	firstAudio := false
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.metrics.RecordServiceError(ctx, "generate")
			logger.Error("generation stream broke mid-turn", "err", err)
			s.log.DiscardPartial()
			s.ctrl.GenerationFailed()
			return
		}

		switch ev.Type {
		case response.EventText:
			s.log.BotDelta(ev.Value)
		case response.EventAudioClip:
			// Stale clips from an earlier turn must not interleave with
			// this turn's audio.
			if !firstAudio {
				if dropped := s.queue.Clear(); dropped > 0 {
					s.metrics.QueuedClips.Add(ctx, int64(-dropped))
				}
				firstAudio = true
			}
			s.metrics.QueuedClips.Add(ctx, 1)
			s.queue.Enqueue(ev.Value)
		}
	}

	s.metrics.GenerationDuration.Record(ctx, time.Since(start).Seconds())
	s.log.CommitBot()
	s.ctrl.GenerationFinished()
	logger.Debug("generation stream complete", "took", time.Since(start))
}
