// Package app wires all voicewire subsystems into a running voice session.
//
// The Session struct owns the full pipeline: microphone frames feed the
// segmenter, finished segments go out for transcription, the turn controller
// decides when the bot speaks, the generation stream is decoded into chat
// text and playback clips. New creates and connects the subsystems, Run
// executes the frame loop until the context is cancelled.
//
// For testing, inject mock implementations via the [Providers] struct and
// the audio device interfaces; no real hardware or backend is needed.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/voicewire/voicewire/internal/chat"
	"github.com/voicewire/voicewire/internal/config"
	"github.com/voicewire/voicewire/internal/health"
	"github.com/voicewire/voicewire/internal/observe"
	"github.com/voicewire/voicewire/internal/playback"
	"github.com/voicewire/voicewire/internal/segmenter"
	"github.com/voicewire/voicewire/internal/turn"
	"github.com/voicewire/voicewire/pkg/audio"
	"github.com/voicewire/voicewire/pkg/provider/clips"
	"github.com/voicewire/voicewire/pkg/provider/generator"
	"github.com/voicewire/voicewire/pkg/provider/transcriber"
)

// Providers holds one interface value per backend service the session
// consumes. All three are required.
type Providers struct {
	Transcriber transcriber.Provider
	Generator   generator.Provider
	Clips       clips.Fetcher
}

// Presenter is the view layer's window into the session. Callbacks arrive
// from internal goroutines and must not block; a presenter that renders
// slowly should buffer internally.
type Presenter interface {
	// BotDelta delivers one streamed text fragment of the in-progress bot
	// turn.
	BotDelta(delta string)

	// TurnCommitted delivers each finished conversation turn, the seeded
	// greeting excluded.
	TurnCommitted(t chat.Turn)

	// TurnStateChanged reports every turn-taking state transition.
	TurnStateChanged(s turn.State)

	// PlaybackStateChanged reports the playback queue's state for a
	// speaking indicator.
	PlaybackStateChanged(s playback.State)
}

type nopPresenter struct{}

func (nopPresenter) BotDelta(string)                     {}
func (nopPresenter) TurnCommitted(chat.Turn)             {}
func (nopPresenter) TurnStateChanged(turn.State)         {}
func (nopPresenter) PlaybackStateChanged(playback.State) {}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*Session)

// WithPresenter attaches the view layer. Without it session output is only
// logged.
func WithPresenter(p Presenter) Option {
	return func(s *Session) { s.presenter = p }
}

// WithMetrics injects a metrics instance instead of the process-wide default.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithReadyFlag attaches the readiness latch flipped after backend warm-up.
func WithReadyFlag(f *health.ReadyFlag) Option {
	return func(s *Session) { s.ready = f }
}

// Session owns one live conversation: the audio pipeline, the turn machine
// and all backend traffic.
type Session struct {
	id        string
	cfg       *config.Config
	providers Providers
	device    audio.CaptureDevice
	presenter Presenter
	metrics   *observe.Metrics
	ready     *health.ReadyFlag
	logger    *slog.Logger

	seg   *segmenter.Segmenter
	ctrl  *turn.Controller
	queue *playback.Queue
	log   *chat.Log

	// capture gates the segmenter; flipped by turn transitions, applied on
	// the frame goroutine.
	capture atomic.Bool

	// runCtx holds the context passed to Run, consumed by hook-spawned
	// goroutines.
	runCtx atomic.Value
}

// New creates a Session by wiring the pipeline together. The device delivers
// microphone frames; the player receives fetched bot clips.
func New(cfg *config.Config, providers Providers, device audio.CaptureDevice, player audio.Player, opts ...Option) (*Session, error) {
	if providers.Transcriber == nil || providers.Generator == nil || providers.Clips == nil {
		return nil, errors.New("app: all three providers are required")
	}

	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		providers: providers,
		device:    device,
		presenter: nopPresenter{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	s.logger = slog.Default().With("session_id", s.id)
	s.capture.Store(true)

	// ── Segmenter ────────────────────────────────────────────────────────
	seg, err := segmenter.New(segmenter.Config{
		SampleRate:       cfg.Audio.SampleRate,
		WindowSize:       cfg.Segmenter.WindowSize,
		SilenceThreshold: cfg.Segmenter.SilenceThreshold,
		MinSegment:       cfg.Segmenter.MinSegment,
		MaxSegment:       cfg.Segmenter.MaxSegment,
	})
	if err != nil {
		return nil, fmt.Errorf("app: build segmenter: %w", err)
	}
	s.seg = seg

	// ── Chat log ─────────────────────────────────────────────────────────
	chatOpts := []chat.Option{chat.WithListener(s.presenter)}
	if cfg.Chat.Greeting != "" {
		chatOpts = append(chatOpts, chat.WithGreeting(cfg.Chat.Greeting))
	}
	s.log = chat.New(chatOpts...)

	// ── Playback queue ───────────────────────────────────────────────────
	s.queue = playback.New(
		&meteredFetcher{inner: providers.Clips, metrics: s.metrics},
		&meteredPlayer{inner: player, metrics: s.metrics},
		playback.WithRetryDelay(cfg.Playback.RetryDelay),
		playback.WithOnStateChange(s.presenter.PlaybackStateChanged),
	)

	// ── Turn controller ──────────────────────────────────────────────────
	s.ctrl = turn.NewController(turn.Hooks{
		OnGenerate:    s.onGenerate,
		OnStateChange: s.onStateChange,
	}, turn.WithSilenceDelay(cfg.Turn.SilenceDelay))

	return s, nil
}

// Chat returns the session's conversation log.
func (s *Session) Chat() *chat.Log { return s.log }

func (s *Session) onStateChange(from, to turn.State, _ turn.Context) {
	s.metrics.RecordTurnTransition(context.Background(), from.String(), to.String())

	// Capture pauses while the bot holds the floor and resumes when it is
	// done. The flag is applied by the frame goroutine, which owns the
	// segmenter.
	switch to {
	case turn.BotGenerating:
		s.capture.Store(false)
	case turn.BotDone:
		s.capture.Store(true)
	}

	s.presenter.TurnStateChanged(to)
}

func (s *Session) onGenerate(input string, turnIndex int) {
	ctx := context.Background()
	if v := s.runCtx.Load(); v != nil {
		ctx = v.(context.Context)
	}
	go s.runGeneration(ctx, input, turnIndex)
}
