// Package playback serialises bot audio output. Clip handles arrive from the
// response stream in generation order; the [Queue] fetches each clip from the
// clip service, retrying while the clip is still being synthesised, and plays
// at most one clip at a time in strict enqueue order.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/voicewire/voicewire/pkg/audio"
	"github.com/voicewire/voicewire/pkg/provider/clips"
)

// State describes what the queue is doing with bot audio right now.
type State int

const (
	// Idle means no clip is queued, fetching or playing.
	Idle State = iota
	// Fetching means the head clip is being retrieved from the clip service.
	Fetching
	// Playing means a clip is being written to the output device.
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

const (
	defaultRetryDelay    = 250 * time.Millisecond
	defaultCancelTimeout = 5 * time.Second
)

type entry struct {
	handle string
	order  uint64
}

// Option configures a [Queue].
type Option func(*Queue)

// WithRetryDelay sets the pause between fetch attempts while a clip reports
// not-ready. The default is 250ms.
func WithRetryDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.retryDelay = d
		}
	}
}

// WithOnStateChange registers an observer called on every [State] transition.
// It runs on the queue's worker goroutine and must not block or call back
// into the queue.
func WithOnStateChange(fn func(State)) Option {
	return func(q *Queue) { q.onState = fn }
}

// Queue plays audio clips in the order they were enqueued. A single worker
// goroutine owns the fetch and play lifecycle, so clip N+1 never starts
// before clip N has finished playing.
type Queue struct {
	fetcher    clips.Fetcher
	player     audio.Player
	retryDelay time.Duration
	onState    func(State)

	mu        sync.Mutex
	pending   []entry
	state     State
	nextOrder uint64

	ctx       context.Context
	cancel    context.CancelFunc
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New builds a queue and starts its worker. Close must be called to release
// the worker goroutine.
func New(fetcher clips.Fetcher, player audio.Player, opts ...Option) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		fetcher:    fetcher,
		player:     player,
		retryDelay: defaultRetryDelay,
		ctx:        ctx,
		cancel:     cancel,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	go q.run()
	return q
}

// Enqueue appends a clip handle to the tail of the queue. If the queue is
// idle the worker begins fetching it immediately.
func (q *Queue) Enqueue(handle string) {
	q.mu.Lock()
	q.pending = append(q.pending, entry{handle: handle, order: q.nextOrder})
	q.nextOrder++
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Clear discards every queued clip that has not started fetching and issues
// a best-effort cancellation to the clip service for each. A clip already
// being fetched or played finishes naturally. It returns the number of
// entries dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	dropped := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, e := range dropped {
		go func(handle string) {
			ctx, cancel := context.WithTimeout(context.Background(), defaultCancelTimeout)
			defer cancel()
			if err := q.fetcher.Cancel(ctx, handle); err != nil {
				slog.Debug("playback: clip cancellation failed", "handle", handle, "error", err)
			}
		}(e.handle)
	}
	if len(dropped) > 0 {
		slog.Debug("playback: cleared queue", "dropped", len(dropped))
	}
	return len(dropped)
}

// State reports the queue's current playback state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Len reports the number of clips waiting behind the in-flight one.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops the worker. A clip mid-playback is interrupted. Close is
// idempotent and safe to call concurrently with the other methods.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.cancel()
		<-q.done
	})
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 {
			q.setStateLocked(Idle)
			q.mu.Unlock()
			select {
			case <-q.ctx.Done():
				return
			case <-q.wake:
			}
			q.mu.Lock()
		}
		head := q.pending[0]
		q.pending = q.pending[1:]
		q.setStateLocked(Fetching)
		q.mu.Unlock()

		data, err := q.fetchWithRetry(head.handle)
		if err != nil {
			if q.ctx.Err() != nil {
				return
			}
			// One bad clip must not stall the queue.
			slog.Warn("playback: dropping clip", "handle", head.handle, "order", head.order, "error", err)
			continue
		}

		q.setState(Playing)
		if err := q.player.Play(q.ctx, data); err != nil {
			if q.ctx.Err() != nil {
				return
			}
			slog.Warn("playback: clip playback failed", "handle", head.handle, "error", err)
		}
	}
}

// fetchWithRetry blocks until the clip is ready, the fetch fails fatally or
// the queue is closed. Not-ready responses are retried after retryDelay.
func (q *Queue) fetchWithRetry(handle string) ([]byte, error) {
	for {
		data, err := q.fetcher.Fetch(q.ctx, handle)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, clips.ErrNotReady) {
			return nil, err
		}
		select {
		case <-q.ctx.Done():
			return nil, q.ctx.Err()
		case <-time.After(q.retryDelay):
		}
	}
}

func (q *Queue) setState(s State) {
	q.mu.Lock()
	q.setStateLocked(s)
	q.mu.Unlock()
}

// setStateLocked fires the observer while holding mu; observers are required
// to be non-blocking and must not call back into the queue.
func (q *Queue) setStateLocked(s State) {
	if q.state == s {
		return
	}
	q.state = s
	if q.onState != nil {
		q.onState(s)
	}
}
