package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	audiomock "github.com/voicewire/voicewire/pkg/audio/mock"
	"github.com/voicewire/voicewire/pkg/provider/clips"
	clipsmock "github.com/voicewire/voicewire/pkg/provider/clips/mock"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestQueue_FIFOAcrossRetry(t *testing.T) {
	fetcher := clipsmock.New()
	fetcher.SetReady("b", []byte("clip-b"))

	// "a" reports not-ready on its first fetch, then becomes available.
	var aFetches atomic.Int32
	fetcher.FetchFunc = func(ctx context.Context, handle string) ([]byte, error) {
		if handle == "a" && aFetches.Add(1) == 1 {
			return nil, clips.ErrNotReady
		}
		if handle == "a" {
			return []byte("clip-a"), nil
		}
		return []byte("clip-b"), nil
	}

	player := &audiomock.Player{}
	q := New(fetcher, player, WithRetryDelay(time.Millisecond))
	defer q.Close()

	q.Enqueue("a")
	q.Enqueue("b")

	waitFor(t, time.Second, func() bool { return len(player.Played()) == 2 })

	played := player.Played()
	if string(played[0]) != "clip-a" || string(played[1]) != "clip-b" {
		t.Fatalf("played order = %q, %q", played[0], played[1])
	}
}

func TestQueue_ClearCancelsQueuedEntries(t *testing.T) {
	fetcher := clipsmock.New()
	release := make(chan struct{})
	fetcher.FetchFunc = func(ctx context.Context, handle string) ([]byte, error) {
		if handle == "busy" {
			select {
			case <-release:
				return []byte("busy-clip"), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return []byte(handle), nil
	}

	player := &audiomock.Player{}
	q := New(fetcher, player)
	defer q.Close()

	// Hold the worker on a blocking fetch so a and b stay queued.
	q.Enqueue("busy")
	waitFor(t, time.Second, func() bool { return q.State() == Fetching })
	q.Enqueue("a")
	q.Enqueue("b")

	q.Clear()
	waitFor(t, time.Second, func() bool { return len(fetcher.Cancelled()) == 2 })

	close(release)
	waitFor(t, time.Second, func() bool { return q.State() == Idle })

	played := player.Played()
	if len(played) != 1 || string(played[0]) != "busy-clip" {
		t.Fatalf("played = %d clips, want only the in-flight one", len(played))
	}
	got := fetcher.Cancelled()
	cancelled := map[string]bool{got[0]: true, got[1]: true}
	if !cancelled["a"] || !cancelled["b"] {
		t.Errorf("cancelled = %v, want a and b", got)
	}
}

func TestQueue_FatalFetchAdvances(t *testing.T) {
	fetcher := clipsmock.New()
	fetcher.FetchFunc = func(ctx context.Context, handle string) ([]byte, error) {
		if handle == "broken" {
			return nil, errors.New("clip service exploded")
		}
		return []byte(handle), nil
	}

	player := &audiomock.Player{}
	q := New(fetcher, player)
	defer q.Close()

	q.Enqueue("broken")
	q.Enqueue("next")

	waitFor(t, time.Second, func() bool { return len(player.Played()) == 1 })
	if got := string(player.Played()[0]); got != "next" {
		t.Fatalf("played %q, want the clip after the broken one", got)
	}
}

func TestQueue_StateTransitions(t *testing.T) {
	fetcher := clipsmock.New()
	fetcher.SetReady("a", []byte("clip-a"))

	var mu sync.Mutex
	var seen []State
	player := &audiomock.Player{}
	q := New(fetcher, player, WithOnStateChange(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}))
	defer q.Close()

	q.Enqueue("a")
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 3
	})

	mu.Lock()
	defer mu.Unlock()
	want := []State{Fetching, Playing, Idle}
	for i, s := range want {
		if seen[i] != s {
			t.Fatalf("transition %d = %v, want %v (all: %v)", i, seen[i], s, seen)
		}
	}
}

func TestQueue_CloseIdempotent(t *testing.T) {
	q := New(clipsmock.New(), &audiomock.Player{})
	q.Close()
	q.Close()
	// Enqueue after close must not panic; the clip is simply never played.
	q.Enqueue("late")
}
