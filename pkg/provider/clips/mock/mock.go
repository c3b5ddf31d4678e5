// Package mock provides an in-memory [clips.Fetcher] for tests.
package mock

import (
	"context"
	"sync"

	"github.com/voicewire/voicewire/pkg/provider/clips"
)

// Fetcher serves clips from an in-memory map. Handles absent from the
// map report [clips.ErrNotReady] until added, which mirrors a backend
// that is still synthesising audio.
type Fetcher struct {
	mu        sync.Mutex
	ready     map[string][]byte
	cancelled []string

	// FetchFunc, when set, overrides the map lookup entirely.
	FetchFunc func(ctx context.Context, handle string) ([]byte, error)
}

var _ clips.Fetcher = (*Fetcher)(nil)

func New() *Fetcher {
	return &Fetcher{ready: make(map[string][]byte)}
}

// SetReady marks handle as available with the given payload.
func (f *Fetcher) SetReady(handle string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready[handle] = data
}

func (f *Fetcher) Fetch(ctx context.Context, handle string) ([]byte, error) {
	if f.FetchFunc != nil {
		return f.FetchFunc(ctx, handle)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.ready[handle]
	if !ok {
		return nil, clips.ErrNotReady
	}
	return data, nil
}

func (f *Fetcher) Cancel(ctx context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, handle)
	return nil
}

// Cancelled returns the handles passed to Cancel so far.
func (f *Fetcher) Cancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cancelled))
	copy(out, f.cancelled)
	return out
}
