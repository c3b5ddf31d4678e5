// Package mock provides a scriptable transcriber.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/voicewire/voicewire/pkg/provider/transcriber"
)

// Provider is a test double for [transcriber.Provider]. TranscribeFunc, when
// set, supplies the result; otherwise every call returns an empty
// transcript. All calls are recorded.
type Provider struct {
	mu             sync.Mutex
	calls          [][]float32
	TranscribeFunc func(ctx context.Context, samples []float32) (string, error)
}

var _ transcriber.Provider = (*Provider)(nil)

// Transcribe implements [transcriber.Provider].
func (p *Provider) Transcribe(ctx context.Context, samples []float32) (string, error) {
	p.mu.Lock()
	cp := make([]float32, len(samples))
	copy(cp, samples)
	p.calls = append(p.calls, cp)
	fn := p.TranscribeFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, samples)
	}
	return "", nil
}

// Calls returns a snapshot of all segments transcribed so far.
func (p *Provider) Calls() [][]float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]float32, len(p.calls))
	copy(out, p.calls)
	return out
}
