// Package mock provides a scriptable generator.Provider for tests.
package mock

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/voicewire/voicewire/pkg/provider/generator"
)

// Provider is a test double for [generator.Provider]. GenerateFunc, when
// set, supplies the stream; otherwise Generate returns an empty stream.
// All requests are recorded.
type Provider struct {
	mu           sync.Mutex
	requests     []generator.Request
	warmCalls    int
	GenerateFunc func(ctx context.Context, req generator.Request) (io.ReadCloser, error)
	WarmErr      error
}

var _ generator.Provider = (*Provider)(nil)

// Generate implements [generator.Provider].
func (p *Provider) Generate(ctx context.Context, req generator.Request) (io.ReadCloser, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	fn := p.GenerateFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return io.NopCloser(strings.NewReader("")), nil
}

// Warm implements [generator.Provider].
func (p *Provider) Warm(ctx context.Context) error {
	p.mu.Lock()
	p.warmCalls++
	p.mu.Unlock()
	return p.WarmErr
}

// Requests returns a snapshot of all generation requests so far.
func (p *Provider) Requests() []generator.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]generator.Request(nil), p.requests...)
}

// WarmCalls returns how many times Warm was invoked.
func (p *Provider) WarmCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.warmCalls
}
