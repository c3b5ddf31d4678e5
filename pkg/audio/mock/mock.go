// Package mock provides in-memory implementations of the audio device
// interfaces for use in tests. No audio hardware or cgo is required.
package mock

import (
	"context"
	"sync"

	"github.com/voicewire/voicewire/pkg/audio"
)

// CaptureDevice is a scriptable [audio.CaptureDevice]. Tests push frames via
// [CaptureDevice.Push]; frames pushed while the device is stopped are dropped,
// mirroring real device behaviour.
type CaptureDevice struct {
	mu      sync.Mutex
	frames  chan audio.Frame
	running bool
	closed  bool
}

var _ audio.CaptureDevice = (*CaptureDevice)(nil)

// NewCaptureDevice creates a stopped capture device with the given channel
// buffer depth.
func NewCaptureDevice(buffer int) *CaptureDevice {
	return &CaptureDevice{frames: make(chan audio.Frame, buffer)}
}

// Push delivers a frame to the device's consumers if the device is running.
// It reports whether the frame was delivered.
func (d *CaptureDevice) Push(f audio.Frame) bool {
	d.mu.Lock()
	running := d.running && !d.closed
	d.mu.Unlock()
	if !running {
		return false
	}
	d.frames <- f
	return true
}

// Frames implements [audio.CaptureDevice].
func (d *CaptureDevice) Frames() <-chan audio.Frame { return d.frames }

// Start implements [audio.CaptureDevice].
func (d *CaptureDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = true
	return nil
}

// Stop implements [audio.CaptureDevice].
func (d *CaptureDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	return nil
}

// Close implements [audio.CaptureDevice].
func (d *CaptureDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		d.running = false
		close(d.frames)
	}
	return nil
}

// Running reports whether the device is currently capturing.
func (d *CaptureDevice) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Player records every clip it is asked to play. PlayFunc, when set,
// overrides the default behaviour (instant success).
type Player struct {
	mu       sync.Mutex
	played   [][]byte
	PlayFunc func(ctx context.Context, clip []byte) error
}

var _ audio.Player = (*Player)(nil)

// Play implements [audio.Player].
func (p *Player) Play(ctx context.Context, clip []byte) error {
	p.mu.Lock()
	cp := make([]byte, len(clip))
	copy(cp, clip)
	p.played = append(p.played, cp)
	fn := p.PlayFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, clip)
	}
	return nil
}

// Played returns a snapshot of all clips played so far, in play order.
func (p *Player) Played() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.played))
	copy(out, p.played)
	return out
}
