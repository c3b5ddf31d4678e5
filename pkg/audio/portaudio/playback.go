package portaudio

import (
	"context"
	"fmt"
	"sync"

	pa "github.com/gordonklaus/portaudio"

	"github.com/voicewire/voicewire/pkg/audio"
)

// playbackChunk is the number of frames written to the output stream per
// call. Small enough that ctx cancellation is noticed quickly, large enough
// to avoid underruns.
const playbackChunk = 2048

// Player is an [audio.Player] that decodes WAV clips and plays them through
// a PortAudio output stream. Each Play call opens a stream matching the
// clip's sample rate and channel count, so clips of differing formats can be
// played back to back.
//
// Play serialises internally: a second concurrent call blocks until the
// first finishes. The playback queue never issues concurrent plays, but the
// guard keeps misuse from corrupting device state.
type Player struct {
	mu     sync.Mutex
	closed bool
}

var _ audio.Player = (*Player)(nil)

// NewPlayer acquires a reference to the PortAudio library for playback.
func NewPlayer() (*Player, error) {
	if err := initialize(); err != nil {
		return nil, err
	}
	return &Player{}, nil
}

// Play implements [audio.Player]. It blocks until the clip has been written
// to the device in full or ctx is cancelled. Cancellation stops playback at
// the next chunk boundary.
func (p *Player) Play(ctx context.Context, clip []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if len(clip) == 0 {
		return nil
	}

	decoded, err := decodeWAV(clip)
	if err != nil {
		return err
	}

	buf := make([]float32, playbackChunk*decoded.channels)
	stream, err := pa.OpenDefaultStream(0, decoded.channels, float64(decoded.sampleRate), playbackChunk, buf)
	if err != nil {
		return fmt.Errorf("portaudio: open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start output stream: %w", err)
	}
	defer stream.Stop()

	samples := decoded.samples
	for len(samples) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := copy(buf, samples)
		samples = samples[n:]
		// Zero-pad the final partial chunk.
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}

		if err := stream.Write(); err != nil {
			return fmt.Errorf("portaudio: write output stream: %w", err)
		}
	}
	return nil
}

// Close releases the playback reference to the PortAudio library.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	terminate()
	return nil
}
