package portaudio

import (
	"errors"
	"testing"
	"time"

	"github.com/voicewire/voicewire/pkg/audio"
)

// newTestCapture builds a Capture around a stubbed read function, with no
// PortAudio stream behind it.
func newTestCapture(read func() error) *Capture {
	return &Capture{
		read:     read,
		frames:   make(chan audio.Frame, 1),
		cfg:      CaptureConfig{SampleRate: 48000, FrameSize: 4},
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
}

func TestCapture_CloseDuringActiveForwarding(t *testing.T) {
	t.Parallel()

	// Repeat the shutdown while the loop is mid-send; the frame channel must
	// only be closed by the loop itself, never under its feet.
	for i := 0; i < 50; i++ {
		c := newTestCapture(func() error { return nil })
		go c.readLoop(make([]float32, 4))

		if err := c.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}

		select {
		case <-c.Frames():
		case <-time.After(time.Second):
			t.Fatal("no frame forwarded")
		}

		if err := c.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		// Close returning means the loop exited; the channel drains its
		// buffered frames and then reports closed.
		for {
			if _, ok := <-c.Frames(); !ok {
				break
			}
		}

		if err := c.Start(); !errors.Is(err, ErrClosed) {
			t.Fatalf("Start after Close = %v, want ErrClosed", err)
		}
	}
}

func TestCapture_ReadErrorClosesFrames(t *testing.T) {
	t.Parallel()

	c := newTestCapture(func() error { return errors.New("device unplugged") })
	go c.readLoop(make([]float32, 4))

	select {
	case _, ok := <-c.Frames():
		if ok {
			t.Fatal("got a frame from a dead stream")
		}
	case <-time.After(time.Second):
		t.Fatal("frame channel not closed after read failure")
	}

	// Close after the loop has already exited must not hang or panic.
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
