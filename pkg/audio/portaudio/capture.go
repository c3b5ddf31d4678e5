// Package portaudio adapts PortAudio input and output devices to the
// voicewire audio interfaces.
//
// The package owns PortAudio global initialisation: the first device opened
// initialises the library and [Terminate] releases it. Capture delivers
// mono float32 frames exactly as read from the device, so the rest of the
// pipeline never touches PortAudio types directly.
package portaudio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pa "github.com/gordonklaus/portaudio"

	"github.com/voicewire/voicewire/pkg/audio"
)

var (
	initMu      sync.Mutex
	initCounter int
)

// ErrClosed is returned by device methods after Close has been called.
var ErrClosed = errors.New("portaudio: device closed")

func initialize() error {
	initMu.Lock()
	defer initMu.Unlock()
	if initCounter == 0 {
		if err := pa.Initialize(); err != nil {
			return fmt.Errorf("portaudio: initialize: %w", err)
		}
	}
	initCounter++
	return nil
}

func terminate() {
	initMu.Lock()
	defer initMu.Unlock()
	initCounter--
	if initCounter == 0 {
		if err := pa.Terminate(); err != nil {
			slog.Warn("portaudio terminate failed", "err", err)
		}
	}
}

// CaptureConfig holds the parameters for opening a capture device.
type CaptureConfig struct {
	// SampleRate in Hz. Typical: 48000.
	SampleRate int

	// FrameSize is the number of samples per delivered frame. Typical: 128,
	// matching browser audio-worklet quantum size.
	FrameSize int

	// DeviceName selects a specific input device by name. Empty selects the
	// system default input.
	DeviceName string
}

// Capture is an [audio.CaptureDevice] backed by a PortAudio input stream.
//
// The underlying stream runs continuously from New until Close; Start and
// Stop only gate whether frames are forwarded to the frame channel. This
// keeps pause/resume cheap (no device reacquisition) and matches the
// segmenter's stop/start contract.
type Capture struct {
	mu     sync.Mutex
	stream *pa.Stream

	// read blocks until buf holds the next frame. Backed by stream.Read;
	// a plain func so the forwarding loop is testable without a device.
	read func() error

	frames  chan audio.Frame
	cfg     CaptureConfig
	running bool
	closed  bool
	done    chan struct{}

	// readDone is closed by readLoop on exit, after it has closed frames.
	readDone chan struct{}
}

var _ audio.CaptureDevice = (*Capture)(nil)

// NewCapture opens the configured input device and begins reading from it.
// The device starts in the stopped state; call Start to begin delivering
// frames.
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if cfg.SampleRate <= 0 || cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("portaudio: invalid capture config: rate=%d frame=%d", cfg.SampleRate, cfg.FrameSize)
	}
	if err := initialize(); err != nil {
		return nil, err
	}

	buf := make([]float32, cfg.FrameSize)
	stream, err := openInputStream(cfg, buf)
	if err != nil {
		terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		terminate()
		return nil, fmt.Errorf("portaudio: start input stream: %w", err)
	}

	c := &Capture{
		stream:   stream,
		read:     stream.Read,
		frames:   make(chan audio.Frame, 64),
		cfg:      cfg,
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go c.readLoop(buf)
	return c, nil
}

func openInputStream(cfg CaptureConfig, buf []float32) (*pa.Stream, error) {
	if cfg.DeviceName != "" {
		dev, err := findInputDevice(cfg.DeviceName)
		if err != nil {
			slog.Warn("input device not found, falling back to default", "device", cfg.DeviceName, "err", err)
		} else {
			params := pa.StreamParameters{
				Input: pa.StreamDeviceParameters{
					Device:   dev,
					Channels: 1,
					Latency:  dev.DefaultLowInputLatency,
				},
				SampleRate:      float64(cfg.SampleRate),
				FramesPerBuffer: cfg.FrameSize,
			}
			s, err := pa.OpenStream(params, buf)
			if err != nil {
				return nil, fmt.Errorf("portaudio: open device %q: %w", cfg.DeviceName, err)
			}
			return s, nil
		}
	}

	s, err := pa.OpenDefaultStream(1, 0, float64(cfg.SampleRate), cfg.FrameSize, buf)
	if err != nil {
		return nil, fmt.Errorf("portaudio: open default input: %w", err)
	}
	return s, nil
}

func findInputDevice(name string) (*pa.DeviceInfo, error) {
	devices, err := pa.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", name)
}

// readLoop continuously reads fixed-size buffers from the stream and forwards
// them as frames while the device is running. It exits when Close is called
// or the stream dies. The loop owns the send side of frames and is the only
// place the channel is closed, so a send can never race the close.
func (c *Capture) readLoop(buf []float32) {
	defer func() {
		close(c.frames)
		close(c.readDone)
	}()

	start := time.Now()
	for {
		select {
		case <-c.done:
			return
		default:
		}

		if err := c.read(); err != nil {
			// Overflow is expected when the consumer briefly stalls; anything
			// else means the stream is gone.
			if errors.Is(err, pa.InputOverflowed) {
				continue
			}
			select {
			case <-c.done:
			default:
				slog.Error("portaudio read failed, capture stopped", "err", err)
			}
			return
		}

		c.mu.Lock()
		running := c.running && !c.closed
		c.mu.Unlock()
		if !running {
			continue
		}

		samples := make([]float32, len(buf))
		copy(samples, buf)
		frame := audio.Frame{
			Samples:    samples,
			SampleRate: c.cfg.SampleRate,
			Timestamp:  time.Since(start),
		}
		select {
		case c.frames <- frame:
		default:
			// Consumer is behind; dropping the frame beats blocking the
			// device read loop.
		}
	}
}

// Frames implements [audio.CaptureDevice].
func (c *Capture) Frames() <-chan audio.Frame { return c.frames }

// Start implements [audio.CaptureDevice].
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.running = true
	return nil
}

// Stop implements [audio.CaptureDevice].
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.running = false
	return nil
}

// Close implements [audio.CaptureDevice]. It stops the PortAudio stream,
// waits for the read loop to exit (which closes the frame channel), and
// releases the library reference.
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.running = false
	close(c.done)
	c.mu.Unlock()

	// Stopping the stream unblocks a pending read so the loop can observe
	// done and exit.
	var errs []error
	if c.stream != nil {
		if err := c.stream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("portaudio: stop input stream: %w", err))
		}
		if err := c.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("portaudio: close input stream: %w", err))
		}
	}
	<-c.readDone
	if c.stream != nil {
		terminate()
	}
	return errors.Join(errs...)
}

// InputDevice describes an available capture device.
type InputDevice struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// ListInputDevices enumerates the host's audio input devices. Useful for a
// -list-devices CLI flag.
func ListInputDevices() ([]InputDevice, error) {
	if err := initialize(); err != nil {
		return nil, err
	}
	defer terminate()

	devices, err := pa.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio: list devices: %w", err)
	}

	var defaultName string
	if dev, err := pa.DefaultInputDevice(); err == nil && dev != nil {
		defaultName = dev.Name
	}

	var out []InputDevice
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			out = append(out, InputDevice{
				Name:              dev.Name,
				MaxInputChannels:  dev.MaxInputChannels,
				DefaultSampleRate: dev.DefaultSampleRate,
				IsDefault:         dev.Name == defaultName,
			})
		}
	}
	return out, nil
}
