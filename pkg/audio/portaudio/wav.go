package portaudio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// wavClip is a decoded RIFF/WAVE payload ready for playback.
type wavClip struct {
	samples    []float32
	sampleRate int
	channels   int
}

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

var errNotWAV = errors.New("portaudio: clip is not a RIFF/WAVE container")

// decodeWAV parses a WAV container holding 16-bit PCM or 32-bit IEEE float
// samples. Only the fmt and data chunks are consumed; other chunks are
// skipped. The synthesis service emits standard WAV, so exotic encodings
// (ADPCM, a-law) are rejected rather than guessed at.
func decodeWAV(data []byte) (wavClip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return wavClip{}, errNotWAV
	}

	var (
		format     uint16
		channels   int
		sampleRate int
		bits       int
		raw        []byte
		haveFmt    bool
	)

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return wavClip{}, fmt.Errorf("portaudio: short fmt chunk (%d bytes)", size)
			}
			format = binary.LittleEndian.Uint16(data[body:])
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			raw = data[body : body+size]
		}

		// Chunks are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt || raw == nil {
		return wavClip{}, errors.New("portaudio: WAV missing fmt or data chunk")
	}
	if channels <= 0 || sampleRate <= 0 {
		return wavClip{}, fmt.Errorf("portaudio: invalid WAV format: channels=%d rate=%d", channels, sampleRate)
	}

	clip := wavClip{sampleRate: sampleRate, channels: channels}
	switch {
	case format == wavFormatPCM && bits == 16:
		n := len(raw) / 2
		clip.samples = make([]float32, n)
		for i := 0; i < n; i++ {
			clip.samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
		}
	case format == wavFormatFloat && bits == 32:
		n := len(raw) / 4
		clip.samples = make([]float32, n)
		for i := 0; i < n; i++ {
			clip.samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	default:
		return wavClip{}, fmt.Errorf("portaudio: unsupported WAV encoding: format=%d bits=%d", format, bits)
	}

	return clip, nil
}
