package audio

import (
	"encoding/binary"
	"math"
)

// EncodeFloat32LE serialises normalised float32 samples as raw little-endian
// IEEE 754 bytes, the wire format the transcription service expects
// (content type "audio/float32"). A nil or empty slice encodes to an empty
// byte slice, which the service treats as a warm-up request.
func EncodeFloat32LE(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

// DecodeFloat32LE parses raw little-endian float32 PCM bytes back into
// samples. Trailing bytes that do not form a complete sample are discarded.
func DecodeFloat32LE(data []byte) []float32 {
	n := len(data) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
