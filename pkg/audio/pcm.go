// Package audio holds the PCM plumbing between the sound card and the
// classifier: chunk queueing, frame reassembly, sample conversion, WAV
// encoding and resampling. All audio is 16-bit little-endian mono.
package audio

import (
	"encoding/binary"
	"math"
)

const (
	// BytesPerSample is the width of one 16-bit PCM sample.
	BytesPerSample = 2
	// Channels is the channel count used throughout; capture and playback are mono.
	Channels = 1
)

// FrameBytes returns the byte length of one mono 16-bit frame.
func FrameBytes(sampleRate, durationMs int) int {
	return sampleRate * durationMs / 1000 * BytesPerSample
}

// BytesToFloat32 converts little-endian PCM bytes to samples normalized to [-1, 1].
func BytesToFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768.0
	}
	return samples
}

// RMS returns the root-mean-square level of PCM bytes, normalized to [0, 1].
func RMS(data []byte) float64 {
	n := len(data) / BytesPerSample
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768.0
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}

// ApplyGain scales PCM bytes in place by gain, clipping to the int16 range.
// A gain of 1 leaves data untouched.
func ApplyGain(data []byte, gain float64) {
	if gain == 1 {
		return
	}
	for i := 0; i+1 < len(data); i += 2 {
		s := float64(int16(binary.LittleEndian.Uint16(data[i:]))) * gain
		if s > math.MaxInt16 {
			s = math.MaxInt16
		} else if s < math.MinInt16 {
			s = math.MinInt16
		}
		binary.LittleEndian.PutUint16(data[i:], uint16(int16(s)))
	}
}
