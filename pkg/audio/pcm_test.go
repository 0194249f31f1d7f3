package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcmOf(samples ...int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

func TestFrameBytes(t *testing.T) {
	assert.Equal(t, 640, FrameBytes(16000, 20))
	assert.Equal(t, 160, FrameBytes(8000, 10))
	assert.Equal(t, 2880, FrameBytes(48000, 30))
}

func TestBytesToFloat32(t *testing.T) {
	samples := BytesToFloat32(pcmOf(0, 16384, -32768))
	require.Len(t, samples, 3)
	assert.Equal(t, float32(0), samples[0])
	assert.InDelta(t, 0.5, samples[1], 1e-6)
	assert.Equal(t, float32(-1), samples[2])
}

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.Equal(t, 0.0, RMS(pcmOf(0, 0, 0)))
	assert.InDelta(t, 0.5, RMS(pcmOf(16384, -16384)), 1e-6)
}

func TestApplyGain(t *testing.T) {
	data := pcmOf(1000, -1000, 30000)
	ApplyGain(data, 2)

	got := make([]int16, 3)
	for i := range got {
		got[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	assert.Equal(t, []int16{2000, -2000, math.MaxInt16}, got)
}

func TestEncodeWAV(t *testing.T) {
	pcm := pcmOf(1, 2, 3, 4)
	wav, err := EncodeWAV(pcm, 16000)
	require.NoError(t, err)

	require.Len(t, wav, wavHeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, pcm, wav[wavHeaderSize:])
}

func TestEncodeWAV_Errors(t *testing.T) {
	_, err := EncodeWAV(nil, 16000)
	assert.Error(t, err)

	_, err = EncodeWAV(pcmOf(1), 0)
	assert.Error(t, err)
}
