package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMalgoSource_RejectsBadConfig(t *testing.T) {
	_, err := NewMalgoSource(CaptureConfig{SampleRate: 0, BlockMs: 20, Device: DefaultDevice}, nil)
	assert.Error(t, err)

	_, err = NewMalgoSource(CaptureConfig{SampleRate: 16000, BlockMs: 0, Device: DefaultDevice}, nil)
	assert.Error(t, err)
}

func TestNewPlayer_RejectsNegativeRate(t *testing.T) {
	_, err := NewPlayer(PlaybackConfig{SampleRate: -1, Device: DefaultDevice}, nil)
	assert.Error(t, err)
}

func TestPlayer_EmptyBufferIsNoop(t *testing.T) {
	p := &Player{}
	assert.NoError(t, p.Play(context.Background(), nil, 16000))
	assert.NoError(t, p.Play(context.Background(), []byte{1}, 16000))
}
