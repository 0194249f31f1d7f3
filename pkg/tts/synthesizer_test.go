package tts

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	audio    []byte
	rate     int
	err      error
	validErr error
	requests []*SynthesizeRequest
}

func (p *fakeProvider) Name() string                 { return "fake" }
func (p *fakeProvider) GetSupportedVoices() []string { return nil }
func (p *fakeProvider) GetDefaultVoice() string      { return "" }
func (p *fakeProvider) ValidateConfig() error        { return p.validErr }

func (p *fakeProvider) Synthesize(_ context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &SynthesizeResponse{
		AudioData:   append([]byte(nil), p.audio...),
		AudioFormat: pcmFormat(p.rate),
	}, nil
}

type fakePlayer struct {
	played [][]byte
	rates  []int
	err    error
}

func (p *fakePlayer) Play(_ context.Context, pcm []byte, rate int) error {
	p.played = append(p.played, pcm)
	p.rates = append(p.rates, rate)
	return p.err
}

func TestNewPlaybackSynthesizer_Validation(t *testing.T) {
	_, err := NewPlaybackSynthesizer(nil, &fakePlayer{}, PlaybackOptions{})
	assert.Error(t, err)

	_, err = NewPlaybackSynthesizer(&fakeProvider{}, nil, PlaybackOptions{})
	assert.Error(t, err)

	_, err = NewPlaybackSynthesizer(&fakeProvider{validErr: errors.New("no key")}, &fakePlayer{}, PlaybackOptions{})
	assert.Error(t, err)

	_, err = NewPlaybackSynthesizer(&fakeProvider{}, &fakePlayer{}, PlaybackOptions{Volume: -1})
	assert.Error(t, err)
}

func TestPlaybackSynthesizer_Speak(t *testing.T) {
	provider := &fakeProvider{audio: []byte{1, 0, 2, 0}, rate: 24000}
	player := &fakePlayer{}
	s, err := NewPlaybackSynthesizer(provider, player, PlaybackOptions{Voice: "nova"})
	require.NoError(t, err)

	require.NoError(t, s.Speak(context.Background(), "  hello  "))

	require.Len(t, provider.requests, 1)
	assert.Equal(t, "hello", provider.requests[0].Text)
	assert.Equal(t, "nova", provider.requests[0].Voice)
	require.Len(t, player.played, 1)
	assert.Equal(t, []byte{1, 0, 2, 0}, player.played[0])
	assert.Equal(t, []int{24000}, player.rates)
}

func TestPlaybackSynthesizer_EmptyTextIsNoop(t *testing.T) {
	provider := &fakeProvider{audio: []byte{1, 0}, rate: 16000}
	player := &fakePlayer{}
	s, err := NewPlaybackSynthesizer(provider, player, PlaybackOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Speak(context.Background(), "   "))
	assert.Empty(t, provider.requests)
	assert.Empty(t, player.played)
}

func TestPlaybackSynthesizer_AppliesVolume(t *testing.T) {
	pcm := make([]byte, 4)
	loud, quiet := int16(1000), int16(-1000)
	binary.LittleEndian.PutUint16(pcm, uint16(loud))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(quiet))

	player := &fakePlayer{}
	s, err := NewPlaybackSynthesizer(&fakeProvider{audio: pcm, rate: 16000}, player, PlaybackOptions{Volume: 0.5})
	require.NoError(t, err)
	require.NoError(t, s.Speak(context.Background(), "hi"))

	out := player.played[0]
	assert.Equal(t, int16(500), int16(binary.LittleEndian.Uint16(out)))
	assert.Equal(t, int16(-500), int16(binary.LittleEndian.Uint16(out[2:])))
}

func TestPlaybackSynthesizer_Errors(t *testing.T) {
	boom := errors.New("boom")

	s, err := NewPlaybackSynthesizer(&fakeProvider{err: boom}, &fakePlayer{}, PlaybackOptions{})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Speak(context.Background(), "hi"), boom)

	s, err = NewPlaybackSynthesizer(&fakeProvider{rate: 16000}, &fakePlayer{}, PlaybackOptions{})
	require.NoError(t, err)
	assert.Error(t, s.Speak(context.Background(), "hi"), "empty audio")

	s, err = NewPlaybackSynthesizer(&fakeProvider{audio: []byte{0, 0}, rate: 16000}, &fakePlayer{err: boom}, PlaybackOptions{})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Speak(context.Background(), "hi"), boom)
}
