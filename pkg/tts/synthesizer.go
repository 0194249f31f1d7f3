package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/realtime-ai/jetvoice/pkg/audio"
)

// Synthesizer speaks text aloud. Speak blocks until playback completes;
// empty text is a no-op.
type Synthesizer interface {
	Name() string
	Speak(ctx context.Context, text string) error
}

// Player plays PCM and blocks until it has drained. device.Player
// implements it.
type Player interface {
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}

// PlaybackSynthesizer speaks through a network TTS provider and the local
// speaker.
type PlaybackSynthesizer struct {
	provider TTSProvider
	player   Player
	voice    string
	volume   float64
	logger   *slog.Logger
}

// PlaybackOptions configures a PlaybackSynthesizer.
type PlaybackOptions struct {
	// Voice overrides the provider default.
	Voice string
	// Volume is a linear gain applied to the samples; 0 means 1.0.
	Volume float64
	Logger *slog.Logger
}

// NewPlaybackSynthesizer joins provider and player.
func NewPlaybackSynthesizer(provider TTSProvider, player Player, opts PlaybackOptions) (*PlaybackSynthesizer, error) {
	if provider == nil {
		return nil, errors.New("tts provider is required")
	}
	if player == nil {
		return nil, errors.New("player is required")
	}
	if err := provider.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("%s: %w", provider.Name(), err)
	}
	if opts.Volume < 0 {
		return nil, fmt.Errorf("volume must not be negative, got %g", opts.Volume)
	}
	if opts.Volume == 0 {
		opts.Volume = 1.0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PlaybackSynthesizer{
		provider: provider,
		player:   player,
		voice:    opts.Voice,
		volume:   opts.Volume,
		logger:   logger.With("component", "tts", "provider", provider.Name()),
	}, nil
}

// Name returns the provider name.
func (s *PlaybackSynthesizer) Name() string {
	return s.provider.Name()
}

// Speak implements Synthesizer.
func (s *PlaybackSynthesizer) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	resp, err := s.provider.Synthesize(ctx, &SynthesizeRequest{Text: text, Voice: s.voice})
	if err != nil {
		return fmt.Errorf("%s synthesize: %w", s.provider.Name(), err)
	}
	if len(resp.AudioData) == 0 {
		return fmt.Errorf("%s returned no audio", s.provider.Name())
	}

	pcm := resp.AudioData
	audio.ApplyGain(pcm, s.volume)

	s.logger.Debug("playing synthesized audio",
		"bytes", len(pcm),
		"sample_rate", resp.AudioFormat.SampleRate)
	if err := s.player.Play(ctx, pcm, resp.AudioFormat.SampleRate); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	return nil
}

var _ Synthesizer = (*PlaybackSynthesizer)(nil)
