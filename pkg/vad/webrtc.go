package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/realtime-ai/jetvoice/pkg/audio"
)

// WebRTCClassifier wraps the WebRTC voice activity detector.
type WebRTCClassifier struct {
	vad       *webrtcvad.VAD
	rate      int
	frameSize int
}

// NewWebRTCClassifier creates a WebRTC classifier with mode = aggressiveness.
func NewWebRTCClassifier(cfg Config) (*WebRTCClassifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create webrtc vad: %w", err)
	}

	frameSize := cfg.FrameSize()
	if !v.ValidRateAndFrameLength(cfg.SampleRate, frameSize/audio.BytesPerSample) {
		return nil, fmt.Errorf("%w: webrtc rejects %d Hz with %d ms frames", ErrInvalidConfig, cfg.SampleRate, cfg.FrameDurationMs)
	}
	if err := v.SetMode(cfg.Aggressiveness); err != nil {
		return nil, fmt.Errorf("failed to set webrtc vad mode %d: %w", cfg.Aggressiveness, err)
	}

	return &WebRTCClassifier{
		vad:       v,
		rate:      cfg.SampleRate,
		frameSize: frameSize,
	}, nil
}

// IsSpeech implements Classifier.
func (c *WebRTCClassifier) IsSpeech(frame []byte) (bool, error) {
	if err := checkFrame(frame, c.frameSize); err != nil {
		return false, err
	}
	speech, err := c.vad.Process(c.rate, frame)
	if err != nil {
		return false, fmt.Errorf("webrtc vad: %w", err)
	}
	return speech, nil
}
