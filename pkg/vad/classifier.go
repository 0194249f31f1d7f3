// Package vad decides, frame by frame, whether captured audio contains speech.
//
// Three backends implement Classifier: the WebRTC detector (default), a
// pure-Go energy gate, and a probability gate over a neural detector such as
// Silero. All of them take 16-bit little-endian mono PCM frames of exactly
// Config.FrameSize() bytes.
package vad

import (
	"errors"
	"fmt"
	"slices"

	"github.com/realtime-ai/jetvoice/pkg/audio"
)

var (
	// ErrInvalidConfig is wrapped by every configuration validation error.
	ErrInvalidConfig = errors.New("vad: invalid config")
	// ErrFrameSize is returned when a frame does not match the configured length.
	ErrFrameSize = errors.New("vad: wrong frame size")
)

// Classifier labels one frame as speech or non-speech.
type Classifier interface {
	IsSpeech(frame []byte) (bool, error)
}

var (
	supportedRates     = []int{8000, 16000, 32000, 48000}
	supportedDurations = []int{10, 20, 30}
)

// Backend names accepted by New.
const (
	BackendWebRTC = "webrtc"
	BackendEnergy = "energy"
	BackendSilero = "silero"
)

// Config holds the parameters shared by every backend.
type Config struct {
	SampleRate      int
	FrameDurationMs int
	// Aggressiveness ranges from 0 (least aggressive about filtering out
	// non-speech) to 3 (most aggressive).
	Aggressiveness int
}

// Validate checks the configuration against what the detectors accept.
func (c Config) Validate() error {
	if !slices.Contains(supportedRates, c.SampleRate) {
		return fmt.Errorf("%w: sample rate %d not in %v", ErrInvalidConfig, c.SampleRate, supportedRates)
	}
	if !slices.Contains(supportedDurations, c.FrameDurationMs) {
		return fmt.Errorf("%w: frame duration %dms not in %v", ErrInvalidConfig, c.FrameDurationMs, supportedDurations)
	}
	if c.Aggressiveness < 0 || c.Aggressiveness > 3 {
		return fmt.Errorf("%w: aggressiveness %d not in [0, 3]", ErrInvalidConfig, c.Aggressiveness)
	}
	return nil
}

// FrameSize returns the number of bytes in one frame.
func (c Config) FrameSize() int {
	return audio.FrameBytes(c.SampleRate, c.FrameDurationMs)
}

// Options selects and parameterizes a backend for New.
type Options struct {
	Backend string
	Config  Config
	// ModelPath is the Silero ONNX model, used by the silero backend only.
	ModelPath string
}

// New builds the classifier named by opts.Backend. An empty backend selects
// WebRTC. The returned close function releases backend resources.
func New(opts Options) (Classifier, func() error, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, nil, err
	}

	switch opts.Backend {
	case "", BackendWebRTC:
		c, err := NewWebRTCClassifier(opts.Config)
		if err != nil {
			return nil, nil, err
		}
		return c, func() error { return nil }, nil
	case BackendEnergy:
		c, err := NewEnergyClassifier(opts.Config)
		if err != nil {
			return nil, nil, err
		}
		return c, func() error { return nil }, nil
	case BackendSilero:
		return newSileroClassifier(opts.Config, opts.ModelPath)
	default:
		return nil, nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, opts.Backend)
	}
}

func checkFrame(frame []byte, want int) error {
	if len(frame) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(frame), want)
	}
	return nil
}

// CountSpeechFrames classifies a multi-frame buffer and returns how many of
// its frames are speech. A trailing partial frame is ignored.
func CountSpeechFrames(c Classifier, pcm []byte, frameSize int) (int, error) {
	if frameSize <= 0 {
		return 0, fmt.Errorf("%w: frame size %d", ErrInvalidConfig, frameSize)
	}
	count := 0
	for off := 0; off+frameSize <= len(pcm); off += frameSize {
		speech, err := c.IsSpeech(pcm[off : off+frameSize])
		if err != nil {
			return count, err
		}
		if speech {
			count++
		}
	}
	return count, nil
}
