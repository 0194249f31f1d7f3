package vad

import (
	"fmt"

	"github.com/realtime-ai/jetvoice/pkg/audio"
)

// SpeechModel scores samples normalized to [-1, 1] with a speech
// probability in [0, 1]. Models may carry state between Infer calls until
// Reset; Destroy releases them.
type SpeechModel interface {
	Infer(samples []float32) (float32, error)
	Reset() error
	Destroy() error
}

// Speech probability thresholds indexed by aggressiveness.
var probabilityThresholds = [4]float32{0.35, 0.5, 0.65, 0.8}

// ProbabilityClassifier turns a detector's speech probability into a
// speech/non-speech decision.
//
// Detectors with a fixed input size (Silero wants 512 samples at 16 kHz)
// are fed a rolling window ending at the current frame.
type ProbabilityClassifier struct {
	detector  SpeechModel
	threshold float32
	frameSize int
	window    []float32
}

// NewProbabilityClassifier wraps detector. window is the detector's input
// size in samples; 0 passes each frame through unchanged. The detector is
// not owned; the caller destroys it.
func NewProbabilityClassifier(detector SpeechModel, cfg Config, window int) (*ProbabilityClassifier, error) {
	if detector == nil {
		return nil, fmt.Errorf("%w: nil detector", ErrInvalidConfig)
	}
	if window < 0 {
		return nil, fmt.Errorf("%w: negative window %d", ErrInvalidConfig, window)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &ProbabilityClassifier{
		detector:  detector,
		threshold: probabilityThresholds[cfg.Aggressiveness],
		frameSize: cfg.FrameSize(),
	}
	if window > 0 {
		c.window = make([]float32, window)
	}
	return c, nil
}

// Threshold returns the probability at which frames count as speech.
func (c *ProbabilityClassifier) Threshold() float32 {
	return c.threshold
}

// IsSpeech implements Classifier.
func (c *ProbabilityClassifier) IsSpeech(frame []byte) (bool, error) {
	if err := checkFrame(frame, c.frameSize); err != nil {
		return false, err
	}

	samples := audio.BytesToFloat32(frame)
	if c.window != nil {
		samples = c.slide(samples)
	}

	prob, err := c.detector.Infer(samples)
	if err != nil {
		return false, fmt.Errorf("detector inference: %w", err)
	}
	return prob >= c.threshold, nil
}

// slide shifts samples into the window and returns a copy of it.
func (c *ProbabilityClassifier) slide(samples []float32) []float32 {
	n := len(c.window)
	if len(samples) >= n {
		copy(c.window, samples[len(samples)-n:])
	} else {
		copy(c.window, c.window[len(samples):])
		copy(c.window[n-len(samples):], samples)
	}
	out := make([]float32, n)
	copy(out, c.window)
	return out
}
