package vad

import "github.com/realtime-ai/jetvoice/pkg/audio"

// Normalized RMS thresholds indexed by aggressiveness. 0.01 is roughly
// -40 dBFS, a quiet room with a desk fan.
var energyThresholds = [4]float64{0.005, 0.01, 0.02, 0.04}

// EnergyClassifier labels a frame as speech when its RMS level reaches a
// fixed threshold. It needs no cgo and no model, which makes it the fallback
// on hosts where the WebRTC detector cannot be built.
type EnergyClassifier struct {
	threshold float64
	frameSize int
}

// NewEnergyClassifier creates an energy classifier; higher aggressiveness
// requires louder frames.
func NewEnergyClassifier(cfg Config) (*EnergyClassifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EnergyClassifier{
		threshold: energyThresholds[cfg.Aggressiveness],
		frameSize: cfg.FrameSize(),
	}, nil
}

// Threshold returns the RMS level at which frames count as speech.
func (c *EnergyClassifier) Threshold() float64 {
	return c.threshold
}

// IsSpeech implements Classifier.
func (c *EnergyClassifier) IsSpeech(frame []byte) (bool, error) {
	if err := checkFrame(frame, c.frameSize); err != nil {
		return false, err
	}
	return audio.RMS(frame) >= c.threshold, nil
}
