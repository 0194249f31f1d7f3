//go:build vad

package vad

import "fmt"

func newSileroClassifier(cfg Config, modelPath string) (Classifier, func() error, error) {
	detector, err := NewDetector(DetectorConfig{
		ModelPath:  modelPath,
		SampleRate: cfg.SampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	c, err := NewProbabilityClassifier(detector, cfg, WindowSamples(cfg.SampleRate))
	if err != nil {
		detector.Destroy()
		return nil, nil, err
	}
	return c, detector.Destroy, nil
}
