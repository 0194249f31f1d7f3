//go:build !vad

package vad

import "fmt"

func newSileroClassifier(Config, string) (Classifier, func() error, error) {
	return nil, nil, fmt.Errorf("%w: silero backend requires building with -tags vad", ErrInvalidConfig)
}
