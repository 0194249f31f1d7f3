package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrAllFailed is returned by Chain when no synthesizer succeeded.
var ErrAllFailed = errors.New("tts: all synthesizers failed")

// Chain tries synthesizers in order and stops at the first success.
type Chain struct {
	synths []Synthesizer
	logger *slog.Logger
}

// NewChain creates a chain over synths.
func NewChain(logger *slog.Logger, synths ...Synthesizer) (*Chain, error) {
	if len(synths) == 0 {
		return nil, errors.New("tts chain needs at least one synthesizer")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		synths: synths,
		logger: logger.With("component", "tts_chain"),
	}, nil
}

// Name lists the chain members, e.g. "openai>espeak".
func (c *Chain) Name() string {
	names := make([]string, len(c.synths))
	for i, s := range c.synths {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

// Speak implements Synthesizer.
func (c *Chain) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	errs := []error{ErrAllFailed}
	for i, s := range c.synths {
		err := c.speakOne(ctx, s, text)
		if err == nil {
			if i > 0 {
				c.logger.Info("spoke with fallback synthesizer", "synthesizer", s.Name())
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("synthesizer failed", "synthesizer", s.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return errors.Join(errs...)
}

func (c *Chain) speakOne(ctx context.Context, s Synthesizer, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Speak(ctx, text)
}

var _ Synthesizer = (*Chain)(nil)
