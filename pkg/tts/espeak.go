package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// EspeakConfig configures an EspeakSynthesizer.
type EspeakConfig struct {
	// Rate in words per minute; 0 means 125, which espeak renders clearly.
	Rate int
	// Volume scales espeak's amplitude (1.0 = 100); 0 means 1.0.
	Volume float64
	// Voice defaults to en-us.
	Voice string
	// Command defaults to espeak.
	Command string
}

// EspeakSynthesizer speaks offline through the espeak command.
type EspeakSynthesizer struct {
	cfg EspeakConfig
}

// NewEspeakSynthesizer creates an espeak synthesizer.
func NewEspeakSynthesizer(cfg EspeakConfig) (*EspeakSynthesizer, error) {
	if cfg.Rate < 0 {
		return nil, fmt.Errorf("espeak rate must not be negative, got %d", cfg.Rate)
	}
	if cfg.Volume < 0 {
		return nil, fmt.Errorf("espeak volume must not be negative, got %g", cfg.Volume)
	}
	if cfg.Rate == 0 {
		cfg.Rate = 125
	}
	if cfg.Volume == 0 {
		cfg.Volume = 1.0
	}
	if cfg.Voice == "" {
		cfg.Voice = "en-us"
	}
	if cfg.Command == "" {
		cfg.Command = "espeak"
	}
	return &EspeakSynthesizer{cfg: cfg}, nil
}

// Name returns "espeak".
func (s *EspeakSynthesizer) Name() string {
	return "espeak"
}

// Args returns the command line arguments used to speak text.
func (s *EspeakSynthesizer) Args(text string) []string {
	amplitude := min(int(s.cfg.Volume*100), 200)
	return []string{
		"-s", strconv.Itoa(s.cfg.Rate),
		"-a", strconv.Itoa(amplitude),
		"-v", s.cfg.Voice,
		"--", text,
	}
}

// Speak implements Synthesizer. espeak plays the audio itself and exits
// when done.
func (s *EspeakSynthesizer) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.cfg.Command, s.Args(text)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s failed: %w: %s", s.cfg.Command, err, msg)
		}
		return fmt.Errorf("%s failed: %w", s.cfg.Command, err)
	}
	return nil
}

var _ Synthesizer = (*EspeakSynthesizer)(nil)
