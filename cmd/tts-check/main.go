// Command tts-check speaks a sentence through the configured synthesizer
// chain. Usage: tts-check [text...]
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/realtime-ai/jetvoice/pkg/app"
	"github.com/realtime-ai/jetvoice/pkg/config"
	"github.com/realtime-ai/jetvoice/pkg/device"
	"github.com/realtime-ai/jetvoice/pkg/logging"
)

const sampleText = "Hello there! I am testing my voice capabilities. " +
	"This is a longer sentence designed to check if I sound like a friendly assistant, " +
	"or if I still sound a bit too much like a robot from the nineteen eighties. " +
	"I hope the audio is clear!"

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("tts-check failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	cfg, err := config.FromLookup(os.LookupEnv)
	if err != nil {
		return err
	}
	logger, err := logging.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		text = sampleText
	}

	player, err := device.NewPlayer(device.PlaybackConfig{
		SampleRate: cfg.PlaybackSampleRate,
		Device:     device.DefaultDevice,
	}, logger)
	if err != nil {
		return err
	}
	defer player.Close()

	synth, err := app.NewSynthesizer(cfg, player, logger)
	if err != nil {
		return err
	}

	logger.Info("speaking", "chain", synth.Name(), "chars", len(text))
	start := time.Now()
	if err := synth.Speak(ctx, text); err != nil {
		return err
	}
	logger.Info("done", "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
