// Command vad-check records from the microphone and prints, once per window,
// how many frames the configured classifier marks as speech. Use it to tune
// VAD_BACKEND and VAD_AGGRESSIVENESS for a room.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/realtime-ai/jetvoice/pkg/audio"
	"github.com/realtime-ai/jetvoice/pkg/config"
	"github.com/realtime-ai/jetvoice/pkg/device"
	"github.com/realtime-ai/jetvoice/pkg/logging"
	"github.com/realtime-ai/jetvoice/pkg/vad"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "how long to listen")
	window := flag.Duration("window", time.Second, "length of one report line")
	flag.Parse()

	if err := run(*duration, *window); err != nil {
		slog.Error("vad-check failed", "error", err)
		os.Exit(1)
	}
}

func run(duration, window time.Duration) error {
	_ = godotenv.Load()

	// API keys are irrelevant here, so the full Validate is skipped.
	cfg, err := config.FromLookup(os.LookupEnv)
	if err != nil {
		return err
	}
	logger, err := logging.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	classifier, closeClassifier, err := vad.New(vad.Options{
		Backend:   cfg.VADBackend,
		Config:    cfg.VAD(),
		ModelPath: cfg.SileroModelPath,
	})
	if err != nil {
		return err
	}
	defer closeClassifier()

	frameSize := cfg.FrameSize()
	windowFrames := max(1, int(window/(time.Duration(cfg.FrameDurationMs)*time.Millisecond)))

	reassembler, err := audio.NewReassembler(frameSize)
	if err != nil {
		return err
	}
	queue := audio.NewChunkQueue(cfg.QueueMaxChunks)

	source, err := device.NewMalgoSource(device.CaptureConfig{
		SampleRate: cfg.SampleRate,
		BlockMs:    cfg.CaptureBlockMs,
		Device:     cfg.AudioDevice,
	}, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	if err := source.Start(queue.Push); err != nil {
		return err
	}
	logger.Info("listening",
		"backend", cfg.VADBackend,
		"aggressiveness", cfg.Aggressiveness,
		"duration", duration)

	var (
		buf     = make([]byte, 0, windowFrames*frameSize)
		elapsed time.Duration
		total   int
		speech  int
	)
	report := func() error {
		if len(buf) == 0 {
			return nil
		}
		n, err := vad.CountSpeechFrames(classifier, buf, frameSize)
		if err != nil {
			return err
		}
		frames := len(buf) / frameSize
		span := time.Duration(frames*cfg.FrameDurationMs) * time.Millisecond
		fmt.Printf("%6.1fs  %-20s %3d/%d\n",
			(elapsed + span).Seconds(),
			strings.Repeat("#", n*20/frames),
			n, frames)
		elapsed += span
		total += frames
		speech += n
		buf = buf[:0]
		return nil
	}

	for {
		chunk, err := queue.Pop(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			break
		}
		reassembler.Push(chunk)
		for frame := range reassembler.Frames() {
			buf = append(buf, frame...)
			if len(buf) == windowFrames*frameSize {
				if err := report(); err != nil {
					return err
				}
			}
		}
	}
	if err := report(); err != nil {
		return err
	}

	fmt.Printf("speech frames: %d of %d\n", speech, total)
	return nil
}
