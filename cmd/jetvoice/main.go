// Command jetvoice is an always-listening voice assistant: it segments
// microphone audio into utterances, transcribes them, asks a language model
// and speaks the answer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/realtime-ai/jetvoice/pkg/app"
	"github.com/realtime-ai/jetvoice/pkg/assistant"
	"github.com/realtime-ai/jetvoice/pkg/audio"
	"github.com/realtime-ai/jetvoice/pkg/config"
	"github.com/realtime-ai/jetvoice/pkg/device"
	"github.com/realtime-ai/jetvoice/pkg/logging"
	"github.com/realtime-ai/jetvoice/pkg/segment"
	"github.com/realtime-ai/jetvoice/pkg/trace"
	"github.com/realtime-ai/jetvoice/pkg/vad"
)

func main() {
	listDevices := flag.Bool("list-devices", false, "print capture device indexes for AUDIO_DEVICE and exit")
	flag.Parse()

	if *listDevices {
		names, err := device.ListCaptureDevices()
		if err != nil {
			slog.Error("listing capture devices", "error", err)
			os.Exit(1)
		}
		for i, name := range names {
			fmt.Printf("%d: %s\n", i, name)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("jetvoice failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	traceCfg := trace.DefaultConfig()
	traceCfg.ExporterType = cfg.TraceExporter
	traceCfg.OTLPEndpoint = cfg.OTLPEndpoint
	if err := trace.Initialize(ctx, traceCfg); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := trace.Shutdown(shutdownCtx); err != nil {
			logger.Warn("trace shutdown", "error", err)
		}
	}()

	classifier, closeClassifier, err := vad.New(vad.Options{
		Backend:   cfg.VADBackend,
		Config:    cfg.VAD(),
		ModelPath: cfg.SileroModelPath,
	})
	if err != nil {
		return err
	}
	defer closeClassifier()

	machine, err := segment.New(segment.Config{
		NStreak:   cfg.NStreak,
		NSilence:  cfg.NSilence,
		FrameSize: cfg.FrameSize(),
	})
	if err != nil {
		return err
	}

	reassembler, err := audio.NewReassembler(cfg.FrameSize())
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
	// Loop.Run closes the source too; Close is idempotent.
	defer source.Close()

	player, err := device.NewPlayer(device.PlaybackConfig{
		SampleRate: cfg.PlaybackSampleRate,
		Device:     device.DefaultDevice,
	}, logger)
	if err != nil {
		return err
	}
	defer player.Close()

	transcriber, err := app.NewTranscriber(cfg, logger)
	if err != nil {
		return err
	}
	model, err := app.NewLanguageModel(ctx, cfg, logger)
	if err != nil {
		return err
	}
	synth, err := app.NewSynthesizer(cfg, player, logger)
	if err != nil {
		return err
	}

	orch, err := assistant.NewOrchestrator(assistant.Options{
		Transcriber: transcriber,
		Model:       model,
		Synthesizer: synth,
		Source:      source,
		Queue:       queue,
		Reassembler: reassembler,
		SampleRate:  cfg.SampleRate,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	loop, err := assistant.NewLoop(assistant.LoopOptions{
		Source:       source,
		Queue:        queue,
		Reassembler:  reassembler,
		Classifier:   classifier,
		Machine:      machine,
		Orchestrator: orch,
		Logger:       logger,
		OnOutcome: func(out assistant.Outcome) {
			logger.Debug("turn complete",
				"utterance_id", out.UtteranceID,
				"spoken", out.Spoken,
				"stopped_at", out.StoppedAt,
				"queue_dropped", queue.Dropped())
		},
	})
	if err != nil {
		return err
	}

	logger.Info("jetvoice starting",
		"sample_rate", cfg.SampleRate,
		"frame_ms", cfg.FrameDurationMs,
		"vad", cfg.VADBackend,
		"n_streak", cfg.NStreak,
		"n_silence", cfg.NSilence,
		"llm", cfg.LLMProvider,
		"tts", synth.Name())

	if err := loop.Run(ctx); err != nil {
		return err
	}
	logger.Info("jetvoice stopped", "chunks_received", queue.Received())
	return nil
}
