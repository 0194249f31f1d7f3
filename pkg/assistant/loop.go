package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/realtime-ai/jetvoice/pkg/audio"
	"github.com/realtime-ai/jetvoice/pkg/device"
	"github.com/realtime-ai/jetvoice/pkg/segment"
	"github.com/realtime-ai/jetvoice/pkg/vad"
)

// LoopOptions wires a Loop. Queue and Reassembler must be the same values
// the Orchestrator flushes.
type LoopOptions struct {
	Source       device.Source
	Queue        *audio.ChunkQueue
	Reassembler  *audio.Reassembler
	Classifier   vad.Classifier
	Machine      *segment.Machine
	Orchestrator *Orchestrator
	Logger       *slog.Logger

	// OnEvent receives every segmentation result other than EventNone.
	OnEvent func(segment.Result)
	// OnOutcome receives the result of every Handle call.
	OnOutcome func(Outcome)
}

// Loop is the single consumer of captured audio.
type Loop struct {
	opts   LoopOptions
	logger *slog.Logger
}

// NewLoop validates opts and creates a Loop.
func NewLoop(opts LoopOptions) (*Loop, error) {
	switch {
	case opts.Source == nil:
		return nil, errors.New("assistant: audio source is required")
	case opts.Queue == nil:
		return nil, errors.New("assistant: chunk queue is required")
	case opts.Reassembler == nil:
		return nil, errors.New("assistant: reassembler is required")
	case opts.Classifier == nil:
		return nil, errors.New("assistant: classifier is required")
	case opts.Machine == nil:
		return nil, errors.New("assistant: segmentation machine is required")
	case opts.Orchestrator == nil:
		return nil, errors.New("assistant: orchestrator is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{opts: opts, logger: logger.With("component", "loop")}, nil
}

// Run starts capture and processes audio until ctx is done. Cancellation
// abandons any utterance in progress and returns nil. The source is closed
// before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.opts.Source.Start(l.opts.Queue.Push); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	defer func() {
		if err := l.opts.Source.Close(); err != nil {
			l.logger.Warn("closing audio source", "error", err)
		}
	}()

	l.logger.Info("listening",
		"frame_bytes", l.opts.Reassembler.FrameSize(),
		"state", l.opts.Machine.State())

	for {
		chunk, err := l.opts.Queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("stopping", "state", l.opts.Machine.State(), "buffered", l.opts.Machine.Buffered())
				return nil
			}
			return fmt.Errorf("pop chunk: %w", err)
		}
		l.processChunk(ctx, chunk)
	}
}

// processChunk reassembles one chunk and advances the machine frame by
// frame. A panic abandons the rest of the chunk but not the loop.
func (l *Loop) processChunk(ctx context.Context, chunk []byte) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("recovered panic while processing audio", "panic", r)
		}
	}()

	l.opts.Reassembler.Push(chunk)
	for frame := range l.opts.Reassembler.Frames() {
		speech, err := l.opts.Classifier.IsSpeech(frame)
		if err != nil {
			l.logger.Error("classifying frame", "error", err)
			continue
		}

		res := l.opts.Machine.Feed(frame, speech)
		if res.Event == segment.EventNone {
			continue
		}
		if l.opts.OnEvent != nil {
			l.opts.OnEvent(res)
		}

		switch res.Event {
		case segment.EventCaptureStarted:
			l.logger.Debug("speech detected, capturing")
		case segment.EventFinalized:
			// Handle flushes the reassembler, which ends this range.
			out := l.opts.Orchestrator.Handle(ctx, res.Utterance)
			if l.opts.OnOutcome != nil {
				l.opts.OnOutcome(out)
			}
		}
	}
}
