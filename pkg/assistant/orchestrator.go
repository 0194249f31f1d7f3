// Package assistant runs the listen, transcribe, answer and speak cycle.
//
// Loop owns the capture side: it drains the chunk queue, cuts frames,
// classifies them and drives the segmentation machine. Each finalized
// utterance is handed to Orchestrator.Handle, which runs synchronously on
// the loop goroutine, so no frame is classified while a turn is in flight.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/realtime-ai/jetvoice/pkg/asr"
	"github.com/realtime-ai/jetvoice/pkg/audio"
	"github.com/realtime-ai/jetvoice/pkg/device"
	"github.com/realtime-ai/jetvoice/pkg/llm"
	"github.com/realtime-ai/jetvoice/pkg/segment"
	"github.com/realtime-ai/jetvoice/pkg/trace"
	"github.com/realtime-ai/jetvoice/pkg/tts"
)

// ErrStagePanic wraps a panic recovered from a stage call.
var ErrStagePanic = errors.New("assistant: stage panicked")

// Phase is what the orchestrator is doing right now.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseTranscribing
	PhaseQuerying
	// PhasePausedForPlayback covers the window from Pause to Resume,
	// including the flush.
	PhasePausedForPlayback
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTranscribing:
		return "transcribing"
	case PhaseQuerying:
		return "querying"
	case PhasePausedForPlayback:
		return "paused_for_playback"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// Stage names reported in Outcome.
const (
	StageTranscribe = "transcribe"
	StageAsk        = "ask"
	StageSpeak      = "speak"
)

// Outcome summarizes one Handle call.
type Outcome struct {
	UtteranceID string
	Transcript  string
	Response    string
	// Spoken is true when the synthesizer returned without error.
	Spoken bool
	// StoppedAt names the stage that ended the turn early, if any.
	StoppedAt string
	Err       error

	FlushedChunks int
	FlushedBytes  int
}

// Options wires an Orchestrator.
type Options struct {
	Transcriber asr.Transcriber
	Model       llm.LanguageModel
	Synthesizer tts.Synthesizer
	Source      device.Source
	Queue       *audio.ChunkQueue
	Reassembler *audio.Reassembler
	SampleRate  int
	Logger      *slog.Logger
}

// Orchestrator sequences the stages for one utterance and owns the
// pause, flush and resume protocol around playback.
type Orchestrator struct {
	transcriber asr.Transcriber
	model       llm.LanguageModel
	synth       tts.Synthesizer
	source      device.Source
	queue       *audio.ChunkQueue
	reassembler *audio.Reassembler
	sampleRate  int
	logger      *slog.Logger

	phase atomic.Int32
}

// NewOrchestrator validates opts and creates an idle Orchestrator.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Transcriber == nil:
		return nil, errors.New("assistant: transcriber is required")
	case opts.Model == nil:
		return nil, errors.New("assistant: language model is required")
	case opts.Synthesizer == nil:
		return nil, errors.New("assistant: synthesizer is required")
	case opts.Source == nil:
		return nil, errors.New("assistant: audio source is required")
	case opts.Queue == nil:
		return nil, errors.New("assistant: chunk queue is required")
	case opts.Reassembler == nil:
		return nil, errors.New("assistant: reassembler is required")
	case opts.SampleRate <= 0:
		return nil, fmt.Errorf("assistant: invalid sample rate %d", opts.SampleRate)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		transcriber: opts.Transcriber,
		model:       opts.Model,
		synth:       opts.Synthesizer,
		source:      opts.Source,
		queue:       opts.Queue,
		reassembler: opts.Reassembler,
		sampleRate:  opts.SampleRate,
		logger:      logger.With("component", "orchestrator"),
	}, nil
}

// Phase returns the current phase. Safe to call from any goroutine.
func (o *Orchestrator) Phase() Phase {
	return Phase(o.phase.Load())
}

func (o *Orchestrator) setPhase(p Phase) {
	o.phase.Store(int32(p))
}

// Handle runs one turn for u. It never panics and always leaves the
// orchestrator idle with capture resumed if it was paused.
func (o *Orchestrator) Handle(ctx context.Context, u *segment.Utterance) Outcome {
	if u == nil || len(u.Audio) == 0 {
		o.logger.Warn("ignoring empty utterance")
		return Outcome{}
	}
	out := Outcome{UtteranceID: u.ID}
	defer o.setPhase(PhaseIdle)

	ctx, span := trace.InstrumentTurn(ctx, u.ID, u.Frames, len(u.Audio), o.sampleRate)
	defer span.End()
	logger := trace.Logger(ctx, o.logger).With("utterance_id", u.ID)

	logger.Info("utterance finalized",
		"frames", u.Frames,
		"bytes", len(u.Audio),
		"duration", u.EndedAt.Sub(u.StartedAt))

	o.setPhase(PhaseTranscribing)
	transcript, err := o.transcribe(ctx, u.Audio)
	if err != nil {
		logger.Error("transcription failed", "error", err)
		return stopped(out, StageTranscribe, err)
	}
	if transcript == "" {
		logger.Info("empty transcript, back to listening")
		return stopped(out, StageTranscribe, nil)
	}
	out.Transcript = transcript
	logger.Info("transcribed", "text", transcript)

	o.setPhase(PhaseQuerying)
	response, err := o.ask(ctx, transcript)
	if err != nil {
		logger.Warn("language model failed", "error", err)
		return stopped(out, StageAsk, err)
	}
	if response == "" {
		logger.Warn("empty response from language model")
		return stopped(out, StageAsk, nil)
	}
	out.Response = response
	logger.Info("assistant response", "text", response)

	o.speakPaused(ctx, logger, response, &out)
	return out
}

func stopped(out Outcome, stage string, err error) Outcome {
	out.StoppedAt = stage
	out.Err = err
	return out
}

// speakPaused pauses capture, speaks, then flushes and resumes. The flush
// and resume run even when the synthesizer fails.
func (o *Orchestrator) speakPaused(ctx context.Context, logger *slog.Logger, text string, out *Outcome) {
	if err := guard("pause", o.source.Pause); err != nil {
		logger.Warn("pausing capture failed, speaking anyway", "error", err)
	}
	o.setPhase(PhasePausedForPlayback)

	defer func() {
		out.FlushedChunks, out.FlushedBytes = o.flush()
		logger.Debug("flushed capture backlog",
			"chunks", out.FlushedChunks,
			"bytes", out.FlushedBytes)

		if err := guard("resume", o.source.Resume); err != nil {
			logger.Error("resuming capture failed", "error", err)
		}
	}()

	ctx, span := trace.InstrumentTTSRequest(ctx, o.synth.Name(), text)
	err := guard(StageSpeak, func() error { return o.synth.Speak(ctx, text) })
	trace.End(span, err)
	if err != nil {
		logger.Error("speech synthesis failed", "error", err)
		out.StoppedAt = StageSpeak
		out.Err = err
		return
	}
	out.Spoken = true
}

// flush drops everything captured before playback ended. The queue swap is
// atomic with respect to concurrent pushes from the capture callback.
func (o *Orchestrator) flush() (chunks, bytes int) {
	return o.queue.Flush(), o.reassembler.Discard()
}

func (o *Orchestrator) transcribe(ctx context.Context, pcm []byte) (text string, err error) {
	ctx, span := trace.InstrumentSTTRequest(ctx, nameOf(o.transcriber), len(pcm))
	defer func() { trace.End(span, err) }()

	err = guard(StageTranscribe, func() error {
		var err error
		text, err = o.transcriber.Transcribe(ctx, pcm, o.sampleRate)
		return err
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (o *Orchestrator) ask(ctx context.Context, prompt string) (text string, err error) {
	ctx, span := trace.InstrumentLLMRequest(ctx, nameOf(o.model), modelOf(o.model), len(prompt))
	defer func() { trace.End(span, err) }()

	err = guard(StageAsk, func() error {
		var err error
		text, err = o.model.Ask(ctx, prompt)
		return err
	})
	if errors.Is(err, llm.ErrEmptyResponse) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// guard runs fn and converts a panic into an error wrapping ErrStagePanic.
func guard(stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrStagePanic, stage, r)
		}
	}()
	return fn()
}

func nameOf(v any) string {
	if n, ok := v.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", v)
}

func modelOf(v any) string {
	if m, ok := v.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}
