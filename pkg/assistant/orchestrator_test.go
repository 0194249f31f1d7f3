package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/realtime-ai/jetvoice/pkg/audio"
	"github.com/realtime-ai/jetvoice/pkg/device"
	"github.com/realtime-ai/jetvoice/pkg/llm"
	"github.com/realtime-ai/jetvoice/pkg/segment"
	"github.com/realtime-ai/jetvoice/pkg/trace"
)

type harness struct {
	stt    *fakeTranscriber
	model  *fakeModel
	synth  *fakeSynth
	source *device.MockSource
	queue  *audio.ChunkQueue
	reasm  *audio.Reassembler
	orch   *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reasm, err := audio.NewReassembler(testFrameSize)
	require.NoError(t, err)

	h := &harness{
		stt:    &fakeTranscriber{},
		model:  &fakeModel{},
		synth:  &fakeSynth{},
		source: device.NewMockSource(),
		queue:  audio.NewChunkQueue(0),
		reasm:  reasm,
	}
	h.orch, err = NewOrchestrator(Options{
		Transcriber: h.stt,
		Model:       h.model,
		Synthesizer: h.synth,
		Source:      h.source,
		Queue:       h.queue,
		Reassembler: h.reasm,
		SampleRate:  testRate,
	})
	require.NoError(t, err)
	return h
}

func utterance(n int) *segment.Utterance {
	start := time.Now()
	return &segment.Utterance{
		ID:        "utt-1",
		Audio:     frames(n, speechByte),
		Frames:    n,
		StartedAt: start,
		EndedAt:   start.Add(time.Duration(n) * 20 * time.Millisecond),
	}
}

func TestNewOrchestrator_RequiresCollaborators(t *testing.T) {
	h := newHarness(t)
	base := Options{
		Transcriber: h.stt,
		Model:       h.model,
		Synthesizer: h.synth,
		Source:      h.source,
		Queue:       h.queue,
		Reassembler: h.reasm,
		SampleRate:  testRate,
	}

	mutations := map[string]func(*Options){
		"transcriber": func(o *Options) { o.Transcriber = nil },
		"model":       func(o *Options) { o.Model = nil },
		"synthesizer": func(o *Options) { o.Synthesizer = nil },
		"source":      func(o *Options) { o.Source = nil },
		"queue":       func(o *Options) { o.Queue = nil },
		"reassembler": func(o *Options) { o.Reassembler = nil },
		"sample rate": func(o *Options) { o.SampleRate = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			opts := base
			mutate(&opts)
			_, err := NewOrchestrator(opts)
			assert.Error(t, err)
		})
	}
}

func TestHandle_EmptyUtterance(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, Outcome{}, h.orch.Handle(context.Background(), nil))
	assert.Equal(t, Outcome{}, h.orch.Handle(context.Background(), &segment.Utterance{ID: "x"}))
	assert.Empty(t, h.stt.Calls())
	assert.Equal(t, 0, h.source.Pauses())
}

func TestHandle_FullTurn(t *testing.T) {
	h := newHarness(t)
	h.stt.fn = func([]byte) (string, error) { return "  what time is it \n", nil }
	h.model.fn = func(string) (string, error) { return " It is noon. ", nil }

	var phaseDuringSpeak Phase
	var pausedDuringSpeak bool
	h.synth.fn = func(string) error {
		phaseDuringSpeak = h.orch.Phase()
		pausedDuringSpeak = h.source.Paused()
		return nil
	}

	u := utterance(12)
	out := h.orch.Handle(context.Background(), u)

	require.Len(t, h.stt.Calls(), 1)
	assert.Equal(t, u.Audio, h.stt.Calls()[0])
	assert.Equal(t, []int{testRate}, h.stt.rates)
	assert.Equal(t, []string{"what time is it"}, h.model.Prompts())
	assert.Equal(t, []string{"It is noon."}, h.synth.Texts())

	assert.Equal(t, PhasePausedForPlayback, phaseDuringSpeak)
	assert.True(t, pausedDuringSpeak)

	assert.Equal(t, 1, h.source.Pauses())
	assert.Equal(t, 1, h.source.Resumes())
	assert.False(t, h.source.Paused())
	assert.Equal(t, PhaseIdle, h.orch.Phase())

	assert.Equal(t, "utt-1", out.UtteranceID)
	assert.Equal(t, "what time is it", out.Transcript)
	assert.Equal(t, "It is noon.", out.Response)
	assert.True(t, out.Spoken)
	assert.Empty(t, out.StoppedAt)
	assert.NoError(t, out.Err)
}

func TestHandle_PhasesInOrder(t *testing.T) {
	h := newHarness(t)
	var phases []Phase
	h.stt.fn = func([]byte) (string, error) {
		phases = append(phases, h.orch.Phase())
		return "hello", nil
	}
	h.model.fn = func(string) (string, error) {
		phases = append(phases, h.orch.Phase())
		return "hi", nil
	}
	h.synth.fn = func(string) error {
		phases = append(phases, h.orch.Phase())
		return nil
	}

	h.orch.Handle(context.Background(), utterance(3))
	assert.Equal(t, []Phase{PhaseTranscribing, PhaseQuerying, PhasePausedForPlayback}, phases)
	assert.Equal(t, PhaseIdle, h.orch.Phase())
}

func TestHandle_FlushDiscardsEverythingCapturedBeforeResume(t *testing.T) {
	h := newHarness(t)

	// Backlog that built up while the turn was transcribed and answered.
	h.queue.Push(frames(1, 9))
	h.queue.Push(frames(1, 9))
	h.queue.Push(frames(1, 9))
	h.reasm.Push(make([]byte, 100))

	h.synth.fn = func(string) error {
		// Chunks that slipped in between the pause request and the device
		// actually stopping.
		h.queue.Push(frames(1, 9))
		h.queue.Push(frames(1, 9))
		return nil
	}

	out := h.orch.Handle(context.Background(), utterance(3))

	assert.Equal(t, 5, out.FlushedChunks)
	assert.Equal(t, 100, out.FlushedBytes)
	assert.Equal(t, 0, h.queue.Len())
	assert.Equal(t, 0, h.reasm.Pending())

	h.queue.Push(frames(1, 3))
	chunk, err := h.queue.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, frames(1, 3), chunk)
}

func TestHandle_EmptyTranscriptStopsEarly(t *testing.T) {
	h := newHarness(t)
	h.stt.fn = func([]byte) (string, error) { return "   ", nil }
	h.queue.Push(frames(1, 9))

	out := h.orch.Handle(context.Background(), utterance(3))

	assert.Equal(t, StageTranscribe, out.StoppedAt)
	assert.NoError(t, out.Err)
	assert.Empty(t, h.model.Prompts())
	assert.Equal(t, 0, h.source.Pauses())
	assert.Equal(t, 1, h.queue.Len(), "nothing is flushed without playback")
	assert.Equal(t, PhaseIdle, h.orch.Phase())
}

func TestHandle_TranscriberError(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("network down")
	h.stt.fn = func([]byte) (string, error) { return "", boom }

	out := h.orch.Handle(context.Background(), utterance(3))

	assert.Equal(t, StageTranscribe, out.StoppedAt)
	assert.ErrorIs(t, out.Err, boom)
	assert.Empty(t, h.model.Prompts())
	assert.Equal(t, 0, h.source.Pauses())
}

func TestHandle_TranscriberPanic(t *testing.T) {
	h := newHarness(t)
	h.stt.fn = func([]byte) (string, error) { panic("decoder exploded") }

	var out Outcome
	require.NotPanics(t, func() { out = h.orch.Handle(context.Background(), utterance(3)) })
	assert.ErrorIs(t, out.Err, ErrStagePanic)
	assert.Equal(t, PhaseIdle, h.orch.Phase())
}

func TestHandle_EmptyModelResponse(t *testing.T) {
	for name, fn := range map[string]func(string) (string, error){
		"blank":        func(string) (string, error) { return " \n", nil },
		"empty errors": func(string) (string, error) { return "", llm.ErrEmptyResponse },
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.model.fn = fn

			out := h.orch.Handle(context.Background(), utterance(3))

			assert.Equal(t, StageAsk, out.StoppedAt)
			assert.NoError(t, out.Err)
			assert.Empty(t, h.synth.Texts())
			assert.Equal(t, 0, h.source.Pauses())
		})
	}
}

func TestHandle_ModelPanic(t *testing.T) {
	h := newHarness(t)
	h.model.fn = func(string) (string, error) { panic("nil map") }

	out := h.orch.Handle(context.Background(), utterance(3))

	assert.Equal(t, StageAsk, out.StoppedAt)
	assert.ErrorIs(t, out.Err, ErrStagePanic)
	assert.Equal(t, 0, h.source.Pauses())
}

func TestHandle_ResumesAfterSynthesizerFailure(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("speaker unplugged")
	h.synth.fn = func(string) error { return boom }
	h.queue.Push(frames(1, 9))

	out := h.orch.Handle(context.Background(), utterance(3))

	assert.Equal(t, StageSpeak, out.StoppedAt)
	assert.ErrorIs(t, out.Err, boom)
	assert.False(t, out.Spoken)
	assert.Equal(t, 1, out.FlushedChunks)
	assert.Equal(t, 1, h.source.Resumes())
	assert.False(t, h.source.Paused())
	assert.Equal(t, PhaseIdle, h.orch.Phase())
}

func TestHandle_ResumesAfterSynthesizerPanic(t *testing.T) {
	h := newHarness(t)
	h.synth.fn = func(string) error { panic("driver crashed") }

	var out Outcome
	require.NotPanics(t, func() { out = h.orch.Handle(context.Background(), utterance(3)) })

	assert.ErrorIs(t, out.Err, ErrStagePanic)
	assert.Equal(t, 1, h.source.Resumes())
	assert.False(t, h.source.Paused())
	assert.Equal(t, PhaseIdle, h.orch.Phase())
}

func TestHandle_PauseErrorStillSpeaks(t *testing.T) {
	h := newHarness(t)
	h.source.PauseErr = errors.New("device busy")

	out := h.orch.Handle(context.Background(), utterance(3))

	assert.True(t, out.Spoken)
	assert.Equal(t, []string{"It is noon."}, h.synth.Texts())
	assert.Equal(t, 1, h.source.Resumes())
}

func TestHandle_ResumeErrorIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.source.ResumeErr = errors.New("device gone")

	out := h.orch.Handle(context.Background(), utterance(3))

	assert.True(t, out.Spoken)
	assert.Equal(t, 1, h.source.Resumes())
	assert.Equal(t, PhaseIdle, h.orch.Phase())
}

func TestHandle_StageSpansCarryStatus(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	require.NoError(t, trace.InitializeWithProcessor(trace.DefaultConfig(), rec))
	t.Cleanup(func() { _ = trace.Shutdown(context.Background()) })

	h := newHarness(t)
	h.synth.fn = func(string) error { return errors.New("speaker unplugged") }

	h.orch.Handle(context.Background(), utterance(3))

	status := map[string]codes.Code{}
	for _, s := range rec.Ended() {
		status[s.Name()] = s.Status().Code
	}
	assert.Equal(t, map[string]codes.Code{
		trace.SpanSTT:  codes.Unset,
		trace.SpanLLM:  codes.Unset,
		trace.SpanTTS:  codes.Error,
		trace.SpanTurn: codes.Unset,
	}, status)
}

func TestHandle_EmptyModelResponseSpanIsNotAnError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	require.NoError(t, trace.InitializeWithProcessor(trace.DefaultConfig(), rec))
	t.Cleanup(func() { _ = trace.Shutdown(context.Background()) })

	h := newHarness(t)
	h.model.fn = func(string) (string, error) { return "", llm.ErrEmptyResponse }

	h.orch.Handle(context.Background(), utterance(3))

	for _, s := range rec.Ended() {
		assert.Equal(t, codes.Unset, s.Status().Code, s.Name())
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "transcribing", PhaseTranscribing.String())
	assert.Equal(t, "querying", PhaseQuerying.String())
	assert.Equal(t, "paused_for_playback", PhasePausedForPlayback.String())
	assert.Equal(t, "Phase(9)", Phase(9).String())
}
