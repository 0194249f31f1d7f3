package assistant

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtime-ai/jetvoice/pkg/segment"
)

type loopHarness struct {
	*harness
	classifier *byteClassifier
	machine    *segment.Machine
	loop       *Loop

	mu       sync.Mutex
	events   []segment.Event
	outcomes chan Outcome
}

func newLoopHarness(t *testing.T) *loopHarness {
	t.Helper()
	h := &loopHarness{
		harness:    newHarness(t),
		classifier: &byteClassifier{},
		outcomes:   make(chan Outcome, 4),
	}

	var err error
	h.machine, err = segment.New(segment.Config{NStreak: 3, NSilence: 5, FrameSize: testFrameSize})
	require.NoError(t, err)

	h.loop, err = NewLoop(LoopOptions{
		Source:       h.source,
		Queue:        h.queue,
		Reassembler:  h.reasm,
		Classifier:   h.classifier,
		Machine:      h.machine,
		Orchestrator: h.orch,
		OnEvent: func(r segment.Result) {
			h.mu.Lock()
			h.events = append(h.events, r.Event)
			h.mu.Unlock()
		},
		OnOutcome: func(o Outcome) { h.outcomes <- o },
	})
	require.NoError(t, err)
	return h
}

// run starts the loop and returns a function that stops it and reports
// Run's error.
func (h *loopHarness) run(t *testing.T) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.loop.Run(ctx) }()

	require.Eventually(t, h.source.Started, time.Second, time.Millisecond)
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("loop did not stop")
			return nil
		}
	}
}

// emitInChunks delivers pcm through the source in chunks of size bytes.
func (h *loopHarness) emitInChunks(t *testing.T, pcm []byte, size int) {
	t.Helper()
	for len(pcm) > 0 {
		n := min(size, len(pcm))
		require.True(t, h.source.Emit(pcm[:n]))
		pcm = pcm[n:]
	}
}

func (h *loopHarness) waitOutcome(t *testing.T) Outcome {
	t.Helper()
	select {
	case out := <-h.outcomes:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("no utterance was handled")
		return Outcome{}
	}
}

func TestNewLoop_RequiresCollaborators(t *testing.T) {
	_, err := NewLoop(LoopOptions{})
	assert.Error(t, err)
}

func TestLoop_EndToEnd(t *testing.T) {
	h := newLoopHarness(t)
	stop := h.run(t)

	var pcm []byte
	pcm = append(pcm, frames(2, silenceByte)...)
	pcm = append(pcm, frames(3, speechByte)...)
	pcm = append(pcm, frames(4, speechByte)...)
	pcm = append(pcm, frames(5, silenceByte)...)
	// Odd chunk sizes so frames straddle chunk boundaries.
	h.emitInChunks(t, pcm, 1000)

	out := h.waitOutcome(t)
	require.NoError(t, stop())

	require.Len(t, h.stt.Calls(), 1)
	got := h.stt.Calls()[0]
	assert.Len(t, got, 7680)

	var want []byte
	want = append(want, frames(7, speechByte)...)
	want = append(want, frames(5, silenceByte)...)
	assert.Equal(t, want, got)

	assert.True(t, out.Spoken)
	assert.Equal(t, segment.Listening, h.machine.State())
	assert.Equal(t, 0, h.machine.SpeechStreak())
	assert.Equal(t, 0, h.machine.SilenceStreak())
	assert.Equal(t, []segment.Event{segment.EventCaptureStarted, segment.EventFinalized}, h.events)
	assert.True(t, h.source.Closed())
}

func TestLoop_FirstFrameAfterResumeIsFresh(t *testing.T) {
	h := newLoopHarness(t)
	const stale = 9
	h.synth.fn = func(string) error {
		// Captured between the pause request and the device stopping.
		h.queue.Push(frames(2, stale))
		return nil
	}
	stop := h.run(t)
	defer stop()

	var pcm []byte
	pcm = append(pcm, frames(3, speechByte)...)
	pcm = append(pcm, frames(5, silenceByte)...)
	// The chunk that finalizes also carries a frame and a half of audio
	// that was captured before playback.
	pcm = append(pcm, frames(1, stale)...)
	pcm = append(pcm, bytes.Repeat([]byte{stale}, testFrameSize/2)...)
	require.True(t, h.source.Emit(pcm))

	h.waitOutcome(t)
	seen := h.classifier.Seen()
	assert.Equal(t, 8, seen, "frames after the finalizing one are never classified")

	const fresh = 3
	require.True(t, h.source.Emit(frames(1, fresh)))
	require.Eventually(t, func() bool { return h.classifier.Seen() > seen }, time.Second, time.Millisecond)

	assert.Equal(t, frames(1, fresh), h.classifier.Frame(seen))
}

func TestLoop_SurvivesClassifierErrorAndPanic(t *testing.T) {
	h := newLoopHarness(t)
	h.classifier.fn = func(frame []byte) (bool, error) {
		switch frame[0] {
		case 7:
			return false, assert.AnError
		case 8:
			panic("classifier bug")
		}
		return frame[0] == speechByte, nil
	}
	stop := h.run(t)

	// The erroring frame is skipped; the panicking chunk is abandoned.
	require.True(t, h.source.Emit(frames(1, 7)))
	require.True(t, h.source.Emit(frames(1, 8)))

	var pcm []byte
	pcm = append(pcm, frames(3, speechByte)...)
	pcm = append(pcm, frames(5, silenceByte)...)
	require.True(t, h.source.Emit(pcm))

	out := h.waitOutcome(t)
	require.NoError(t, stop())

	assert.True(t, out.Spoken)
	require.Len(t, h.stt.Calls(), 1)
	assert.Len(t, h.stt.Calls()[0], 8*testFrameSize)
}

func TestLoop_CancelAbandonsUtterance(t *testing.T) {
	h := newLoopHarness(t)
	stop := h.run(t)

	require.True(t, h.source.Emit(frames(4, speechByte)))
	require.Eventually(t, func() bool { return h.classifier.Seen() == 4 }, time.Second, time.Millisecond)

	require.NoError(t, stop())
	assert.Empty(t, h.stt.Calls())
	assert.True(t, h.source.Closed())
}

func TestLoop_StartFailure(t *testing.T) {
	h := newLoopHarness(t)
	require.NoError(t, h.source.Close())

	err := h.loop.Run(context.Background())
	assert.Error(t, err)
}
