package assistant

import (
	"bytes"
	"context"
	"sync"
)

type fakeTranscriber struct {
	mu    sync.Mutex
	calls [][]byte
	rates []int
	fn    func(audio []byte) (string, error)
}

func (f *fakeTranscriber) Name() string { return "fake-stt" }

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, sampleRate int) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]byte(nil), audio...))
	f.rates = append(f.rates, sampleRate)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(audio)
	}
	return "what time is it", nil
}

func (f *fakeTranscriber) Calls() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.calls...)
}

type fakeModel struct {
	mu      sync.Mutex
	prompts []string
	fn      func(prompt string) (string, error)
}

func (f *fakeModel) Ask(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(prompt)
	}
	return "It is noon.", nil
}

func (f *fakeModel) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

type fakeSynth struct {
	mu    sync.Mutex
	texts []string
	fn    func(text string) error
}

func (f *fakeSynth) Name() string { return "fake-tts" }

func (f *fakeSynth) Speak(_ context.Context, text string) error {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(text)
	}
	return nil
}

func (f *fakeSynth) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// byteClassifier treats a frame as speech when its first byte is 1. It
// records every frame it sees.
type byteClassifier struct {
	mu     sync.Mutex
	frames [][]byte
	fn     func(frame []byte) (bool, error)
}

func (c *byteClassifier) IsSpeech(frame []byte) (bool, error) {
	c.mu.Lock()
	c.frames = append(c.frames, append([]byte(nil), frame...))
	c.mu.Unlock()
	if c.fn != nil {
		return c.fn(frame)
	}
	return frame[0] == 1, nil
}

func (c *byteClassifier) Seen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *byteClassifier) Frame(i int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[i]
}

const (
	testRate      = 16000
	testFrameSize = 640

	silenceByte = 0
	speechByte  = 1
)

func frames(n int, tag byte) []byte {
	return bytes.Repeat([]byte{tag}, n*testFrameSize)
}
