package vad

import "sync"

// MockDetector is a scripted SpeechModel for tests.
type MockDetector struct {
	// Script is returned in order, cycling when exhausted. Empty means
	// every call scores 0.
	Script []float32
	// InferFunc replaces Script when set.
	InferFunc func(samples []float32) (float32, error)

	// InferCalls holds a copy of every input.
	InferCalls [][]float32
	Resets     int
	Destroys   int

	mu   sync.Mutex
	next int
}

// NewMockDetector returns a detector that never hears speech.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// NewMockDetectorWithSequence returns a detector that replays probs.
func NewMockDetectorWithSequence(probs []float32) *MockDetector {
	return &MockDetector{Script: probs}
}

// Infer implements SpeechModel.
func (m *MockDetector) Infer(samples []float32) (float32, error) {
	m.mu.Lock()
	m.InferCalls = append(m.InferCalls, append([]float32(nil), samples...))
	fn := m.InferFunc
	var prob float32
	if fn == nil && len(m.Script) > 0 {
		prob = m.Script[m.next%len(m.Script)]
		m.next++
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(samples)
	}
	return prob, nil
}

// Reset implements SpeechModel.
func (m *MockDetector) Reset() error {
	m.mu.Lock()
	m.Resets++
	m.next = 0
	m.mu.Unlock()
	return nil
}

// Destroy implements SpeechModel.
func (m *MockDetector) Destroy() error {
	m.mu.Lock()
	m.Destroys++
	m.mu.Unlock()
	return nil
}

// InferCallCount returns the number of Infer calls so far.
func (m *MockDetector) InferCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.InferCalls)
}

var _ SpeechModel = (*MockDetector)(nil)
