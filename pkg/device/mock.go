package device

import (
	"errors"
	"sync"
	"sync/atomic"
)

// MockSource is a Source driven by the test: Emit delivers a chunk as if the
// device callback had fired.
type MockSource struct {
	// PauseErr and ResumeErr are returned by Pause and Resume when set.
	PauseErr  error
	ResumeErr error
	// OnPause runs inside Pause, after the paused flag is set.
	OnPause func()

	mu      sync.Mutex
	onChunk func([]byte)
	closed  bool

	paused  atomic.Bool
	pauses  atomic.Int32
	resumes atomic.Int32
}

// NewMockSource creates an unstarted mock source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// Start implements Source.
func (m *MockSource) Start(onChunk func([]byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.onChunk != nil {
		return errors.New("mock source already started")
	}
	m.onChunk = onChunk
	return nil
}

// Emit delivers chunk unless the source is paused, closed or not started.
// It reports whether the chunk was delivered.
func (m *MockSource) Emit(chunk []byte) bool {
	m.mu.Lock()
	cb := m.onChunk
	closed := m.closed
	m.mu.Unlock()

	if cb == nil || closed || m.paused.Load() {
		return false
	}
	cb(append([]byte(nil), chunk...))
	return true
}

// Started reports whether Start has been called.
func (m *MockSource) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onChunk != nil
}

// Pause implements Source.
func (m *MockSource) Pause() error {
	m.paused.Store(true)
	m.pauses.Add(1)
	if m.OnPause != nil {
		m.OnPause()
	}
	return m.PauseErr
}

// Resume implements Source.
func (m *MockSource) Resume() error {
	m.resumes.Add(1)
	if m.ResumeErr != nil {
		return m.ResumeErr
	}
	m.paused.Store(false)
	return nil
}

// Paused implements Source.
func (m *MockSource) Paused() bool { return m.paused.Load() }

// Close implements Source.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Pauses returns the number of Pause calls.
func (m *MockSource) Pauses() int { return int(m.pauses.Load()) }

// Resumes returns the number of Resume calls.
func (m *MockSource) Resumes() int { return int(m.resumes.Load()) }

var _ Source = (*MockSource)(nil)
