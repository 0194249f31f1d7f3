// Package segment turns a stream of classified frames into utterances.
//
// Machine applies hysteresis in both directions: capture opens only after
// NStreak consecutive speech frames and closes only after NSilence
// consecutive silence frames, so single misclassified frames neither start
// nor end an utterance.
package segment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/realtime-ai/jetvoice/pkg/audio"
)

// ErrInvalidConfig is wrapped by every configuration error from New.
var ErrInvalidConfig = errors.New("segment: invalid config")

// State is the segmentation state.
type State int

const (
	// Listening waits for a speech streak long enough to open an utterance.
	Listening State = iota
	// Capturing appends every frame to the current utterance.
	Capturing
)

func (s State) String() string {
	switch s {
	case Listening:
		return "listening"
	case Capturing:
		return "capturing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event reports what a Feed call changed.
type Event int

const (
	EventNone Event = iota
	// EventCaptureStarted fires when the speech streak opens an utterance.
	EventCaptureStarted
	// EventFinalized fires when the silence streak closes the utterance.
	EventFinalized
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventCaptureStarted:
		return "capture_started"
	case EventFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Utterance is a finalized stretch of speech. Audio holds the frames that
// opened the capture, everything after them, and the closing silence.
type Utterance struct {
	ID        string
	Audio     []byte
	Frames    int
	StartedAt time.Time
	EndedAt   time.Time
}

// Result is the outcome of one Feed call. Utterance is set only for
// EventFinalized.
type Result struct {
	Event     Event
	Utterance *Utterance
}

// Config sets the hysteresis thresholds.
type Config struct {
	// NStreak is the number of consecutive speech frames that open capture.
	NStreak int
	// NSilence is the number of consecutive silence frames that close it.
	NSilence int
	// FrameSize is the length in bytes of every frame passed to Feed.
	FrameSize int
	// Now overrides the clock for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Machine is the segmentation state machine. It is owned by a single
// goroutine and is not safe for concurrent use.
type Machine struct {
	cfg Config

	state         State
	speechStreak  int
	silenceStreak int

	// frames of the current speech streak while Listening
	pending *audio.FrameRing

	buf       []byte
	frames    int
	startedAt time.Time
}

// New creates a Machine in the Listening state.
func New(cfg Config) (*Machine, error) {
	if cfg.NStreak <= 0 {
		return nil, fmt.Errorf("%w: n_streak must be positive, got %d", ErrInvalidConfig, cfg.NStreak)
	}
	if cfg.NSilence <= 0 {
		return nil, fmt.Errorf("%w: n_silence must be positive, got %d", ErrInvalidConfig, cfg.NSilence)
	}
	if cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("%w: frame size must be positive, got %d", ErrInvalidConfig, cfg.FrameSize)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Machine{
		cfg:     cfg,
		state:   Listening,
		pending: audio.NewFrameRing(cfg.FrameSize, cfg.NStreak),
	}, nil
}

// Feed advances the machine by one classified frame. frame must be exactly
// FrameSize bytes; the machine copies what it keeps.
func (m *Machine) Feed(frame []byte, speech bool) Result {
	if len(frame) != m.cfg.FrameSize {
		panic(fmt.Sprintf("segment: frame of %d bytes, want %d", len(frame), m.cfg.FrameSize))
	}

	if speech {
		return m.onSpeech(frame)
	}
	return m.onSilence(frame)
}

func (m *Machine) onSpeech(frame []byte) Result {
	m.speechStreak++
	m.silenceStreak = 0

	if m.state == Capturing {
		m.appendFrame(frame)
		return Result{}
	}

	m.pending.Push(frame)
	if m.speechStreak < m.cfg.NStreak {
		return Result{}
	}

	m.state = Capturing
	m.buf = m.pending.Bytes()
	m.frames = m.pending.Len()
	m.startedAt = m.cfg.Now()
	m.pending.Reset()
	return Result{Event: EventCaptureStarted}
}

func (m *Machine) onSilence(frame []byte) Result {
	m.speechStreak = 0
	m.silenceStreak++

	if m.state == Listening {
		m.pending.Reset()
		return Result{}
	}

	m.appendFrame(frame)
	if m.silenceStreak < m.cfg.NSilence {
		return Result{}
	}

	u := &Utterance{
		ID:        uuid.NewString(),
		Audio:     m.buf,
		Frames:    m.frames,
		StartedAt: m.startedAt,
		EndedAt:   m.cfg.Now(),
	}
	m.Reset()
	return Result{Event: EventFinalized, Utterance: u}
}

func (m *Machine) appendFrame(frame []byte) {
	m.buf = append(m.buf, frame...)
	m.frames++
}

// Reset abandons any utterance in progress and returns to Listening with
// both streaks at zero.
func (m *Machine) Reset() {
	m.state = Listening
	m.speechStreak = 0
	m.silenceStreak = 0
	m.pending.Reset()
	m.buf = nil
	m.frames = 0
	m.startedAt = time.Time{}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// SpeechStreak returns the number of consecutive speech frames just seen.
func (m *Machine) SpeechStreak() int { return m.speechStreak }

// SilenceStreak returns the number of consecutive silence frames just seen.
func (m *Machine) SilenceStreak() int { return m.silenceStreak }

// Buffered returns the number of bytes in the utterance being captured.
func (m *Machine) Buffered() int { return len(m.buf) }
