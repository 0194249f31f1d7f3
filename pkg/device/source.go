// Package device wraps the sound card: microphone capture and speaker
// playback.
package device

import "errors"

// ErrClosed is returned by operations on a closed source.
var ErrClosed = errors.New("device: source closed")

// Source delivers captured PCM chunks (16-bit little-endian mono) to a
// callback. The callback runs on the audio thread and must not block.
//
// While paused, no chunks are delivered. Pause and Resume may be called from
// any goroutine.
type Source interface {
	Start(onChunk func(chunk []byte)) error
	Pause() error
	Resume() error
	Paused() bool
	Close() error
}
