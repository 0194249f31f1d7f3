package audio

import (
	"fmt"
	"iter"
)

// Reassembler turns arbitrarily sized PCM chunks into fixed-size frames.
//
// The capture device delivers blocks of whatever size its period dictates,
// while the classifier needs frames of exactly one length. Bytes are kept in
// arrival order; a tail shorter than one frame waits for the next Push.
//
// Reassembler is not safe for concurrent use.
type Reassembler struct {
	frameSize int
	buf       []byte
}

// NewReassembler creates a reassembler cutting frames of frameSize bytes.
// frameSize must be positive and a whole number of 16-bit samples.
func NewReassembler(frameSize int) (*Reassembler, error) {
	if frameSize <= 0 || frameSize%BytesPerSample != 0 {
		return nil, fmt.Errorf("invalid frame size %d: must be a positive multiple of %d", frameSize, BytesPerSample)
	}
	return &Reassembler{frameSize: frameSize}, nil
}

// FrameSize returns the frame length in bytes.
func (r *Reassembler) FrameSize() int {
	return r.frameSize
}

// Push appends a chunk to the internal buffer.
func (r *Reassembler) Push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	r.buf = append(r.buf, chunk...)
}

// Frames yields complete frames cut from the front of the buffer. Each frame
// is consumed as it is yielded, so breaking out of the loop leaves the
// remaining frames buffered for the next call.
//
// Yielded slices stay valid after later Push calls.
func (r *Reassembler) Frames() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for len(r.buf) >= r.frameSize {
			frame := r.buf[:r.frameSize:r.frameSize]
			r.buf = r.buf[r.frameSize:]
			if len(r.buf) == 0 {
				r.buf = nil
			}
			if !yield(frame) {
				return
			}
		}
	}
}

// Pending returns the number of buffered bytes not yet cut into a frame.
func (r *Reassembler) Pending() int {
	return len(r.buf)
}

// Discard drops everything buffered and returns the number of bytes dropped.
func (r *Reassembler) Discard() int {
	n := len(r.buf)
	r.buf = nil
	return n
}
