package audio

import "fmt"

// FrameRing keeps the most recent frames of a fixed size, overwriting the
// oldest once full. It backs the segmenter's speech streak so the frames
// that open an utterance are still available when capture starts.
//
// FrameRing is not safe for concurrent use.
type FrameRing struct {
	frameSize int
	slots     []byte
	head      int // slot of the oldest frame
	count     int
}

// NewFrameRing creates a ring holding up to n frames of frameSize bytes.
func NewFrameRing(frameSize, n int) *FrameRing {
	if frameSize < 0 {
		frameSize = 0
	}
	if n < 0 {
		n = 0
	}
	return &FrameRing{
		frameSize: frameSize,
		slots:     make([]byte, frameSize*n),
	}
}

// Cap returns the number of frames the ring can hold.
func (r *FrameRing) Cap() int {
	if r.frameSize == 0 {
		return 0
	}
	return len(r.slots) / r.frameSize
}

// Len returns the number of frames held.
func (r *FrameRing) Len() int {
	return r.count
}

// Push copies frame into the ring, evicting the oldest frame when full.
// frame must be exactly one frame long.
func (r *FrameRing) Push(frame []byte) {
	if len(frame) != r.frameSize {
		panic(fmt.Sprintf("audio: frame ring got %d bytes, want %d", len(frame), r.frameSize))
	}
	n := r.Cap()
	if n == 0 {
		return
	}

	tail := (r.head + r.count) % n
	copy(r.slot(tail), frame)
	if r.count < n {
		r.count++
	} else {
		r.head = (r.head + 1) % n
	}
}

// Bytes returns a copy of the held frames, oldest first.
func (r *FrameRing) Bytes() []byte {
	if r.count == 0 {
		return nil
	}
	out := make([]byte, 0, r.count*r.frameSize)
	n := r.Cap()
	for i := 0; i < r.count; i++ {
		out = append(out, r.slot((r.head+i)%n)...)
	}
	return out
}

// Reset empties the ring.
func (r *FrameRing) Reset() {
	r.head = 0
	r.count = 0
}

func (r *FrameRing) slot(i int) []byte {
	return r.slots[i*r.frameSize : (i+1)*r.frameSize]
}
