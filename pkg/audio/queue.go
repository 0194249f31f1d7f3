package audio

import (
	"context"
	"sync"
)

// ChunkQueue carries captured chunks from the device callback to the
// processing loop.
//
// Push never blocks, so it is safe to call from an audio callback. Pop
// blocks until a chunk is available. Flush discards everything queued in a
// single critical section: a Push racing with Flush lands either before the
// swap (and is discarded) or after it (and is kept), never half way.
type ChunkQueue struct {
	mu       sync.Mutex
	chunks   [][]byte
	notify   chan struct{}
	maxLen   int
	dropped  uint64
	received uint64
}

// NewChunkQueue creates a queue. maxChunks bounds the queue length with
// drop-oldest semantics; 0 means unbounded.
func NewChunkQueue(maxChunks int) *ChunkQueue {
	if maxChunks < 0 {
		maxChunks = 0
	}
	return &ChunkQueue{
		notify: make(chan struct{}, 1),
		maxLen: maxChunks,
	}
}

// Push enqueues a chunk. The queue keeps the slice, so callers that reuse
// their buffer must pass a copy.
func (q *ChunkQueue) Push(chunk []byte) {
	q.mu.Lock()
	q.chunks = append(q.chunks, chunk)
	q.received++
	if q.maxLen > 0 && len(q.chunks) > q.maxLen {
		excess := len(q.chunks) - q.maxLen
		clear(q.chunks[:excess])
		q.chunks = q.chunks[excess:]
		q.dropped += uint64(excess)
	}
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest chunk, waiting until one is available
// or ctx is done.
func (q *ChunkQueue) Pop(ctx context.Context) ([]byte, error) {
	for {
		if chunk, ok := q.tryPop(); ok {
			return chunk, nil
		}

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *ChunkQueue) tryPop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.chunks) == 0 {
		return nil, false
	}
	chunk := q.chunks[0]
	q.chunks[0] = nil
	q.chunks = q.chunks[1:]
	if len(q.chunks) == 0 {
		q.chunks = nil
	}
	return chunk, true
}

// Flush discards every queued chunk and returns how many were dropped.
func (q *ChunkQueue) Flush() int {
	q.mu.Lock()
	stale := q.chunks
	q.chunks = nil
	q.mu.Unlock()

	return len(stale)
}

// Len returns the number of queued chunks.
func (q *ChunkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.chunks)
}

// Dropped returns how many chunks were discarded by the length bound.
func (q *ChunkQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Received returns how many chunks were ever pushed.
func (q *ChunkQueue) Received() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.received
}
