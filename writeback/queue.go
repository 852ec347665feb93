// Package writeback implements the bounded write-back queue (C3) and the
// fixed pool of workers that drain it (C4), decoupling request
// acknowledgement from disk persistence (spec.md §4.3/§4.4). Grounded on
// original_source/src/storage/{buffer.rs,server.rs} (separate buffer +
// worker-pool wiring) and components/storage/src/background/write_file.rs
// (compress-then-atomic-rename sequence).
package writeback

import "errors"

// DefaultCapacity is the queue bound named in spec.md §4.3.
const DefaultCapacity = 8192

// ErrFull is returned by Push when the queue is saturated; callers do not
// block, they increment an overflow counter and proceed (spec §4.3, I
// at-most-once submission, best-effort durability).
var ErrFull = errors.New("write-back queue full")

// WriteRequest is an in-memory pending write (spec §3), owned by the queue
// until a worker drains and materializes it.
type WriteRequest struct {
	Path  string
	Bytes []byte
}

// Queue is a bounded channel-backed MPMC queue of WriteRequest. FIFO per
// producer; does not coalesce duplicate paths (spec §4.3).
type Queue struct {
	ch chan WriteRequest
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan WriteRequest, capacity)}
}

// Push enqueues req without blocking; returns ErrFull if the queue is
// saturated.
func (q *Queue) Push(req WriteRequest) error {
	select {
	case q.ch <- req:
		return nil
	default:
		return ErrFull
	}
}

// Pop blocks until a request is available or stop is closed, returning
// ok=false in the latter case (used by workers' drain loop).
func (q *Queue) Pop(stop <-chan struct{}) (WriteRequest, bool) {
	select {
	case req := <-q.ch:
		return req, true
	case <-stop:
		return WriteRequest{}, false
	}
}

// Len reports the number of requests currently buffered (best-effort,
// racy by nature of a channel).
func (q *Queue) Len() int { return len(q.ch) }

// Cap reports the queue's configured capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
