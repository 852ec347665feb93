// Package storage implements the Storage Facade (C6), the single entry
// point the external HTTP layer calls for Read/Write/Delete, and the
// Access Observer (C9), the bounded channel feeding bloomgc with every key
// that was touched (spec.md §4.6, §4.9).
package storage

import "github.com/hawkingrei/greenhouse/cmn/cos"

// DefaultObserverCapacity bounds the Access Observer's channel. Sized
// generously relative to write-queue capacity since observation loss is
// cheap (a missed event only makes bloomgc's sweep slightly more
// conservative, never incorrect — spec §4.9).
const DefaultObserverCapacity = 16384

// Observer is the bounded, non-blocking fan-out from the hot request path
// to bloomgc's single consumer goroutine. Grounded on the teacher's
// transport/bundle bounded-channel-with-drop idiom used throughout
// transport/ for backpressure-free fan-out.
type Observer struct {
	ch      chan string
	dropped cos.Counter
}

func NewObserver(capacity int) *Observer {
	if capacity <= 0 {
		capacity = DefaultObserverCapacity
	}
	return &Observer{ch: make(chan string, capacity)}
}

// Notify records that path was touched by a successful read, write, or
// head. Never blocks: an overflowing channel silently drops the event and
// increments Dropped (spec §4.9 "Loss is acceptable under overflow").
func (o *Observer) Notify(path string) {
	select {
	case o.ch <- path:
	default:
		o.dropped.Inc()
	}
}

// Events exposes the consumer side for bloomgc.Engine.Run.
func (o *Observer) Events() <-chan string { return o.ch }

// Dropped reports the number of notifications lost to a full channel.
func (o *Observer) Dropped() int64 { return o.dropped.Load() }
