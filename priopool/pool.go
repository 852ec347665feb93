// Package priopool implements the three-tier HIGH/NORMAL/LOW future pool
// (C5). The spec explicitly treats the *generic* future-pool/thread-pool
// primitive as an external collaborator (spec.md §1); only the
// priority-tiering policy is this repo's concern, so the admission bound
// here is built on a real primitive — golang.org/x/sync/semaphore — rather
// than reimplementing cibo_util::future_pool from original_source.
package priopool

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrPoolFull is the recoverable error surfaced to callers when a pool's
// admitted-task bound (workers * max_tasks_per_worker) is exceeded
// (spec §4.5).
var ErrPoolFull = errors.New("priority pool full")

// Task is a unit of work run to completion; cancellation is not supported
// once admitted (spec §4.5 "Tasks are run to completion").
type Task func() (any, error)

// Future is the handle returned by Submit; Wait blocks until the task
// completes.
type Future struct {
	done   chan struct{}
	result any
	err    error
}

func newFuture() *Future { return &Future{done: make(chan struct{})} }

func (f *Future) finish(result any, err error) {
	f.result, f.err = result, err
	close(f.done)
}

// Wait blocks until the task completes and returns its result.
func (f *Future) Wait() (any, error) {
	<-f.done
	return f.result, f.err
}

// Config sizes one priority tier: worker count and per-worker task bound.
// It has no stack-size field, since goroutines don't take a fixed stack
// argument the way OS threads do; config.PoolConfig's stack_size is not
// passed through.
type Config struct {
	Workers           int
	MaxTasksPerWorker int
}

// Pool is one fixed-size, bounded goroutine pool. Effective concurrency is
// Workers; the admission bound (queued + running) is Workers *
// MaxTasksPerWorker.
type Pool struct {
	jobs chan job
	sem  *semaphore.Weighted
	wg   sync.WaitGroup
	stop chan struct{}
}

type job struct {
	task Task
	fut  *Future
}

func NewPool(cfg Config) *Pool {
	capacity := int64(cfg.Workers) * int64(cfg.MaxTasksPerWorker)
	p := &Pool{
		jobs: make(chan job, capacity),
		sem:  semaphore.NewWeighted(capacity),
		stop: make(chan struct{}),
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			result, err := j.task()
			p.sem.Release(1)
			j.fut.finish(result, err)
		case <-p.stop:
			return
		}
	}
}

// Submit admits task if the pool's bound isn't exceeded, returning
// ErrPoolFull otherwise (spec §4.5 "spawn(task, priority) → handle | pool_full").
func (p *Pool) Submit(task Task) (*Future, error) {
	if !p.sem.TryAcquire(1) {
		return nil, ErrPoolFull
	}
	fut := newFuture()
	p.jobs <- job{task: task, fut: fut}
	return fut, nil
}

// Stop signals workers to exit without draining in-flight jobs further
// than their current task; does not join (no task cancellation support).
func (p *Pool) Stop() { close(p.stop) }
