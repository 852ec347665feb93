package writeback

import (
	"math/rand"
	"sync"
	"time"

	"github.com/hawkingrei/greenhouse/cmn/cos"
	"github.com/hawkingrei/greenhouse/cmn/nlog"
	"github.com/hawkingrei/greenhouse/codec"
)

// idleBackoff is how long a worker naps when the queue is momentarily
// empty, jittered like the teacher's jogger throttle (lru.go) to avoid N
// workers waking in lockstep.
const idleBackoff = 5 * time.Millisecond

// WorkerPool is the fixed pool of write workers draining a Queue (C4).
// Design target 2-8 workers (spec §4.4).
type WorkerPool struct {
	q       *Queue
	n       int
	stop    chan struct{}
	wg      sync.WaitGroup
	onDone  func(path string, err error) // test/observability hook; optional
}

func NewWorkerPool(q *Queue, workers int) *WorkerPool {
	if workers <= 0 {
		workers = 4
	}
	return &WorkerPool{q: q, n: workers, stop: make(chan struct{})}
}

// OnDone installs an optional hook invoked after each materialization
// attempt (nil err on success), primarily for tests.
func (p *WorkerPool) OnDone(f func(path string, err error)) { p.onDone = f }

// Start launches the worker goroutines. Call Stop to join them.
func (p *WorkerPool) Start() {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// Stop signals workers to exit and joins them (spec §5: "Shutdown drains
// C4 workers (join)").
func (p *WorkerPool) Stop() {
	close(p.stop)
	p.wg.Wait()
}

func (p *WorkerPool) run() {
	defer p.wg.Done()
	for {
		req, ok := p.q.Pop(p.stop)
		if !ok {
			return
		}
		err := p.materialize(req)
		if err != nil {
			nlog.Errorf("write worker: %v", err)
		}
		if p.onDone != nil {
			p.onDone(req.Path, err)
		}
		if p.q.Len() == 0 {
			time.Sleep(idleBackoff/2 + time.Duration(rand.Int63n(int64(idleBackoff))))
		}
	}
}

// materialize implements spec §4.4 steps 2-4: create parent dirs, compress,
// atomically rename over the destination. Any error is logged and the
// request dropped (step 5); workers never panic on a bad blob.
func (p *WorkerPool) materialize(req WriteRequest) error {
	encoded := codec.Encode(req.Bytes)
	if err := cos.WriteFileAtomic(req.Path, encoded, 0o644); err != nil {
		return cos.WrapIO(err, "materialize %s", req.Path)
	}
	return nil
}
