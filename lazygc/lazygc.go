// Package lazygc implements the Lazy GC (C8): a free-space-triggered,
// oldest-first eviction pass over the cache tree (spec.md §4.8). Heap shape
// grounded on other_examples' aistore lru.go minHeap (oldest-ctime on top,
// container/heap).
package lazygc

import (
	"container/heap"
	"context"
	"os"
	"time"

	"github.com/hawkingrei/greenhouse/cmn/nlog"
	"github.com/hawkingrei/greenhouse/fs"
	"github.com/hawkingrei/greenhouse/ios"
	"github.com/hawkingrei/greenhouse/metrics"
)

// Config carries the subset of config.Config this package needs.
type Config struct {
	Root                string
	MinPercentBlockFree float64
	StopPercentBlock    float64
	Interval            time.Duration
}

// Runner ticks on Interval, and when ios.Usage crosses MinPercentBlockFree
// walks the tree oldest-first, deleting until usage drops to
// StopPercentBlock or the tree is empty (spec §4.8, I5).
type Runner struct {
	cfg    Config
	prober *ios.Prober
	index  *fs.Index

	// resample re-samples free space between deletion batches. Defaults
	// to ios.Statvfs(cfg.Root); overridable in tests that simulate usage
	// dropping without touching a real filesystem.
	resample func() (ios.Usage, error)
}

func NewRunner(cfg Config, prober *ios.Prober, index *fs.Index) *Runner {
	r := &Runner{cfg: cfg, prober: prober, index: index}
	r.resample = func() (ios.Usage, error) { return ios.Statvfs(cfg.Root) }
	return r
}

// Run drives the periodic trigger-check/sweep loop until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.maybeSweep()
		}
	}
}

func (r *Runner) maybeSweep() {
	usage := r.prober.Latest()
	if usage.Total == 0 || usage.UsedFrac <= r.cfg.MinPercentBlockFree {
		return
	}
	r.sweep(usage)
}

// entryHeap is a min-heap over fs.EntryInfo ordered by (ctime, path),
// oldest on top — the direct Go-idiomatic analogue of the teacher's
// lru.go minHeap over *cluster.LOM.
type entryHeap []fs.EntryInfo

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].Less(h[j]) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(fs.EntryInfo)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// sweep implements spec §4.8 steps 1-4. Re-samples free space via
// ios.Statvfs between deletions rather than trusting a single stale
// reading across a potentially long pass.
func (r *Runner) sweep(usage ios.Usage) {
	entries, err := r.index.Snapshot()
	if err != nil || len(entries) == 0 {
		entries, err = fs.Walk(r.cfg.Root)
		if err != nil {
			nlog.Warningf("lazygc: walk %s: %v", r.cfg.Root, err)
			return
		}
	}
	if len(entries) == 0 {
		return
	}

	h := make(entryHeap, len(entries))
	copy(h, entries)
	heap.Init(&h)

	// Spec §4.8 step 3: "sampling free-space between deletions" — resample
	// after every deletion so the stop threshold is checked against
	// current, not stale, usage.
	const resampleEvery = 1
	deleted := 0
	var lastAge time.Duration
	for h.Len() > 0 {
		if usage.Total > 0 && usage.UsedFrac <= r.cfg.StopPercentBlock {
			break
		}
		entry := heap.Pop(&h).(fs.EntryInfo)
		if err := os.Remove(entry.Path); err != nil {
			if !os.IsNotExist(err) {
				nlog.Warningf("lazygc: remove %s: %v", entry.Path, err)
			}
			continue
		}
		_ = r.index.Delete(entry.Path)
		metrics.EvictedFiles.Inc()
		lastAge = time.Since(entry.CTime)
		deleted++

		if deleted%resampleEvery == 0 {
			if fresh, err := r.resample(); err == nil {
				usage = fresh
			}
		}
	}
	if lastAge > 0 {
		metrics.LastEvictedAccessAgeHours.Set(lastAge.Hours())
	}
}
