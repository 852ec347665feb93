package bloomgc

import (
	"context"
	"os"
	"time"

	"github.com/hawkingrei/greenhouse/bloomstore"
	"github.com/hawkingrei/greenhouse/cmn/cos"
	"github.com/hawkingrei/greenhouse/cmn/nlog"
	"github.com/hawkingrei/greenhouse/fs"
	"github.com/hawkingrei/greenhouse/metrics"
)

// Engine runs C10's single-goroutine event loop: it owns "today" (the
// in-progress day's filter), a bounded history of prior days' filters, and
// the total-puts-since-rollover tally that decides whether a day is worth
// keeping (spec §4.10). The tally counts every access event received,
// whether it came from a read, a write or a head; writes are not counted
// separately.
type Engine struct {
	root          string
	retentionDays int
	minDailyPuts  uint64
	tickInterval  time.Duration
	rolloverCheck time.Duration

	store *bloomstore.Store
	index *fs.Index

	totalPut cos.Counter

	today        *Filter
	history      []*Filter // most recent last; len capped at retentionDays
	nextRollover time.Time
}

// Config carries the subset of config.Config that bloomgc needs, so this
// package doesn't import config directly (spec §5 keeps components
// decoupled from the top-level wiring type).
type Config struct {
	Root          string
	RetentionDays int
	MinDailyPuts  uint64
	TickInterval  time.Duration
	RolloverCheck time.Duration
}

func NewEngine(cfg Config, store *bloomstore.Store, index *fs.Index) (*Engine, error) {
	e := &Engine{
		root:          cfg.Root,
		retentionDays: cfg.RetentionDays,
		minDailyPuts:  cfg.MinDailyPuts,
		tickInterval:  cfg.TickInterval,
		rolloverCheck: cfg.RolloverCheck,
		store:         store,
		index:         index,
		today:         NewFilter(),
		nextRollover:  nextMidnight(time.Now()),
	}
	return e, nil
}

// seed restores in-memory state from C11 before processing any new events:
// today's bitmap from the overwrite file (resolving the restart race where
// an in-memory filter starts empty but the overwrite file may already hold
// hours of today's puts, spec §9 Open Question resolution), and history by
// replaying the append log (spec §4.11: "On startup, C10 calls C11 to read
// today... and iterate all to reconstruct history").
func (e *Engine) seed() {
	data, err := e.store.ReadToday()
	if err != nil {
		nlog.Warningf("bloomgc: failed to read today snapshot, starting empty: %v", err)
	} else if len(data) > 0 {
		e.today = FromBytes(data)
	}

	var history []*Filter
	err = e.store.Iterate(func(rec bloomstore.Record) error {
		if rec.TotalPut > e.minDailyPuts {
			history = append(history, FromBytes(rec.Data))
		}
		return nil
	})
	if err != nil {
		nlog.Warningf("bloomgc: failed to replay bloom log, starting with empty history: %v", err)
		return
	}
	if len(history) > e.retentionDays {
		history = history[len(history)-e.retentionDays:]
	}
	e.history = history
}

// Run drives the event loop until ctx is cancelled (spec §4.10 step-by-step
// loop): access events off events (fed by storage.Observer, C9) mark
// today's filter; a 5s ticker persists today to disk; a ~3s ticker checks
// whether local midnight has passed and, if so, rolls today into history
// and sweeps the tree for evictable files.
func (e *Engine) Run(ctx context.Context, events <-chan string) {
	e.seed()

	persistTicker := time.NewTicker(e.tickInterval)
	defer persistTicker.Stop()
	rolloverTicker := time.NewTicker(e.rolloverCheck)
	defer rolloverTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-events:
			if !ok {
				return
			}
			e.today.Set(key)
			e.totalPut.Inc()
		case <-persistTicker.C:
			if err := e.store.SaveToday(e.today.Bytes()); err != nil {
				nlog.Warningf("bloomgc: failed to persist today snapshot: %v", err)
			}
		case <-rolloverTicker.C:
			if !time.Now().Before(e.nextRollover) {
				e.rollover()
				e.sweep()
			}
		}
	}
}

// rollover snapshots today, appends it to the durable log, adds it to
// history only if it cleared the daily-puts threshold, then resets for the
// next day (spec §4.10 step 3).
func (e *Engine) rollover() {
	put := uint64(e.totalPut.Reset())
	snapshot := e.today

	rec := bloomstore.Record{Time: time.Now().Unix(), Data: snapshot.Bytes(), TotalPut: put}
	if err := e.store.Append(rec.Marshal()); err != nil {
		nlog.Warningf("bloomgc: failed to append rollover record: %v", err)
	}

	if put > e.minDailyPuts {
		e.history = append(e.history, snapshot)
		if len(e.history) > e.retentionDays {
			e.history = e.history[len(e.history)-e.retentionDays:]
		}
	} else {
		nlog.Infof("bloomgc: day's total_put %d below min_daily_puts_to_keep %d, discarding from history", put, e.minDailyPuts)
	}

	e.today = NewFilter()
	if err := e.store.SaveToday(e.today.Bytes()); err != nil {
		nlog.Warningf("bloomgc: failed to persist reset today snapshot: %v", err)
	}
	e.nextRollover = nextMidnight(time.Now())
}

// sweep scans the index snapshot and evicts any file whose ctime is >24h old and
// that is absent from every filter in history (spec §4.10 step 4). Skips
// entirely until retentionDays worth of history has accumulated, so a
// freshly started cache never evicts on stale information (I4).
func (e *Engine) sweep() {
	if len(e.history) < e.retentionDays {
		return
	}

	entries, err := e.index.Snapshot()
	if err != nil {
		nlog.Warningf("bloomgc: failed to snapshot index: %v", err)
		return
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	var lastAge time.Duration
	for _, entry := range entries {
		if entry.CTime.After(cutoff) {
			continue
		}
		if e.mayBeRetained(entry.Path) {
			continue
		}
		if err := os.Remove(entry.Path); err != nil {
			if !os.IsNotExist(err) {
				nlog.Warningf("bloomgc: failed to remove %s: %v", entry.Path, err)
			}
			continue
		}
		_ = e.index.Delete(entry.Path)
		metrics.EvictedFiles.Inc()
		lastAge = time.Since(entry.CTime)
	}
	if lastAge > 0 {
		metrics.LastEvictedAccessAgeHours.Set(lastAge.Hours())
	}
}

// mayBeRetained reports whether any retained historical filter claims key
// (a false positive here only costs disk space, never correctness: I4
// guarantees an accessed file is never evicted, at the cost of sometimes
// keeping one that wasn't).
func (e *Engine) mayBeRetained(key string) bool {
	for _, f := range e.history {
		if f.Test(key) {
			return true
		}
	}
	return false
}

func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
