package cos

import "sync/atomic"

// Counter is a process-wide atomic counter, e.g. the total-puts-since-
// rollover tally bloomgc uses to decide whether a day's filter is worth
// retaining (spec §4.10 step 3c). Stands in for the original's
// lazy_static! AtomicUsize (original_source/src/config.rs).
type Counter struct{ v int64 }

func (c *Counter) Inc() int64          { return atomic.AddInt64(&c.v, 1) }
func (c *Counter) Add(n int64) int64   { return atomic.AddInt64(&c.v, n) }
func (c *Counter) Load() int64         { return atomic.LoadInt64(&c.v) }
func (c *Counter) Reset() (prev int64) { return atomic.SwapInt64(&c.v, 0) }
func (c *Counter) Store(n int64)       { atomic.StoreInt64(&c.v, n) }
