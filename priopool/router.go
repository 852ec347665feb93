package priopool

// Priority is one of HIGH/NORMAL/LOW (spec §3).
type Priority int

const (
	LOW Priority = iota
	NORMAL
	HIGH
)

func (p Priority) String() string {
	switch p {
	case HIGH:
		return "HIGH"
	case NORMAL:
		return "NORMAL"
	default:
		return "LOW"
	}
}

// Size thresholds from spec §3: ≤250KiB → HIGH, ≤1MiB → NORMAL, else LOW.
const (
	HighMaxBytes   = 250 * 1024
	NormalMaxBytes = 1024 * 1024
)

// PriorityFor classifies a blob size per spec §3.
func PriorityFor(size int64) Priority {
	switch {
	case size <= HighMaxBytes:
		return HIGH
	case size <= NormalMaxBytes:
		return NORMAL
	default:
		return LOW
	}
}

// Router owns the three independent pools and dispatches by size. No
// cross-priority stealing (spec §4.5).
type Router struct {
	pools [3]*Pool // indexed by Priority
}

// RouterConfig supplies one Config per tier.
type RouterConfig struct {
	High, Normal, Low Config
}

func NewRouter(cfg RouterConfig) *Router {
	r := &Router{}
	r.pools[LOW] = NewPool(cfg.Low)
	r.pools[NORMAL] = NewPool(cfg.Normal)
	r.pools[HIGH] = NewPool(cfg.High)
	return r
}

// Submit routes task to the pool matching size.
func (r *Router) Submit(size int64, task Task) (*Future, error) {
	return r.pools[PriorityFor(size)].Submit(task)
}

// SubmitAt submits directly to a named tier, bypassing size-based routing
// (used by callers that already know the priority, e.g. a forced LOW-
// priority bulk scan).
func (r *Router) SubmitAt(pri Priority, task Task) (*Future, error) {
	return r.pools[pri].Submit(task)
}

func (r *Router) Stop() {
	for _, p := range r.pools {
		p.Stop()
	}
}
