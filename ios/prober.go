package ios

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hawkingrei/greenhouse/cmn/nlog"
)

// Prober periodically samples Usage for a path and exposes the latest
// reading lock-free, so lazygc never blocks on the probe's own cadence
// (spec §4.7: "Publishes ... gauges. These gauges are the input to C8").
type Prober struct {
	path     string
	interval time.Duration
	onSample func(Usage)

	latest atomic.Value // Usage
	once   sync.Once
}

func NewProber(path string, interval time.Duration, onSample func(Usage)) *Prober {
	return &Prober{path: path, interval: interval, onSample: onSample}
}

// Latest returns the most recent successful sample, or the zero value if
// none has completed yet.
func (p *Prober) Latest() Usage {
	if v := p.latest.Load(); v != nil {
		return v.(Usage)
	}
	return Usage{}
}

// Run samples once immediately, then on every tick, until ctx is canceled.
func (p *Prober) Run(ctx context.Context) {
	p.sample()
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.sample()
		}
	}
}

func (p *Prober) sample() {
	u, err := Statvfs(p.path)
	if err != nil {
		nlog.Warningf("disk probe: statvfs %s: %v", p.path, err)
		return
	}
	p.latest.Store(u)
	if p.onSample != nil {
		p.onSample(u)
	}
}
