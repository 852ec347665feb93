// Package metrics registers every collector named in spec.md §6 against a
// package-level prometheus.Registry. The actual exposition HTTP endpoint is
// an external contract (spec.md §1); this package only owns the registry
// and the collectors, matching the teacher's direct prometheus/client_golang
// dependency without reimplementing its statsd-or-prometheus abstraction
// layer (whose prometheus-tagged source file wasn't present in the
// retrieval — see DESIGN.md's metrics ledger entry).
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "bazel_cache"

// Registry is the process-wide collector registry; cmd/greenhoused exposes
// it over the (external) Prometheus endpoint.
var Registry = prometheus.NewRegistry()

var (
	DiskFreeGB  = gauge("disk_free", "Free space on the cache filesystem, in GiB.")
	DiskUsedGB  = gauge("disk_used", "Used space on the cache filesystem, in GiB.")
	DiskTotalGB = gauge("disk_total", "Total size of the cache filesystem, in GiB.")

	EvictedFiles = counter("evicted_files", "Total number of blob files evicted by either GC pass.")

	LastEvictedAccessAgeHours = gauge("last_evicted_access_age",
		"Age in hours of the last evicted file's access/ctime, as of the most recent GC pass.")

	ActionHits    = counter("action_hits", "Action-Cache read hits.")
	ActionMisses  = counter("action_misses", "Action-Cache read misses.")
	CASHits       = counter("cas_hits", "Content-Addressed-Storage read hits.")
	CASMisses     = counter("cas_misses", "Content-Addressed-Storage read misses.")

	ReadDuration  = histogramNoNS("storage_read_duration_seconds", "Wall time of a single Storage.Read call.")
	WriteDuration = histogramNoNS("storage_write_duration_seconds", "Wall time of a single Storage.Write call (enqueue only).")

	WriteBufferOverlimit = counterNoNS("write_file_buffer_overlimit",
		"Number of write requests dropped because the write-back queue was full.")
)

func gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	Registry.MustRegister(g)
	return g
}

func counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	Registry.MustRegister(c)
	return c
}

func histogram(name, help string) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   prometheus.DefBuckets,
	})
	Registry.MustRegister(h)
	return h
}

// A few metric names in spec.md §6 are listed without the bazel_cache
// namespace prefix (storage_*_duration_seconds, write_file_buffer_overlimit);
// these two helpers register collectors without it, matching exactly.
func histogramNoNS(name, help string) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: prometheus.DefBuckets})
	Registry.MustRegister(h)
	return h
}

func counterNoNS(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	Registry.MustRegister(c)
	return c
}
