package engine

import (
	"github.com/hawkingrei/greenhouse/ios"
	"github.com/hawkingrei/greenhouse/metrics"
)

const bytesPerGB = 1 << 30

// publishDiskGauges is the ios.Prober sample callback: it converts each
// fresh Usage reading into the three disk gauges named in spec.md §6.
func publishDiskGauges(u ios.Usage) {
	metrics.DiskFreeGB.Set(float64(u.Free) / bytesPerGB)
	metrics.DiskUsedGB.Set(float64(u.Used) / bytesPerGB)
	metrics.DiskTotalGB.Set(float64(u.Total) / bytesPerGB)
}
