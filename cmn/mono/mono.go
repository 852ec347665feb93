// Package mono provides monotonic-clock helpers used by the logger's flush
// throttling. Adapted from the teacher's cmn/mono/fast_nanotime.go.
package mono

import "time"

// base is the process-start reading that NanoTime measures from.
var base = time.Now()

// NanoTime returns a monotonic nanosecond timestamp: the time elapsed since
// process start on the monotonic clock that time.Now() carries alongside
// the wall clock, so subtracting two NanoTime() values is safe across NTP
// adjustments. Only differences between readings are meaningful.
func NanoTime() int64 { return int64(time.Since(base)) }

// Since returns the duration elapsed since a NanoTime() reading.
func Since(start int64) time.Duration { return time.Duration(NanoTime() - start) }
