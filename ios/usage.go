// Package ios samples local filesystem free/used space, the signal that
// drives the lazy GC's trigger (spec §4.7/C7). Grounded directly in the
// teacher's ios/fsutils_linux.go GetFSStats, which calls golang.org/x/sys/unix
// for the statfs syscall rather than shelling out.
package ios

import "golang.org/x/sys/unix"

// Usage is free/used/total bytes for the filesystem backing path, plus the
// fraction used — computed once here so every caller (lazygc, metrics)
// compares the same units (spec §9 Open Question: fix units to a fraction).
type Usage struct {
	Free, Used, Total uint64
	UsedFrac          float64
}

// Statvfs samples the filesystem at path. Guards Blocks == 0 (spec §8
// boundary behavior "disk_usage handles f_blocks = 0 without divide-by-zero").
func Statvfs(path string) (Usage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Usage{}, err
	}
	bsize := uint64(st.Bsize)
	total := st.Blocks * bsize
	free := st.Bavail * bsize
	var used uint64
	if total > free {
		used = total - free
	}
	var frac float64
	if total > 0 {
		frac = float64(used) / float64(total)
	}
	return Usage{Free: free, Used: used, Total: total, UsedFrac: frac}, nil
}
