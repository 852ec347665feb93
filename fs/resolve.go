// Package fs maps request keys to on-disk paths (C1), walks the cache tree
// to produce GC-visible entries (used by lazygc and bloomgc), and maintains
// an optional in-memory (path, ctime, size) index so repeated GC passes
// don't have to re-walk the filesystem (spec.md §9 design note).
package fs

import (
	"path/filepath"
	"strings"
)

// KeyClass distinguishes Action-Cache from Content-Addressed-Storage keys
// for metrics purposes only (spec §4.1).
type KeyClass int

const (
	ClassCAS KeyClass = iota
	ClassAC
)

// Resolve maps a request key to its on-disk path under baseDir. No
// normalization beyond stripping one leading slash: the client controls
// the key layout (spec §4.1).
func Resolve(baseDir, key string) string {
	return filepath.Join(baseDir, strings.TrimPrefix(key, "/"))
}

// Classify reports whether key belongs to the Action-Cache namespace
// (substring "/ac/" or prefix "ac/") or falls back to CAS.
func Classify(key string) KeyClass {
	if strings.HasPrefix(key, "ac/") || strings.Contains(key, "/ac/") {
		return ClassAC
	}
	return ClassCAS
}
