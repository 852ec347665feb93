package fs

import (
	"os"
	"sort"
	"syscall"
	"time"

	"github.com/karrick/godirwalk"

	"github.com/hawkingrei/greenhouse/cmn/cos"
)

// EntryInfo is a GC-visible (path, ctime) tuple, totally ordered by
// (ctime, path) — spec §3.
type EntryInfo struct {
	Path  string
	CTime time.Time
	Size  int64
}

// Less implements the spec's tie-break: ascending ctime, then path.
func (e EntryInfo) Less(o EntryInfo) bool {
	if !e.CTime.Equal(o.CTime) {
		return e.CTime.Before(o.CTime)
	}
	return e.Path < o.Path
}

// CTime extracts the inode change time aistore-style (ios/fsutils_linux.go's
// GetATime does the equivalent for atime via syscall.Stat_t).
func CTime(fi os.FileInfo) time.Time {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fi.ModTime()
	}
	return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
}

// Walk performs a single depth-first pass over root, returning every
// regular file as an EntryInfo sorted ascending by (ctime, path) (spec
// §4.8 steps 1-2). Uses karrick/godirwalk for the directory traversal, as
// the teacher does throughout fs/walkbck.go for large trees; each
// non-directory entry is still os.Lstat'ed to read its ctime and size.
func Walk(root string) ([]EntryInfo, error) {
	var entries []EntryInfo
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			fi, err := os.Lstat(path)
			if err != nil {
				return nil // vanished between readdir and stat; skip, not fatal
			}
			if !fi.Mode().IsRegular() {
				return nil
			}
			entries = append(entries, EntryInfo{Path: path, CTime: CTime(fi), Size: fi.Size()})
			return nil
		},
		ErrorCallback: func(string, error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, cos.WrapIO(err, "walk %s", root)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Less(entries[j]) })
	return entries, nil
}
