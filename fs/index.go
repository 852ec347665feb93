package fs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/hawkingrei/greenhouse/cmn/cos"
)

// Index is an in-memory (path, ctime, size) table backed by buntdb,
// rebuilt from a full tree Walk at process start and kept current by the
// Storage Facade on every write/delete thereafter (spec.md §9 design note:
// "an implementer may maintain an in-memory index ... but it must be
// rebuilt on startup from a tree walk").
//
// lazygc and bloomgc read Snapshot() instead of re-walking the tree on
// every pass; a path absent from a stale index is simply skipped that
// pass, never double-freed, so staleness is safe by construction.
type Index struct {
	db *buntdb.DB
}

// NewIndex opens an in-memory buntdb index (no file persistence: the index
// is fully reconstructible from the filesystem, so nothing is lost on
// restart that Rebuild can't recover).
func NewIndex() (*Index, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, cos.WrapIO(err, "open in-memory index")
	}
	return &Index{db: db}, nil
}

func (ix *Index) Close() error { return ix.db.Close() }

// Rebuild discards the current contents and repopulates the index from a
// fresh Walk of root.
func (ix *Index) Rebuild(root string) error {
	entries, err := Walk(root)
	if err != nil {
		return err
	}
	return ix.db.Update(func(tx *buntdb.Tx) error {
		tx.DeleteAll()
		for _, e := range entries {
			tx.Set(e.Path, encodeEntry(e), nil)
		}
		return nil
	})
}

// Set records or updates a single path, called by the Storage Facade right
// after a write materializes.
func (ix *Index) Set(e EntryInfo) error {
	return ix.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(e.Path, encodeEntry(e), nil)
		return err
	})
}

// Delete removes path from the index, called by the Storage Facade and by
// both GC passes right after unlinking a file.
func (ix *Index) Delete(path string) error {
	return ix.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(path)
		if err != nil && err != buntdb.ErrNotFound {
			return err
		}
		return nil
	})
}

// Snapshot returns every indexed entry, sorted ascending by (ctime, path)
// exactly as Walk does, so lazygc can treat the two sources interchangeably.
func (ix *Index) Snapshot() ([]EntryInfo, error) {
	var entries []EntryInfo
	err := ix.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(path, value string) bool {
			if e, ok := decodeEntry(path, value); ok {
				entries = append(entries, e)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Less(entries[j]) })
	return entries, nil
}

// Len reports the number of indexed entries.
func (ix *Index) Len() int {
	n, err := ix.db.Len()
	if err != nil {
		return 0
	}
	return n
}

func encodeEntry(e EntryInfo) string {
	return fmt.Sprintf("%d|%d", e.CTime.UnixNano(), e.Size)
}

func decodeEntry(path, value string) (EntryInfo, bool) {
	parts := strings.SplitN(value, "|", 2)
	if len(parts) != 2 {
		return EntryInfo{}, false
	}
	ns, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return EntryInfo{}, false
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return EntryInfo{}, false
	}
	return EntryInfo{Path: path, CTime: time.Unix(0, ns), Size: size}, true
}
