package storage

import (
	"os"
	"time"

	"github.com/hawkingrei/greenhouse/cmn/cos"
	"github.com/hawkingrei/greenhouse/codec"
	"github.com/hawkingrei/greenhouse/fs"
	"github.com/hawkingrei/greenhouse/metrics"
	"github.com/hawkingrei/greenhouse/priopool"
	"github.com/hawkingrei/greenhouse/writeback"
)

// Facade is the single entry point the external HTTP layer calls
// (spec.md §4.6): Read completes in-line against the read priority pool,
// Write is asynchronous via the write-back queue, Delete runs through the
// write priority pool at LOW priority (C5's "optionally writes" case,
// spec.md §3 component table) so unlink load is admission-bounded the same
// way read load is, rather than running unbounded on the caller's
// goroutine. Owns both pools and the write queue handle exclusively
// (spec §3 ownership rule).
type Facade struct {
	baseDir     string
	readRouter  *priopool.Router
	writeRouter *priopool.Router
	queue       *writeback.Queue
	index       *fs.Index
	obs         *Observer

	// Strict, when true, makes Write return ErrTransient on a full queue
	// instead of the default best-effort "ok regardless" (spec §4.6
	// "Alternative strict mode").
	Strict bool
}

func NewFacade(baseDir string, readRouter, writeRouter *priopool.Router, queue *writeback.Queue, index *fs.Index, obs *Observer) *Facade {
	return &Facade{baseDir: baseDir, readRouter: readRouter, writeRouter: writeRouter, queue: queue, index: index, obs: obs}
}

// Read implements spec §4.6 read(key): stat for size, route by size to the
// priority pool, decode, return bytes. A missing file is a clean miss; a
// decode failure deletes the offending file and also surfaces as a miss
// (codec I2, spec §4.2/§8 scenario 4).
func (f *Facade) Read(key string) ([]byte, error) {
	start := time.Now()
	defer func() { metrics.ReadDuration.Observe(time.Since(start).Seconds()) }()

	path := fs.Resolve(f.baseDir, key)
	class := fs.Classify(key)

	fi, err := cos.Stat(path)
	if err != nil {
		f.recordMiss(class)
		if cos.IsErrNotFound(err) {
			return nil, cos.ErrNotFound
		}
		return nil, err
	}

	fut, err := f.readRouter.Submit(fi.Size(), func() (any, error) {
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, cos.ErrNotFound
			}
			return nil, cos.WrapIO(err, "read %s", path)
		}
		return codec.Decode(raw)
	})
	if err != nil {
		return nil, cos.ErrTransient
	}
	result, err := fut.Wait()
	if err != nil {
		if cos.IsErrCorrupted(err) {
			_ = cos.RemoveFile(path)
			_ = f.index.Delete(path)
			f.recordMiss(class)
			return nil, cos.ErrNotFound
		}
		if cos.IsErrNotFound(err) {
			f.recordMiss(class)
			return nil, cos.ErrNotFound
		}
		return nil, err
	}

	f.recordHit(class)
	f.notify(path)
	return result.([]byte), nil
}

// Head reports whether key resolves to an existing file, without reading
// its contents (spec §6 "HEAD ... 200 if file exists, 404 else").
func (f *Facade) Head(key string) bool {
	path := fs.Resolve(f.baseDir, key)
	_, err := cos.Stat(path)
	if err == nil {
		f.notify(path)
	}
	return err == nil
}

// Write implements spec §4.6 write(key, bytes): enqueue and return
// immediately. A full queue is best-effort non-fatal unless Strict is set.
func (f *Facade) Write(key string, data []byte) error {
	start := time.Now()
	defer func() { metrics.WriteDuration.Observe(time.Since(start).Seconds()) }()

	path := fs.Resolve(f.baseDir, key)
	err := f.queue.Push(writeback.WriteRequest{Path: path, Bytes: data})
	f.notify(path)
	if err != nil {
		metrics.WriteBufferOverlimit.Inc()
		if f.Strict {
			return cos.ErrTransient
		}
		return nil
	}
	return nil
}

// Delete implements spec §4.6 delete(key): a synchronous, idempotent
// unlink, submitted to the LOW tier of the write priority pool so a burst
// of deletes is bounded the same way reads are rather than spawning
// unbounded work on the caller's goroutine. A full pool surfaces as
// ErrTransient, same as Read on pool_full.
func (f *Facade) Delete(key string) error {
	path := fs.Resolve(f.baseDir, key)
	fut, err := f.writeRouter.SubmitAt(priopool.LOW, func() (any, error) {
		return nil, cos.RemoveFile(path)
	})
	if err != nil {
		return cos.ErrTransient
	}
	if _, err := fut.Wait(); err != nil {
		return err
	}
	_ = f.index.Delete(path)
	return nil
}

// OnWriteComplete is installed as the write-back WorkerPool's OnDone hook:
// it keeps the in-memory index current once a write actually lands on
// disk (spec.md §9 design note: the index "must be... maintained by
// C4/C6").
func (f *Facade) OnWriteComplete(path string, err error) {
	if err != nil {
		return
	}
	fi, statErr := os.Stat(path)
	if statErr != nil {
		return
	}
	_ = f.index.Set(fs.EntryInfo{Path: path, CTime: fs.CTime(fi), Size: fi.Size()})
}

func (f *Facade) notify(path string) {
	if f.obs != nil {
		f.obs.Notify(path)
	}
}

func (f *Facade) recordHit(class fs.KeyClass) {
	if class == fs.ClassAC {
		metrics.ActionHits.Inc()
	} else {
		metrics.CASHits.Inc()
	}
}

func (f *Facade) recordMiss(class fs.KeyClass) {
	if class == fs.ClassAC {
		metrics.ActionMisses.Inc()
	} else {
		metrics.CASMisses.Inc()
	}
}
