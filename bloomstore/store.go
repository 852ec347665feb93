package bloomstore

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hawkingrei/greenhouse/cmn/cos"
	"github.com/hawkingrei/greenhouse/cmn/nlog"
)

const (
	// TodayFile and AllFile are fixed basenames under the bloom directory
	// (spec §6 filesystem layout: "<cache_dir>/../today", "<cache_dir>/../all").
	TodayFile = "today"
	AllFile   = "all"

	lengthPrefixSize = 8 // u64 big-endian (spec §6 wire format)
)

// Store owns the two bloom-log files, each guarded independently so the
// 5s persistence tick (today) never blocks the rollover append (all)
// (spec §5 "C11's two files are each protected by a mutex-or-equivalent").
// Grounded on original_source/src/diskgc/bloom/store.rs's two-file split.
type Store struct {
	todayPath string
	allPath   string

	todayMu sync.Mutex
	allMu   sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := cos.CreateDir(dir); err != nil {
		return nil, err
	}
	return &Store{
		todayPath: filepath.Join(dir, TodayFile),
		allPath:   filepath.Join(dir, AllFile),
	}, nil
}

// SaveToday truncates and rewrites the overwrite file with the in-progress
// day's filter (spec §4.11 "today: ... write(bytes): truncate to 0, seek to
// 0, write all bytes").
func (s *Store) SaveToday(payload []byte) error {
	s.todayMu.Lock()
	defer s.todayMu.Unlock()

	f, err := os.OpenFile(s.todayPath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return cos.WrapIO(err, "open today file %s", s.todayPath)
	}
	defer f.Close()
	if _, err := f.Write(payload); err != nil {
		return cos.WrapIO(err, "write today file %s", s.todayPath)
	}
	return nil
}

// ReadToday reads the full overwrite file. A missing file (first-ever
// startup) is not an error: it returns nil bytes.
func (s *Store) ReadToday() ([]byte, error) {
	s.todayMu.Lock()
	defer s.todayMu.Unlock()

	data, err := os.ReadFile(s.todayPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cos.WrapIO(err, "read today file %s", s.todayPath)
	}
	return data, nil
}

// Append writes one more frame to the tail of the append-only log. Never
// rewrites an existing frame (I3: the log is monotone).
func (s *Store) Append(payload []byte) error {
	s.allMu.Lock()
	defer s.allMu.Unlock()

	f, err := os.OpenFile(s.allPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return cos.WrapIO(err, "open all file %s", s.allPath)
	}
	defer f.Close()

	var lenBuf [lengthPrefixSize]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	if _, err := f.Write(lenBuf[:]); err != nil {
		return cos.WrapIO(err, "append length to %s", s.allPath)
	}
	if _, err := f.Write(payload); err != nil {
		return cos.WrapIO(err, "append payload to %s", s.allPath)
	}
	return nil
}

// Iterate replays every complete frame in the append log from offset 0, in
// write order (I3/prefix-monotone: reading N records after writing M>=N
// records yields the first N in order). Stops cleanly at EOF on a frame
// boundary; a truncated trailing frame (torn write after an unclean
// shutdown) is logged and iteration stops there rather than erroring out.
func (s *Store) Iterate(fn func(Record) error) error {
	s.allMu.Lock()
	defer s.allMu.Unlock()

	f, err := os.Open(s.allPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return cos.WrapIO(err, "open all file %s", s.allPath)
	}
	defer f.Close()

	var lenBuf [lengthPrefixSize]byte
	for {
		if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			nlog.Warningf("bloom log %s: truncated length prefix, stopping replay: %v", s.allPath, err)
			return nil
		}
		length := binary.BigEndian.Uint64(lenBuf[:])
		payload := make([]byte, length)
		if _, err := io.ReadFull(f, payload); err != nil {
			nlog.Warningf("bloom log %s: truncated payload (wanted %d bytes), stopping replay: %v", s.allPath, length, err)
			return nil
		}
		rec, err := Unmarshal(payload)
		if err != nil {
			nlog.Warningf("bloom log %s: malformed record, stopping replay: %v", s.allPath, err)
			return nil
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
