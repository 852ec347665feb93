package cos

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// CreateDir is create-dir-all semantics for a blob's parent directory
// (spec §4.4 step 2).
func CreateDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create-dir %s", dir)
	}
	return nil
}

// WriteFileAtomic writes data to a sibling temp file in dir(path) and
// renames it over path. Same-filesystem rename is atomic: a concurrent
// reader observes the old contents or the new, never a torn file
// (spec §4.4 step 4, I2).
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := CreateDir(dir); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%s-%d", filepath.Base(path), rand.Int63()))
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrapf(err, "create tmp %s", tmp)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "write tmp %s", tmp)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "close tmp %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename %s -> %s", tmp, path)
	}
	return nil
}

// Stat is a thin os.Stat wrapper returning ErrNotFound on ENOENT, matching
// the error taxonomy used throughout the read/head/delete paths.
func Stat(path string) (os.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, WrapIO(err, "stat %s", path)
	}
	return fi, nil
}

// RemoveFile unlinks path; a missing file is not an error (delete is
// idempotent, spec §7).
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return WrapIO(err, "remove %s", path)
	}
	return nil
}
