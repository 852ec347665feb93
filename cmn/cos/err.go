// Package cos provides common low-level types and utilities shared by the
// cache engine's packages: error kinds, byte-size constants, and atomic
// file helpers.
package cos

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// Error kinds (spec §7): NotFound, Transient, Corrupted, IO, Fatal.
// NotFound/Transient/Corrupted are sentinels so callers can errors.Is them;
// IO and Fatal keep the wrapped cause via pkg/errors for logging.
var (
	ErrNotFound  = errors.New("not found")
	ErrTransient = errors.New("transient: try again")
	ErrCorrupted = errors.New("corrupted blob")
)

// WrapIO wraps an arbitrary filesystem error for the request path; never a
// sentinel, since callers only need to surface and log it.
func WrapIO(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, a...)
}

// WrapFatal marks an error as one that should abort the process at
// initialization time (config/bootstrap failures only).
func WrapFatal(err error, format string, a ...any) error {
	return errors.Wrapf(err, "FATAL: "+format, a...)
}

// IsErrNotFound reports whether err is (or wraps) ErrNotFound or an ENOENT.
func IsErrNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	return errors.Is(err, syscall.ENOENT)
}

// IsErrTransient reports whether err is (or wraps) ErrTransient.
func IsErrTransient(err error) bool { return err != nil && errors.Is(err, ErrTransient) }

// IsErrCorrupted reports whether err is (or wraps) ErrCorrupted.
func IsErrCorrupted(err error) bool { return err != nil && errors.Is(err, ErrCorrupted) }
