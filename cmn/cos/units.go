package cos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Byte-size constants used throughout config defaults and priority
// classification (spec §3 Priority).
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)

// ReadableSize is a config-friendly byte count, JSON-decoded from either a
// bare number or a "<n>kb"/"<n>mb"/"<n>gb" string (mirrors the original
// Rust config's ReadableSize, components/cibo_util/src/config.rs).
type ReadableSize int64

func MB(n int64) ReadableSize { return ReadableSize(n * MiB) }
func KB(n int64) ReadableSize { return ReadableSize(n * KiB) }

func (r ReadableSize) Bytes() int64 { return int64(r) }

func (r ReadableSize) String() string {
	return fmt.Sprintf("%dB", int64(r))
}

func (r ReadableSize) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(r), 10)), nil
}

func (r *ReadableSize) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*r = 0
		return nil
	}
	mul := int64(1)
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "gb"):
		mul, s = GiB, s[:len(s)-2]
	case strings.HasSuffix(lower, "mb"):
		mul, s = MiB, s[:len(s)-2]
	case strings.HasSuffix(lower, "kb"):
		mul, s = KiB, s[:len(s)-2]
	case strings.HasSuffix(lower, "b"):
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid readable size %q", s)
	}
	*r = ReadableSize(n * mul)
	return nil
}
