// Package bloomgc implements C10 (Bloom GC): a day-grained probabilistic
// retention filter that decides whether a cold file may be evicted without
// re-walking the whole tree on every access (spec.md §4.10).
package bloomgc

import (
	"github.com/OneOfOne/xxhash"
)

// Fixed bloom parameters (spec.md §4.10, matched against
// original_source/src/diskgc/bloom/filter.rs's constants): a filter sized
// for ~200k daily puts at a sub-percent false-positive rate.
const (
	NumberOfBits          = 2_396_272
	BitmapSizeBytes       = 299_534 // NumberOfBits / 8, rounded up
	NumberOfHashFunctions = 4
)

// seed1/seed2 are the two fixed hash seeds. Each is 64 bits wide, the seed
// width xxhash's 64-bit checksum takes. They must stay identical across every
// Filter ever hashed into the same history, on this process and across
// restarts: bloomstore.Record carries no seed field, so a replayed
// historical bitmap is only readable against the seeds it was set with.
const (
	seed1 uint64 = 0x9e3779b97f4a7c15
	seed2 uint64 = 0xc2b2ae3d27d4eb4f
)

// Filter is a fixed-size bit array hashed with the package's two persisted
// seeds via Kirsch-Mitzenmacher double hashing: h_i = h1 + i*h2 (i =
// 0..k-1). The teacher's own direct dependency OneOfOne/xxhash supplies
// both h1 and h2 (two distinct seeds into the same hash function),
// grounded on aistore's use of xxhash for its own digest/checksum needs.
type Filter struct {
	bits []byte // BitmapSizeBytes long
}

// NewFilter allocates an empty filter.
func NewFilter() *Filter {
	return &Filter{bits: make([]byte, BitmapSizeBytes)}
}

func hashes(key string) [NumberOfHashFunctions]uint64 {
	h1 := xxhash.ChecksumString64S(key, seed1)
	h2 := xxhash.ChecksumString64S(key, seed2)
	var out [NumberOfHashFunctions]uint64
	for i := 0; i < NumberOfHashFunctions; i++ {
		out[i] = (h1 + uint64(i)*h2) % NumberOfBits
	}
	return out
}

// Set marks key as present.
func (f *Filter) Set(key string) {
	for _, h := range hashes(key) {
		f.bits[h/8] |= 1 << (h % 8)
	}
}

// Test reports whether key may have been set (false positives possible,
// false negatives never — standard bloom filter contract).
func (f *Filter) Test(key string) bool {
	for _, h := range hashes(key) {
		if f.bits[h/8]&(1<<(h%8)) == 0 {
			return false
		}
	}
	return true
}

// Bytes serializes the bitmap for persistence via bloomstore. The seeds
// never travel on the wire: they are the package's fixed constants, not
// per-filter state (spec §6 wire format: BloomRecord.data is the raw
// bitmap only).
func (f *Filter) Bytes() []byte {
	return f.bits
}

// FromBytes rehydrates a filter from a previously persisted bitmap.
// Deterministic: the fixed seeds plus an identical insertion sequence
// always reproduce an identical bitmap (spec §8 round-trip law).
func FromBytes(data []byte) *Filter {
	bits := make([]byte, BitmapSizeBytes)
	copy(bits, data)
	return &Filter{bits: bits}
}
