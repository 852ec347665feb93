// Package codec is the compress/decompress boundary between the Storage
// Facade and the filesystem (C2). It works on whole in-memory byte slices,
// not streams. Every blob is stored zstd-encoded
// (original_source/src/disk/mod.rs uses zstd::stream::copy_decode directly;
// this repo fixes zstd as the one supported codec, matching spec.md §4.2).
package codec

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/hawkingrei/greenhouse/cmn/cos"
)

// Level is the fixed zstd compression level. The original Rust sources use
// levels 3-7 depending on build; 3 balances ratio against the write-worker
// CPU budget for a cache that's dominated by write throughput.
const Level = zstd.SpeedDefault

var (
	encoderPool = sync.Pool{New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(Level))
		if err != nil {
			panic(err) // static encoder config, cannot fail at runtime
		}
		return enc
	}}
	decoderPool = sync.Pool{New: func() any {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			panic(err)
		}
		return dec
	}}
)

// Encode compresses src and returns the encoded bytes. Round-trips exactly
// with Decode (I2: "readers reverse the transform exactly").
func Encode(src []byte) []byte {
	enc := encoderPool.Get().(*zstd.Encoder)
	defer encoderPool.Put(enc)

	var buf bytes.Buffer
	enc.Reset(&buf)
	// Writes into the pooled encoder never fail for an in-memory Buffer.
	_, _ = enc.Write(src)
	_ = enc.Close()
	return buf.Bytes()
}

// Decode reverses Encode. A malformed frame returns cos.ErrCorrupted; the
// caller (Storage Facade) is responsible for deleting the offending file
// and surfacing a clean miss (spec §4.2, §7).
func Decode(src []byte) ([]byte, error) {
	dec := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(dec)

	if err := dec.Reset(bytes.NewReader(src)); err != nil {
		return nil, cos.ErrCorrupted
	}
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, cos.ErrCorrupted
	}
	return out, nil
}
