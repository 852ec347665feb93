// Package bloomstore persists C10's bloom filters: the in-progress day's
// filter in a fixed-size overwrite file ("today") and one compacted
// snapshot per rollover in an append-only log ("all"), framed
// [length u64 BE][payload] (spec.md §6, §4.11).
package bloomstore

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// field numbers for the BloomRecord payload (spec.md §6):
//
//	message BloomRecord { int64 time = 1; bytes data = 2; uint64 total_put = 3; }
//
// Encoded by hand with protowire rather than protoc-gen-go, since no
// .proto/codegen toolchain is available in this environment (see
// DESIGN.md). The field numbers and wire types match this message shape,
// but Marshal always writes all three fields, including zero values, where
// protoc-gen-go would omit a zero-valued field; both forms decode to the
// same record.
const (
	fieldTime     = protowire.Number(1)
	fieldData     = protowire.Number(2)
	fieldTotalPut = protowire.Number(3)
)

// Record is the decoded BloomRecord (spec §3 HistoricalFilter / §6 wire format).
type Record struct {
	Time     int64
	Data     []byte
	TotalPut uint64
}

// Marshal encodes r as a protobuf payload (not yet length-framed; framing
// is added by Store.Append).
func (r Record) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldTime, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Time))
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Data)
	b = protowire.AppendTag(b, fieldTotalPut, protowire.VarintType)
	b = protowire.AppendVarint(b, r.TotalPut)
	return b
}

// Unmarshal decodes a protobuf payload produced by Marshal. Unknown fields
// are skipped, matching protobuf's forward-compatibility contract.
func Unmarshal(b []byte) (Record, error) {
	var r Record
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Record{}, errors.Wrap(protowire.ParseError(n), "consume tag")
		}
		b = b[n:]
		switch num {
		case fieldTime:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Record{}, errors.Wrap(protowire.ParseError(n), "consume time")
			}
			r.Time = int64(v)
			b = b[n:]
		case fieldData:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Record{}, errors.Wrap(protowire.ParseError(n), "consume data")
			}
			r.Data = append([]byte(nil), v...)
			b = b[n:]
		case fieldTotalPut:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Record{}, errors.Wrap(protowire.ParseError(n), "consume total_put")
			}
			r.TotalPut = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Record{}, errors.Wrap(protowire.ParseError(n), "skip unknown field")
			}
			b = b[n:]
		}
	}
	return r, nil
}
