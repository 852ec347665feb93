package bloomstore_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hawkingrei/greenhouse/bloomstore"
)

// appendTornFrame simulates an unclean shutdown mid-write: a length prefix
// that promises more payload bytes than actually follow on disk.
func appendTornFrame(t *testing.T, path string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], 100)
	if _, err := f.Write(lenBuf[:]); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
}

func TestTodayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st, err := bloomstore.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	data, err := st.ReadToday()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty today on first read, got %d bytes", len(data))
	}

	want := bytes.Repeat([]byte{0x7F}, 299_534)
	if err := st.SaveToday(want); err != nil {
		t.Fatal(err)
	}
	got, err := st.ReadToday()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("today round-trip mismatch")
	}

	// A second, shorter save must fully overwrite, not append.
	short := []byte{1, 2, 3}
	if err := st.SaveToday(short); err != nil {
		t.Fatal(err)
	}
	got, err = st.ReadToday()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, short) {
		t.Fatalf("expected overwrite file truncated to %v, got %v", short, got)
	}
}

func TestAppendLogIsPrefixMonotone(t *testing.T) {
	dir := t.TempDir()
	st, err := bloomstore.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	records := []bloomstore.Record{
		{Time: 1, Data: []byte("a"), TotalPut: 10},
		{Time: 2, Data: []byte("bb"), TotalPut: 20},
		{Time: 3, Data: []byte("ccc"), TotalPut: 30},
	}
	for _, r := range records {
		if err := st.Append(r.Marshal()); err != nil {
			t.Fatal(err)
		}
	}

	var got []bloomstore.Record
	err = st.Iterate(func(r bloomstore.Record) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(got))
	}
	for i, r := range records {
		if got[i].Time != r.Time || got[i].TotalPut != r.TotalPut || !bytes.Equal(got[i].Data, r.Data) {
			t.Fatalf("record %d mismatch: want %+v got %+v", i, r, got[i])
		}
	}

	// Appending more records must not perturb the prefix already read.
	if err := st.Append((bloomstore.Record{Time: 4, Data: []byte("dddd"), TotalPut: 40}).Marshal()); err != nil {
		t.Fatal(err)
	}
	var got2 []bloomstore.Record
	err = st.Iterate(func(r bloomstore.Record) error {
		got2 = append(got2, r)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got2) != 4 {
		t.Fatalf("expected 4 records after second append, got %d", len(got2))
	}
	for i := range records {
		if got2[i].Time != got[i].Time || got2[i].TotalPut != got[i].TotalPut || !bytes.Equal(got2[i].Data, got[i].Data) {
			t.Fatalf("prefix perturbed at record %d", i)
		}
	}
}

func TestIterateStopsAtTruncatedTrailingFrame(t *testing.T) {
	dir := t.TempDir()
	st, err := bloomstore.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	good := bloomstore.Record{Time: 1, Data: []byte("ok"), TotalPut: 1}
	if err := st.Append(good.Marshal()); err != nil {
		t.Fatal(err)
	}

	// Simulate a torn write: a length prefix announcing more payload bytes
	// than actually follow.
	f, err := filepath.Abs(filepath.Join(dir, bloomstore.AllFile))
	if err != nil {
		t.Fatal(err)
	}
	appendTornFrame(t, f)

	var got []bloomstore.Record
	err = st.Iterate(func(r bloomstore.Record) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected replay to stop after the one good record, got %d", len(got))
	}
}
