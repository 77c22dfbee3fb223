package shoebox

import (
	"path/filepath"
	"testing"
)

func TestArchiveWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.evnt")

	w, err := NewArchiveWriter(path)
	if err != nil {
		t.Fatalf("NewArchiveWriter: %v", err)
	}
	m1 := NewMetadata()
	m1.Set("k", "v1")
	if err := w.Write(m1, []byte("first")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m2 := NewMetadata()
	m2.Set("k", "v2")
	if err := w.Write(m2, []byte("second")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewArchiveReader(path)
	if err != nil {
		t.Fatalf("NewArchiveReader: %v", err)
	}
	defer r.Close()

	gotMeta, gotPayload, err := r.Read()
	if err != nil {
		t.Fatalf("first Read: %v", err)
	}
	if v, _ := gotMeta.Get("k"); v != "v1" || string(gotPayload) != "first" {
		t.Fatalf("first record mismatch: meta=%v payload=%q", v, gotPayload)
	}

	gotMeta, gotPayload, err = r.Read()
	if err != nil {
		t.Fatalf("second Read: %v", err)
	}
	if v, _ := gotMeta.Get("k"); v != "v2" || string(gotPayload) != "second" {
		t.Fatalf("second record mismatch: meta=%v payload=%q", v, gotPayload)
	}

	_, _, err = r.Read()
	if err != ErrEndOfFile {
		t.Fatalf("err = %v, want ErrEndOfFile at archive end", err)
	}
}

func TestArchiveWriterOffsetAdvances(t *testing.T) {
	dir := t.TempDir()
	w, err := NewArchiveWriter(filepath.Join(dir, "a.evnt"))
	if err != nil {
		t.Fatalf("NewArchiveWriter: %v", err)
	}
	defer w.Close()

	before, err := w.Offset()
	if err != nil {
		t.Fatalf("Offset: %v", err)
	}
	if err := w.Write(NewMetadata(), []byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	after, err := w.Offset()
	if err != nil {
		t.Fatalf("Offset: %v", err)
	}
	if after <= before {
		t.Fatalf("offset did not advance: before=%d after=%d", before, after)
	}
}
