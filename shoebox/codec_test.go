package shoebox

import (
	"bytes"
	"testing"
)

func buildRecordBytes(t *testing.T, payload []byte, metadata *Metadata) []byte {
	t.Helper()
	blocks, err := Pack(payload, metadata, CurrentVersion)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	var buf bytes.Buffer
	for _, b := range blocks {
		buf.Write(b)
	}
	return buf.Bytes()
}

func TestPackUnpackRoundTrip(t *testing.T) {
	metadata := NewMetadata()
	metadata.Set("tenant", "alice")
	metadata.Set("event", "compute.instance.create")

	raw := buildRecordBytes(t, []byte("hello world"), metadata)

	r := bytes.NewReader(raw)
	version, err := LoadPreamble(r)
	if err != nil {
		t.Fatalf("LoadPreamble: %v", err)
	}
	if version != CurrentVersion {
		t.Fatalf("version = %d, want %d", version, CurrentVersion)
	}

	gotMeta, gotPayload, err := Unpack(r, version)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !gotMeta.Equal(metadata) {
		t.Errorf("metadata round-trip mismatch: got %#v", gotMeta)
	}
	if !bytes.Equal(gotPayload, []byte("hello world")) {
		t.Errorf("payload round-trip mismatch: got %q", gotPayload)
	}
}

func TestPackEmptyMetadataAndPayload(t *testing.T) {
	raw := buildRecordBytes(t, nil, NewMetadata())

	r := bytes.NewReader(raw)
	version, err := LoadPreamble(r)
	if err != nil {
		t.Fatalf("LoadPreamble: %v", err)
	}
	meta, payload, err := Unpack(r, version)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if meta.Len() != 0 {
		t.Errorf("expected empty metadata, got %d pairs", meta.Len())
	}
	if len(payload) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(payload))
	}
}

func TestPackDeterministicRepacking(t *testing.T) {
	metadata := NewMetadata()
	metadata.Set("b", "2")
	metadata.Set("a", "1")
	metadata.Set("c", "3")

	first := buildRecordBytes(t, []byte("x"), metadata)
	second := buildRecordBytes(t, []byte("x"), metadata)
	if !bytes.Equal(first, second) {
		t.Fatalf("re-packing the same input produced different bytes")
	}
}

func TestUnpackBadMagicIsOutOfSync(t *testing.T) {
	raw := buildRecordBytes(t, []byte("x"), NewMetadata())
	raw[0] ^= 0xff // corrupt the magic number

	_, err := LoadPreamble(bytes.NewReader(raw))
	if err != ErrOutOfSync {
		t.Fatalf("err = %v, want ErrOutOfSync", err)
	}
}

func TestUnpackNonZeroEORIsOutOfSync(t *testing.T) {
	raw := buildRecordBytes(t, []byte("x"), NewMetadata())
	// eor marker sits at byte offset 6 (preamble) + 8 (metadata_len,
	// payload_len).
	raw[6+8] = 1

	r := bytes.NewReader(raw)
	version, err := LoadPreamble(r)
	if err != nil {
		t.Fatalf("LoadPreamble: %v", err)
	}
	_, _, err = Unpack(r, version)
	if err != ErrOutOfSync {
		t.Fatalf("err = %v, want ErrOutOfSync", err)
	}
}

func TestLoadPreambleShortReadIsEndOfFile(t *testing.T) {
	_, err := LoadPreamble(bytes.NewReader([]byte{0x01, 0x02}))
	if err != ErrEndOfFile {
		t.Fatalf("err = %v, want ErrEndOfFile", err)
	}
}

func TestLoadPreambleEmptyReaderIsEndOfFile(t *testing.T) {
	_, err := LoadPreamble(bytes.NewReader(nil))
	if err != ErrEndOfFile {
		t.Fatalf("err = %v, want ErrEndOfFile", err)
	}
}

func TestUnpackTruncatedPayloadIsEndOfFile(t *testing.T) {
	raw := buildRecordBytes(t, []byte("hello"), NewMetadata())
	truncated := raw[:len(raw)-2]

	r := bytes.NewReader(truncated)
	version, err := LoadPreamble(r)
	if err != nil {
		t.Fatalf("LoadPreamble: %v", err)
	}
	_, _, err = Unpack(r, version)
	if err != ErrEndOfFile {
		t.Fatalf("err = %v, want ErrEndOfFile", err)
	}
}

func TestUnpackUnknownVersion(t *testing.T) {
	_, _, err := Unpack(bytes.NewReader(nil), 99)
	if err != ErrInvalidVersion {
		t.Fatalf("err = %v, want ErrInvalidVersion", err)
	}
}
