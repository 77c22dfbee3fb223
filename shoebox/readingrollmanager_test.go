package shoebox

import (
	"os"
	"path/filepath"
	"testing"
)

func writeArchiveFile(t *testing.T, path string, records [][2]string) {
	t.Helper()
	w, err := NewArchiveWriter(path)
	if err != nil {
		t.Fatalf("NewArchiveWriter(%s): %v", path, err)
	}
	for _, kv := range records {
		m := NewMetadata()
		m.Set("k", kv[0])
		if err := w.Write(m, []byte(kv[1])); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestReadingRollManagerCrossesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeArchiveFile(t, filepath.Join(dir, "a-0001.evnt"), [][2]string{{"1", "first"}})
	writeArchiveFile(t, filepath.Join(dir, "a-0002.evnt"), [][2]string{{"2", "second"}})

	m, err := NewReadingRollManager("a-*.evnt", dir)
	if err != nil {
		t.Fatalf("NewReadingRollManager: %v", err)
	}
	m.Log = nil
	defer m.Close()

	_, payload, err := m.Read()
	if err != nil {
		t.Fatalf("first Read: %v", err)
	}
	if string(payload) != "first" {
		t.Fatalf("got %q, want first", payload)
	}

	_, payload, err = m.Read()
	if err != nil {
		t.Fatalf("second Read: %v", err)
	}
	if string(payload) != "second" {
		t.Fatalf("got %q, want second", payload)
	}

	_, _, err = m.Read()
	if err != ErrNoMoreFiles {
		t.Fatalf("err = %v, want ErrNoMoreFiles", err)
	}
}

func TestReadingRollManagerBadDirectory(t *testing.T) {
	_, err := NewReadingRollManager("*.evnt", filepath.Join(t.TempDir(), "does-not-exist"))
	if err != ErrBadWorkingDirectory {
		t.Fatalf("err = %v, want ErrBadWorkingDirectory", err)
	}
}

// TestReadingRollManagerBoundedRecovery mirrors the corrupted-files
// scenario: three zero-byte files exhaust the default recovery budget
// and a fourth, valid file is left untouched.
func TestReadingRollManagerBoundedRecovery(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"f-0001.evnt", "f-0002.evnt", "f-0003.evnt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0640); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	writeArchiveFile(t, filepath.Join(dir, "f-0004.evnt"), [][2]string{{"1", "survivor"}})

	m, err := NewReadingRollManager("f-*.evnt", dir)
	if err != nil {
		t.Fatalf("NewReadingRollManager: %v", err)
	}
	m.Log = nil
	m.RecoveryAttempts = 3

	_, _, err = m.Read()
	if err != ErrNoValidFile {
		t.Fatalf("err = %v, want ErrNoValidFile", err)
	}

	if len(m.filesToRead) != 1 {
		t.Fatalf("expected the fourth file to remain unconsumed, filesToRead=%v", m.filesToRead)
	}
}

func TestReadingRollManagerCallbacksFireOncePerFile(t *testing.T) {
	dir := t.TempDir()
	writeArchiveFile(t, filepath.Join(dir, "a-0001.evnt"), [][2]string{{"1", "x"}, {"2", "y"}})

	cb := &recordingCallback{}
	m, err := NewReadingRollManager("a-*.evnt", dir)
	if err != nil {
		t.Fatalf("NewReadingRollManager: %v", err)
	}
	m.Log = nil
	m.ArchiveCallback = cb

	if _, _, err := m.Read(); err != nil {
		t.Fatalf("first Read: %v", err)
	}
	if _, _, err := m.Read(); err != nil {
		t.Fatalf("second Read: %v", err)
	}
	if _, _, err := m.Read(); err != ErrNoMoreFiles {
		t.Fatalf("err = %v, want ErrNoMoreFiles", err)
	}

	if len(cb.opened) != 1 {
		t.Fatalf("OnOpen called %d times, want 1", len(cb.opened))
	}
}
