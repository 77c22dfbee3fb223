package shoebox

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type recordingCallback struct {
	opened []string
	closed []string
}

func (c *recordingCallback) OnOpen(path string) {
	c.opened = append(c.opened, path)
}

func (c *recordingCallback) OnClose(path string) string {
	c.closed = append(c.closed, path)
	return ""
}

func TestWritingRollManagerOpensAndWritesLazily(t *testing.T) {
	dir := t.TempDir()
	m := NewWritingRollManager("archive-%Y%m%d.evnt", dir, NeverRollChecker{}, RealClock{})
	m.Log = nil

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("archive opened before the first write")
	}

	if err := m.Write(NewMetadata(), []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, _ = os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one archive file, got %d", len(entries))
	}
}

func TestWritingRollManagerRollsOnSizeThreshold(t *testing.T) {
	dir := t.TempDir()
	m := NewWritingRollManager("roll-%f.evnt", dir, NewSizeRollChecker(1), RealClock{})
	m.Log = nil

	payload := make([]byte, 4096)
	for i := 0; i < 400; i++ {
		if err := m.Write(NewMetadata(), payload); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	m.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected rollover to produce more than one file, got %d", len(entries))
	}
}

func TestWritingRollManagerInvokesCallbacksInOrder(t *testing.T) {
	dir := t.TempDir()
	cb := &recordingCallback{}
	m := NewWritingRollManager("cb-%f.evnt", dir, NeverRollChecker{}, RealClock{})
	m.ArchiveCallback = cb
	m.Log = nil

	if err := m.Write(NewMetadata(), []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(cb.opened) != 1 || len(cb.closed) != 1 {
		t.Fatalf("expected exactly one open/close pair, got open=%v close=%v", cb.opened, cb.closed)
	}
	if cb.opened[0] != cb.closed[0] {
		t.Fatalf("opened and closed paths differ: %q vs %q", cb.opened[0], cb.closed[0])
	}
}

func TestWritingRollManagerCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	cb := &recordingCallback{}
	m := NewWritingRollManager("idem-%f.evnt", dir, NeverRollChecker{}, RealClock{})
	m.ArchiveCallback = cb
	m.Log = nil

	if err := m.Write(NewMetadata(), []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(cb.closed) != 1 {
		t.Fatalf("OnClose invoked %d times, want 1", len(cb.closed))
	}
}

func TestSanitizeFilenameComponent(t *testing.T) {
	got := sanitizeFilenameComponent("2026-01-01 12:30/events")
	want := "2026-01-01_12_30_events"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMakeFilenameUsesTemplateAndDirectory(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	m := NewWritingRollManager("archive-%Y%m%d-%H%M%S.evnt", "/tmp/x", NeverRollChecker{}, FuncClock(func() time.Time { return fixed }))
	got := m.makeFilename()
	want := filepath.Join("/tmp/x", "archive-20260304-050607.evnt")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
