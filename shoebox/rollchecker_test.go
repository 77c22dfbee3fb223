package shoebox

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNeverRollCheckerNeverRolls(t *testing.T) {
	dir := t.TempDir()
	archive, err := NewArchiveWriter(filepath.Join(dir, "a.evnt"))
	if err != nil {
		t.Fatalf("NewArchiveWriter: %v", err)
	}
	defer archive.Close()

	c := NeverRollChecker{}
	c.Start(archive)
	if c.Check(archive) {
		t.Fatalf("NeverRollChecker.Check returned true")
	}
}

func TestTimeRollCheckerBoundaryInclusive(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := FuncClock(func() time.Time { return now })

	c := NewTimeRollChecker(clock, 5*time.Minute)
	c.Start(nil)

	now = now.Add(4 * time.Minute)
	if c.Check(nil) {
		t.Fatalf("rolled before the boundary")
	}

	now = now.Add(1 * time.Minute) // exactly at the boundary
	if !c.Check(nil) {
		t.Fatalf("did not roll at the boundary (now == end_time)")
	}
}

func TestSizeRollCheckerThreshold(t *testing.T) {
	dir := t.TempDir()
	archive, err := NewArchiveWriter(filepath.Join(dir, "a.evnt"))
	if err != nil {
		t.Fatalf("NewArchiveWriter: %v", err)
	}
	defer archive.Close()

	c := NewSizeRollChecker(1) // 1 MiB

	payload := make([]byte, 1024)
	for i := 0; i < 1024; i++ { // a bit over 1 MiB of payload+framing
		if err := archive.Write(NewMetadata(), payload); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if c.Check(archive) {
			return
		}
	}
	t.Fatalf("SizeRollChecker never tripped after writing over threshold")
}
