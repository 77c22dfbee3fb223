/*
Copyright (C) 2024  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package shoebox

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const jsonSealReadBlock = 1 << 20 // stream SHA-256 in 1-MiB blocks

// WritingJSONRollManager is the alternate write strategy: one JSON
// payload per line into a working file, sealed to a compressed
// artifact in a destination directory when size or time thresholds
// trip. Metadata is discarded on this path; see spec §4.7.
type WritingJSONRollManager struct {
	FilenameTemplate    string // with [[CRC]] / [[TIMESTAMP]] markers
	Directory           string // working directory
	DestinationDirectory string
	RollSizeMB          int64
	RollAfter           time.Duration
	Clock               Clock

	instanceID uuid.UUID
	handle     *os.File
	filename   string
	startTime  time.Time
	size       int64

	Log io.Writer
}

// NewWritingJSONRollManager drains any leftover working files left
// behind by a prior crash and returns a manager ready to write.
// roll_size_mb/roll_after default to 1000 MiB / 60 minutes when zero.
func NewWritingJSONRollManager(filenameTemplate, directory, destinationDirectory string, rollSizeMB int64, rollAfter time.Duration, clock Clock) (*WritingJSONRollManager, error) {
	if rollSizeMB <= 0 {
		rollSizeMB = 1000
	}
	if rollAfter <= 0 {
		rollAfter = 60 * time.Minute
	}

	if _, err := os.Stat(directory); err != nil {
		return nil, ErrBadWorkingDirectory
	}
	if err := os.MkdirAll(destinationDirectory, 0750); err != nil {
		return nil, err
	}

	m := &WritingJSONRollManager{
		FilenameTemplate:     filenameTemplate,
		Directory:            directory,
		DestinationDirectory: destinationDirectory,
		RollSizeMB:           rollSizeMB,
		RollAfter:            rollAfter,
		Clock:                clock,
		instanceID:           newInstanceID(),
		Log:                  os.Stderr,
	}

	if err := m.drainOnStart(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *WritingJSONRollManager) logf(format string, args ...interface{}) {
	if m.Log == nil {
		return
	}
	fmt.Fprintf(m.Log, "shoebox[%s]: "+format+"\n", append([]interface{}{m.instanceID}, args...)...)
}

// drainOnStart treats every regular file already in Directory as a
// leftover working file from a prior process and seals it
// immediately, without recursing into subdirectories. This makes
// startup idempotent after a crash.
func (m *WritingJSONRollManager) drainOnStart() error {
	entries, err := os.ReadDir(m.Directory)
	if err != nil {
		return err
	}

	sealed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(m.Directory, e.Name())
		if err := m.sealFile(path); err != nil {
			return err
		}
		sealed++
	}
	m.logf("drain-on-start sealed %d leftover working file(s)", sealed)
	return nil
}

// renderTemplate substitutes [[CRC]] and [[TIMESTAMP]] after the
// strftime pass, the way the original filename-template tokens are
// documented: CRC stays literal ("[[CRC]]") until seal time, when the
// real SHA-256 hex digest is known.
func renderTemplate(template string, now time.Time, crc string) string {
	rendered := strftime(template, now)
	rendered = sanitizeFilenameComponent(rendered)
	rendered = strings.ReplaceAll(rendered, "[[TIMESTAMP]]", strconv.FormatInt(now.UnixMicro(), 10))
	rendered = strings.ReplaceAll(rendered, "[[CRC]]", crc)
	return rendered
}

// ensureOpen opens a fresh working file if none is active, computing
// its name from FilenameTemplate with [[CRC]] left unresolved.
func (m *WritingJSONRollManager) ensureOpen() error {
	if m.handle != nil {
		return nil
	}

	now := m.Clock.Now()
	name := renderTemplate(m.FilenameTemplate, now, "[[CRC]]")
	path := filepath.Join(m.Directory, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
	if err != nil {
		return err
	}

	m.handle = f
	m.filename = path
	m.startTime = now
	m.size = 0
	m.logf("opened working file %s", path)
	return nil
}

// Write appends payload as a line, ignoring metadata (a documented
// design choice of this write strategy — see spec §4.7), then rolls
// if the size or time threshold trips.
func (m *WritingJSONRollManager) Write(metadata *Metadata, payload string) error {
	if err := m.ensureOpen(); err != nil {
		return err
	}

	if _, err := io.WriteString(m.handle, payload); err != nil {
		return err
	}
	if _, err := io.WriteString(m.handle, "\n"); err != nil {
		return err
	}
	if err := m.handle.Sync(); err != nil {
		return err
	}

	// The trailing newline is excluded from the counter; see spec
	// §4.7 / §9 — an acknowledged off-by-one the spec codifies rather
	// than silently "fixes".
	m.size += int64(len(payload))

	sizeTrip := m.size/bytesPerMiB >= m.RollSizeMB
	timeTrip := m.size > 0 && !m.Clock.Now().Before(m.startTime.Add(m.RollAfter))
	if sizeTrip || timeTrip {
		if err := m.doRoll(); err != nil {
			return err
		}
	}

	return nil
}

// doRoll seals the active working file and clears write state.
func (m *WritingJSONRollManager) doRoll() error {
	if m.handle == nil {
		return nil
	}
	path := m.filename
	if err := m.closeHandle(); err != nil {
		return err
	}
	return m.sealFile(path)
}

func (m *WritingJSONRollManager) closeHandle() error {
	if m.handle == nil {
		return nil
	}
	err := m.handle.Close()
	m.handle = nil
	m.filename = ""
	m.size = 0
	return err
}

// sealFile computes path's SHA-256 (streamed in 1-MiB blocks), gzips
// it into DestinationDirectory under a name with the CRC token
// resolved to that digest, then removes the working file. Safe to
// repeat on the same content: the SHA-derived destination name makes
// a retried seal produce the identical artifact.
func (m *WritingJSONRollManager) sealFile(path string) error {
	digest, err := sha256File(path)
	if err != nil {
		return err
	}

	base := filepath.Base(path)
	destName := base
	if strings.Contains(base, "[[CRC]]") {
		destName = strings.ReplaceAll(base, "[[CRC]]", digest)
	} else {
		destName = renderTemplate(m.FilenameTemplate, m.Clock.Now(), digest)
	}
	destPath := filepath.Join(m.DestinationDirectory, destName+".gz")

	if err := gzipFileInto(path, destPath); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return err
	}

	m.logf("sealed %s -> %s", path, destPath)
	return nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, jsonSealReadBlock)
	// Wrapping f hides (*os.File).WriteTo, which would bypass buf.
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{f}, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func gzipFileInto(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	zw := gzip.NewWriter(dest)
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Close seals any in-progress working file.
func (m *WritingJSONRollManager) Close() error {
	return m.doRoll()
}
