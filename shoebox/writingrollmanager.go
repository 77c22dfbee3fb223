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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// WritingRollManager drives one framed-archive writer: filename
// templating, lazy opening, policy-driven rotation and callback
// invocation. It holds at most one open archive at a time; close() is
// idempotent.
type WritingRollManager struct {
	FilenameTemplate string // strftime-style
	Directory        string
	RollChecker      RollChecker
	ArchiveCallback  ArchiveCallback // optional
	Clock            Clock

	// NewArchive constructs the writer for a freshly selected
	// filename. Defaults to NewArchiveWriter; tests inject a double.
	NewArchive func(filename string) (*ArchiveWriter, error)

	instanceID     uuid.UUID
	activeArchive  *ArchiveWriter
	activeFilename string

	Log io.Writer // defaults to os.Stderr
}

// NewWritingRollManager builds a manager ready to write. clock is
// mandatory; pass RealClock{} in production.
func NewWritingRollManager(filenameTemplate, directory string, checker RollChecker, clock Clock) *WritingRollManager {
	return &WritingRollManager{
		FilenameTemplate: filenameTemplate,
		Directory:        directory,
		RollChecker:      checker,
		Clock:            clock,
		NewArchive:       NewArchiveWriter,
		instanceID:       newInstanceID(),
		Log:              os.Stderr,
	}
}

func (m *WritingRollManager) logf(format string, args ...interface{}) {
	if m.Log == nil {
		return
	}
	fmt.Fprintf(m.Log, "shoebox[%s]: "+format+"\n", append([]interface{}{m.instanceID}, args...)...)
}

// makeFilename renders FilenameTemplate against now() strftime-style,
// then replaces space, '/' and ':' with '_' to produce a path-safe
// component.
func (m *WritingRollManager) makeFilename() string {
	rendered := strftime(m.FilenameTemplate, m.Clock.Now())
	rendered = sanitizeFilenameComponent(rendered)
	return filepath.Join(m.Directory, rendered)
}

func sanitizeFilenameComponent(s string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_", ":", "_")
	return replacer.Replace(s)
}

// getActiveArchive lazily opens the active archive, running on_open
// and RollChecker.Start exactly once per archive.
func (m *WritingRollManager) getActiveArchive() (*ArchiveWriter, error) {
	if m.activeArchive != nil {
		return m.activeArchive, nil
	}

	if err := os.MkdirAll(m.Directory, 0750); err != nil {
		return nil, err
	}

	filename := m.makeFilename()
	newArchive := m.NewArchive
	if newArchive == nil {
		newArchive = NewArchiveWriter
	}
	archive, err := newArchive(filename)
	if err != nil {
		return nil, err
	}

	m.activeArchive = archive
	m.activeFilename = filename

	if m.ArchiveCallback != nil {
		m.ArchiveCallback.OnOpen(filename)
	}
	m.RollChecker.Start(archive)
	m.logf("opened archive %s", filename)

	return archive, nil
}

// Write packs and appends (metadata, payload), opening an archive if
// none is active, then rolls if the checker trips.
func (m *WritingRollManager) Write(metadata *Metadata, payload []byte) error {
	archive, err := m.getActiveArchive()
	if err != nil {
		return err
	}

	if err := archive.Write(metadata, payload); err != nil {
		return err
	}

	if m.RollChecker.Check(archive) {
		if err := m.rollArchive(); err != nil {
			return err
		}
	}

	return nil
}

// rollArchive closes the active archive; the next write() lazily
// opens its replacement.
func (m *WritingRollManager) rollArchive() error {
	return m.Close()
}

// Close releases the active archive, if any, invoking on_close with
// its path before clearing state. Calling Close with nothing open is
// a no-op.
func (m *WritingRollManager) Close() error {
	if m.activeArchive == nil {
		return nil
	}

	filename := m.activeFilename
	err := m.activeArchive.Close()

	if m.ArchiveCallback != nil {
		newPath := m.ArchiveCallback.OnClose(filename)
		if newPath != "" {
			filename = newPath
		}
	}

	m.activeArchive = nil
	m.activeFilename = ""
	m.logf("closed archive %s", filename)

	return err
}
