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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// ReadingRollManager enumerates archive files matching a glob pattern,
// reads records one at a time, and rolls to the next file at
// end-of-file or truncation, up to RecoveryAttempts consecutive bad
// files before giving up.
type ReadingRollManager struct {
	Glob            string // filesystem glob, not a strftime template
	Directory       string
	ArchiveCallback ArchiveCallback // optional

	// NewArchive constructs the reader for a selected filename.
	// Defaults to NewArchiveReader; tests inject a double.
	NewArchive func(filename string) (*ArchiveReader, error)

	// RecoveryAttempts bounds how many consecutive empty/truncated
	// files read() tolerates before surfacing ErrNoValidFile.
	// NewReadingRollManager sets it from Settings.RecoveryAttempts; a
	// zero value means 3.
	RecoveryAttempts int

	instanceID    uuid.UUID
	filesToRead   []string
	activeArchive *ArchiveReader
	activeFilename string

	Log io.Writer
}

// NewReadingRollManager lists directory, filters by glob, sorts
// lexicographically (time-ordered, given timestamped filenames) and
// stores the match list. BadWorkingDirectory is returned if directory
// doesn't exist.
func NewReadingRollManager(glob, directory string) (*ReadingRollManager, error) {
	info, err := os.Stat(directory)
	if err != nil || !info.IsDir() {
		return nil, ErrBadWorkingDirectory
	}

	files, err := matchGlob(directory, glob)
	if err != nil {
		return nil, err
	}

	return &ReadingRollManager{
		Glob:             glob,
		Directory:        directory,
		NewArchive:       NewArchiveReader,
		RecoveryAttempts: Settings.RecoveryAttempts,
		instanceID:       newInstanceID(),
		filesToRead:      files,
		Log:              os.Stderr,
	}, nil
}

// matchGlob lists every regular file in directory whose name matches
// pattern, sorted lexicographically.
func matchGlob(directory, pattern string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, err
	}

	var matched []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, filepath.Join(directory, e.Name()))
		}
	}
	sort.Strings(matched)
	return matched, nil
}

func (m *ReadingRollManager) logf(format string, args ...interface{}) {
	if m.Log == nil {
		return
	}
	fmt.Fprintf(m.Log, "shoebox[%s]: "+format+"\n", append([]interface{}{m.instanceID}, args...)...)
}

func (m *ReadingRollManager) recoveryBudget() int {
	if m.RecoveryAttempts > 0 {
		return m.RecoveryAttempts
	}
	return 3
}

// getActiveArchive pops the next filename off the pending list and
// opens it, invoking on_open. Returns ErrNoMoreFiles once the list is
// exhausted.
func (m *ReadingRollManager) getActiveArchive() (*ArchiveReader, error) {
	if m.activeArchive != nil {
		return m.activeArchive, nil
	}

	if len(m.filesToRead) == 0 {
		return nil, ErrNoMoreFiles
	}

	filename := m.filesToRead[0]
	m.filesToRead = m.filesToRead[1:]

	newArchive := m.NewArchive
	if newArchive == nil {
		newArchive = NewArchiveReader
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
	m.logf("opened archive %s", filename)

	return archive, nil
}

// rollArchive closes the active archive and invokes on_close.
func (m *ReadingRollManager) rollArchive() error {
	if m.activeArchive == nil {
		return nil
	}

	filename := m.activeFilename
	err := m.activeArchive.Close()
	m.activeArchive = nil
	m.activeFilename = ""

	if m.ArchiveCallback != nil {
		m.ArchiveCallback.OnClose(filename)
	}
	m.logf("closed archive %s", filename)

	return err
}

// Read returns the next (metadata, payload) pair, rolling across
// files transparently. It tolerates up to RecoveryAttempts consecutive
// empty/truncated/corrupt files before returning ErrNoValidFile, so a
// short run of junk files doesn't spin forever; a sustained stream of
// good files never counts against the budget.
func (m *ReadingRollManager) Read() (*Metadata, []byte, error) {
	budget := m.recoveryBudget()

	for attempt := 0; attempt < budget; attempt++ {
		archive, err := m.getActiveArchive()
		if err != nil {
			return nil, nil, err
		}

		metadata, payload, err := archive.Read()
		if err == nil {
			return metadata, payload, nil
		}

		if errors.Is(err, ErrEndOfFile) {
			if rollErr := m.rollArchive(); rollErr != nil {
				return nil, nil, rollErr
			}
			continue
		}

		// OutOfSync/InvalidVersion: treat the file as bad, same as a
		// truncated one, and count it against the recovery budget.
		if rollErr := m.rollArchive(); rollErr != nil {
			return nil, nil, rollErr
		}
	}

	return nil, nil, ErrNoValidFile
}

// Close releases the active archive, if any. Idempotent.
func (m *ReadingRollManager) Close() error {
	return m.rollArchive()
}
