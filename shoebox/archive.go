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
	"io"
	"os"
)

// Archive owns exactly one archive file handle, on either the write
// path or the read path. Callbacks never see the handle, only the
// path they were opened/closed under.
type Archive interface {
	Filename() string
	Close() error
}

// ArchiveWriter is the active archive a WritingRollManager appends to.
type ArchiveWriter struct {
	filename string
	handle   *os.File
}

// NewArchiveWriter opens filename for append-from-scratch writing.
// Broken out as a variable so tests can inject a double without
// reflecting on types.
var NewArchiveWriter = func(filename string) (*ArchiveWriter, error) {
	f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return nil, err
	}
	return &ArchiveWriter{filename: filename, handle: f}, nil
}

func (a *ArchiveWriter) Filename() string { return a.filename }

// Write packs (metadata, payload) via the current codec and appends
// every returned block to the file in order. No buffering guarantee
// beyond the platform default; does not fsync.
func (a *ArchiveWriter) Write(metadata *Metadata, payload []byte) error {
	blocks, err := Pack(payload, metadata, CurrentVersion)
	if err != nil {
		return err
	}
	for _, block := range blocks {
		if _, err := a.handle.Write(block); err != nil {
			return err
		}
	}
	return nil
}

// Offset returns the writer's current file offset, the quantity
// SizeRollChecker compares against its threshold.
func (a *ArchiveWriter) Offset() (int64, error) {
	return a.handle.Seek(0, io.SeekCurrent)
}

// Close flushes and releases the handle.
func (a *ArchiveWriter) Close() error {
	return a.handle.Close()
}

// ArchiveReader is the active archive a ReadingRollManager drains.
type ArchiveReader struct {
	filename string
	handle   *os.File
}

// NewArchiveReader opens filename for reading. Broken out as a
// variable for the same test-injection reason as NewArchiveWriter.
var NewArchiveReader = func(filename string) (*ArchiveReader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	return &ArchiveReader{filename: filename, handle: f}, nil
}

func (a *ArchiveReader) Filename() string { return a.filename }

// Read loads a preamble then unpacks one record. ErrEndOfFile
// propagates to the caller, which interprets it as "roll to the next
// file", not as corruption.
func (a *ArchiveReader) Read() (*Metadata, []byte, error) {
	version, err := LoadPreamble(a.handle)
	if err != nil {
		return nil, nil, err
	}
	return Unpack(a.handle, version)
}

// Close releases the handle.
func (a *ArchiveReader) Close() error {
	return a.handle.Close()
}
