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

import "errors"

// Error kinds surfaced by the codec and roll managers. Callers should
// use errors.Is against these sentinels rather than matching strings.
var (
	// ErrInvalidVersion is returned when pack() is asked for a codec
	// version that has no registered handler.
	ErrInvalidVersion = errors.New("shoebox: invalid record version")

	// ErrOutOfSync is returned when the preamble magic doesn't match,
	// or a header's eor marker is non-zero.
	ErrOutOfSync = errors.New("shoebox: out of sync")

	// ErrEndOfFile is the clean/truncated end-of-archive signal: a
	// short read on the preamble or any length-prefixed block.
	ErrEndOfFile = errors.New("shoebox: end of file")

	// ErrNoMoreFiles is returned by ReadingRollManager.Read when the
	// glob match list is exhausted.
	ErrNoMoreFiles = errors.New("shoebox: no more files")

	// ErrNoValidFile is returned after three consecutive archives
	// yielded no valid record.
	ErrNoValidFile = errors.New("shoebox: no valid file after recovery budget")

	// ErrBadWorkingDirectory is returned at construction when a
	// required directory does not exist.
	ErrBadWorkingDirectory = errors.New("shoebox: bad working directory")
)
