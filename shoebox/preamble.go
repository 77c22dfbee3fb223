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
	"encoding/binary"
	"io"
)

// magicNumber opens every record, regardless of version ("EVNT").
const magicNumber uint32 = 0x69867884

const preambleSize = 4 + 2 // u32 magic, u16 version

// makePreamble renders the 6-byte preamble for the given version.
func makePreamble(version uint16) []byte {
	b := make([]byte, preambleSize)
	binary.LittleEndian.PutUint32(b[0:4], magicNumber)
	binary.LittleEndian.PutUint16(b[4:6], version)
	return b
}

// loadPreamble reads exactly 6 bytes from r and returns the version
// they declare. A short read means clean end-of-archive (ErrEndOfFile);
// a full read with a mismatched magic means the file is corrupt or we
// started reading mid-record (ErrOutOfSync).
func loadPreamble(r io.Reader) (uint16, error) {
	buf := make([]byte, preambleSize)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if n < preambleSize {
			return 0, ErrEndOfFile
		}
		return 0, err
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != magicNumber {
		return 0, ErrOutOfSync
	}
	version := binary.LittleEndian.Uint16(buf[4:6])
	return version, nil
}
