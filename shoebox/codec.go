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

// CurrentVersion is the only record version this build understands.
// New versions may define new header layouts, but the 6-byte preamble
// must stay identical so a reader can route before decoding it.
const CurrentVersion uint16 = 1

// versionCodec packs/unpacks the header, metadata block and payload
// block for one wire version. The preamble itself is version-agnostic
// and handled by loadPreamble/makePreamble.
type versionCodec interface {
	// pack returns the header, metadata and payload blocks, in the
	// order they must be written after the preamble.
	pack(payload []byte, metadata *Metadata) (header, metaBlock, payloadBlock []byte)
	// unpack reads the version-specific blocks that follow a preamble
	// already consumed by the caller.
	unpack(r io.Reader) (*Metadata, []byte, error)
}

// registry is the process-wide, immutable-after-init table of
// version -> codec. It is built once at package initialization and
// never mutated afterwards.
var registry = map[uint16]versionCodec{
	1: v1Codec{},
}

func getCodec(version uint16) (versionCodec, error) {
	c, ok := registry[version]
	if !ok {
		return nil, ErrInvalidVersion
	}
	return c, nil
}

// Pack renders payload+metadata into the four ordered byte blocks that
// make up one record: preamble, header, metadata block, payload
// block. Returning the blocks separately (instead of one concatenated
// buffer) lets a caller write them straight to a file without an
// intermediate copy, while preserving byte-exact layout.
func Pack(payload []byte, metadata *Metadata, version uint16) (blocks [][]byte, err error) {
	codec, err := getCodec(version)
	if err != nil {
		return nil, err
	}
	if metadata == nil {
		metadata = NewMetadata()
	}
	header, metaBlock, payloadBlock := codec.pack(payload, metadata)
	preamble := makePreamble(version)
	return [][]byte{preamble, header, metaBlock, payloadBlock}, nil
}

// LoadPreamble reads the 6-byte preamble and returns the record
// version it declares, for routing to the matching codec.
func LoadPreamble(r io.Reader) (uint16, error) {
	return loadPreamble(r)
}

// Unpack must be called immediately after a successful LoadPreamble.
// It reads the version-appropriate header, metadata block and payload
// block and returns the decoded record.
func Unpack(r io.Reader, version uint16) (*Metadata, []byte, error) {
	codec, err := getCodec(version)
	if err != nil {
		return nil, nil, err
	}
	return codec.unpack(r)
}

// v1Codec implements the version-1 wire format documented in spec §6.
type v1Codec struct{}

const headerSizeV1 = 4 + 4 + 4 // metadata_len, payload_len, eor

func (v1Codec) pack(payload []byte, metadata *Metadata) (header, metaBlock, payloadBlock []byte) {
	metaBlock = encodeMetadataBlock(metadata)
	payloadBlock = encodePayloadBlock(payload)

	header = make([]byte, headerSizeV1)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(metaBlock)))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payloadBlock)))
	binary.LittleEndian.PutUint32(header[8:12], 0) // eor marker

	return header, metaBlock, payloadBlock
}

func (v1Codec) unpack(r io.Reader) (*Metadata, []byte, error) {
	headerBytes, err := readExact(r, headerSizeV1)
	if err != nil {
		return nil, nil, err
	}
	metaLen := binary.LittleEndian.Uint32(headerBytes[0:4])
	payloadLen := binary.LittleEndian.Uint32(headerBytes[4:8])
	eor := binary.LittleEndian.Uint32(headerBytes[8:12])
	if eor != 0 {
		return nil, nil, ErrOutOfSync
	}

	metaBytes, err := readExact(r, int(metaLen))
	if err != nil {
		return nil, nil, err
	}
	metadata, err := decodeMetadataBlock(metaBytes)
	if err != nil {
		return nil, nil, err
	}

	payloadBytes, err := readExact(r, int(payloadLen))
	if err != nil {
		return nil, nil, err
	}
	payload, err := decodePayloadBlock(payloadBytes)
	if err != nil {
		return nil, nil, err
	}

	return metadata, payload, nil
}

// readExact reads exactly n bytes, reporting a short read as
// ErrEndOfFile (truncation, not corruption).
func readExact(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ErrEndOfFile
	}
	return buf, nil
}

// encodeMetadataBlock lays out the count/lengths/strings triple
// described in spec §3, in Metadata's insertion order.
func encodeMetadataBlock(metadata *Metadata) []byte {
	n := metadata.Len()
	count := uint32(2 * n)

	size := 4 + 4*int(count)
	metadata.Range(func(key, value string) {
		size += len(key) + len(value)
	})

	block := make([]byte, size)
	binary.LittleEndian.PutUint32(block[0:4], count)

	lengthsOffset := 4
	stringsOffset := 4 + 4*int(count)
	i := 0
	metadata.Range(func(key, value string) {
		binary.LittleEndian.PutUint32(block[lengthsOffset+8*i:], uint32(len(key)))
		binary.LittleEndian.PutUint32(block[lengthsOffset+8*i+4:], uint32(len(value)))
		stringsOffset += copy(block[stringsOffset:], key)
		stringsOffset += copy(block[stringsOffset:], value)
		i++
	})

	return block
}

// decodeMetadataBlock walks the paired length table then slices the
// contiguous string buffer, without any reflection-based assembly.
func decodeMetadataBlock(block []byte) (*Metadata, error) {
	if len(block) < 4 {
		return nil, ErrOutOfSync
	}
	count := binary.LittleEndian.Uint32(block[0:4])
	lengths := make([]uint32, count)
	offset := 4
	for i := uint32(0); i < count; i++ {
		if offset+4 > len(block) {
			return nil, ErrOutOfSync
		}
		lengths[i] = binary.LittleEndian.Uint32(block[offset : offset+4])
		offset += 4
	}

	metadata := NewMetadata()
	for i := uint32(0); i+1 < count; i += 2 {
		keyLen := int(lengths[i])
		valLen := int(lengths[i+1])
		if offset+keyLen+valLen > len(block) {
			return nil, ErrOutOfSync
		}
		key := string(block[offset : offset+keyLen])
		offset += keyLen
		value := string(block[offset : offset+valLen])
		offset += valLen
		metadata.Set(key, value)
	}

	return metadata, nil
}

func encodePayloadBlock(payload []byte) []byte {
	block := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(block[0:4], uint32(len(payload)))
	copy(block[4:], payload)
	return block
}

func decodePayloadBlock(block []byte) ([]byte, error) {
	if len(block) < 4 {
		return nil, ErrOutOfSync
	}
	length := binary.LittleEndian.Uint32(block[0:4])
	if int(4+length) != len(block) {
		return nil, ErrOutOfSync
	}
	payload := make([]byte, length)
	copy(payload, block[4:])
	return payload, nil
}
