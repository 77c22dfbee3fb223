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

// Metadata is an ordered string->string map. Pack order is preserved
// on purpose: a bare Go map has nondeterministic iteration order, and
// §3 requires re-packing the same input to produce byte-identical
// output.
type Metadata struct {
	keys   []string
	values []string
	index  map[string]int
}

// NewMetadata builds an empty, ready-to-use Metadata.
func NewMetadata() *Metadata {
	return &Metadata{index: make(map[string]int)}
}

// Set assigns key to value, preserving first-insertion order on
// update and appending on a new key.
func (m *Metadata) Set(key, value string) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.values[i] = value
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
}

// Get returns the value for key and whether it was present.
func (m *Metadata) Get(key string) (string, bool) {
	i, ok := m.index[key]
	if !ok {
		return "", false
	}
	return m.values[i], true
}

// Len returns the number of key/value pairs.
func (m *Metadata) Len() int {
	return len(m.keys)
}

// Range calls fn for every pair in insertion order.
func (m *Metadata) Range(fn func(key, value string)) {
	for i, k := range m.keys {
		fn(k, m.values[i])
	}
}

// Equal reports whether m and other hold the same pairs in the same
// order — used by round-trip tests.
func (m *Metadata) Equal(other *Metadata) bool {
	if other == nil {
		return m.Len() == 0
	}
	if m.Len() != other.Len() {
		return false
	}
	for i, k := range m.keys {
		if other.keys[i] != k || other.values[i] != m.values[i] {
			return false
		}
	}
	return true
}

// Record is the unit of on-disk storage: a metadata map paired with
// an opaque payload, tagged with the codec version it was packed
// with.
type Record struct {
	Metadata *Metadata
	Payload  []byte
	Version  uint16
}
