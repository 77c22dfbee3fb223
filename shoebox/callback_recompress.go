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
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// RecompressFormat selects the codec RecompressCallback transcodes a
// sealed .gz artifact into.
type RecompressFormat string

const (
	RecompressXZ  RecompressFormat = "xz"
	RecompressLZ4 RecompressFormat = "lz4"
)

func init() {
	CallbackRegistry["recompress"] = func(raw json.RawMessage) (ArchiveCallback, error) {
		var cfg struct {
			Format      RecompressFormat `json:"format"`
			DeleteInput bool             `json:"delete_input"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return &RecompressCallback{Format: cfg.Format, DeleteInput: cfg.DeleteInput}, nil
	}
}

// RecompressCallback is a chain link that re-encodes a gzip-sealed
// artifact as .xz or .lz4 for a colder storage tier and returns the
// new path, letting a following chain link (e.g. an upload callback)
// pick up the rewritten name — the "change extension precedes upload"
// pattern spec §4.4 describes.
type RecompressCallback struct {
	Format      RecompressFormat
	DeleteInput bool
}

func (c *RecompressCallback) OnOpen(path string) {}

func (c *RecompressCallback) OnClose(path string) (newPath string) {
	if !strings.HasSuffix(path, ".gz") {
		// not a sealed artifact we understand; leave it alone
		return ""
	}

	in, err := os.Open(path)
	if err != nil {
		panic(err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		panic(err)
	}
	defer gz.Close()

	base := strings.TrimSuffix(path, ".gz")
	outPath := base + "." + string(c.Format)
	out, err := os.Create(outPath)
	if err != nil {
		panic(err)
	}
	defer out.Close()

	if err := c.recompress(gz, out); err != nil {
		panic(err)
	}

	if c.DeleteInput {
		os.Remove(path)
	}

	return outPath
}

func (c *RecompressCallback) recompress(r io.Reader, w io.Writer) error {
	switch c.Format {
	case RecompressXZ:
		zw, err := xz.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := io.Copy(zw, r); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case RecompressLZ4:
		zw := lz4.NewWriter(w)
		if _, err := io.Copy(zw, r); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	default:
		_, err := io.Copy(w, r)
		return err
	}
}
