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
	"encoding/json"
	"os"
	"path/filepath"
)

func init() {
	CallbackRegistry["local"] = func(raw json.RawMessage) (ArchiveCallback, error) {
		var cfg struct {
			Destination string `json:"destination"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return &LocalMoveCallback{Destination: cfg.Destination}, nil
	}
}

// LocalMoveCallback moves a sealed archive into Destination on close,
// the same os.Rename-based move FileStorage's log/column files use.
type LocalMoveCallback struct {
	Destination string
}

func (c *LocalMoveCallback) OnOpen(path string) {}

func (c *LocalMoveCallback) OnClose(path string) (newPath string) {
	if c.Destination == "" {
		return ""
	}
	if err := os.MkdirAll(c.Destination, 0750); err != nil {
		panic(err)
	}
	dest := filepath.Join(c.Destination, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		panic(err)
	}
	return dest
}
