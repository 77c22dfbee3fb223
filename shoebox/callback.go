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
	"fmt"
	"os"
)

// ArchiveCallback is the lifecycle hook a roll manager invokes on
// open and on close of each archive file. on_close may rename/move
// the file and return its new path; a ChainCallback threads that path
// through the rest of the chain.
type ArchiveCallback interface {
	OnOpen(path string)
	OnClose(path string) (newPath string)
}

// CallbackRegistry holds egress backend constructors keyed by name, so
// a JSON config document can select "local", "s3", "ceph", etc. the
// same way storage.BackendRegistry lets memcp pick a persistence
// engine by name. Backends self-register via init().
var CallbackRegistry = map[string]func(raw json.RawMessage) (ArchiveCallback, error){}

// ChainCallback fans a single on_open/on_close pair out to an ordered
// list of callbacks. on_close threads the (possibly rewritten) path
// through each link in order, so a "change extension" callback can
// precede an "upload" callback. A failing link is caught and logged;
// it never aborts the chain or the caller's close().
type ChainCallback struct {
	Links []ArchiveCallback
	Log   func(format string, args ...interface{})
}

// NewChainCallback builds a chain over links, logging isolated
// failures to stderr unless the Log field is replaced.
func NewChainCallback(links ...ArchiveCallback) *ChainCallback {
	return &ChainCallback{
		Links: links,
		Log: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}
}

func (c *ChainCallback) OnOpen(path string) {
	for _, link := range c.Links {
		c.safeCall(func() { link.OnOpen(path) })
	}
}

func (c *ChainCallback) OnClose(path string) (newPath string) {
	current := path
	for _, link := range c.Links {
		var rewritten string
		ok := c.safeCallClose(link, current, &rewritten)
		if ok && rewritten != "" {
			current = rewritten
		}
	}
	return current
}

// safeCall isolates a single on_open invocation: a panicking callback
// is caught, logged, and does not stop the remaining links from
// running.
func (c *ChainCallback) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.Log("shoebox: callback panicked: %v", r)
		}
	}()
	fn()
}

// safeCallClose runs one on_close link, reporting whether it
// completed without panicking and, if so, writing its returned path
// (which may be empty, meaning "unchanged") into *out.
func (c *ChainCallback) safeCallClose(link ArchiveCallback, path string, out *string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.Log("shoebox: callback panicked: %v", r)
			ok = false
		}
	}()
	*out = link.OnClose(path)
	return true
}
