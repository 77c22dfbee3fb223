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
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/btree"
)

// TailingReader supplements the static, construction-time glob
// enumeration with a directory watch: a writer producing archives
// concurrently with a reader draining them. Not part of the core
// read() contract — a consumer that wants the static, terminate-on-
// NoMoreFiles behavior keeps using ReadingRollManager directly.
type TailingReader struct {
	manager *ReadingRollManager

	mu      sync.Mutex
	pending *btree.BTreeG[string]
	watcher *fsnotify.Watcher
}

func lessString(a, b string) bool { return a < b }

// NewTailingReader wraps manager with a directory watch. The watch is
// started by Run; construction alone does nothing.
func NewTailingReader(manager *ReadingRollManager) *TailingReader {
	return &TailingReader{
		manager: manager,
		pending: btree.NewG[string](32, lessString),
	}
}

// Run watches manager's directory for newly created files matching
// its glob and feeds them to deliver until ctx is cancelled. deliver
// is called with every (metadata, payload) pair Read() produces,
// including ones already queued from construction.
func (t *TailingReader) Run(ctx context.Context, deliver func(*Metadata, []byte) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(t.manager.Directory); err != nil {
		return err
	}
	t.watcher = watcher

	drain := func() error {
		for {
			metadata, payload, err := t.manager.Read()
			if err == ErrNoMoreFiles {
				return nil
			}
			if err != nil {
				return err
			}
			if err := deliver(metadata, payload); err != nil {
				return err
			}
		}
	}

	if err := drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !t.matches(ev.Name) {
				continue
			}
			t.enqueue(ev.Name)
			if err := drain(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (t *TailingReader) matches(name string) bool {
	ok, err := filepath.Match(t.manager.Glob, filepath.Base(name))
	return err == nil && ok
}

// enqueue inserts name into the pending set, ordered the same way the
// manager's static file list is sorted, and appends it to the
// manager's pending-read queue if not already present.
func (t *TailingReader) enqueue(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending.Has(name) {
		return
	}
	t.pending.ReplaceOrInsert(name)

	for _, existing := range t.manager.filesToRead {
		if existing == name {
			return
		}
	}
	t.manager.filesToRead = append(t.manager.filesToRead, name)
}
