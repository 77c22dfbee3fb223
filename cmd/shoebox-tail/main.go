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

// Command shoebox-tail follows a directory of archive files as a
// writer appends new ones, printing each record's metadata to stdout
// until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/dc0d/onexit"

	"github.com/openstack-archive/shoebox/shoebox"
)

func main() {
	directory := flag.String("directory", ".", "directory to tail")
	glob := flag.String("glob", "*.evnt", "filename glob to watch")
	flag.Parse()

	manager, err := shoebox.NewReadingRollManager(*glob, *directory)
	if err != nil {
		panic(err)
	}
	onexit.Register(func() {
		if err := manager.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "shoebox-tail: close:", err)
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	tailer := shoebox.NewTailingReader(manager)
	err = tailer.Run(ctx, func(metadata *shoebox.Metadata, payload []byte) error {
		metadata.Range(func(k, v string) {
			fmt.Printf("%s=%s ", k, v)
		})
		fmt.Printf("(%d bytes payload)\n", len(payload))
		return nil
	})
	if err != nil && err != context.Canceled {
		fmt.Fprintln(os.Stderr, "shoebox-tail:", err)
		os.Exit(1)
	}
}
