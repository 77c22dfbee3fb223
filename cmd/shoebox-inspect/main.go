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

// Command shoebox-inspect is a small operator REPL over a directory of
// archive files: "next" reads the next record from a glob, "quit" (or
// "exit") exits.
package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/openstack-archive/shoebox/shoebox"
)

const (
	newprompt    = "\033[32mshoebox>\033[0m "
	resultprompt = "\033[31m=\033[0m "
)

func main() {
	directory := flag.String("directory", ".", "directory containing archive files")
	glob := flag.String("glob", "*", "filename glob to enumerate")
	flag.Parse()

	manager, err := shoebox.NewReadingRollManager(*glob, *directory)
	if err != nil {
		panic(err)
	}
	defer manager.Close()

	repl(manager)
}

func repl(manager *shoebox.ReadingRollManager) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            newprompt,
		HistoryFile:       ".shoebox-inspect-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return
		} else if err != nil {
			panic(err)
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case "quit", "exit":
			return
		case "next":
			runNext(manager)
		default:
			fmt.Println("commands: next, quit")
		}
	}
}

func runNext(manager *shoebox.ReadingRollManager) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Println("panic:", r)
		}
	}()

	metadata, payload, err := manager.Read()
	if err != nil {
		fmt.Println(resultprompt, "error:", err)
		return
	}

	fmt.Print(resultprompt)
	metadata.Range(func(k, v string) {
		fmt.Printf("%s=%s ", k, v)
	})
	fmt.Printf("(%d bytes payload)\n", len(payload))
}
