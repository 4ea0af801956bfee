// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"flag"
	"fmt"
	"strings"
)

// Parse parses the flags of a physl subcommand. The subcommand's
// usage line omits the "physl" prefix. With -help, Parse prints the
// subcommand's help text and exits; a malformed flag prints the
// usage and exits with code 2.
func (c *Cmd) Parse(fs *flag.FlagSet, args []string, help, usage string) {
	wantHelp := fs.Bool("help", false, "display subcommand help")
	fs.Usage = func() {
		c.usage(fs, usage, "")
		c.Exit(2)
	}
	if err := fs.Parse(args); err != nil {
		c.Fatal(err)
	}
	if *wantHelp {
		c.usage(fs, usage, help)
		c.Exit(0)
	}
}

// usage writes the usage line of a subcommand, followed by its help
// text, if any, and its flag defaults.
func (c *Cmd) usage(fs *flag.FlagSet, usage, help string) {
	fs.SetOutput(c.Stderr)
	fmt.Fprintf(c.Stderr, "usage: physl %s\n", usage)
	if help = strings.TrimSpace(help); help != "" {
		fmt.Fprintf(c.Stderr, "\n%s\n\n", help)
	}
	fmt.Fprintln(c.Stderr, "Flags:")
	fs.PrintDefaults()
}

// must aborts the command on a non-nil error.
func (c *Cmd) must(err error) {
	if err != nil {
		c.Fatal(err)
	}
}
