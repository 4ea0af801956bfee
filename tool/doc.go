// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"flag"
	"io"
	"strings"

	"github.com/grailbio/phylanx"
	"github.com/grailbio/phylanx/primitive"
	"v.io/x/lib/textutil"
)

func (c *Cmd) doc(ctx context.Context, args ...string) {
	flags := flag.NewFlagSet("doc", flag.ExitOnError)
	help := `Doc displays documentation for the primitives in the standard
catalogue. Without arguments, it lists every primitive with its
signatures; with arguments, it documents the named primitives,
which may be given either by type name (e.g. __add) or by the head
of a signature (e.g. +).`
	c.Parse(flags, args, help, "doc [primitive...]")

	cat := phylanx.DefaultCatalogue()
	if flags.NArg() == 0 {
		for _, m := range cat.Matches() {
			c.printMatch(m)
		}
		return
	}
	for _, name := range flags.Args() {
		found := false
		for _, m := range cat.Matches() {
			if m.Name == name || hasHead(m, name) {
				c.printMatch(m)
				found = true
			}
		}
		if !found {
			c.Fatalf("no primitive %s", name)
		}
	}
}

func hasHead(m *primitive.Match, head string) bool {
	for _, p := range m.Patterns {
		if strings.HasPrefix(p, head+"(") || strings.Contains(p, " "+head+" ") || strings.HasPrefix(p, head+"_") {
			return true
		}
	}
	return false
}

func (c *Cmd) printMatch(m *primitive.Match) {
	c.Printf("%s\n", m.Name)
	for _, p := range m.Patterns {
		c.Printf("    %s\n", p)
	}
	c.printdoc(m.Help, "\n")
}

func (c *Cmd) printdoc(doc string, nl string) {
	if doc == "" {
		c.Printf("%s", nl)
		return
	}
	pw := textutil.PrefixLineWriter(c.Stdout, "        ")
	ww := textutil.NewUTF8WrapWriter(pw, 72)
	if _, err := io.WriteString(ww, doc); err != nil {
		c.Fatal(err)
	}
	ww.Flush()
	pw.Flush()
	c.Printf("%s", nl)
}
