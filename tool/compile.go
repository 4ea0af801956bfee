// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/grailbio/phylanx/compiler"
	"github.com/grailbio/phylanx/names"
)

// compileFile compiles the program at path for a standalone
// locality.
func (c *Cmd) compileFile(ctx context.Context, path string) *compiler.EntryPoint {
	src, err := readProgram(path, stdin())
	if err != nil {
		c.Fatal(err)
	}
	e, err := c.compiler(nil).Compile(ctx, path, src)
	if err != nil {
		c.Fatal(err)
	}
	return e
}

func (c *Cmd) compile(ctx context.Context, args ...string) {
	var (
		flags = flag.NewFlagSet("compile", flag.ExitOnError)
		help  = `Compile compiles the PhySL program at path and lists the names
of the primitive instances it creates, in creation order, along with
their types and display names. With -digest, only the digest of the
program's source is printed.`
	)
	digestFlag := flags.Bool("digest", false, "print only the source digest")
	c.Parse(flags, args, help, "compile [-digest] path")
	if flags.NArg() != 1 {
		flags.Usage()
	}
	e := c.compileFile(ctx, flags.Arg(0))
	if *digestFlag {
		c.Println(e.Digest)
		return
	}
	tw := tabwriter.NewWriter(c.Stdout, 4, 4, 1, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "name\ttype\tdisplay")
	for _, name := range e.Primitives {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, names.PrimitiveType(name), names.DisplayName(name))
	}
}
