// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"flag"
	"path/filepath"
	"strings"

	"github.com/grailbio/phylanx/topology"
)

func (c *Cmd) topology(ctx context.Context, args ...string) {
	var (
		flags = flag.NewFlagSet("topology", flag.ExitOnError)
		help  = `Topology compiles the PhySL program at path and prints the
execution tree of its last top-level expression, either as a DOT
graph (the default) or as a Newick tree. Primitive nodes are labeled
by their primitive names; constants by their values.`
	)
	formatFlag := flags.String("format", "dot", "output format: dot or newick")
	c.Parse(flags, args, help, "topology [-format dot|newick] path")
	if flags.NArg() != 1 {
		flags.Usage()
	}
	path := flags.Arg(0)
	e := c.compileFile(ctx, path)
	switch *formatFlag {
	case "dot":
		b, err := topology.DOT(graphName(path), e.Root)
		if err != nil {
			c.Fatal(err)
		}
		c.Println(string(b))
	case "newick":
		c.Println(topology.Newick(e.Root))
	default:
		c.Fatalf("unknown format %q", *formatFlag)
	}
}

// graphName derives a DOT identifier from a file path.
func graphName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.Map(func(r rune) rune {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, name)
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		name = "g" + name
	}
	return name
}
