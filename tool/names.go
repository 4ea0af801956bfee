// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/grailbio/phylanx/names"
)

func (c *Cmd) names(ctx context.Context, args ...string) {
	var (
		flags = flag.NewFlagSet("names", flag.ExitOnError)
		help  = `Names decodes the given primitive names, of the form

	/phylanx[$locality]/primitive$sequence[$instance]/compileid$tag1[$tag2]

and displays their components. Names that do not parse are reported
with their best-effort primitive type.`
	)
	c.Parse(flags, args, help, "names name...")
	if flags.NArg() == 0 {
		flags.Usage()
	}
	tw := tabwriter.NewWriter(c.Stdout, 4, 4, 1, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "display\tlocality\tprimitive\tsequence\tinstance\tcompileid\ttags")
	bad := 0
	for _, name := range flags.Args() {
		p, ok := names.Parse(name)
		if !ok {
			c.Errorf("%s: malformed name (type %q)\n", name, names.PrimitiveType(name))
			bad++
			continue
		}
		loc := "-"
		if p.Locality != names.NoLocality {
			loc = fmt.Sprint(p.Locality)
		}
		tags := fmt.Sprint(p.Tag1)
		if p.Tag2 != names.Unset {
			tags += fmt.Sprintf(", %d", p.Tag2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			names.DisplayNameOf(p), loc, p.Primitive, p.Sequence, p.Instance, p.CompileID, tags)
	}
	if bad > 0 {
		tw.Flush()
		c.Exit(1)
	}
}
