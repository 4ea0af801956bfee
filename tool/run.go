// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"flag"
	"time"

	"github.com/grailbio/phylanx/config"
	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/values"
)

func (c *Cmd) run(ctx context.Context, args ...string) {
	var (
		flags = flag.NewFlagSet("run", flag.ExitOnError)
		help  = `Run compiles the PhySL program at path (or standard input, if path
is "-") and runs it with the provided arguments, printing its value.
Each argument is itself a PhySL expression, e.g., 3, '(1, 2), or
[[1, 2], [3, 4]]. If the program's last expression defines a
function, the function is invoked with the arguments.

By default, the program runs on the configured locality. Flag -n
runs the program on n in-process localities instead; distributed
primitives then tile their arrays over those localities, and the
value computed by each locality is printed.

Programs distributed over several processes are run by physl serve.`
	)
	nFlag := flags.Int("n", 0, "run on n in-process localities")
	timeoutFlag := flags.Duration("timeout", 0, "abort the run after this duration")
	c.Parse(flags, args, help, "run [-n localities] [-timeout duration] path [args...]")
	if flags.NArg() == 0 {
		flags.Usage()
	}
	path := flags.Arg(0)
	src, err := readProgram(path, stdin())
	if err != nil {
		c.Fatal(err)
	}
	argv, err := evalArgs(ctx, path, flags.Args()[1:])
	if err != nil {
		c.Fatal(err)
	}
	if *timeoutFlag > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeoutFlag)
		defer cancel()
	}

	var ls []*locality.Locality
	if *nFlag > 0 {
		limit, err := config.Int(c.Config, config.FetchLimit, 0)
		c.must(err)
		ls = locality.NewGroup(*nFlag, limit, c.Log).Localities
	} else {
		l := c.locality()
		if l.Count > 1 {
			c.Fatalf("%v is one of several; use physl serve to run distributed programs", l)
		}
		ls = []*locality.Locality{l}
	}
	task := c.Status.Group("run").Startf("%s on %d localities", path, len(ls))
	start := time.Now()
	results, err := runGroup(ctx, ls, path, src, argv, c.Log)
	task.Done()
	if err != nil {
		c.Fatal(err)
	}
	c.Log.Debugf("%s: ran in %s", path, time.Since(start))
	if len(results) == 1 {
		c.Println(values.Sprint(results[0]))
		return
	}
	for i, v := range results {
		c.Printf("%d: %s\n", i, values.Sprint(v))
	}
}
