// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"flag"
	"runtime"

	"github.com/grailbio/phylanx"
	"github.com/grailbio/phylanx/locality"
)

func (c *Cmd) version() string {
	if c.Version == "" {
		return phylanx.Version
	}
	return c.Version
}

func (c *Cmd) versionCmd(ctx context.Context, args ...string) {
	var (
		flags = flag.NewFlagSet("version", flag.ExitOnError)
		help  = `Version displays this binary's PhySL version. With -peers, it also
queries every configured locality for its version and reports
whether the peer may take part in the same run.`
	)
	peersFlag := flags.Bool("peers", false, "query the versions of the configured localities")
	c.Parse(flags, args, help, "version [-peers]")
	if flags.NArg() != 0 {
		flags.Usage()
	}
	c.Printf("%s (%s)\n", c.version(), runtime.Version())
	if !*peersFlag {
		return
	}
	l := c.locality()
	client, ok := l.Transport.(*locality.Client)
	if !ok {
		c.Fatalf("%v has no peers to query", l)
	}
	incompatible := false
	for i := 0; i < l.Count; i++ {
		info, err := client.Info(ctx, i)
		if err != nil {
			c.Printf("locality %d: %v\n", i, err)
			incompatible = true
			continue
		}
		status := "compatible"
		if !phylanx.Compatible(c.version(), info.Version) {
			status = "incompatible"
			incompatible = true
		}
		c.Printf("locality %d: %s (%s)\n", i, info.Version, status)
	}
	if incompatible {
		c.Exit(1)
	}
}
