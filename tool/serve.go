// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"flag"
	"net/http"

	"github.com/grailbio/phylanx"
	"github.com/grailbio/phylanx/config"
	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/rest"
	"github.com/grailbio/phylanx/values"
	"golang.org/x/time/rate"
)

func (c *Cmd) serve(ctx context.Context, args ...string) {
	var (
		flags = flag.NewFlagSet("serve", flag.ExitOnError)
		help  = `Serve runs the configured locality as one participant of a
distributed run. It serves the locality's published tiles to its
peers over HTTP at the configured listen address, compiles and runs
the PhySL program at path (if any) with the provided arguments, and
prints its value.

Every locality of a run must run the same program: distributed
arrays are named after the primitives that create them. Since peers
may still fetch tiles after this locality's program completes, serve
keeps serving until interrupted, unless -exit is given.

The configuration keys listen and ratelimit configure the server;
the keys locality, localities, transport, and fetchlimit configure
the locality; see physl config -help.`
	)
	listenFlag := flags.String("listen", "", "override the listen address from config")
	exitFlag := flags.Bool("exit", false, "exit once the program completes")
	c.Parse(flags, args, help, "serve [-listen addr] [-exit] [path [args...]]")

	addr, err := config.String(c.Config, config.Listen, ":9000")
	c.must(err)
	if *listenFlag != "" {
		addr = *listenFlag
	}
	perSecond, err := config.Int(c.Config, config.RateLimit, 0)
	c.must(err)
	l := c.locality()
	srv := &locality.Server{Locality: l, Version: phylanx.Version}
	if perSecond > 0 {
		srv.Limit = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
	server := &http.Server{Addr: addr, Handler: rest.Handler(srv.Node(), c.Log)}
	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()
	// Shutdown the server if the context is done.
	go func() {
		<-ctx.Done()
		server.Close()
	}()
	c.Log.Printf("%v: serving on %s", l, addr)

	if flags.NArg() > 0 {
		path := flags.Arg(0)
		src, err := readProgram(path, stdin())
		if err != nil {
			c.Fatal(err)
		}
		argv, err := evalArgs(ctx, path, flags.Args()[1:])
		if err != nil {
			c.Fatal(err)
		}
		task := c.Status.Group("serve").Startf("%s on %v", path, l)
		results, err := runGroup(ctx, []*locality.Locality{l}, path, src, argv, c.Log)
		task.Done()
		if err != nil {
			c.Fatal(err)
		}
		c.Println(values.Sprint(results[0]))
		if *exitFlag {
			return
		}
	}
	select {
	case err := <-errc:
		if err != http.ErrServerClosed {
			c.Fatal(err)
		}
	case <-ctx.Done():
	}
}
