// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/grailbio/phylanx/config"
)

func (c *Cmd) config(ctx context.Context, args ...string) {
	var (
		flags  = flag.NewFlagSet("config", flag.ExitOnError)
		header = `Config writes the current physl configuration to standard
output.

physl's configuration is a YAML file. The following toplevel keys
are provisioned by providers, given as "provider[,argument]":

`
		footer = `
The following toplevel keys are plain values:

	locality: this process's locality id (default 0)
	localities: the base URLs of every locality, indexed by id
	fetchlimit: the number of concurrent remote tile fetches
	listen: the address on which physl serve listens (default :9000)
	ratelimit: the number of tile fetches served per second (0: unlimited)

The configuration may be modified and supplied to physl:

	$ physl config > myconfig
	<edit myconfig>
	$ physl -config myconfig ...`
	)
	// Construct a help string from the available providers.
	b := new(bytes.Buffer)
	b.WriteString(header)
	help := config.Help()
	var keys []string
	for key := range help {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(b, "%s:\n", key)
		usages := help[key]
		sort.Slice(usages, func(i, j int) bool { return usages[i].Kind < usages[j].Kind })
		for _, u := range usages {
			var arg string
			if u.Arg != "" {
				arg = "," + u.Arg
			}
			fmt.Fprintf(b, "	%s%s\n", u.Kind, arg)
			fmt.Fprintf(b, "		%s\n", u.Usage)
		}
		b.WriteString("\n")
	}
	b.WriteString(footer)

	c.Parse(flags, args, b.String(), "config")
	if flags.NArg() != 0 {
		flags.Usage()
	}
	data, err := config.Marshal(c.Config)
	if err != nil {
		c.Fatal(err)
	}
	c.Stdout.Write(data)
}
