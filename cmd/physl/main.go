// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/grailbio/phylanx"
	"github.com/grailbio/phylanx/config"
	"github.com/grailbio/phylanx/tool"
)

var configFile = os.ExpandEnv("$HOME/.physl/config.yaml")

const intro = `Distributed runs

A distributed run comprises one physl serve process per locality,
each configured with its own locality id and the addresses of all
localities, for example:

	transport: rest
	locality: 0
	localities:
	- http://host0:9000
	- http://host1:9000

Every process runs the same program; distributed primitives tile
their arrays across the localities and fetch remote tiles from
their peers. Use physl version -peers to check that the localities
run compatible versions.`

func main() {
	var cfg config.Config = make(config.Base)
	cfg = &config.KeyConfig{Config: cfg, Key: config.Transport, Val: "local"}
	cfg = &config.KeyConfig{Config: cfg, Key: config.Metrics, Val: "off"}
	cmd := &tool.Cmd{
		Config:            cfg,
		DefaultConfigFile: configFile,
		Version:           phylanx.Version,
		Intro:             intro,
	}
	cmd.Flags().Parse(os.Args[1:])
	cmd.Main()
}
