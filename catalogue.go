// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package phylanx

import (
	"sync"

	"github.com/grailbio/phylanx/compiler"
	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/primitive/arith"
	"github.com/grailbio/phylanx/primitive/controls"
	"github.com/grailbio/phylanx/primitive/dist"
)

// Plugins are the catalogue tables of the standard primitive
// plugins, in registration order.
var Plugins = [][]primitive.Match{
	controls.Matches,
	arith.Matches,
	dist.Matches,
}

var (
	defaultOnce      sync.Once
	defaultCatalogue *primitive.Catalogue
)

// DefaultCatalogue returns the catalogue of all standard plugins.
func DefaultCatalogue() *primitive.Catalogue {
	defaultOnce.Do(func() {
		defaultCatalogue = primitive.MustCatalogue(Plugins...)
	})
	return defaultCatalogue
}

// NewCompiler returns a compiler over the default catalogue for
// programs running on locality l. A nil locality is a standalone
// one.
func NewCompiler(l *locality.Locality, log *log.Logger) *compiler.Compiler {
	return compiler.New(DefaultCatalogue(), l, log)
}
