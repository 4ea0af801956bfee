// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dist

import "github.com/grailbio/phylanx/primitive"

// Matches is the catalogue table of the distributed primitives.
var Matches = []primitive.Match{
	{
		Name:     "locality",
		Patterns: []string{"locality()"},
		Create:   NewLocalityID,
		Help:     "The id of the locality evaluating the expression.",
	},
	{
		Name:     "num_localities",
		Patterns: []string{"num_localities()"},
		Create:   NewNumLocalities,
		Help:     "The number of participating localities.",
	},
	{
		Name:     "annotate_d",
		Patterns: []string{"annotate_d(_1, _2, _3)"},
		Create:   NewAnnotate,
		Help:     "annotate_d(array, name, tiling): publish array as this locality's tile of the named array.",
	},
	{
		Name: "constant_d",
		Patterns: []string{
			`constant_d(_1, _2, __arg(_3_tile_index, nil), __arg(_4_numtiles, nil), __arg(_5_name, ""), __arg(_6_tiling_type, "sym"))`,
		},
		Create: NewConstantD,
		Help:   "constant_d(value, shape, tile_index, numtiles, name, tiling_type): this locality's tile of a constant distributed array.",
	},
	{
		Name:     "retile_d",
		Patterns: []string{`retile_d(_1, _2, __arg(_3_name, ""))`},
		Create:   NewRetile,
		Help:     "retile_d(array, tiling, name): assemble a new tile of a distributed array from all localities' tiles.",
	},
	{
		Name:     "all_gather_d",
		Patterns: []string{"all_gather_d(_1)"},
		Create:   NewAllGather,
		Help:     "Gather the tiles of a distributed array from all localities, in locality order.",
	},
}
