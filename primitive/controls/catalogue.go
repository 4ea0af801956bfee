// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package controls

import "github.com/grailbio/phylanx/primitive"

// Matches is the catalogue table of the control-flow primitives.
var Matches = []primitive.Match{
	{
		Name:     "block",
		Patterns: []string{"block(__1)"},
		Create:   NewBlock,
		Help:     "Evaluate the arguments in order; the value is the last argument's.",
	},
	{
		Name:     "parallel_block",
		Patterns: []string{"parallel_block(__1)"},
		Create:   NewParallelBlock,
		Help:     "Evaluate the arguments concurrently; the value is the last argument's.",
	},
	{
		Name:     "if",
		Patterns: []string{"if(_1, _2)", "if(_1, _2, _3)"},
		Create:   NewIf,
		Help:     "Evaluate the second argument if the condition holds, else the third (or nil).",
	},
	{
		Name:     "while",
		Patterns: []string{"while(_1, _2)"},
		Create:   NewWhile,
		Help:     "Evaluate the body while the condition holds; the value is the last body value.",
	},
	{
		Name:     "for",
		Patterns: []string{"for(_1, _2, _3, _4)"},
		Create:   NewFor,
		Help:     "for(init, cond, reinit, body): a C-style loop; the value is the last body value.",
	},
	{
		Name:     "map",
		Patterns: []string{"map(_1, __2)"},
		Create:   NewMap,
		Help:     "Apply a function to the corresponding elements of lists of equal length.",
	},
	{
		Name:     "fold_left",
		Patterns: []string{"fold_left(_1, _2, _3)"},
		Create:   NewFoldLeft,
		Help:     "fold_left(f, init, list): accumulate f(acc, elem) from the left.",
	},
	{
		Name:     "fold_right",
		Patterns: []string{"fold_right(_1, _2, _3)"},
		Create:   NewFoldRight,
		Help:     "fold_right(f, init, list): accumulate f(elem, acc) from the right.",
	},
	{
		Name:     "apply",
		Patterns: []string{"apply(_1, __2)"},
		Create:   NewApply,
		Help:     "apply(f, a1, ..., an, list): invoke f with a1..an followed by the elements of list.",
	},
	{
		Name:     "store",
		Patterns: []string{"store(_1, _2)"},
		Create:   primitive.NewStore,
		Help:     "Assign a new value to a variable.",
	},
	{
		Name:     "make_list",
		Patterns: []string{"make_list(__1)", "list(__1)"},
		Create:   NewMakeList,
		Help:     "Construct a list from the arguments.",
	},
	{
		Name:     "len",
		Patterns: []string{"len(_1)"},
		Create:   NewLen,
		Help:     "The number of elements of a list, range, string, dictionary, or array.",
	},
	{
		Name:     "range",
		Patterns: []string{"range(_1)", "range(_1, _2)", "range(_1, _2, _3)"},
		Create:   NewRange,
		Help:     "range(stop), range(start, stop), or range(start, stop, step).",
	},
	{
		Name:     "debug",
		Patterns: []string{"debug(__1)"},
		Create:   NewDebug,
		Help:     "Print the arguments to the log.",
	},
}
