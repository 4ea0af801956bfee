// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package arith

import "github.com/grailbio/phylanx/primitive"

// Matches is the catalogue table of the operators.
var Matches = []primitive.Match{
	{Name: "__add", Patterns: []string{"_1 + __2"}, Create: newBinary("__add"), Help: "Addition; concatenation of strings."},
	{Name: "__sub", Patterns: []string{"_1 - __2"}, Create: newBinary("__sub"), Help: "Subtraction."},
	{Name: "__mul", Patterns: []string{"_1 * __2"}, Create: newBinary("__mul"), Help: "Multiplication."},
	{Name: "__div", Patterns: []string{"_1 / __2"}, Create: newBinary("__div"), Help: "Division; integer division of integers."},
	{Name: "__mod", Patterns: []string{"_1 % __2"}, Create: newBinary("__mod"), Help: "Remainder."},
	{Name: "__lt", Patterns: []string{"_1 < _2"}, Create: newBinary("__lt"), Help: "Less than."},
	{Name: "__le", Patterns: []string{"_1 <= _2"}, Create: newBinary("__le"), Help: "Less than or equal."},
	{Name: "__gt", Patterns: []string{"_1 > _2"}, Create: newBinary("__gt"), Help: "Greater than."},
	{Name: "__ge", Patterns: []string{"_1 >= _2"}, Create: newBinary("__ge"), Help: "Greater than or equal."},
	{Name: "__eq", Patterns: []string{"_1 == _2"}, Create: newEquality(false), Help: "Equality."},
	{Name: "__ne", Patterns: []string{"_1 != _2"}, Create: newEquality(true), Help: "Inequality."},
	{Name: "__and", Patterns: []string{"_1 && __2"}, Create: newLogical(false), Help: "Logical conjunction."},
	{Name: "__or", Patterns: []string{"_1 || __2"}, Create: newLogical(true), Help: "Logical disjunction."},
	{Name: "__minus", Patterns: []string{"-_1"}, Create: newUnary(false), Help: "Arithmetic negation."},
	{Name: "__not", Patterns: []string{"!_1"}, Create: newUnary(true), Help: "Logical negation."},
	{
		Name:     "constant",
		Patterns: []string{"constant(_1, __arg(_2_shape, nil))"},
		Create:   NewConstant,
		Help:     "constant(value, shape): an array of the given shape filled with value.",
	},
	{
		Name:     "shape",
		Patterns: []string{"shape(_1)", "shape(_1, _2)"},
		Create:   NewShapeOf,
		Help:     "The dimensions of an array, or its dimension along an axis.",
	},
}
