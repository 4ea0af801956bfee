// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package arith implements the leaf operators of PhySL: arithmetic,
// comparison, and logical operators over scalars and arrays, and the
// array constructors constant and shape. Operators apply element-wise
// to arrays of equal shape; scalars (and rank-0 arrays) broadcast.
// Integer arithmetic stays integral; mixing integers and reals
// yields reals.
package arith

import (
	"context"
	"math"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/values"
)

// An operator defines a binary operator over each value domain.
// A nil function means the operator is undefined on that domain.
type operator struct {
	ints   func(a, b int64) (values.T, error)
	floats func(a, b float64) values.T
	elems  func(a, b float64) float64
	strs   func(a, b string) values.T
}

func bit(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var errDivideByZero = errors.New("integer division by zero")

var operators = map[string]operator{
	"__add": {
		ints:   func(a, b int64) (values.T, error) { return a + b, nil },
		floats: func(a, b float64) values.T { return a + b },
		elems:  func(a, b float64) float64 { return a + b },
		strs:   func(a, b string) values.T { return a + b },
	},
	"__sub": {
		ints:   func(a, b int64) (values.T, error) { return a - b, nil },
		floats: func(a, b float64) values.T { return a - b },
		elems:  func(a, b float64) float64 { return a - b },
	},
	"__mul": {
		ints:   func(a, b int64) (values.T, error) { return a * b, nil },
		floats: func(a, b float64) values.T { return a * b },
		elems:  func(a, b float64) float64 { return a * b },
	},
	"__div": {
		ints: func(a, b int64) (values.T, error) {
			if b == 0 {
				return nil, errDivideByZero
			}
			return a / b, nil
		},
		floats: func(a, b float64) values.T { return a / b },
		elems:  func(a, b float64) float64 { return a / b },
	},
	"__mod": {
		ints: func(a, b int64) (values.T, error) {
			if b == 0 {
				return nil, errDivideByZero
			}
			return a % b, nil
		},
		floats: func(a, b float64) values.T { return math.Mod(a, b) },
		elems:  math.Mod,
	},
	"__lt": {
		ints:   func(a, b int64) (values.T, error) { return a < b, nil },
		floats: func(a, b float64) values.T { return a < b },
		elems:  func(a, b float64) float64 { return bit(a < b) },
		strs:   func(a, b string) values.T { return a < b },
	},
	"__le": {
		ints:   func(a, b int64) (values.T, error) { return a <= b, nil },
		floats: func(a, b float64) values.T { return a <= b },
		elems:  func(a, b float64) float64 { return bit(a <= b) },
		strs:   func(a, b string) values.T { return a <= b },
	},
	"__gt": {
		ints:   func(a, b int64) (values.T, error) { return a > b, nil },
		floats: func(a, b float64) values.T { return a > b },
		elems:  func(a, b float64) float64 { return bit(a > b) },
		strs:   func(a, b string) values.T { return a > b },
	},
	"__ge": {
		ints:   func(a, b int64) (values.T, error) { return a >= b, nil },
		floats: func(a, b float64) values.T { return a >= b },
		elems:  func(a, b float64) float64 { return bit(a >= b) },
		strs:   func(a, b string) values.T { return a >= b },
	},
}

// Binary is a left-associative chain of a binary operator over its
// operands, which are evaluated concurrently.
type Binary struct {
	primitive.Base
	op operator
}

func newBinary(typ string) primitive.Factory {
	return func(operands []values.T, name, codename string) (primitive.Primitive, error) {
		b := &Binary{Base: primitive.NewBase(operands, name, codename), op: operators[typ]}
		if err := b.ValidateArity(2, -1); err != nil {
			return nil, err
		}
		return b, nil
	}
}

// Eval implements primitive.Primitive.
func (b *Binary) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, b.Args, args, ec)
	if err != nil {
		return nil, err
	}
	acc := vals[0]
	for _, v := range vals[1:] {
		if acc, err = b.apply(acc, v); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func (b *Binary) apply(x, y values.T) (values.T, error) {
	xa, xArray := x.(*values.Array)
	ya, yArray := y.(*values.Array)
	if xArray || yArray {
		if !xArray {
			f, ok := number(x)
			if !ok {
				return nil, b.operandError(x, y)
			}
			xa = values.Scalar(f)
		}
		if !yArray {
			f, ok := number(y)
			if !ok {
				return nil, b.operandError(x, y)
			}
			ya = values.Scalar(f)
		}
		return b.elementwise(xa, ya)
	}
	switch x := x.(type) {
	case int64:
		switch y := y.(type) {
		case int64:
			v, err := b.op.ints(x, y)
			if err != nil {
				return nil, b.Error(errors.BadParameter, "%v", err)
			}
			return v, nil
		case float64:
			return b.op.floats(float64(x), y), nil
		}
	case float64:
		switch y := y.(type) {
		case int64:
			return b.op.floats(x, float64(y)), nil
		case float64:
			return b.op.floats(x, y), nil
		}
	case string:
		if y, ok := y.(string); ok && b.op.strs != nil {
			return b.op.strs(x, y), nil
		}
	}
	return nil, b.operandError(x, y)
}

func (b *Binary) elementwise(x, y *values.Array) (values.T, error) {
	var shape []int
	switch {
	case x.Rank() == 0:
		shape = y.Shape
	case y.Rank() == 0 || sameShape(x.Shape, y.Shape):
		shape = x.Shape
	default:
		return nil, b.Error(errors.BadParameter, "operands have incompatible shapes %v and %v", x.Shape, y.Shape)
	}
	z := values.NewArray(shape, nil)
	for i := range z.Data {
		z.Data[i] = b.op.elems(elem(x, i), elem(y, i))
	}
	return z, nil
}

func (b *Binary) operandError(x, y values.T) error {
	return b.Error(errors.BadParameter, "unsupported operands %s and %s", values.TypeName(x), values.TypeName(y))
}

// Equality compares its operands for (in)equality. Numbers compare
// by value regardless of representation; arrays compare element-wise.
type Equality struct {
	primitive.Base
	negate bool
}

func newEquality(negate bool) primitive.Factory {
	return func(operands []values.T, name, codename string) (primitive.Primitive, error) {
		e := &Equality{Base: primitive.NewBase(operands, name, codename), negate: negate}
		if err := e.ValidateArity(2, 2); err != nil {
			return nil, err
		}
		return e, nil
	}
}

// Eval implements primitive.Primitive.
func (e *Equality) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, e.Args, args, ec)
	if err != nil {
		return nil, err
	}
	x, y := vals[0], vals[1]
	xa, xArray := x.(*values.Array)
	ya, yArray := y.(*values.Array)
	if xArray && yArray && xa.Rank() > 0 && ya.Rank() > 0 {
		if !sameShape(xa.Shape, ya.Shape) {
			return nil, e.Error(errors.BadParameter, "operands have incompatible shapes %v and %v", xa.Shape, ya.Shape)
		}
		z := values.NewArray(xa.Shape, nil)
		for i := range z.Data {
			z.Data[i] = bit((xa.Data[i] == ya.Data[i]) != e.negate)
		}
		return z, nil
	}
	var eq bool
	if f, ok := number(x); ok {
		g, ok := number(y)
		eq = ok && f == g
	} else {
		eq = values.Equal(x, y)
	}
	return eq != e.negate, nil
}

// Logical is a left-associative chain of logical conjunctions or
// disjunctions. All operands are evaluated.
type Logical struct {
	primitive.Base
	or bool
}

func newLogical(or bool) primitive.Factory {
	return func(operands []values.T, name, codename string) (primitive.Primitive, error) {
		l := &Logical{Base: primitive.NewBase(operands, name, codename), or: or}
		if err := l.ValidateArity(2, -1); err != nil {
			return nil, err
		}
		return l, nil
	}
}

// Eval implements primitive.Primitive.
func (l *Logical) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, l.Args, args, ec)
	if err != nil {
		return nil, err
	}
	result := !l.or
	for _, v := range vals {
		b, ok := values.Bool(v)
		if !ok {
			return nil, l.Error(errors.BadParameter, "expected a boolean, got %s", values.TypeName(v))
		}
		if l.or {
			result = result || b
		} else {
			result = result && b
		}
	}
	return result, nil
}

// Unary is a unary operator: arithmetic negation (__minus) or logical
// negation (__not).
type Unary struct {
	primitive.Base
	not bool
}

func newUnary(not bool) primitive.Factory {
	return func(operands []values.T, name, codename string) (primitive.Primitive, error) {
		u := &Unary{Base: primitive.NewBase(operands, name, codename), not: not}
		if err := u.ValidateArity(1, 1); err != nil {
			return nil, err
		}
		return u, nil
	}
}

// Eval implements primitive.Primitive.
func (u *Unary) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	v, err := primitive.Value(ctx, u.Args[0], args, ec)
	if err != nil {
		return nil, err
	}
	if a, ok := v.(*values.Array); ok {
		z := values.NewArray(a.Shape, nil)
		for i, f := range a.Data {
			if u.not {
				z.Data[i] = bit(f == 0)
			} else {
				z.Data[i] = -f
			}
		}
		return z, nil
	}
	if u.not {
		b, ok := values.Bool(v)
		if !ok {
			return nil, u.Error(errors.BadParameter, "expected a boolean, got %s", values.TypeName(v))
		}
		return !b, nil
	}
	switch v := v.(type) {
	case int64:
		return -v, nil
	case float64:
		return -v, nil
	}
	return nil, u.Error(errors.BadParameter, "cannot negate a %s", values.TypeName(v))
}

// number interprets a numeric scalar as a real.
func number(v values.T) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case *values.Array:
		if v.Rank() == 0 {
			return v.Data[0], true
		}
	}
	return 0, false
}

// elem returns element i of a, broadcasting rank-0 arrays.
func elem(a *values.Array, i int) float64 {
	if a.Rank() == 0 {
		return a.Data[0]
	}
	return a.Data[i]
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
