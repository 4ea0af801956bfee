// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package controls

import (
	"context"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/values"
)

// Map applies a function to the elements of one or more lists of
// equal length: map(f, l1, ..., ln) invokes f(l1[i], ..., ln[i]) for
// each index i. The invocations are independent and run concurrently.
type Map struct {
	primitive.Base
}

// NewMap creates a map primitive.
func NewMap(operands []values.T, name, codename string) (primitive.Primitive, error) {
	m := &Map{primitive.NewBase(operands, name, codename)}
	if err := m.ValidateArity(2, -1); err != nil {
		return nil, err
	}
	return m, nil
}

// Eval implements primitive.Primitive.
func (m *Map) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, m.Args, args, ec)
	if err != nil {
		return nil, err
	}
	fn, err := function(&m.Base, vals[0])
	if err != nil {
		return nil, err
	}
	lists := make([]values.List, len(vals)-1)
	for i, v := range vals[1:] {
		if lists[i], err = list(&m.Base, v); err != nil {
			return nil, err
		}
		if len(lists[i]) != len(lists[0]) {
			return nil, m.Error(errors.BadParameter,
				"all lists must have the same length: list 1 has %d elements, list %d has %d",
				len(lists[0]), i+1, len(lists[i]))
		}
	}
	result := make(values.List, len(lists[0]))
	err = traverse.Each(len(result), func(i int) error {
		fargs := make([]values.T, len(lists))
		for j := range lists {
			fargs[j] = lists[j][i]
		}
		var err error
		result[i], err = fn.Apply(ctx, fargs)
		return err
	})
	if err != nil {
		return nil, m.Wrap(err)
	}
	return result, nil
}

// Fold is a left or right fold: fold_left(f, init, list) computes
// f(...f(f(init, l[0]), l[1])..., l[n-1]); fold_right(f, init, list)
// computes f(l[0], f(l[1], ...f(l[n-1], init)...)). A nil initial
// value is seeded by the first element folded. The steps are
// evaluated strictly in order.
type Fold struct {
	primitive.Base
	Right bool
}

// NewFoldLeft creates a fold_left primitive.
func NewFoldLeft(operands []values.T, name, codename string) (primitive.Primitive, error) {
	return newFold(operands, name, codename, false)
}

// NewFoldRight creates a fold_right primitive.
func NewFoldRight(operands []values.T, name, codename string) (primitive.Primitive, error) {
	return newFold(operands, name, codename, true)
}

func newFold(operands []values.T, name, codename string, right bool) (primitive.Primitive, error) {
	f := &Fold{Base: primitive.NewBase(operands, name, codename), Right: right}
	// The initial value may be nil.
	if len(operands) != 3 {
		return nil, f.Error(errors.BadParameter, "expected 3 operands, got %d", len(operands))
	}
	return f, nil
}

// Eval implements primitive.Primitive.
func (f *Fold) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, f.Args, args, ec)
	if err != nil {
		return nil, err
	}
	fn, err := function(&f.Base, vals[0])
	if err != nil {
		return nil, err
	}
	elems, err := list(&f.Base, vals[2])
	if err != nil {
		return nil, err
	}
	if f.Right {
		rev := make(values.List, len(elems))
		for i, e := range elems {
			rev[len(elems)-1-i] = e
		}
		elems = rev
	}
	acc := vals[1]
	if acc == nil && len(elems) > 0 {
		acc, elems = elems[0], elems[1:]
	}
	for _, e := range elems {
		if err := ctx.Err(); err != nil {
			return nil, f.Wrap(err)
		}
		fargs := []values.T{acc, e}
		if f.Right {
			fargs[0], fargs[1] = e, acc
		}
		if acc, err = fn.Apply(ctx, fargs); err != nil {
			return nil, f.Wrap(err)
		}
	}
	return acc, nil
}

// Apply invokes a function with positional arguments followed by the
// elements of a trailing list: apply(f, a, list(b, c)) is f(a, b, c).
type Apply struct {
	primitive.Base
}

// NewApply creates an apply primitive.
func NewApply(operands []values.T, name, codename string) (primitive.Primitive, error) {
	a := &Apply{primitive.NewBase(operands, name, codename)}
	if err := a.ValidateArity(2, -1); err != nil {
		return nil, err
	}
	return a, nil
}

// Eval implements primitive.Primitive.
func (a *Apply) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, a.Args, args, ec)
	if err != nil {
		return nil, err
	}
	fn, err := function(&a.Base, vals[0])
	if err != nil {
		return nil, err
	}
	last := len(vals) - 1
	rest, err := list(&a.Base, vals[last])
	if err != nil {
		return nil, err
	}
	fargs := make([]values.T, 0, last-1+len(rest))
	fargs = append(fargs, vals[1:last]...)
	fargs = append(fargs, rest...)
	v, err := fn.Apply(ctx, fargs)
	if err != nil {
		return nil, a.Wrap(err)
	}
	return v, nil
}

func function(b *primitive.Base, v values.T) (values.Func, error) {
	fn, ok := v.(values.Func)
	if !ok {
		return nil, b.Error(errors.BadParameter, "expected a function, got %s", values.TypeName(v))
	}
	return fn, nil
}

func list(b *primitive.Base, v values.T) (values.List, error) {
	l, ok := values.ToList(v)
	if !ok {
		return nil, b.Error(errors.BadParameter, "expected a list, got %s", values.TypeName(v))
	}
	return l, nil
}
