// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package controls implements the control-flow primitives: sequencing
// (block, parallel_block), conditionals, loops, the functional
// combinators (map, fold_left, fold_right, apply), and a handful of
// list utilities.
//
// Primitives with a sequencing contract (block, the loops, and the
// folds) complete each step before starting the next, so that later
// steps observe the effects of earlier stores. Everything else
// evaluates its operands concurrently.
package controls

import (
	"context"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/values"
)

// Block evaluates its operands in order and returns the value of the
// last one.
type Block struct {
	primitive.Base
}

// NewBlock creates a block primitive.
func NewBlock(operands []values.T, name, codename string) (primitive.Primitive, error) {
	b := &Block{primitive.NewBase(operands, name, codename)}
	if err := b.ValidateArity(1, -1); err != nil {
		return nil, err
	}
	return b, nil
}

// Eval implements primitive.Primitive.
func (b *Block) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	var v values.T
	for _, op := range b.Args {
		var err error
		if v, err = primitive.Value(ctx, op, args, ec); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// ParallelBlock evaluates its operands concurrently and returns the
// value of the last one. Stores performed by its operands are not
// ordered with respect to each other.
type ParallelBlock struct {
	primitive.Base
}

// NewParallelBlock creates a parallel_block primitive.
func NewParallelBlock(operands []values.T, name, codename string) (primitive.Primitive, error) {
	b := &ParallelBlock{primitive.NewBase(operands, name, codename)}
	if err := b.ValidateArity(1, -1); err != nil {
		return nil, err
	}
	return b, nil
}

// Eval implements primitive.Primitive.
func (b *ParallelBlock) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, b.Args, args, ec)
	if err != nil {
		return nil, err
	}
	return vals[len(vals)-1], nil
}

// If evaluates its condition and then exactly one of its branches.
// A missing else branch evaluates to nil.
type If struct {
	primitive.Base
}

// NewIf creates an if primitive.
func NewIf(operands []values.T, name, codename string) (primitive.Primitive, error) {
	p := &If{primitive.NewBase(operands, name, codename)}
	if err := p.ValidateArity(2, 3); err != nil {
		return nil, err
	}
	return p, nil
}

// Eval implements primitive.Primitive.
func (p *If) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	ok, err := condition(ctx, &p.Base, p.Args[0], args, ec)
	if err != nil {
		return nil, err
	}
	switch {
	case ok:
		return primitive.Value(ctx, p.Args[1], args, ec)
	case len(p.Args) > 2:
		return primitive.Value(ctx, p.Args[2], args, ec)
	}
	return nil, nil
}

// While evaluates its body for as long as its condition holds. Its
// value is that of the last body evaluation, or nil if the body was
// never evaluated.
type While struct {
	primitive.Base
}

// NewWhile creates a while primitive.
func NewWhile(operands []values.T, name, codename string) (primitive.Primitive, error) {
	w := &While{primitive.NewBase(operands, name, codename)}
	if err := w.ValidateArity(2, 2); err != nil {
		return nil, err
	}
	return w, nil
}

// Eval implements primitive.Primitive.
func (w *While) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	ec = ec.InLoop()
	var result values.T
	for n := 0; ; n++ {
		ok, err := condition(ctx, &w.Base, w.Args[0], args, ec)
		if err != nil {
			return nil, err
		}
		if !ok {
			ec.Log.Debugf("%s: done after %d iterations (depth %d)", w.DisplayName(), n, ec.Depth())
			return result, nil
		}
		if result, err = primitive.Value(ctx, w.Args[1], args, ec); err != nil {
			return nil, err
		}
	}
}

// For is the C-style loop for(init, cond, reinit, body). Init is
// evaluated once; then, for as long as cond holds, body and then
// reinit are evaluated. Its value is that of the last body
// evaluation, or nil if the body was never evaluated.
type For struct {
	primitive.Base
}

// NewFor creates a for primitive.
func NewFor(operands []values.T, name, codename string) (primitive.Primitive, error) {
	f := &For{primitive.NewBase(operands, name, codename)}
	if err := f.ValidateArity(4, 4); err != nil {
		return nil, err
	}
	return f, nil
}

// Eval implements primitive.Primitive.
func (f *For) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	if _, err := primitive.Value(ctx, f.Args[0], args, ec); err != nil {
		return nil, err
	}
	ec = ec.InLoop()
	var result values.T
	for n := 0; ; n++ {
		ok, err := condition(ctx, &f.Base, f.Args[1], args, ec)
		if err != nil {
			return nil, err
		}
		if !ok {
			ec.Log.Debugf("%s: done after %d iterations (depth %d)", f.DisplayName(), n, ec.Depth())
			return result, nil
		}
		if result, err = primitive.Value(ctx, f.Args[3], args, ec); err != nil {
			return nil, err
		}
		if _, err = primitive.Value(ctx, f.Args[2], args, ec); err != nil {
			return nil, err
		}
	}
}

// condition evaluates the operand op and interprets it as a
// condition. Loops call it once per iteration, so it also checks for
// cancellation.
func condition(ctx context.Context, b *primitive.Base, op values.T, args []values.T, ec *primitive.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, b.Wrap(err)
	}
	v, err := primitive.Value(ctx, op, args, ec)
	if err != nil {
		return false, err
	}
	ok, valid := values.Bool(v)
	if !valid {
		return false, b.Error(errors.BadParameter, "condition evaluated to a %s, not a boolean", values.TypeName(v))
	}
	return ok, nil
}
