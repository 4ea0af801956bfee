// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package primitive implements the execution-tree runtime. An
// execution tree is a graph of primitives: each primitive holds its
// operands (literal values or other primitives) fixed at compile
// time and computes a value when evaluated. Control flow (block, if,
// loops, map, folds) is implemented by ordinary primitives; see
// package controls.
//
// Evaluation is synchronous from the point of view of the calling
// goroutine, but independent operands are evaluated concurrently;
// EvalOperands evaluates a primitive's operands in parallel and
// returns the first failure, which aborts the enclosing evaluation.
// Async wraps an evaluation in a future for callers (drivers,
// distributed primitives) that need to compose results.
package primitive

import (
	"context"
	"fmt"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/future"
	"github.com/grailbio/phylanx/metrics"
	"github.com/grailbio/phylanx/names"
	"github.com/grailbio/phylanx/values"
	"golang.org/x/sync/errgroup"
)

// Primitive is a node in an execution tree.
type Primitive interface {
	// Name returns the primitive's composed name; see package names.
	Name() string
	// Eval evaluates the primitive with the given call arguments.
	// Call arguments are the actual parameters of the innermost
	// enclosing function invocation (or entry point run).
	Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error)
}

// Operands are implemented by primitives that hold operands. They
// are used to walk execution trees.
type Operands interface {
	Operands() []values.T
}

// Base implements the bookkeeping common to all primitives: the
// operand list, the composed name, and the codename of the compile
// unit the primitive came from. Concrete primitives embed Base.
type Base struct {
	// Args are the primitive's operands.
	Args []values.T

	name     string
	codename string
	display  string
}

// NewBase returns a Base with the given operands, composed name, and
// codename.
func NewBase(args []values.T, name, codename string) Base {
	return Base{Args: args, name: name, codename: codename, display: names.DisplayName(name)}
}

// Name implements Primitive.
func (b *Base) Name() string { return b.name }

// Codename returns the name of the compile unit that created the
// primitive.
func (b *Base) Codename() string { return b.codename }

// DisplayName returns the primitive's name as shown in diagnostics.
func (b *Base) DisplayName() string { return b.display }

// Type returns the primitive's type name.
func (b *Base) Type() string { return names.PrimitiveType(b.name) }

// Operands returns the primitive's operands.
func (b *Base) Operands() []values.T { return b.Args }

func (b *Base) String() string { return b.display }

// Error constructs an error of the given kind, attributed to the
// primitive.
func (b *Base) Error(kind errors.Kind, format string, args ...interface{}) error {
	return errors.E(b.display, b.codename, kind, errors.Errorf(format, args...))
}

// Wrap attributes err to the primitive.
func (b *Base) Wrap(err error) error {
	return errors.E(b.display, b.codename, err)
}

// ValidateArity checks that the primitive has between min and max
// operands (max < 0 means no upper bound), and that the first min
// of them are valid.
func (b *Base) ValidateArity(min, max int) error {
	n := len(b.Args)
	switch {
	case n < min && min == max:
		return b.Error(errors.BadParameter, "expected %d operands, got %d", min, n)
	case n < min:
		return b.Error(errors.BadParameter, "expected at least %d operands, got %d", min, n)
	case max >= 0 && n > max:
		return b.Error(errors.BadParameter, "expected at most %d operands, got %d", max, n)
	}
	for i := 0; i < min; i++ {
		if !values.Valid(b.Args[i]) {
			return b.Error(errors.BadParameter, "operand %d is not a valid value", i)
		}
	}
	return nil
}

// Value evaluates an operand: primitives are evaluated with the
// provided arguments and context; any other value evaluates to
// itself.
func Value(ctx context.Context, operand values.T, args []values.T, ec *Context) (values.T, error) {
	p, ok := operand.(Primitive)
	if !ok {
		return operand, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.E(names.DisplayName(p.Name()), err)
	}
	typ := names.PrimitiveType(p.Name())
	metrics.GetPrimitiveEvalsCountCounter(ctx, typ).Inc()
	v, err := p.Eval(ctx, args, ec)
	if err != nil {
		metrics.GetPrimitiveEvalErrorsCountCounter(ctx, typ).Inc()
	}
	return v, err
}

// EvalOperands evaluates the provided operands concurrently and
// returns their values in order. The first failure cancels the
// remaining evaluations and is returned.
func EvalOperands(ctx context.Context, operands []values.T, args []values.T, ec *Context) ([]values.T, error) {
	vals := make([]values.T, len(operands))
	var (
		g    *errgroup.Group
		gctx context.Context
		n    int
	)
	for i, op := range operands {
		if _, ok := op.(Primitive); !ok {
			vals[i] = op
			continue
		}
		n++
		if n == 1 {
			g, gctx = errgroup.WithContext(ctx)
		}
		i, op := i, op
		g.Go(func() error {
			v, err := Value(gctx, op, args, ec)
			vals[i] = v
			return err
		})
	}
	if g == nil {
		return vals, nil
	}
	return vals, g.Wait()
}

// EvalSequential evaluates the provided operands in order, each
// evaluation completing before the next begins.
func EvalSequential(ctx context.Context, operands []values.T, args []values.T, ec *Context) ([]values.T, error) {
	vals := make([]values.T, len(operands))
	for i, op := range operands {
		v, err := Value(ctx, op, args, ec)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// Async evaluates the operand in a new goroutine and returns a
// future for its value.
func Async(ctx context.Context, operand values.T, args []values.T, ec *Context) *future.Future {
	if _, ok := operand.(Primitive); !ok {
		return future.Ready(operand)
	}
	return future.Go(func() (values.T, error) {
		return Value(ctx, operand, args, ec)
	})
}

// EvalSync evaluates the operand and waits for its value. EvalSync is
// for drivers and tests: it must not be called from within a
// primitive's Eval.
func EvalSync(ctx context.Context, operand values.T, args ...values.T) (values.T, error) {
	return Async(ctx, operand, args, NewContext(nil, nil)).Get(ctx)
}

// Literal is a primitive that evaluates to a constant value.
type Literal struct {
	Base
	Value values.T
}

// NewLiteral returns a new literal primitive.
func NewLiteral(v values.T, name, codename string) *Literal {
	return &Literal{Base: NewBase(nil, name, codename), Value: v}
}

// Eval implements Primitive.
func (l *Literal) Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error) {
	return l.Value, nil
}

func (l *Literal) String() string {
	return fmt.Sprintf("%s=%s", l.DisplayName(), values.Sprint(l.Value))
}
