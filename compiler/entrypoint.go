// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package compiler

import (
	"context"
	"fmt"

	"github.com/grailbio/base/digest"
	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/future"
	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/values"
)

// EntryPoint is a compiled snippet. Running an entry point evaluates
// its top-level expressions in order; the value of the run is the
// value of the last one. If the last top-level expression defines a
// function, the run instead invokes that function with the run's
// arguments.
type EntryPoint struct {
	// Name is the snippet name.
	Name string
	// Exprs are the compiled top-level expressions.
	Exprs []values.T
	// Root is the last top-level expression.
	Root values.T
	// Primitives are the names of the primitive instances created by
	// the compile, in creation order.
	Primitives []string
	// Digest is the digest of the snippet's source.
	Digest digest.Digest

	// Locality and Log are used to construct the evaluation context
	// of each run.
	Locality *locality.Locality
	Log      *log.Logger

	fn  *primitive.Function
	top *primitive.Frame
}

// Run evaluates the entry point with the provided arguments. If the
// entry point is a function, Run invokes it with args.
func (e *EntryPoint) Run(ctx context.Context, args ...values.T) (values.T, error) {
	v, err := e.eval(ctx, args)
	if err != nil || e.fn == nil {
		return v, err
	}
	fn, ok := v.(values.Func)
	if !ok {
		return nil, errors.E("run", e.Name, errors.InvalidStatus,
			errors.Errorf("entry point evaluated to a %s, not a function", values.TypeName(v)))
	}
	return fn.Apply(ctx, args)
}

// Eval evaluates the entry point's top-level expressions and returns
// the value of the last one. Unlike Run, it does not invoke function
// entry points: their value is the function itself.
func (e *EntryPoint) Eval(ctx context.Context) (values.T, error) {
	return e.eval(ctx, nil)
}

// eval evaluates the top-level expressions. Top-level variables live
// in the compiler's top-level frame, which is shared by all runs of
// all of its snippets: a value stored by one snippet is seen by the
// next. Function invocations get their own frames, so runs of a
// function entry point may proceed concurrently.
func (e *EntryPoint) eval(ctx context.Context, args []values.T) (values.T, error) {
	ec := primitive.NewContext(e.Locality, e.Log)
	if e.top != nil {
		ec = ec.WithFrame(e.top)
	} else {
		ec = ec.Run(args)
	}
	vals, err := primitive.EvalSequential(ctx, e.Exprs, args, ec)
	if err != nil {
		return nil, err
	}
	return vals[len(vals)-1], nil
}

// RunAsync evaluates the entry point in a new goroutine and returns a
// future for the result.
func (e *EntryPoint) RunAsync(ctx context.Context, args ...values.T) *future.Future {
	return future.Go(func() (values.T, error) {
		return e.Run(ctx, args...)
	})
}

// Func returns the entry point as a function value.
func (e *EntryPoint) Func() values.Func {
	return entryFunc{e}
}

func (e *EntryPoint) String() string {
	return fmt.Sprintf("entry point %s (%d primitives)", e.Name, len(e.Primitives))
}

type entryFunc struct{ e *EntryPoint }

func (f entryFunc) Apply(ctx context.Context, args []values.T) (values.T, error) {
	return f.e.Run(ctx, args...)
}

func (f entryFunc) Arity() (int, bool) {
	if f.e.fn == nil {
		return 0, true
	}
	return len(f.e.fn.Params), f.e.fn.Variadic
}

func (f entryFunc) Name() string {
	return f.e.Name
}
