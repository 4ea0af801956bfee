// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package controls

import (
	"context"
	"strings"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/values"
)

// MakeList evaluates its operands and returns them as a list.
type MakeList struct {
	primitive.Base
}

// NewMakeList creates a make_list primitive.
func NewMakeList(operands []values.T, name, codename string) (primitive.Primitive, error) {
	return &MakeList{primitive.NewBase(operands, name, codename)}, nil
}

// Eval implements primitive.Primitive.
func (l *MakeList) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, l.Args, args, ec)
	if err != nil {
		return nil, err
	}
	return values.List(vals), nil
}

// Len returns the number of elements of a list, range, string,
// dictionary, or array (along its outermost axis).
type Len struct {
	primitive.Base
}

// NewLen creates a len primitive.
func NewLen(operands []values.T, name, codename string) (primitive.Primitive, error) {
	l := &Len{primitive.NewBase(operands, name, codename)}
	if err := l.ValidateArity(1, 1); err != nil {
		return nil, err
	}
	return l, nil
}

// Eval implements primitive.Primitive.
func (l *Len) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	v, err := primitive.Value(ctx, l.Args[0], args, ec)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case values.List:
		return int64(len(v)), nil
	case values.Range:
		return int64(v.Len()), nil
	case string:
		return int64(len(v)), nil
	case *values.Dict:
		return int64(v.Len()), nil
	case *values.Array:
		if v.Rank() > 0 {
			return int64(v.Shape[0]), nil
		}
	}
	return nil, l.Error(errors.BadParameter, "a %s has no length", values.TypeName(v))
}

// Range constructs an integer range: range(stop), range(start, stop),
// or range(start, stop, step).
type Range struct {
	primitive.Base
}

// NewRange creates a range primitive.
func NewRange(operands []values.T, name, codename string) (primitive.Primitive, error) {
	r := &Range{primitive.NewBase(operands, name, codename)}
	if err := r.ValidateArity(1, 3); err != nil {
		return nil, err
	}
	return r, nil
}

// Eval implements primitive.Primitive.
func (r *Range) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, r.Args, args, ec)
	if err != nil {
		return nil, err
	}
	ints := make([]int64, len(vals))
	for i, v := range vals {
		var ok bool
		if ints[i], ok = values.Int(v); !ok {
			return nil, r.Error(errors.BadParameter, "range operand %d: expected an integer, got %s", i, values.TypeName(v))
		}
	}
	rng := values.Range{Step: 1}
	switch len(ints) {
	case 1:
		rng.Stop = ints[0]
	case 2:
		rng.Start, rng.Stop = ints[0], ints[1]
	case 3:
		rng.Start, rng.Stop, rng.Step = ints[0], ints[1], ints[2]
	}
	if rng.Step == 0 {
		return nil, r.Error(errors.BadParameter, "range step must be nonzero")
	}
	return rng, nil
}

// Debug prints its operands to the context's logger and evaluates to
// nil.
type Debug struct {
	primitive.Base
}

// NewDebug creates a debug primitive.
func NewDebug(operands []values.T, name, codename string) (primitive.Primitive, error) {
	return &Debug{primitive.NewBase(operands, name, codename)}, nil
}

// Eval implements primitive.Primitive.
func (d *Debug) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, d.Args, args, ec)
	if err != nil {
		return nil, err
	}
	strs := make([]string, len(vals))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			strs[i] = s
		} else {
			strs[i] = values.Sprint(v)
		}
	}
	ec.Log.Print(strings.Join(strs, " "))
	return nil, nil
}
