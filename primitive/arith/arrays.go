// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package arith

import (
	"context"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/values"
)

// Constant creates an array filled with a value:
// constant(value, shape). A nil shape yields a rank-0 array.
type Constant struct {
	primitive.Base
}

// NewConstant creates a constant primitive.
func NewConstant(operands []values.T, name, codename string) (primitive.Primitive, error) {
	c := &Constant{primitive.NewBase(operands, name, codename)}
	if err := c.ValidateArity(1, 2); err != nil {
		return nil, err
	}
	return c, nil
}

// Eval implements primitive.Primitive.
func (c *Constant) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, c.Args, args, ec)
	if err != nil {
		return nil, err
	}
	f, ok := number(vals[0])
	if !ok {
		return nil, c.Error(errors.BadParameter, "expected a number, got %s", values.TypeName(vals[0]))
	}
	var shape []int
	if len(vals) > 1 {
		if shape, err = Shape(vals[1]); err != nil {
			return nil, c.Wrap(err)
		}
	}
	a := values.NewArray(shape, nil)
	for i := range a.Data {
		a.Data[i] = f
	}
	return a, nil
}

// Shape interprets v as an array shape: nil (rank 0), an integer (a
// vector's length), or a list or vector of integer dimensions.
func Shape(v values.T) ([]int, error) {
	if v == nil {
		return nil, nil
	}
	if n, ok := v.(int64); ok {
		v = values.List{n}
	}
	l, ok := values.ToList(v)
	if !ok {
		return nil, errors.E(errors.BadParameter, errors.Errorf("expected a shape, got %s", values.TypeName(v)))
	}
	if len(l) > values.MaxRank {
		return nil, errors.E(errors.BadParameter, errors.Errorf("shape %s exceeds the maximum rank %d", values.Sprint(l), values.MaxRank))
	}
	shape := make([]int, len(l))
	for i, d := range l {
		n, ok := values.Int(d)
		if !ok || n < 0 {
			return nil, errors.E(errors.BadParameter, errors.Errorf("invalid dimension %s", values.Sprint(d)))
		}
		shape[i] = int(n)
	}
	return shape, nil
}

// ShapeOf returns the shape of an array as a list of integers:
// shape(a), or a single dimension: shape(a, axis).
type ShapeOf struct {
	primitive.Base
}

// NewShapeOf creates a shape primitive.
func NewShapeOf(operands []values.T, name, codename string) (primitive.Primitive, error) {
	s := &ShapeOf{primitive.NewBase(operands, name, codename)}
	if err := s.ValidateArity(1, 2); err != nil {
		return nil, err
	}
	return s, nil
}

// Eval implements primitive.Primitive.
func (s *ShapeOf) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, s.Args, args, ec)
	if err != nil {
		return nil, err
	}
	var shape values.List
	switch v := vals[0].(type) {
	case *values.Array:
		for _, d := range v.Shape {
			shape = append(shape, int64(d))
		}
	case int64, float64, bool:
	default:
		l, ok := values.ToList(v)
		if !ok {
			return nil, s.Error(errors.BadParameter, "a %s has no shape", values.TypeName(v))
		}
		shape = values.List{int64(len(l))}
	}
	if len(vals) == 1 {
		if shape == nil {
			shape = values.List{}
		}
		return shape, nil
	}
	axis, ok := values.Int(vals[1])
	if !ok || axis < 0 || int(axis) >= len(shape) {
		return nil, s.Error(errors.BadParameter, "invalid axis %s for a value of rank %d", values.Sprint(vals[1]), len(shape))
	}
	return shape[axis], nil
}
