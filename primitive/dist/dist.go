// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package dist implements the distributed-array primitives. A
// distributed array is a named array split into tiles, one per
// locality; each tile carries a tiling annotation that records the
// array's name, the locality holding the tile, and the tile's span
// along each axis. Tiles are published to their locality's registry,
// from which peers fetch the regions they need when retiling.
package dist

import (
	"context"
	"fmt"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/names"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/primitive/arith"
	"github.com/grailbio/phylanx/tiling"
	"github.com/grailbio/phylanx/values"
)

// LocalityID evaluates to the id of the locality on which it is
// evaluated.
type LocalityID struct {
	primitive.Base
}

// NewLocalityID creates a locality primitive.
func NewLocalityID(operands []values.T, name, codename string) (primitive.Primitive, error) {
	return &LocalityID{primitive.NewBase(operands, name, codename)}, nil
}

// Eval implements primitive.Primitive.
func (l *LocalityID) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	return int64(ec.Locality.ID), nil
}

// NumLocalities evaluates to the number of participating localities.
type NumLocalities struct {
	primitive.Base
}

// NewNumLocalities creates a num_localities primitive.
func NewNumLocalities(operands []values.T, name, codename string) (primitive.Primitive, error) {
	return &NumLocalities{primitive.NewBase(operands, name, codename)}, nil
}

// Eval implements primitive.Primitive.
func (n *NumLocalities) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	return int64(ec.Locality.Count), nil
}

// Annotate attaches a tiling annotation to an array and publishes it
// as this locality's tile of the named distributed array:
// annotate_d(array, name, annotation). The annotation is given in its
// list form, e.g., list("tile", list("columns", 0, 4)).
type Annotate struct {
	primitive.Base
}

// NewAnnotate creates an annotate_d primitive.
func NewAnnotate(operands []values.T, name, codename string) (primitive.Primitive, error) {
	a := &Annotate{primitive.NewBase(operands, name, codename)}
	if err := a.ValidateArity(3, 3); err != nil {
		return nil, err
	}
	return a, nil
}

// Eval implements primitive.Primitive.
func (a *Annotate) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, a.Args, args, ec)
	if err != nil {
		return nil, err
	}
	arr, err := array(&a.Base, vals[0])
	if err != nil {
		return nil, err
	}
	name, ok := vals[1].(string)
	if !ok || name == "" {
		return nil, a.Error(errors.BadParameter, "expected a name, got %s", values.Sprint(vals[1]))
	}
	annot, err := annotation(ec, vals[2])
	if err != nil {
		return nil, a.Wrap(err)
	}
	annot.Name = name
	return publish(ctx, &a.Base, ec, annot, arr)
}

// ConstantD creates this locality's tile of a distributed array
// filled with a value:
//
//	constant_d(value, shape, tile_index, numtiles, name, tiling_type)
//
// The tile index and the number of tiles default to the locality's
// id and the number of localities. Vectors are split evenly along
// their only axis; matrices according to tiling_type, one of "row",
// "column", or "sym". The tile is published if it belongs to this
// locality.
type ConstantD struct {
	primitive.Base
}

// NewConstantD creates a constant_d primitive.
func NewConstantD(operands []values.T, name, codename string) (primitive.Primitive, error) {
	c := &ConstantD{primitive.NewBase(operands, name, codename)}
	if err := c.ValidateArity(2, 6); err != nil {
		return nil, err
	}
	return c, nil
}

// Eval implements primitive.Primitive.
func (c *ConstantD) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, c.Args, args, ec)
	if err != nil {
		return nil, err
	}
	for len(vals) < 6 {
		vals = append(vals, nil)
	}
	f, ok := values.Float(vals[0])
	if !ok {
		return nil, c.Error(errors.BadParameter, "expected a number, got %s", values.TypeName(vals[0]))
	}
	shape, err := arith.Shape(vals[1])
	if err != nil {
		return nil, c.Wrap(err)
	}
	idx, n := ec.Locality.ID, ec.Locality.Count
	if vals[2] != nil {
		i, ok := values.Int(vals[2])
		if !ok {
			return nil, c.Error(errors.BadParameter, "tile index must be an integer, got %s", values.TypeName(vals[2]))
		}
		idx = int(i)
	}
	if vals[3] != nil {
		i, ok := values.Int(vals[3])
		if !ok {
			return nil, c.Error(errors.BadParameter, "number of tiles must be an integer, got %s", values.TypeName(vals[3]))
		}
		n = int(i)
	}
	name, _ := vals[4].(string)
	if name == "" {
		name = defaultName(&c.Base)
	}
	kind, _ := vals[5].(string)
	if kind == "" {
		kind = tiling.Sym
	}
	var tile tiling.Tile
	switch len(shape) {
	case 1:
		start, size, err := tiling.TileCalculation1D(idx, shape[0], n)
		if err != nil {
			return nil, c.Wrap(err)
		}
		tile = tiling.NewTile(tiling.Span{Start: start, Stop: start + size})
	case 2:
		t, err := tiling.TileCalculation2D(idx, shape[0], shape[1], n, kind)
		if err != nil {
			return nil, c.Wrap(err)
		}
		tile = t.Tile()
	default:
		return nil, c.Error(errors.BadParameter, "distributed arrays of rank %d are not supported", len(shape))
	}
	arr := values.NewArray(tile.Shape(), nil)
	for i := range arr.Data {
		arr.Data[i] = f
	}
	annot := tiling.Annotation{Name: name, Locality: idx, NumLocalities: n, Tile: tile}
	if idx != ec.Locality.ID || n != ec.Locality.Count {
		arr.Annotation = annot.Value()
		return arr, nil
	}
	return publish(ctx, &c.Base, ec, annot, arr)
}

// Retile assembles a new tile of a distributed array from the tiles
// of all localities: retile_d(array, tiling, name). The array must be
// this locality's (annotated) tile; tiling gives the new tile in
// global coordinates. If a name is given, the new tile is published
// as this locality's tile of a new distributed array.
type Retile struct {
	primitive.Base
}

// NewRetile creates a retile_d primitive.
func NewRetile(operands []values.T, name, codename string) (primitive.Primitive, error) {
	r := &Retile{primitive.NewBase(operands, name, codename)}
	if err := r.ValidateArity(2, 3); err != nil {
		return nil, err
	}
	return r, nil
}

// Eval implements primitive.Primitive.
func (r *Retile) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	vals, err := primitive.EvalOperands(ctx, r.Args, args, ec)
	if err != nil {
		return nil, err
	}
	arr, local, err := distributed(&r.Base, ec, vals[0])
	if err != nil {
		return nil, err
	}
	dest, err := annotation(ec, vals[1])
	if err != nil {
		return nil, r.Wrap(err)
	}
	// A destination within the local tile needs no peer tiles.
	var peers []tiling.Annotation
	if !local.Tile.Contains(dest.Tile) {
		if peers, err = ec.Locality.Annotations(ctx, local.Name); err != nil {
			return nil, r.Wrap(err)
		}
	}
	plan, err := tiling.NewPlan(local, peers, dest.Tile)
	if err != nil {
		return nil, r.Wrap(err)
	}
	ec.Log.Debugf("%s: retiling %v to %v: %d pieces, %d remote", r.DisplayName(), local, dest.Tile, len(plan.Pieces), plan.Remote())
	result, err := tiling.Assemble(ctx, plan, arr, ec.Locality)
	if err != nil {
		return nil, r.Wrap(err)
	}
	annot := tiling.Annotation{Name: local.Name, Locality: ec.Locality.ID, NumLocalities: ec.Locality.Count, Tile: dest.Tile}
	if len(vals) > 2 {
		if name, _ := vals[2].(string); name != "" {
			annot.Name = name
			return publish(ctx, &r.Base, ec, annot, result)
		}
	}
	result.Annotation = annot.Value()
	return result, nil
}

// AllGather gathers the tiles of a distributed array from all
// localities: all_gather_d(array) evaluates to a list of the tiles,
// in locality order.
type AllGather struct {
	primitive.Base
}

// NewAllGather creates an all_gather_d primitive.
func NewAllGather(operands []values.T, name, codename string) (primitive.Primitive, error) {
	g := &AllGather{primitive.NewBase(operands, name, codename)}
	if err := g.ValidateArity(1, 1); err != nil {
		return nil, err
	}
	return g, nil
}

// Eval implements primitive.Primitive.
func (g *AllGather) Eval(ctx context.Context, args []values.T, ec *primitive.Context) (values.T, error) {
	v, err := primitive.Value(ctx, g.Args[0], args, ec)
	if err != nil {
		return nil, err
	}
	_, local, err := distributed(&g.Base, ec, v)
	if err != nil {
		return nil, err
	}
	annots, err := ec.Locality.Annotations(ctx, local.Name)
	if err != nil {
		return nil, g.Wrap(err)
	}
	tiles := make(values.List, len(annots))
	err = traverse.Each(len(annots), func(i int) error {
		shape := annots[i].Tile.Canonical().Shape()
		region := tiling.Region{Start: make([]int, len(shape)), Size: shape}
		a, err := ec.Locality.Fetch(ctx, local.Name, i, region)
		if err != nil {
			return err
		}
		a.Annotation = annots[i].Value()
		tiles[i] = a
		return nil
	})
	if err != nil {
		return nil, g.Wrap(err)
	}
	return tiles, nil
}

func array(b *primitive.Base, v values.T) (*values.Array, error) {
	switch v := v.(type) {
	case *values.Array:
		return v, nil
	case int64, float64:
		f, _ := values.Float(v)
		return values.Scalar(f), nil
	}
	return nil, b.Error(errors.BadParameter, "expected an array, got %s", values.TypeName(v))
}

// distributed returns the array and tiling annotation of this
// locality's tile of a distributed array.
func distributed(b *primitive.Base, ec *primitive.Context, v values.T) (*values.Array, tiling.Annotation, error) {
	arr, ok := v.(*values.Array)
	if !ok || arr.Annotation == nil {
		return nil, tiling.Annotation{}, b.Error(errors.BadParameter, "expected a distributed array, got %s", values.TypeName(v))
	}
	annot, err := tiling.ParseAnnotation(arr.Annotation, ec.Locality.ID, ec.Locality.Count)
	if err != nil {
		return nil, tiling.Annotation{}, b.Wrap(err)
	}
	if annot.Name == "" {
		return nil, tiling.Annotation{}, b.Error(errors.BadParameter, "distributed array has no name")
	}
	return arr, annot, nil
}

// annotation parses a tiling annotation given either as an annotation
// value or in list form.
func annotation(ec *primitive.Context, v values.T) (tiling.Annotation, error) {
	var (
		a   *values.Annotation
		err error
	)
	switch v := v.(type) {
	case *values.Annotation:
		a = v
	case values.List:
		if a, err = values.AnnotationFromList(v); err != nil {
			return tiling.Annotation{}, err
		}
	default:
		return tiling.Annotation{}, errors.E(errors.BadParameter, errors.Errorf("expected a tiling annotation, got %s", values.TypeName(v)))
	}
	return tiling.ParseAnnotation(a, ec.Locality.ID, ec.Locality.Count)
}

// publish annotates arr and publishes it to the locality's registry.
func publish(ctx context.Context, b *primitive.Base, ec *primitive.Context, annot tiling.Annotation, arr *values.Array) (values.T, error) {
	arr = arr.AsRef()
	arr.Annotation = annot.Value()
	if err := ec.Locality.Publish(ctx, annot, arr); err != nil {
		return nil, b.Wrap(err)
	}
	ec.Log.Debugf("%s: published %v", b.DisplayName(), annot)
	return arr, nil
}

// defaultName derives the name of a distributed array from the name
// of the primitive that creates it. The locality is omitted so that
// all localities running the same program agree on it.
func defaultName(b *primitive.Base) string {
	p, ok := names.Parse(b.Name())
	if !ok {
		return b.Type()
	}
	p = p.Normalize()
	return fmt.Sprintf("%s_%d_%d", p.Primitive, p.CompileID, p.Sequence)
}
