// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package tiling implements the distributed tiling model. A logical
// array may be partitioned ("tiled") across localities; each locality
// holds one tile, described by a span per dimension. Tiling
// annotations travel with array values and describe which part of
// the named distributed array the value holds.
//
// The package provides the static partition calculators used to
// create tilings, and the retiling machinery which, for a requested
// destination tile, determines which parts come from local storage
// and which must be fetched from peers, and assembles the result.
package tiling

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/values"
)

// Axis names, outermost first.
const (
	Quats   = "quats"
	Pages   = "pages"
	Rows    = "rows"
	Columns = "columns"
)

var axisOrder = map[string]int{Quats: 0, Pages: 1, Rows: 2, Columns: 3}

// Axes returns the names of the axes of an array of the given rank,
// outermost first. Vectors are tiled along columns.
func Axes(rank int) []string {
	all := []string{Quats, Pages, Rows, Columns}
	if rank < 0 || rank > len(all) {
		return nil
	}
	return all[len(all)-rank:]
}

// Span is a contiguous range [Start, Stop) of one dimension.
type Span struct {
	Start, Stop int
}

// Size returns the number of indices in the span.
func (s Span) Size() int {
	if s.Stop < s.Start {
		return 0
	}
	return s.Stop - s.Start
}

// Contains tells whether s fully contains t.
func (s Span) Contains(t Span) bool {
	return s.Start <= t.Start && t.Stop <= s.Stop
}

func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.Stop)
}

// AxisSpan is the span of a tile along a named axis.
type AxisSpan struct {
	Axis string
	Span
}

// Tile describes a sub-range of a logical array, one span per axis.
// The axes may be listed in any order.
type Tile []AxisSpan

// NewTile returns a tile for an array of rank len(spans), with the
// spans given outermost first.
func NewTile(spans ...Span) Tile {
	axes := Axes(len(spans))
	t := make(Tile, len(spans))
	for i, s := range spans {
		t[i] = AxisSpan{axes[i], s}
	}
	return t
}

// Canonical returns a copy of the tile with its axes sorted
// outermost first.
func (t Tile) Canonical() Tile {
	c := append(Tile(nil), t...)
	sort.SliceStable(c, func(i, j int) bool {
		return axisOrder[c[i].Axis] < axisOrder[c[j].Axis]
	})
	return c
}

// Rank returns the number of axes of the tile.
func (t Tile) Rank() int { return len(t) }

// Spans returns the tile's spans, outermost first.
func (t Tile) Spans() []Span {
	c := t.Canonical()
	s := make([]Span, len(c))
	for i := range c {
		s[i] = c[i].Span
	}
	return s
}

// Shape returns the per-dimension sizes of the tile, outermost first.
func (t Tile) Shape() []int {
	spans := t.Spans()
	shape := make([]int, len(spans))
	for i, s := range spans {
		shape[i] = s.Size()
	}
	return shape
}

// Contains tells whether t fully contains u on every axis.
func (t Tile) Contains(u Tile) bool {
	ts, us := t.Spans(), u.Spans()
	if len(ts) != len(us) {
		return false
	}
	for i := range ts {
		if !ts[i].Contains(us[i]) {
			return false
		}
	}
	return true
}

// Validate checks that the tile names each valid axis at most once,
// that its axes are those of an array of its rank, and that its
// spans are well-formed.
func (t Tile) Validate() error {
	if len(t) == 0 || len(t) > values.MaxRank {
		return errors.E("tile", errors.BadParameter, errors.Errorf("invalid tile rank %d", len(t)))
	}
	want := Axes(len(t))
	for i, a := range t.Canonical() {
		if a.Axis != want[i] {
			return errors.E("tile", errors.BadParameter,
				errors.Errorf("a tile of rank %d must have axes %s, got %s", len(t), strings.Join(want, ", "), t))
		}
		if a.Start < 0 || a.Stop < a.Start {
			return errors.E("tile", errors.BadParameter, errors.Errorf("invalid span %v on axis %s", a.Span, a.Axis))
		}
	}
	return nil
}

// Equal tells whether tiles t and u have the same span sets,
// regardless of the order in which their axes are listed.
func (t Tile) Equal(u Tile) bool {
	if len(t) != len(u) {
		return false
	}
	tc, uc := t.Canonical(), u.Canonical()
	for i := range tc {
		if tc[i] != uc[i] {
			return false
		}
	}
	return true
}

func (t Tile) String() string {
	elems := make([]string, len(t))
	for i, a := range t {
		elems[i] = fmt.Sprintf("%s%v", a.Axis, a.Span)
	}
	return strings.Join(elems, " ")
}

// Annotation is the tiling annotation of a distributed array value:
// the name of the distributed array, the locality holding this tile,
// the number of participating localities, and the tile itself.
type Annotation struct {
	Name          string
	Locality      int
	NumLocalities int
	Tile          Tile
}

// Equal tells whether annotations a and b describe the same tile of
// the same distributed array. Use Tile.Equal to compare tilings alone.
func (a Annotation) Equal(b Annotation) bool {
	return a.Name == b.Name && a.Locality == b.Locality &&
		a.NumLocalities == b.NumLocalities && a.Tile.Equal(b.Tile)
}

func (a Annotation) String() string {
	return fmt.Sprintf("%s@%d/%d{%s}", a.Name, a.Locality, a.NumLocalities, a.Tile)
}

// Value returns the external representation of the annotation:
//
//	args(locality(id, count), tile(axis(start, stop)...)[, name(n)])
func (a Annotation) Value() *values.Annotation {
	tile := &values.Annotation{Key: "tile"}
	for _, s := range a.Tile {
		tile.Vals = append(tile.Vals, values.NewAnnotation(s.Axis, int64(s.Start), int64(s.Stop)))
	}
	args := values.NewAnnotation("args",
		values.NewAnnotation("locality", int64(a.Locality), int64(a.NumLocalities)),
		tile)
	if a.Name != "" {
		args.Vals = append(args.Vals, values.NewAnnotation("name", a.Name))
	}
	return args
}

// ParseAnnotation parses the external representation of a tiling
// annotation. Both the bare "tile" form and the "args" form (which
// adds locality information and, optionally, a name) are accepted;
// for the bare form, the locality fields are set to defaultLocality
// and defaultCount.
func ParseAnnotation(v *values.Annotation, defaultLocality, defaultCount int) (Annotation, error) {
	a := Annotation{Locality: defaultLocality, NumLocalities: defaultCount}
	if v == nil {
		return a, errors.E("annotation", errors.BadParameter, errors.New("missing annotation"))
	}
	tile := v
	switch v.Key {
	case "tile":
	case "args":
		var ok bool
		if tile, ok = v.Find("tile"); !ok {
			return a, errors.E("annotation", errors.BadParameter, errors.New(`"args" annotation has no "tile"`))
		}
		if loc, ok := v.Find("locality"); ok {
			id, count, err := intPair(loc)
			if err != nil {
				return a, err
			}
			a.Locality, a.NumLocalities = id, count
		}
		if name, ok := v.Find("name"); ok {
			if len(name.Vals) != 1 {
				return a, errors.E("annotation", errors.BadParameter, errors.New(`"name" annotation takes a single string`))
			}
			s, ok := name.Vals[0].(string)
			if !ok {
				return a, errors.E("annotation", errors.BadParameter, errors.New(`"name" annotation takes a single string`))
			}
			a.Name = s
		}
	default:
		return a, errors.E("annotation", errors.BadParameter,
			errors.Errorf("unexpected annotation key %q, expected \"tile\" or \"args\"", v.Key))
	}
	for _, val := range tile.Vals {
		axis, ok := val.(*values.Annotation)
		if !ok {
			return a, errors.E("annotation", errors.BadParameter,
				errors.Errorf("tile entries must be (axis, start, stop), got %s", values.Sprint(val)))
		}
		if _, ok := axisOrder[axis.Key]; !ok {
			return a, errors.E("annotation", errors.BadParameter, errors.Errorf("unknown axis %q", axis.Key))
		}
		start, stop, err := intPair(axis)
		if err != nil {
			return a, err
		}
		for _, s := range a.Tile {
			if s.Axis == axis.Key {
				return a, errors.E("annotation", errors.BadParameter, errors.Errorf("duplicate axis %q", axis.Key))
			}
		}
		a.Tile = append(a.Tile, AxisSpan{axis.Key, Span{start, stop}})
	}
	if err := a.Tile.Validate(); err != nil {
		return a, err
	}
	if a.NumLocalities <= 0 || a.Locality < 0 || a.Locality >= a.NumLocalities {
		return a, errors.E("annotation", errors.BadParameter,
			errors.Errorf("invalid locality %d of %d", a.Locality, a.NumLocalities))
	}
	return a, nil
}

func intPair(a *values.Annotation) (int, int, error) {
	if len(a.Vals) != 2 {
		return 0, 0, errors.E("annotation", errors.BadParameter,
			errors.Errorf("%q expects two integers, got %d values", a.Key, len(a.Vals)))
	}
	x, ok1 := values.Int(a.Vals[0])
	y, ok2 := values.Int(a.Vals[1])
	if !ok1 || !ok2 {
		return 0, 0, errors.E("annotation", errors.BadParameter,
			errors.Errorf("%q expects two integers, got %s", a.Key, values.Sprint(a.Vals)))
	}
	return int(x), int(y), nil
}
