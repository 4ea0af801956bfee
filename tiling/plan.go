// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tiling

import (
	"context"
	"fmt"
	"sort"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/values"
)

// Region is a rectangular region of an array, given by its start
// index and per-dimension size.
type Region struct {
	Start, Size []int
}

func (r Region) String() string {
	return fmt.Sprintf("%v+%v", r.Start, r.Size)
}

// Volume returns the number of elements in the region.
func (r Region) Volume() int {
	return values.Size(r.Size)
}

// A Fetcher retrieves a region of the named distributed array's tile
// held by a (remote) locality. Regions are given in the coordinates
// of that locality's local storage.
type Fetcher interface {
	Fetch(ctx context.Context, name string, locality int, region Region) (*values.Array, error)
}

// Piece is one contribution to an assembled tile.
type Piece struct {
	// Locality is the locality holding the piece.
	Locality int
	// Local is true if the piece is read from local storage.
	Local bool
	// Src is the region in the holding locality's local storage.
	Src Region
	// Dst is the start index of the piece in the destination.
	Dst []int
}

// Plan describes how a destination tile is assembled from the tiles
// of a named distributed array.
type Plan struct {
	// Name is the name of the distributed array.
	Name string
	// Dest is the destination tile.
	Dest Tile
	// Shape is the shape of the assembled array.
	Shape []int
	// Pieces are the contributions to the destination, local pieces
	// first.
	Pieces []Piece
}

// Remote returns the number of pieces that must be fetched from
// peers.
func (p *Plan) Remote() int {
	var n int
	for _, piece := range p.Pieces {
		if !piece.Local {
			n++
		}
	}
	return n
}

// NewPlan computes how the destination tile dest is assembled, given
// the local tile's annotation and the annotations of all
// participating localities (which may include the local one). If
// dest lies within the local tile, the plan is a single local
// subrange copy. Otherwise every locality whose tile overlaps dest
// on all axes contributes the overlap. NewPlan fails with
// errors.BadParameter if the tiles leave part of dest uncovered.
func NewPlan(local Annotation, peers []Annotation, dest Tile) (*Plan, error) {
	if err := dest.Validate(); err != nil {
		return nil, errors.E("retile", local.Name, err)
	}
	if local.Tile.Rank() != dest.Rank() {
		return nil, errors.E("retile", local.Name, errors.BadParameter,
			errors.Errorf("destination tile %v does not match the rank of local tile %v", dest, local.Tile))
	}
	plan := &Plan{Name: local.Name, Dest: dest, Shape: dest.Shape()}
	destSpans := dest.Spans()
	if local.Tile.Contains(dest) {
		overlaps, _ := overlap(local.Tile, destSpans)
		plan.Pieces = []Piece{piece(local.Locality, true, overlaps)}
		return plan, nil
	}
	participants := []Annotation{local}
	sorted := append([]Annotation(nil), peers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Locality < sorted[j].Locality })
	for _, p := range sorted {
		if p.Locality == local.Locality {
			continue
		}
		if p.Tile.Rank() != dest.Rank() {
			return nil, errors.E("retile", local.Name, errors.BadParameter,
				errors.Errorf("tile %v of locality %d does not match the rank of %v", p.Tile, p.Locality, dest))
		}
		participants = append(participants, p)
	}
	covered := newMask(plan.Shape)
	for _, p := range participants {
		overlaps, ok := overlap(p.Tile, destSpans)
		if !ok {
			continue
		}
		pc := piece(p.Locality, p.Locality == local.Locality, overlaps)
		if !covered.mark(pc.Dst, pc.Src.Size) {
			// Fully covered by earlier pieces (overlapping halos).
			continue
		}
		plan.Pieces = append(plan.Pieces, pc)
	}
	if !covered.full() {
		return nil, errors.E("retile", local.Name, errors.BadParameter,
			errors.Errorf("destination tile %v is not covered by the tiles of the participating localities", dest))
	}
	return plan, nil
}

// overlap computes the per-axis overlaps of tile t with the
// destination spans. It returns false unless all axes overlap.
func overlap(t Tile, dest []Span) ([]Overlap, bool) {
	spans := t.Spans()
	overlaps := make([]Overlap, len(dest))
	for i := range dest {
		o, ok := RetileCalculation1D(spans[i], dest[i])
		if !ok {
			return nil, false
		}
		overlaps[i] = o
	}
	return overlaps, true
}

func piece(locality int, local bool, overlaps []Overlap) Piece {
	p := Piece{
		Locality: locality,
		Local:    local,
		Src:      Region{Start: make([]int, len(overlaps)), Size: make([]int, len(overlaps))},
		Dst:      make([]int, len(overlaps)),
	}
	for i, o := range overlaps {
		p.Src.Start[i] = o.LocalOffset
		p.Src.Size[i] = o.Size
		p.Dst[i] = o.DestOffset
	}
	return p
}

// mask tracks coverage of a destination tile.
type mask struct {
	shape   []int
	strides []int
	cells   []bool
	n       int
}

func newMask(shape []int) *mask {
	m := &mask{shape: shape, cells: make([]bool, values.Size(shape))}
	m.strides = make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		m.strides[i] = s
		s *= shape[i]
	}
	return m
}

// mark marks the region as covered and tells whether it covered any
// cells that were not covered before.
func (m *mask) mark(start, size []int) bool {
	if values.Size(size) == 0 {
		return false
	}
	var (
		idx   = make([]int, len(size))
		fresh bool
	)
	for {
		off := 0
		for i := range idx {
			off += (start[i] + idx[i]) * m.strides[i]
		}
		if !m.cells[off] {
			m.cells[off] = true
			m.n++
			fresh = true
		}
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < size[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return fresh
		}
	}
}

func (m *mask) full() bool {
	return m.n == len(m.cells)
}

// Assemble executes the plan: it copies local pieces from local and
// fetches remote pieces through f. Remote fetches proceed
// concurrently; Assemble returns once every piece has landed, or
// with the first error. If the plan consists of the whole local tile,
// Assemble returns a reference to local without copying.
func Assemble(ctx context.Context, plan *Plan, local *values.Array, f Fetcher) (*values.Array, error) {
	if len(plan.Pieces) == 1 && plan.Pieces[0].Local && local != nil && sameShape(plan.Shape, local.Shape) {
		return local.AsRef(), nil
	}
	parts := make([]*values.Array, len(plan.Pieces))
	err := traverse.Each(len(plan.Pieces), func(i int) error {
		p := plan.Pieces[i]
		if p.Local {
			if local == nil {
				return errors.E("retile", plan.Name, errors.BadParameter, errors.New("missing local tile"))
			}
			parts[i] = local
			return nil
		}
		if f == nil {
			return errors.E("retile", plan.Name, errors.NotSupported,
				errors.Errorf("locality %d holds part of the destination, but there is no transport", p.Locality))
		}
		a, err := f.Fetch(ctx, plan.Name, p.Locality, p.Src)
		if err != nil {
			return errors.E("retile", plan.Name, err)
		}
		if !sameShape(a.Shape, p.Src.Size) {
			return errors.E("retile", plan.Name, errors.BadParameter,
				errors.Errorf("locality %d returned shape %v for region %v", p.Locality, a.Shape, p.Src))
		}
		parts[i] = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := values.NewArray(plan.Shape, nil)
	for i, p := range plan.Pieces {
		if p.Local {
			if len(local.Shape) != len(plan.Shape) {
				return nil, errors.E("retile", plan.Name, errors.BadParameter,
					errors.Errorf("local tile has shape %v, expected rank %d", local.Shape, len(plan.Shape)))
			}
			values.CopyRegion(out, p.Dst, parts[i], p.Src.Start, p.Src.Size)
		} else {
			values.CopyRegion(out, p.Dst, parts[i], make([]int, len(p.Src.Size)), p.Src.Size)
		}
	}
	return out, nil
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
