// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tiling

import (
	"math"

	"github.com/grailbio/phylanx/errors"
)

// Partitioning strategies for TileCalculation2D.
const (
	// Row partitions the first axis only.
	Row = "row"
	// Column partitions the second axis only.
	Column = "column"
	// Sym partitions both axes as evenly as possible.
	Sym = "sym"
)

// TileCalculation1D computes the start and size of tile idx when a
// dimension of size dim is split into n tiles. Remainder indices are
// given one each to the lowest-numbered tiles, so that tile sizes
// differ by at most one.
func TileCalculation1D(idx, dim, n int) (start, size int, err error) {
	switch {
	case n <= 0:
		return 0, 0, errors.E("tile_calculation_1d", errors.BadParameter,
			errors.Errorf("the number of tiles must be positive, got %d", n))
	case idx < 0 || idx >= n:
		return 0, 0, errors.E("tile_calculation_1d", errors.BadParameter,
			errors.Errorf("tile index %d out of range [0, %d)", idx, n))
	case dim < n:
		return 0, 0, errors.E("tile_calculation_1d", errors.BadParameter,
			errors.Errorf("cannot split a dimension of size %d into %d tiles", dim, n))
	}
	size = dim / n
	rem := dim % n
	if idx < rem {
		size++
		return idx * size, size, nil
	}
	return idx*size + rem, size, nil
}

// Tile2D is the result of a 2-D tile calculation.
type Tile2D struct {
	RowStart, ColStart int
	RowSize, ColSize   int
}

// Tile returns the calculated tile.
func (t Tile2D) Tile() Tile {
	return NewTile(
		Span{t.RowStart, t.RowStart + t.RowSize},
		Span{t.ColStart, t.ColStart + t.ColSize},
	)
}

// TileCalculation2D computes tile idx of n tiles of a rows x cols
// matrix under the given strategy (Row, Column, or Sym). Sym uses a
// grid of the two factors of n closest to its square root, the larger
// factor applied to the larger axis; n = 4 is always a 2x2 grid.
func TileCalculation2D(idx, rows, cols, n int, kind string) (Tile2D, error) {
	var (
		t   Tile2D
		err error
	)
	switch kind {
	case Row:
		t.ColSize = cols
		t.RowStart, t.RowSize, err = TileCalculation1D(idx, rows, n)
	case Column:
		t.RowSize = rows
		t.ColStart, t.ColSize, err = TileCalculation1D(idx, cols, n)
	case Sym:
		if n <= 0 || idx < 0 || idx >= n {
			return t, errors.E("tile_calculation_2d", errors.BadParameter,
				errors.Errorf("tile index %d out of range for %d tiles", idx, n))
		}
		rowTiles, colTiles := symGrid(n, rows, cols)
		if rows < rowTiles || cols < colTiles {
			return t, errors.E("tile_calculation_2d", errors.BadParameter,
				errors.Errorf("cannot split a %dx%d matrix into a %dx%d grid of tiles", rows, cols, rowTiles, colTiles))
		}
		if t.RowStart, t.RowSize, err = TileCalculation1D(idx/colTiles, rows, rowTiles); err != nil {
			break
		}
		t.ColStart, t.ColSize, err = TileCalculation1D(idx%colTiles, cols, colTiles)
	default:
		return t, errors.E("tile_calculation_2d", errors.BadParameter,
			errors.Errorf("unknown tiling type %q, expected %q, %q, or %q", kind, Row, Column, Sym))
	}
	if err != nil {
		return Tile2D{}, errors.E("tile_calculation_2d", err)
	}
	return t, nil
}

// symGrid returns the grid dimensions (rowTiles x colTiles) for n
// symmetric tiles.
func symGrid(n, rows, cols int) (rowTiles, colTiles int) {
	if n == 4 {
		return 2, 2
	}
	small := 1
	for f := int(math.Sqrt(float64(n))); f >= 1; f-- {
		if n%f == 0 {
			small = f
			break
		}
	}
	large := n / small
	if rows >= cols {
		return large, small
	}
	return small, large
}

// Overlap describes the intersection of a peer's span with a
// destination span.
type Overlap struct {
	// LocalOffset is the offset into the peer's local storage at which
	// the overlap begins.
	LocalOffset int
	// DestOffset is the offset into the destination at which the
	// overlap is written.
	DestOffset int
	// Size is the length of the overlap.
	Size int
}

// RetileCalculation1D intersects a peer's span with a destination
// span. It returns false (and a zero Overlap) if they do not
// intersect.
func RetileCalculation1D(peer, dest Span) (Overlap, bool) {
	start := max(peer.Start, dest.Start)
	stop := min(peer.Stop, dest.Stop)
	if stop <= start {
		return Overlap{}, false
	}
	return Overlap{
		LocalOffset: start - peer.Start,
		DestOffset:  start - dest.Start,
		Size:        stop - start,
	}, true
}
