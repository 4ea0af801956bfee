// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tiling

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/values"
	"github.com/stretchr/testify/require"
)

func TestTileCalculation1DCoverage(t *testing.T) {
	for dim := 1; dim < 40; dim++ {
		for n := 1; n <= dim; n++ {
			next, min, max := 0, dim, 0
			for i := 0; i < n; i++ {
				start, size, err := TileCalculation1D(i, dim, n)
				if err != nil {
					t.Fatal(err)
				}
				if start != next {
					t.Fatalf("dim=%d n=%d tile %d: got start %d, want %d", dim, n, i, start, next)
				}
				next = start + size
				if size < min {
					min = size
				}
				if size > max {
					max = size
				}
			}
			if next != dim {
				t.Fatalf("dim=%d n=%d: tiles cover [0, %d)", dim, n, next)
			}
			if max-min > 1 {
				t.Fatalf("dim=%d n=%d: tile sizes range from %d to %d", dim, n, min, max)
			}
		}
	}
}

func TestTileCalculation1DErrors(t *testing.T) {
	for _, c := range []struct{ idx, dim, n int }{
		{0, 3, 4},
		{4, 10, 4},
		{-1, 10, 4},
		{0, 10, 0},
	} {
		_, _, err := TileCalculation1D(c.idx, c.dim, c.n)
		if !errors.Is(errors.BadParameter, err) {
			t.Errorf("%+v: expected bad parameter, got %v", c, err)
		}
	}
}

func TestTileCalculation2D(t *testing.T) {
	for _, c := range []struct {
		idx, rows, cols, n int
		kind               string
		want               Tile2D
	}{
		{1, 10, 6, 3, Row, Tile2D{RowStart: 4, ColStart: 0, RowSize: 3, ColSize: 6}},
		{2, 10, 7, 3, Column, Tile2D{RowStart: 0, ColStart: 5, RowSize: 10, ColSize: 2}},
		{3, 5, 5, 4, Sym, Tile2D{RowStart: 3, ColStart: 3, RowSize: 2, ColSize: 2}},
		{0, 5, 5, 4, Sym, Tile2D{RowStart: 0, ColStart: 0, RowSize: 3, ColSize: 3}},
		// 6 tiles: a 3x2 grid; the larger factor goes to the larger axis.
		{5, 9, 4, 6, Sym, Tile2D{RowStart: 6, ColStart: 2, RowSize: 3, ColSize: 2}},
		{5, 4, 9, 6, Sym, Tile2D{RowStart: 2, ColStart: 6, RowSize: 2, ColSize: 3}},
		// A prime tile count partitions the larger axis only.
		{2, 2, 9, 3, Sym, Tile2D{RowStart: 0, ColStart: 6, RowSize: 2, ColSize: 3}},
	} {
		got, err := TileCalculation2D(c.idx, c.rows, c.cols, c.n, c.kind)
		if err != nil {
			t.Errorf("%+v: %v", c, err)
			continue
		}
		if got != c.want {
			t.Errorf("%+v: got %+v, want %+v", c, got, c.want)
		}
	}
	for _, kind := range []string{Row, Column, Sym, "diagonal"} {
		if _, err := TileCalculation2D(0, 1, 1, 2, kind); !errors.Is(errors.BadParameter, err) {
			t.Errorf("%s: expected bad parameter, got %v", kind, err)
		}
	}
}

func TestTileCalculation2DCoverage(t *testing.T) {
	for _, kind := range []string{Row, Column, Sym} {
		for n := 1; n <= 9; n++ {
			const rows, cols = 11, 13
			var covered [rows][cols]int
			for i := 0; i < n; i++ {
				tile, err := TileCalculation2D(i, rows, cols, n, kind)
				require.NoError(t, err)
				for r := tile.RowStart; r < tile.RowStart+tile.RowSize; r++ {
					for c := tile.ColStart; c < tile.ColStart+tile.ColSize; c++ {
						covered[r][c]++
					}
				}
			}
			for r := range covered {
				for c := range covered[r] {
					if covered[r][c] != 1 {
						t.Fatalf("%s n=%d: cell (%d, %d) covered %d times", kind, n, r, c, covered[r][c])
					}
				}
			}
		}
	}
}

func TestRetileCalculation1D(t *testing.T) {
	for _, c := range []struct {
		peer, dest Span
		ok         bool
		want       Overlap
	}{
		{Span{0, 5}, Span{3, 8}, true, Overlap{LocalOffset: 3, DestOffset: 0, Size: 2}},
		{Span{5, 10}, Span{3, 8}, true, Overlap{LocalOffset: 0, DestOffset: 2, Size: 3}},
		{Span{0, 10}, Span{3, 8}, true, Overlap{LocalOffset: 3, DestOffset: 0, Size: 5}},
		{Span{0, 3}, Span{3, 8}, false, Overlap{}},
		{Span{8, 10}, Span{3, 8}, false, Overlap{}},
	} {
		got, ok := RetileCalculation1D(c.peer, c.dest)
		if ok != c.ok || got != c.want {
			t.Errorf("%v, %v: got %+v, %v, want %+v, %v", c.peer, c.dest, got, ok, c.want, c.ok)
		}
	}
}

func TestAnnotationEqual(t *testing.T) {
	a := Annotation{Name: "A", Locality: 1, NumLocalities: 2,
		Tile: Tile{{Rows, Span{0, 2}}, {Columns, Span{3, 6}}}}
	b := Annotation{Name: "A", Locality: 1, NumLocalities: 2,
		Tile: Tile{{Columns, Span{3, 6}}, {Rows, Span{0, 2}}}}
	if !a.Equal(b) {
		t.Errorf("%v != %v", a, b)
	}
	c := b
	c.Name, c.Locality = "B", 0
	if a.Equal(c) {
		t.Errorf("%v == %v", a, c)
	}
	if !a.Tile.Equal(c.Tile) {
		t.Errorf("tiles of %v and %v differ", a, c)
	}
	b.Tile[0].Stop = 7
	if a.Equal(b) {
		t.Errorf("%v == %v", a, b)
	}
}

func TestAnnotationValue(t *testing.T) {
	a := Annotation{Name: "A", Locality: 1, NumLocalities: 3,
		Tile: NewTile(Span{0, 2}, Span{3, 6})}
	got, err := ParseAnnotation(a.Value(), 0, 1)
	require.NoError(t, err)
	if !got.Equal(a) {
		t.Errorf("got %v, want %v", got, a)
	}

	// The bare tile form, with axes in a different order.
	tile := values.NewAnnotation("tile",
		values.NewAnnotation(Columns, int64(3), int64(6)),
		values.NewAnnotation(Rows, int64(0), int64(2)))
	got, err = ParseAnnotation(tile, 1, 3)
	require.NoError(t, err)
	a.Name = ""
	if !got.Equal(a) {
		t.Errorf("got %v, want %v", got, a)
	}

	for _, bad := range []*values.Annotation{
		values.NewAnnotation("tiles"),
		values.NewAnnotation("tile", values.NewAnnotation("diagonals", int64(0), int64(1))),
		values.NewAnnotation("tile", values.NewAnnotation(Rows, int64(0))),
		values.NewAnnotation("tile", values.NewAnnotation(Rows, int64(0), int64(1))),
		values.NewAnnotation("tile", values.NewAnnotation(Columns, int64(2), int64(1))),
		values.NewAnnotation("args", values.NewAnnotation("locality", int64(2), int64(2)),
			values.NewAnnotation("tile", values.NewAnnotation(Columns, int64(0), int64(1)))),
	} {
		if _, err := ParseAnnotation(bad, 0, 1); !errors.Is(errors.BadParameter, err) {
			t.Errorf("%v: expected bad parameter, got %v", bad, err)
		}
	}
}

// cluster is an in-memory set of tiles of one logical array.
type cluster struct {
	tiles   []*values.Array
	annots  []Annotation
	fetches int32
}

func newCluster(whole *values.Array, n int) *cluster {
	c := new(cluster)
	rows, cols := whole.Shape[0], whole.Shape[1]
	for i := 0; i < n; i++ {
		t2, err := TileCalculation2D(i, rows, cols, n, Sym)
		if err != nil {
			panic(err)
		}
		tile := t2.Tile()
		c.tiles = append(c.tiles, whole.Sub([]int{t2.RowStart, t2.ColStart}, []int{t2.RowSize, t2.ColSize}))
		c.annots = append(c.annots, Annotation{Name: "A", Locality: i, NumLocalities: n, Tile: tile})
	}
	return c
}

func (c *cluster) Fetch(ctx context.Context, name string, locality int, region Region) (*values.Array, error) {
	atomic.AddInt32(&c.fetches, 1)
	if name != "A" {
		return nil, errors.E("fetch", name, errors.NotExist)
	}
	return c.tiles[locality].Sub(region.Start, region.Size), nil
}

func TestRetileCorrectness(t *testing.T) {
	const rows, cols = 9, 10
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i)
	}
	whole := values.NewArray([]int{rows, cols}, data)
	r := rand.New(rand.NewSource(1))
	for n := 1; n <= 6; n++ {
		c := newCluster(whole, n)
		for trial := 0; trial < 50; trial++ {
			r0, c0 := r.Intn(rows), r.Intn(cols)
			r1, c1 := r0+1+r.Intn(rows-r0), c0+1+r.Intn(cols-c0)
			dest := NewTile(Span{r0, r1}, Span{c0, c1})
			me := r.Intn(n)
			plan, err := NewPlan(c.annots[me], c.annots, dest)
			require.NoError(t, err)
			got, err := Assemble(context.Background(), plan, c.tiles[me], c)
			require.NoError(t, err)
			want := whole.Sub([]int{r0, c0}, []int{r1 - r0, c1 - c0})
			if !got.Equal(want) {
				t.Fatalf("n=%d locality=%d dest=%v: got %v, want %v", n, me, dest, got, want)
			}
		}
	}
}

func TestRetileFastPath(t *testing.T) {
	whole := values.NewArray([]int{4, 4}, make([]float64, 16))
	c := newCluster(whole, 4)
	local := c.annots[0]
	plan, err := NewPlan(local, c.annots, NewTile(Span{0, 1}, Span{1, 2}))
	require.NoError(t, err)
	if got, want := plan.Remote(), 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := Assemble(context.Background(), plan, c.tiles[0], c); err != nil {
		t.Fatal(err)
	}
	if got, want := atomic.LoadInt32(&c.fetches), int32(0); got != want {
		t.Errorf("got %v fetches, want %v", got, want)
	}
	// The whole local tile is returned by reference.
	plan, err = NewPlan(local, c.annots, local.Tile)
	require.NoError(t, err)
	a, err := Assemble(context.Background(), plan, c.tiles[0], c)
	require.NoError(t, err)
	if !a.Ref {
		t.Error("expected a reference to the local tile")
	}
}

func TestRetileGap(t *testing.T) {
	local := Annotation{Name: "A", Locality: 0, NumLocalities: 2, Tile: NewTile(Span{0, 3})}
	peer := Annotation{Name: "A", Locality: 1, NumLocalities: 2, Tile: NewTile(Span{4, 6})}
	_, err := NewPlan(local, []Annotation{local, peer}, NewTile(Span{2, 5}))
	if !errors.Is(errors.BadParameter, err) {
		t.Errorf("expected bad parameter, got %v", err)
	}
}

func TestRetileFetchError(t *testing.T) {
	local := Annotation{Name: "B", Locality: 0, NumLocalities: 2, Tile: NewTile(Span{0, 3})}
	peer := Annotation{Name: "B", Locality: 1, NumLocalities: 2, Tile: NewTile(Span{3, 6})}
	plan, err := NewPlan(local, []Annotation{local, peer}, NewTile(Span{2, 5}))
	require.NoError(t, err)
	c := &cluster{}
	_, err = Assemble(context.Background(), plan, values.Vector(0, 1, 2), c)
	if !errors.Is(errors.NotExist, err) {
		t.Errorf("expected not exist, got %v", err)
	}
}
