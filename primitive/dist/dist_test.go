// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dist_test

import (
	"context"
	"testing"
	"time"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/phylanx/compiler"
	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/primitive/arith"
	"github.com/grailbio/phylanx/primitive/controls"
	"github.com/grailbio/phylanx/primitive/dist"
	"github.com/grailbio/phylanx/tiling"
	"github.com/grailbio/phylanx/values"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

var catalogue = primitive.MustCatalogue(controls.Matches, arith.Matches, dist.Matches)

// runAll runs src on each of n localities of an in-process group and
// returns the results, indexed by locality.
func runAll(t *testing.T, n int, src string) ([]values.T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	g := locality.NewGroup(n, 0, nil)
	results := make([]values.T, n)
	err := traverse.Each(n, func(i int) error {
		c := compiler.New(catalogue, g.Localities[i], nil)
		e, err := c.Compile(ctx, "test", src)
		if err != nil {
			return err
		}
		results[i], err = e.Run(ctx)
		return err
	})
	return results, err
}

func TestLocality(t *testing.T) {
	results, err := runAll(t, 3, "list(locality(), num_localities())")
	require.NoError(t, err)
	for i, v := range results {
		expect.True(t, values.Equal(v, values.List{int64(i), int64(3)}))
	}
}

func TestConstantD(t *testing.T) {
	results, err := runAll(t, 2, `constant_d(3, '(5))`)
	require.NoError(t, err)
	for i, want := range []int{3, 2} {
		a, ok := results[i].(*values.Array)
		require.True(t, ok)
		expect.EQ(t, a.Shape, []int{want})
		annot, err := tiling.ParseAnnotation(a.Annotation, -1, -1)
		require.NoError(t, err)
		expect.EQ(t, annot.Name, "constant_d_0_0")
		expect.EQ(t, annot.Locality, i)
		expect.EQ(t, annot.NumLocalities, 2)
	}

	results, err = runAll(t, 4, `constant_d(1, '(4, 6), name="m")`)
	require.NoError(t, err)
	for _, v := range results {
		expect.EQ(t, v.(*values.Array).Shape, []int{2, 3})
	}

	results, err = runAll(t, 2, `constant_d(1, '(4, 6), tiling_type="column")`)
	require.NoError(t, err)
	for _, v := range results {
		expect.EQ(t, v.(*values.Array).Shape, []int{4, 3})
	}
}

func TestConstantDErrors(t *testing.T) {
	for _, src := range []string{
		`constant_d(1, '(2, 2, 2))`,
		`constant_d(1, '(4, 4), tiling_type="diagonal")`,
		`constant_d("x", '(4))`,
		`constant_d(1, '(4), 5, 2)`,
	} {
		_, err := runAll(t, 2, src)
		if !errors.Is(errors.BadParameter, err) {
			t.Errorf("%s: expected BadParameter, got %v", src, err)
		}
	}
}

// rows publishes a 4x4 matrix, split by rows over two localities.
const rows = `
	define(m, annotate_d(
		if(locality() == 0, [[1, 2, 3, 4], [5, 6, 7, 8]], [[9, 10, 11, 12], [13, 14, 15, 16]]),
		"m",
		list("tile", list("rows", 2 * locality(), 2 * locality() + 2), list("columns", 0, 4))))
`

func TestRetile(t *testing.T) {
	src := rows + `
		retile_d(m, list("tile", list("rows", 0, 4), list("columns", 2 * locality(), 2 * locality() + 2)), name="n")
	`
	results, err := runAll(t, 2, src)
	require.NoError(t, err)
	want := []*values.Array{
		values.NewArray([]int{4, 2}, []float64{1, 2, 5, 6, 9, 10, 13, 14}),
		values.NewArray([]int{4, 2}, []float64{3, 4, 7, 8, 11, 12, 15, 16}),
	}
	for i, v := range results {
		a, ok := v.(*values.Array)
		require.True(t, ok)
		if !values.Equal(a, want[i]) {
			t.Errorf("locality %d: got %v, want %v", i, a, want[i])
		}
		annot, err := tiling.ParseAnnotation(a.Annotation, -1, -1)
		require.NoError(t, err)
		expect.EQ(t, annot.Name, "n")
		expect.EQ(t, annot.Locality, i)
	}
}

func TestAllGather(t *testing.T) {
	results, err := runAll(t, 2, rows+"all_gather_d(m)")
	require.NoError(t, err)
	for _, v := range results {
		tiles, ok := v.(values.List)
		require.True(t, ok)
		require.Len(t, tiles, 2)
		expect.True(t, values.Equal(tiles[0], values.NewArray([]int{2, 4}, []float64{1, 2, 3, 4, 5, 6, 7, 8})))
		expect.True(t, values.Equal(tiles[1], values.NewArray([]int{2, 4}, []float64{9, 10, 11, 12, 13, 14, 15, 16})))
	}
}

func TestSingleLocality(t *testing.T) {
	ctx := context.Background()
	c := compiler.New(catalogue, nil, nil)
	e, err := c.Compile(ctx, "test", `
		define(v, constant_d(2, '(3), name="v"))
		retile_d(v, list("tile", list("columns", 1, 3)))
	`)
	require.NoError(t, err)
	v, err := e.Run(ctx)
	require.NoError(t, err)
	expect.True(t, values.Equal(v, values.Vector(2, 2)))

	e, err = c.Compile(ctx, "plain", "all_gather_d([1, 2])")
	require.NoError(t, err)
	_, err = e.Run(ctx)
	expect.True(t, errors.Is(errors.BadParameter, err))
}

func TestRetileWithinLocalTile(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Locality 1 never runs, so its tile of v is never published.
	g := locality.NewGroup(2, 0, nil)
	c := compiler.New(catalogue, g.Localities[0], nil)
	e, err := c.Compile(ctx, "test", `retile_d(constant_d(1, '(6), name="v"), list("tile", list("columns", 0, 2)))`)
	require.NoError(t, err)
	v, err := e.Run(ctx)
	require.NoError(t, err)
	expect.True(t, values.Equal(v, values.Vector(1, 1)))
}
