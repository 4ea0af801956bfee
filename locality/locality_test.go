// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package locality

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/rest"
	"github.com/grailbio/phylanx/tiling"
	"github.com/grailbio/phylanx/values"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// publishRows splits a rows x cols matrix whose elements are their
// own row-major offsets into row tiles, one per locality.
func publishRows(t *testing.T, ls []*Locality, name string, rows, cols int) *values.Array {
	t.Helper()
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i)
	}
	whole := values.NewArray([]int{rows, cols}, data)
	for i, l := range ls {
		t2, err := tiling.TileCalculation2D(i, rows, cols, len(ls), tiling.Row)
		require.NoError(t, err)
		a := tiling.Annotation{Name: name, Locality: i, NumLocalities: len(ls), Tile: t2.Tile()}
		tile := whole.Sub([]int{t2.RowStart, t2.ColStart}, []int{t2.RowSize, t2.ColSize})
		require.NoError(t, l.Publish(context.Background(), a, tile))
	}
	return whole
}

func TestRegistryWait(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	done := make(chan Tile)
	go func() {
		tile, err := r.Wait(ctx, "A")
		if err != nil {
			t.Error(err)
		}
		done <- tile
	}()
	select {
	case <-done:
		t.Fatal("wait returned before publication")
	case <-time.After(10 * time.Millisecond):
	}
	a := tiling.Annotation{Name: "A", NumLocalities: 1, Tile: tiling.NewTile(tiling.Span{Start: 0, Stop: 3})}
	require.NoError(t, r.Publish(ctx, Tile{a, values.Vector(1, 2, 3)}))
	tile := <-done
	expect.True(t, tile.Annotation.Equal(a))
	expect.EQ(t, r.Names(), []string{"A"})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err := r.Wait(ctx, "B")
	expect.True(t, errors.Is(errors.Timeout, err))
}

func TestRegistryPublishErrors(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	tile := tiling.NewTile(tiling.Span{Start: 0, Stop: 3})
	for _, c := range []Tile{
		{tiling.Annotation{Name: "", Tile: tile}, values.Vector(1, 2, 3)},
		{tiling.Annotation{Name: "a/b", Tile: tile}, values.Vector(1, 2, 3)},
		{tiling.Annotation{Name: "A", Tile: tile}, nil},
		{tiling.Annotation{Name: "A", Tile: tile}, values.Vector(1, 2)},
	} {
		if err := r.Publish(ctx, c); !errors.Is(errors.BadParameter, err) {
			t.Errorf("%v: expected bad parameter, got %v", c.Annotation, err)
		}
	}
}

func TestGroupRetile(t *testing.T) {
	g := NewGroup(3, 2, nil)
	whole := publishRows(t, g.Localities, "A", 7, 4)
	ctx := context.Background()
	me := g.Localities[1]
	annots, err := me.Annotations(ctx, "A")
	require.NoError(t, err)
	dest := tiling.NewTile(tiling.Span{Start: 1, Stop: 6}, tiling.Span{Start: 1, Stop: 3})
	plan, err := tiling.NewPlan(annots[me.ID], annots, dest)
	require.NoError(t, err)
	expect.EQ(t, plan.Remote(), 2)
	local, ok := me.Registry.Lookup("A")
	require.True(t, ok)
	got, err := tiling.Assemble(ctx, plan, local.Array, me)
	require.NoError(t, err)
	if want := whole.Sub([]int{1, 1}, []int{5, 2}); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFetchErrors(t *testing.T) {
	ctx := context.Background()
	g := NewGroup(2, 0, nil)
	publishRows(t, g.Localities, "A", 4, 4)
	l := g.Localities[0]
	_, err := l.Fetch(ctx, "A", 5, tiling.Region{Start: []int{0, 0}, Size: []int{1, 1}})
	expect.True(t, errors.Is(errors.NotExist, err))
	_, err = l.Fetch(ctx, "A", 1, tiling.Region{Start: []int{1, 0}, Size: []int{2, 1}})
	expect.True(t, errors.Is(errors.BadParameter, err))
	single := New(0, 2, nil, 0)
	_, err = single.Fetch(ctx, "A", 1, tiling.Region{})
	expect.True(t, errors.Is(errors.NotSupported, err))
}

func TestServerClient(t *testing.T) {
	const n = 3
	var (
		urls  []string
		local []*Locality
	)
	for i := 0; i < n; i++ {
		local = append(local, New(i, n, nil, 0))
		srv := httptest.NewServer(rest.Handler((&Server{Locality: local[i], Version: "physl0.3.0", Limit: rate.NewLimiter(rate.Inf, 1)}).Node(), nil))
		defer srv.Close()
		urls = append(urls, srv.URL)
	}
	client, err := NewClient(nil, urls, nil)
	require.NoError(t, err)
	for _, l := range local {
		l.Transport = client
	}
	whole := publishRows(t, local, "M", 6, 5)
	ctx := context.Background()

	info, err := client.Info(ctx, 2)
	require.NoError(t, err)
	expect.EQ(t, info, Info{2, n, "physl0.3.0"})

	me := local[0]
	annots, err := me.Annotations(ctx, "M")
	require.NoError(t, err)
	for i, a := range annots {
		want, _ := local[i].Registry.Lookup("M")
		if !a.Equal(want.Annotation) {
			t.Errorf("locality %d: got %v, want %v", i, a, want.Annotation)
		}
	}
	dest := tiling.NewTile(tiling.Span{Start: 0, Stop: 6}, tiling.Span{Start: 2, Stop: 5})
	plan, err := tiling.NewPlan(annots[0], annots, dest)
	require.NoError(t, err)
	mine, _ := me.Registry.Lookup("M")
	got, err := tiling.Assemble(ctx, plan, mine.Array, me)
	require.NoError(t, err)
	if want := whole.Sub([]int{0, 2}, []int{6, 3}); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	_, err = client.Fetch(ctx, "M", 1, tiling.Region{Start: []int{0, 0}, Size: []int{9, 9}})
	expect.True(t, errors.Is(errors.BadParameter, err))
	_, err = client.Fetch(ctx, "M", n, tiling.Region{})
	expect.True(t, errors.Is(errors.NotExist, err))
}
