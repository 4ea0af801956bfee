// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package locality

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/grailbio/base/sync/ctxsync"
	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/metrics"
	"github.com/grailbio/phylanx/tiling"
	"github.com/grailbio/phylanx/values"
)

// Tile is a locally held tile of a named distributed array.
type Tile struct {
	// Annotation describes the tile's place in the distributed array.
	Annotation tiling.Annotation
	// Array is the tile's data.
	Array *values.Array
}

// Registry holds the tiles published by a locality, keyed by the name
// of their distributed array. Waiters block until a name is
// published.
type Registry struct {
	mu    sync.Mutex
	cond  *ctxsync.Cond
	tiles map[string]Tile
}

// NewRegistry returns a new, empty registry.
func NewRegistry() *Registry {
	r := &Registry{tiles: make(map[string]Tile)}
	r.cond = ctxsync.NewCond(&r.mu)
	return r
}

// Publish registers the tile under its annotation's name, replacing
// any tile previously published under that name.
func (r *Registry) Publish(ctx context.Context, tile Tile) error {
	name := tile.Annotation.Name
	if name == "" || strings.Contains(name, "/") {
		return errors.E("publish", name, errors.BadParameter,
			errors.New("distributed array names must be non-empty and must not contain '/'"))
	}
	if tile.Array == nil {
		return errors.E("publish", name, errors.BadParameter, errors.New("missing tile data"))
	}
	if got, want := tile.Array.Shape, tile.Annotation.Tile.Shape(); !sameShape(got, want) {
		return errors.E("publish", name, errors.BadParameter,
			errors.Errorf("tile data has shape %v, but its annotation %v implies %v", got, tile.Annotation.Tile, want))
	}
	r.mu.Lock()
	r.tiles[name] = tile
	n := len(r.tiles)
	r.cond.Broadcast()
	r.mu.Unlock()
	metrics.GetRegistryTilesGauge(ctx).Set(float64(n))
	return nil
}

// Lookup returns the tile published under name.
func (r *Registry) Lookup(name string) (Tile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tiles[name]
	return t, ok
}

// Wait returns the tile published under name, waiting for it to be
// published if necessary. Wait returns early with an error if the
// context is done first.
func (r *Registry) Wait(ctx context.Context, name string) (Tile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if t, ok := r.tiles[name]; ok {
			return t, nil
		}
		if err := r.cond.Wait(ctx); err != nil {
			return Tile{}, errors.E("wait", name, err)
		}
	}
}

// Remove removes the tile published under name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.tiles, name)
	r.mu.Unlock()
}

// Names returns the names of all published tiles, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.tiles))
	for name := range r.tiles {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
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
