// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package locality

import (
	"context"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/tiling"
	"github.com/grailbio/phylanx/values"
)

// Group is an in-process cluster of localities that reach each
// other's registries directly. Groups are used to run distributed
// programs within a single process.
type Group struct {
	Localities []*Locality
}

// NewGroup returns a group of n localities.
func NewGroup(n, fetchLimit int, log *log.Logger) *Group {
	g := &Group{Localities: make([]*Locality, n)}
	for i := range g.Localities {
		l := New(i, n, groupTransport{g}, fetchLimit)
		l.Log = log
		g.Localities[i] = l
	}
	return g
}

type groupTransport struct {
	g *Group
}

func (t groupTransport) peer(name string, locality int) (*Locality, error) {
	if locality < 0 || locality >= len(t.g.Localities) {
		return nil, errors.E("fetch", name, errors.NotExist, errors.Errorf("no locality %d", locality))
	}
	return t.g.Localities[locality], nil
}

func (t groupTransport) Annotation(ctx context.Context, name string, locality int) (tiling.Annotation, error) {
	l, err := t.peer(name, locality)
	if err != nil {
		return tiling.Annotation{}, err
	}
	tile, err := l.Registry.Wait(ctx, name)
	return tile.Annotation, err
}

func (t groupTransport) Fetch(ctx context.Context, name string, locality int, region tiling.Region) (*values.Array, error) {
	l, err := t.peer(name, locality)
	if err != nil {
		return nil, err
	}
	return l.Local(ctx, name, region)
}
