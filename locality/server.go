// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package locality

import (
	"context"
	"net/http"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/rest"
	"github.com/grailbio/phylanx/tiling"
	"golang.org/x/time/rate"
)

// Info describes a locality.
type Info struct {
	ID, Count int
	// Version is the PhySL version the locality runs.
	Version string
}

// arrayReply is the wire representation of a fetched region.
type arrayReply struct {
	Shape []int
	Data  []float64
}

// Server serves a locality's registry to its peers. It exports the
// following resources:
//
//	GET  /v1/locality                  locality info
//	GET  /v1/tiles                     names of published tiles
//	GET  /v1/tiles/<name>/annotation   tile annotation; waits for publication
//	POST /v1/tiles/<name>/fetch        region of the tile, given a tiling.Region
type Server struct {
	Locality *Locality
	// Version is reported by the locality resource.
	Version string
	// Limit, if non-nil, bounds the rate at which fetches are served.
	Limit *rate.Limiter
}

// Node returns the root of the server's resource tree.
func (s *Server) Node() rest.Node {
	return rest.Mux{"v1": rest.Mux{
		"locality": rest.DoFunc(s.info),
		"tiles":    tilesNode{s.Locality, s.Limit},
	}}
}

func (s *Server) info(ctx context.Context, call *rest.Call) {
	if !call.Allow("GET") {
		return
	}
	call.Reply(http.StatusOK, Info{s.Locality.ID, s.Locality.Count, s.Version})
}

type tilesNode struct {
	l     *Locality
	limit *rate.Limiter
}

func (n tilesNode) Walk(ctx context.Context, call *rest.Call, name string) rest.Node {
	return rest.Mux{
		"annotation": rest.DoFunc(func(ctx context.Context, call *rest.Call) {
			if !call.Allow("GET") {
				return
			}
			t, err := n.l.Registry.Wait(ctx, name)
			if err != nil {
				call.Error(err)
				return
			}
			call.Reply(http.StatusOK, t.Annotation)
		}),
		"fetch": rest.DoFunc(func(ctx context.Context, call *rest.Call) {
			if !call.Allow("POST") {
				return
			}
			var region tiling.Region
			if call.Unmarshal(&region) != nil {
				return
			}
			if n.limit != nil {
				if err := n.limit.Wait(ctx); err != nil {
					call.Error(errors.E("fetch", name, errors.Unavailable, err))
					return
				}
			}
			a, err := n.l.Local(ctx, name, region)
			if err != nil {
				call.Error(err)
				return
			}
			call.Reply(http.StatusOK, arrayReply{a.Shape, a.Data})
		}),
	}
}

func (n tilesNode) Do(ctx context.Context, call *rest.Call) {
	if !call.Allow("GET") {
		return
	}
	call.Reply(http.StatusOK, n.l.Registry.Names())
}
