// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package locality implements distributed addressing for tiled
// arrays. A Locality is one participant in a distributed evaluation;
// it publishes its own tiles in a Registry and reaches the tiles of
// its peers through a Transport. Peers are addressed purely by
// (array name, locality id, region): there is no coordination beyond
// point-to-point fetches, and failed fetches are never retried.
package locality

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/grailbio/base/limiter"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/metrics"
	"github.com/grailbio/phylanx/tiling"
	"github.com/grailbio/phylanx/values"
)

// DefaultFetchLimit is the default number of concurrent remote fetches
// issued by a locality.
const DefaultFetchLimit = 16

// Transport reaches the tiles published by peer localities.
type Transport interface {
	// Annotation returns the annotation of the tile of the named
	// distributed array held by the given locality. It waits for the
	// tile to be published.
	Annotation(ctx context.Context, name string, locality int) (tiling.Annotation, error)
	// Fetch returns a region of the tile of the named distributed array
	// held by the given locality. The region is given in the
	// coordinates of the peer's local storage.
	Fetch(ctx context.Context, name string, locality int, region tiling.Region) (*values.Array, error)
}

// Locality is a participant in distributed evaluation.
type Locality struct {
	// ID is this locality's id, in [0, Count).
	ID int
	// Count is the number of participating localities.
	Count int
	// Registry holds the tiles published by this locality.
	Registry *Registry
	// Transport reaches peer localities. It may be nil for a
	// single-locality configuration.
	Transport Transport
	// Log is used to log fetches at debug level.
	Log *log.Logger

	limiter *limiter.Limiter
}

// New returns a new locality with the given id, out of count
// localities, that reaches its peers through transport. At most
// fetchLimit remote fetches are in flight at any time; a
// non-positive limit means DefaultFetchLimit.
func New(id, count int, transport Transport, fetchLimit int) *Locality {
	if fetchLimit <= 0 {
		fetchLimit = DefaultFetchLimit
	}
	l := &Locality{
		ID:        id,
		Count:     count,
		Registry:  NewRegistry(),
		Transport: transport,
		limiter:   limiter.New(),
	}
	l.limiter.Release(fetchLimit)
	return l
}

// Single returns a locality that is the sole participant.
func Single() *Locality {
	return New(0, 1, nil, 0)
}

func (l *Locality) String() string {
	return fmt.Sprintf("locality %d/%d", l.ID, l.Count)
}

// Publish publishes a tile held by this locality. The annotation's
// locality must be this one.
func (l *Locality) Publish(ctx context.Context, annotation tiling.Annotation, a *values.Array) error {
	if annotation.Locality != l.ID || annotation.NumLocalities != l.Count {
		return errors.E("publish", annotation.Name, errors.BadParameter,
			errors.Errorf("annotation %v does not belong to %v", annotation, l))
	}
	return l.Registry.Publish(ctx, Tile{Annotation: annotation, Array: a})
}

// Local returns a region of this locality's tile of the named array,
// waiting for the tile to be published.
func (l *Locality) Local(ctx context.Context, name string, region tiling.Region) (*values.Array, error) {
	t, err := l.Registry.Wait(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := checkRegion(t.Array.Shape, region); err != nil {
		return nil, errors.E("fetch", name, err)
	}
	return t.Array.Sub(region.Start, region.Size), nil
}

// Fetch implements tiling.Fetcher. Requests addressed to this
// locality are served from its registry; others go through the
// transport, bounded by the locality's fetch limit.
func (l *Locality) Fetch(ctx context.Context, name string, locality int, region tiling.Region) (*values.Array, error) {
	if locality == l.ID {
		return l.Local(ctx, name, region)
	}
	if locality < 0 || locality >= l.Count {
		return nil, errors.E("fetch", name, errors.NotExist, errors.Errorf("no locality %d in %v", locality, l))
	}
	if l.Transport == nil {
		return nil, errors.E("fetch", name, errors.NotSupported,
			errors.Errorf("%v has no transport to reach locality %d", l, locality))
	}
	if err := l.limiter.Acquire(ctx, 1); err != nil {
		return nil, errors.E("fetch", name, err)
	}
	defer l.limiter.Release(1)
	start := time.Now()
	a, err := l.Transport.Fetch(ctx, name, locality, region)
	metrics.GetTileFetchesCountCounter(ctx).Inc()
	metrics.GetTileFetchLatencySecondsHistogram(ctx).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	l.Log.Debugf("%v: fetched %s%v (%s) from locality %d in %s", l, name, region,
		units.HumanSize(float64(8*len(a.Data))), locality, time.Since(start))
	return a, nil
}

// Annotation returns the annotation of the named array's tile held
// by the given locality.
func (l *Locality) Annotation(ctx context.Context, name string, locality int) (tiling.Annotation, error) {
	if locality == l.ID {
		t, err := l.Registry.Wait(ctx, name)
		return t.Annotation, err
	}
	if l.Transport == nil {
		return tiling.Annotation{}, errors.E("annotation", name, errors.NotSupported,
			errors.Errorf("%v has no transport to reach locality %d", l, locality))
	}
	return l.Transport.Annotation(ctx, name, locality)
}

// Annotations gathers the annotations of all localities' tiles of the
// named array, indexed by locality. It waits for every locality to
// publish its tile.
func (l *Locality) Annotations(ctx context.Context, name string) ([]tiling.Annotation, error) {
	annots := make([]tiling.Annotation, l.Count)
	err := traverse.Each(l.Count, func(i int) error {
		a, err := l.Annotation(ctx, name, i)
		if err != nil {
			return err
		}
		if a.Locality != i || a.NumLocalities != l.Count {
			return errors.E("annotation", name, errors.BadParameter,
				errors.Errorf("locality %d returned annotation %v", i, a))
		}
		annots[i] = a
		return nil
	})
	return annots, err
}

func checkRegion(shape []int, region tiling.Region) error {
	if len(region.Start) != len(shape) || len(region.Size) != len(shape) {
		return errors.E(errors.BadParameter,
			errors.Errorf("region %v does not match the rank of shape %v", region, shape))
	}
	for i := range shape {
		if region.Start[i] < 0 || region.Size[i] < 0 || region.Start[i]+region.Size[i] > shape[i] {
			return errors.E(errors.BadParameter,
				errors.Errorf("region %v is out of bounds for shape %v", region, shape))
		}
	}
	return nil
}
