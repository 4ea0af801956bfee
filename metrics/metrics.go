// Copyright 2021 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package metrics declares the engine's metrics and provides
// accessors for them. Metrics are emitted to the Client attached to
// the context by WithClient; without one, all accessors return
// no-op metrics.
package metrics

import (
	"context"
)

var (
	Counters = map[string]counterOpts{
		"compiles_count": {
			Help: "Count of compiled snippets.",
		},
		"primitive_evals_count": {
			Help:   "Count of primitive evaluations.",
			Labels: []string{"primitive"},
		},
		"primitive_eval_errors_count": {
			Help:   "Count of failed primitive evaluations.",
			Labels: []string{"primitive"},
		},
		"tile_fetches_count": {
			Help: "Count of remote tile fetches.",
		},
	}
	Gauges = map[string]gaugeOpts{
		"registry_tiles": {
			Help: "Number of tiles published by this locality.",
		},
	}
	Histograms = map[string]histogramOpts{
		"tile_fetch_latency_seconds": {
			Help:    "Remote tile fetch latency in seconds.",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		},
	}
)

// GetCompilesCountCounter returns a Counter to set metric compiles_count (count of compiled snippets).
func GetCompilesCountCounter(ctx context.Context) Counter {
	return getCounter(ctx, "compiles_count", nil)
}

// GetPrimitiveEvalsCountCounter returns a Counter to set metric primitive_evals_count (count of primitive evaluations).
func GetPrimitiveEvalsCountCounter(ctx context.Context, primitive string) Counter {
	return getCounter(ctx, "primitive_evals_count", map[string]string{"primitive": primitive})
}

// GetPrimitiveEvalErrorsCountCounter returns a Counter to set metric primitive_eval_errors_count (count of failed primitive evaluations).
func GetPrimitiveEvalErrorsCountCounter(ctx context.Context, primitive string) Counter {
	return getCounter(ctx, "primitive_eval_errors_count", map[string]string{"primitive": primitive})
}

// GetTileFetchesCountCounter returns a Counter to set metric tile_fetches_count (count of remote tile fetches).
func GetTileFetchesCountCounter(ctx context.Context) Counter {
	return getCounter(ctx, "tile_fetches_count", nil)
}

// GetRegistryTilesGauge returns a Gauge to set metric registry_tiles (number of tiles published by this locality).
func GetRegistryTilesGauge(ctx context.Context) Gauge {
	return getGauge(ctx, "registry_tiles", nil)
}

// GetTileFetchLatencySecondsHistogram returns a Histogram to set metric tile_fetch_latency_seconds (remote tile fetch latency in seconds).
func GetTileFetchLatencySecondsHistogram(ctx context.Context) Histogram {
	return getHistogram(ctx, "tile_fetch_latency_seconds", nil)
}
