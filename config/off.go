// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package config

import (
	"net/http"

	"github.com/grailbio/phylanx/metrics"
	"github.com/grailbio/phylanx/metrics/prometrics"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	Register(Metrics, "off", "", "turn metrics off",
		func(cfg Config, arg string) (Config, error) {
			return &metricsOff{cfg}, nil
		},
	)
	Register(Metrics, "prometheus", "", "export metrics in the Prometheus format",
		func(cfg Config, arg string) (Config, error) {
			return &promMetrics{cfg}, nil
		},
	)
}

type metricsOff struct {
	Config
}

func (c *metricsOff) Metrics() (metrics.Client, http.Handler, error) {
	return metrics.NopClient, nil, nil
}

type promMetrics struct {
	Config
}

// Metrics returns a client backed by a fresh registry, and the
// handler that exports it. Use OnceConfig to share one registry.
func (c *promMetrics) Metrics() (metrics.Client, http.Handler, error) {
	reg := prometheus.NewRegistry()
	return prometrics.NewClient(reg), prometrics.Handler(reg), nil
}
