// Copyright 2021 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package prometrics implements a metrics.Client backed by a
// Prometheus registry.
package prometrics

import (
	"net/http"

	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace is given as a prefix to all prometheus metrics.
const Namespace = "phylanx"

type client struct {
	reg        *prometheus.Registry
	gauges     map[string]*prometheus.GaugeVec
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewClient returns a prometheus metrics Client that registers every
// declared metric with the provided registry.
func NewClient(reg *prometheus.Registry) metrics.Client {
	r := &client{
		reg:        reg,
		gauges:     make(map[string]*prometheus.GaugeVec),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
	r.initCollectors()
	return r
}

// Handler returns an HTTP handler that serves the registry's metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve hosts the registry's metrics at addr. Serve does not return
// unless the server fails.
func Serve(addr string, reg *prometheus.Registry) error {
	log.Printf("hosting prometheus metrics at %s", addr)
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))
	return http.ListenAndServe(addr, mux)
}

// initCollectors inspects the counters/gauges/histograms declared by
// package metrics and initializes their backing stores in the
// registry. It should only be called once.
func (r *client) initCollectors() {
	for name, opts := range metrics.Gauges {
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      opts.Help,
		}, opts.Labels)
		r.gauges[name] = gv
		r.reg.MustRegister(gv)
	}
	for name, opts := range metrics.Counters {
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      opts.Help,
		}, opts.Labels)
		r.counters[name] = cv
		r.reg.MustRegister(cv)
	}
	for name, opts := range metrics.Histograms {
		hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      name,
			Buckets:   opts.Buckets,
			Help:      opts.Help,
		}, opts.Labels)
		r.histograms[name] = hv
		r.reg.MustRegister(hv)
	}
}

func (r *client) GetGauge(name string, labels map[string]string) metrics.Gauge {
	gauge, err := r.gauges[name].GetMetricWith(labels)
	if err != nil {
		log.Fatal(err)
	}
	return gauge
}

func (r *client) GetCounter(name string, labels map[string]string) metrics.Counter {
	counter, err := r.counters[name].GetMetricWith(labels)
	if err != nil {
		log.Fatal(err)
	}
	return counter
}

func (r *client) GetHistogram(name string, labels map[string]string) metrics.Histogram {
	histogram, err := r.histograms[name].GetMetricWith(labels)
	if err != nil {
		log.Fatal(err)
	}
	return histogram
}
