// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package config

import (
	"net/http"

	"github.com/grailbio/base/sync/once"
	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/metrics"
)

// OnceConfig memoizes the first call of the following methods to the
// underlying config: Metrics, Transport, and Locality.
type OnceConfig struct {
	Config

	metricsOnce    once.Task
	metrics        metrics.Client
	metricsHandler http.Handler

	transportOnce once.Task
	transport     locality.Transport

	localityOnce once.Task
	locality     *locality.Locality
}

// Once constructs a new OnceConfig using the provided
// underlying configuration.
func Once(cfg Config) *OnceConfig {
	return &OnceConfig{Config: cfg}
}

// Metrics returns the result of the first call to the underlying
// configuration's Metrics.
func (o *OnceConfig) Metrics() (metrics.Client, http.Handler, error) {
	err := o.metricsOnce.Do(func() (err error) {
		o.metrics, o.metricsHandler, err = o.Config.Metrics()
		return
	})
	return o.metrics, o.metricsHandler, err
}

// Transport returns the result of the first call to the underlying
// configuration's Transport.
func (o *OnceConfig) Transport() (locality.Transport, error) {
	err := o.transportOnce.Do(func() (err error) {
		o.transport, err = o.Config.Transport()
		return
	})
	return o.transport, err
}

// Locality returns the result of the first call to the underlying
// configuration's Locality.
func (o *OnceConfig) Locality() (*locality.Locality, error) {
	err := o.localityOnce.Do(func() (err error) {
		o.locality, err = o.Config.Locality()
		return
	})
	return o.locality, err
}
