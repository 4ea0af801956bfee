// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package config

import (
	"net/http"
	"time"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/locality"
)

func init() {
	Register(Transport, "local", "", "run as the sole locality",
		func(cfg Config, arg string) (Config, error) {
			return &localTransport{cfg}, nil
		},
	)
	Register(Transport, "rest", "timeout", "reach the peers listed under the localities key over HTTP; the optional timeout (e.g. 30s) bounds each request",
		func(cfg Config, arg string) (Config, error) {
			var timeout time.Duration
			if arg != "" {
				var err error
				if timeout, err = time.ParseDuration(arg); err != nil {
					return nil, errors.E("config", Transport, errors.BadParameter, err)
				}
			}
			peers, err := Strings(cfg, Localities)
			if err != nil {
				return nil, err
			}
			if len(peers) == 0 {
				return nil, errors.E("config", Transport, errors.BadParameter, errors.New("rest transport requires localities"))
			}
			return &restTransport{Config: cfg, peers: peers, timeout: timeout}, nil
		},
	)
}

type localTransport struct {
	Config
}

func (c *localTransport) Transport() (locality.Transport, error) {
	return nil, nil
}

func (c *localTransport) Locality() (*locality.Locality, error) {
	return newLocality(c, 1, nil)
}

type restTransport struct {
	Config
	peers   []string
	timeout time.Duration
}

func (c *restTransport) Transport() (locality.Transport, error) {
	log, err := c.Logger()
	if err != nil {
		return nil, err
	}
	return locality.NewClient(&http.Client{Timeout: c.timeout}, c.peers, log)
}

func (c *restTransport) Locality() (*locality.Locality, error) {
	t, err := c.Transport()
	if err != nil {
		return nil, err
	}
	return newLocality(c, len(c.peers), t)
}

func newLocality(cfg Config, count int, t locality.Transport) (*locality.Locality, error) {
	id, err := Int(cfg, LocalityID, 0)
	if err != nil {
		return nil, err
	}
	if id < 0 || id >= count {
		return nil, errors.E("config", LocalityID, errors.BadParameter,
			errors.Errorf("locality %d out of range for %d localities", id, count))
	}
	limit, err := Int(cfg, FetchLimit, 0)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	l := locality.New(id, count, t, limit)
	l.Log = log
	return l, nil
}
