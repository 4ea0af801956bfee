// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package locality

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/rest"
	"github.com/grailbio/phylanx/tiling"
	"github.com/grailbio/phylanx/values"
	"golang.org/x/sync/singleflight"
)

// Client is a Transport that reaches peer localities served by
// Server. Concurrent identical requests are coalesced.
type Client struct {
	peers []*rest.Client
	group singleflight.Group
}

// NewClient returns a client for the localities served at the given
// base URLs, indexed by locality id.
func NewClient(httpClient *http.Client, urls []string, log *log.Logger) (*Client, error) {
	c := &Client{peers: make([]*rest.Client, len(urls))}
	for i, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, errors.E("locality", raw, errors.BadParameter, err)
		}
		if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
			u.Path += "/"
		}
		c.peers[i] = rest.NewClient(httpClient, u, log)
	}
	return c, nil
}

func (c *Client) peer(name string, locality int) (*rest.Client, error) {
	if locality < 0 || locality >= len(c.peers) {
		return nil, errors.E("locality", name, errors.NotExist, errors.Errorf("no locality %d", locality))
	}
	return c.peers[locality], nil
}

// Info retrieves the identity of the given locality.
func (c *Client) Info(ctx context.Context, locality int) (Info, error) {
	var info Info
	p, err := c.peer("info", locality)
	if err != nil {
		return info, err
	}
	call := p.Call("GET", "v1/locality")
	defer call.Close()
	code, err := call.Do(ctx, nil)
	if err != nil {
		return info, errors.E("info", fmt.Sprint(locality), err)
	}
	if code != http.StatusOK {
		return info, call.Error()
	}
	err = call.Unmarshal(&info)
	return info, err
}

// Annotation implements Transport.
func (c *Client) Annotation(ctx context.Context, name string, locality int) (tiling.Annotation, error) {
	key := fmt.Sprintf("annotation %s %d", name, locality)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		p, err := c.peer(name, locality)
		if err != nil {
			return nil, err
		}
		call := p.Call("GET", "v1/tiles/%s/annotation", url.PathEscape(name))
		defer call.Close()
		code, err := call.Do(ctx, nil)
		if err != nil {
			return nil, errors.E("annotation", name, err)
		}
		if code != http.StatusOK {
			return nil, call.Error()
		}
		var a tiling.Annotation
		if err := call.Unmarshal(&a); err != nil {
			return nil, errors.E("annotation", name, errors.Net, err)
		}
		return a, nil
	})
	if err != nil {
		return tiling.Annotation{}, err
	}
	return v.(tiling.Annotation), nil
}

// Fetch implements Transport.
func (c *Client) Fetch(ctx context.Context, name string, locality int, region tiling.Region) (*values.Array, error) {
	key := fmt.Sprintf("fetch %s %d %v", name, locality, region)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		p, err := c.peer(name, locality)
		if err != nil {
			return nil, err
		}
		call := p.Call("POST", "v1/tiles/%s/fetch", url.PathEscape(name))
		defer call.Close()
		code, err := call.DoJSON(ctx, region)
		if err != nil {
			return nil, errors.E("fetch", name, err)
		}
		if code != http.StatusOK {
			return nil, call.Error()
		}
		var reply arrayReply
		if err := call.Unmarshal(&reply); err != nil {
			return nil, errors.E("fetch", name, errors.Net, err)
		}
		if values.Size(reply.Shape) != len(reply.Data) {
			return nil, errors.E("fetch", name, errors.Net,
				errors.Errorf("reply of shape %v carries %d elements", reply.Shape, len(reply.Data)))
		}
		return values.NewArray(reply.Shape, reply.Data), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*values.Array), nil
}
