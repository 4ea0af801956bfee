// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/log"
	"golang.org/x/net/context/ctxhttp"
)

// Client is a REST client rooted at a base URL.
type Client struct {
	url    *url.URL
	client *http.Client
	log    *log.Logger
}

// NewClient returns a new REST client given an HTTP client and root
// URL. A nil HTTP client means http.DefaultClient.
func NewClient(client *http.Client, u *url.URL, log *log.Logger) *Client {
	return &Client{client: client, url: u, log: log}
}

// Walk returns a client rooted at the reference resolved from the
// formatted string relative to c's root.
func (c *Client) Walk(format string, args ...interface{}) (*Client, error) {
	u, err := url.Parse(fmt.Sprintf(format, args...))
	if err != nil {
		return nil, err
	}
	return &Client{url: c.url.ResolveReference(u), client: c.client, log: c.log}, nil
}

// URL returns the client's root URL.
func (c *Client) URL() *url.URL { return c.url }

// Call constructs a ClientCall with the given method and path,
// relative to the client's root URL. Path elements are not escaped;
// callers escape components with url.PathEscape.
func (c *Client) Call(method, format string, args ...interface{}) *ClientCall {
	return &ClientCall{Client: c, Header: http.Header{}, method: method, path: fmt.Sprintf(format, args...)}
}

// ClientCall is a single call. ClientCalls must be closed to
// relinquish their resources:
//
//	call := client.Call(...)
//	defer call.Close()
type ClientCall struct {
	*Client
	Header http.Header
	method string
	path   string
	resp   *http.Response
	err    error
}

// Err returns the call's error, if any.
func (c *ClientCall) Err() error {
	return c.err
}

// Error decodes the error carried by the call's (failed) reply.
func (c *ClientCall) Error() *errors.Error {
	err := new(errors.Error)
	if err := c.Unmarshal(err); err != nil {
		return errors.Recover(err)
	}
	return err
}

// Do performs the call with the given context and body. It returns
// the reply's HTTP status code, or an error if the call could not be
// completed. Transport failures are of kind errors.Net.
func (c *ClientCall) Do(ctx context.Context, body io.Reader) (int, error) {
	var r *http.Request
	r, c.err = http.NewRequest(c.method, "", body)
	if c.err != nil {
		return 0, c.err
	}
	u, err := url.Parse(c.path)
	if err != nil {
		c.err = errors.E(c.method, c.path, errors.BadParameter, err)
		return 0, c.err
	}
	r.URL = c.url.ResolveReference(u)
	r.Header = c.Header
	if c.log.At(log.DebugLevel) {
		if b, err := httputil.DumpRequest(r, true); err == nil {
			c.log.Debugf("request %s", string(b))
		}
	}
	client := c.client
	if client == nil {
		client = http.DefaultClient
	}
	c.resp, err = ctxhttp.Do(ctx, client, r)
	switch err {
	case nil:
		c.err = nil
	case context.Canceled, context.DeadlineExceeded:
		c.err = errors.Recover(err)
	default:
		c.err = errors.E(c.method, r.URL.String(), errors.Net, err)
	}
	if c.resp == nil {
		if c.log.At(log.DebugLevel) {
			c.log.Debugf("response error %s", c.err)
		}
		return 0, c.err
	}
	if c.log.At(log.DebugLevel) {
		c.log.Debugf("response %s %s: %s", c.method, r.URL, c.resp.Status)
	}
	return c.resp.StatusCode, c.err
}

// DoJSON is like Do, except the request req is JSON-encoded.
func (c *ClientCall) DoJSON(ctx context.Context, req interface{}) (int, error) {
	var body io.Reader
	if req != nil {
		b := new(bytes.Buffer)
		if c.err = json.NewEncoder(b).Encode(req); c.err != nil {
			return 0, c.err
		}
		body = b
	}
	return c.Do(ctx, body)
}

// Unmarshal decodes the call's JSON reply into reply.
func (c *ClientCall) Unmarshal(reply interface{}) error {
	if c.err != nil {
		return c.err
	}
	if reply != nil {
		c.err = json.NewDecoder(c.resp.Body).Decode(reply)
	}
	return c.err
}

// Close relinquishes resources associated with the call.
func (c *ClientCall) Close() error {
	if c.resp != nil {
		return c.resp.Body.Close()
	}
	return nil
}
