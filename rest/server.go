// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package rest provides a small framework for serving and accessing
// hierarchical, resource-based APIs. A server exports a tree of
// nodes; a request walks the tree along its URL path and the node at
// the end of the path services the call. Existence checks thus happen
// while walking: a node that does not exist is never reached.
//
// Replies and errors are JSON-encoded. Errors are encoded as
// *errors.Error so that their kinds survive the round trip to the
// client.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
	"strings"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/log"
)

// Call is an incoming call being serviced. A Call tracks the reply
// (or failure) until the handler flushes it to the client.
type Call struct {
	writer http.ResponseWriter
	req    *http.Request
	err    error
	code   int
	reply  interface{}
	done   bool
	log    *log.Logger
}

// Allow admits a set of methods to this call. If the call's method
// is not among them, Allow fails the call with
// http.StatusMethodNotAllowed and returns false.
func (c *Call) Allow(methods ...string) bool {
	for _, m := range methods {
		if c.req.Method == m {
			return true
		}
	}
	c.code = http.StatusMethodNotAllowed
	c.reply = errors.E(c.req.Method, c.req.URL.String(), errors.NotSupported)
	return false
}

// Write replies to the call with the given code and the contents of r.
func (c *Call) Write(code int, r io.Reader) error {
	c.code = code
	c.writer.WriteHeader(c.code)
	_, err := io.Copy(c.writer, r)
	c.done = true
	return err
}

// Method returns the call's HTTP method.
func (c *Call) Method() string {
	return c.req.Method
}

// URL returns the call's URL.
func (c *Call) URL() *url.URL {
	return c.req.URL
}

// Done tells whether the call has been replied to or has failed.
func (c *Call) Done() bool {
	return c.err != nil || c.code != 0
}

// Err returns the call's error, if any.
func (c *Call) Err() error {
	return c.err
}

// Error fails the call with err. The HTTP status is derived from the
// error's kind.
func (c *Call) Error(err error) {
	c.err = err
}

// Unmarshal decodes the call's JSON request body into v. On failure
// the call is failed with http.StatusBadRequest.
func (c *Call) Unmarshal(v interface{}) error {
	err := json.NewDecoder(c.req.Body).Decode(v)
	if err != nil {
		c.code = http.StatusBadRequest
		c.reply = errors.E("unmarshal", fmt.Sprintf("%T", v), errors.BadParameter, err)
	}
	return err
}

// Reply replies to the call with the given code and JSON-encoded
// reply. Reply is a no-op if the call is already done.
func (c *Call) Reply(code int, reply interface{}) {
	if c.Done() {
		return
	}
	c.code, c.reply = code, reply
}

func (c *Call) flush() {
	if c.done || c.Method() == "HEAD" {
		return
	}
	var (
		code  int
		reply interface{}
	)
	switch {
	case c.err != nil:
		code, reply = errorToHTTP(c.err)
	case c.code == 0:
		code, reply = errorToHTTP(errors.New("server failed to respond"))
	default:
		code, reply = c.code, c.reply
	}
	if c.log.At(log.DebugLevel) {
		c.log.Debugf("response %d %v", code, reply)
	}
	c.writer.Header().Set("Content-Type", "application/json; charset=UTF-8")
	c.writer.WriteHeader(code)
	if reply == nil {
		return
	}
	if err := json.NewEncoder(c.writer).Encode(reply); err != nil {
		c.log.Errorf("encode %v: %v", c.req.URL, err)
	}
}

// Node is a node in a REST resource tree.
type Node interface {
	// Walk returns the child node named path, or nil if there is no
	// such child. Walk may fail the call.
	Walk(ctx context.Context, call *Call, path string) Node

	// Do services a call on this node. The call must be serviced by the
	// time Do returns.
	Do(ctx context.Context, call *Call)
}

// Mux is a node multiplexer.
type Mux map[string]Node

// Walk returns the entry path in Mux.
func (m Mux) Walk(ctx context.Context, call *Call, path string) Node {
	return m[path]
}

// Do replies to the call with http.StatusNotFound.
func (m Mux) Do(ctx context.Context, call *Call) {
	call.Reply(http.StatusNotFound, nil)
}

// WalkFunc adapts a function into a node that has only children.
type WalkFunc func(string) Node

// Walk invokes f.
func (f WalkFunc) Walk(ctx context.Context, call *Call, path string) Node { return f(path) }

// Do replies to the call with http.StatusNotFound.
func (f WalkFunc) Do(ctx context.Context, call *Call) { call.Reply(http.StatusNotFound, nil) }

// DoFunc adapts a function into a leaf node.
type DoFunc func(context.Context, *Call)

// Walk returns nil.
func (f DoFunc) Walk(ctx context.Context, call *Call, path string) Node {
	return nil
}

// Do invokes f.
func (f DoFunc) Do(ctx context.Context, call *Call) { f(ctx, call) }

type nodeHandler struct {
	root Node
	log  *log.Logger
}

// Handler returns an http.Handler that serves the node tree rooted at
// root. Requests for paths that do not name a node fail with
// http.StatusNotFound.
func Handler(root Node, log *log.Logger) http.Handler {
	return &nodeHandler{root, log}
}

func (h *nodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.log.At(log.DebugLevel) {
		if b, err := httputil.DumpRequest(r, true); err == nil {
			h.log.Debugf("request %s", string(b))
		}
	}
	ctx := r.Context()
	call := &Call{writer: w, req: r, log: h.log}
	defer call.flush()
	p := path.Clean(r.URL.Path)
	n := h.root
	for _, e := range strings.Split(p, "/") {
		if e == "" {
			continue
		}
		n = n.Walk(ctx, call, e)
		if call.Done() {
			return
		}
		if n == nil {
			call.Reply(http.StatusNotFound, errors.E("servehttp", p, e, errors.NotExist))
			return
		}
	}
	n.Do(ctx, call)
}

func errorToHTTP(err error) (code int, reply interface{}) {
	e := errors.Recover(err)
	return e.HTTPStatus(), e
}
