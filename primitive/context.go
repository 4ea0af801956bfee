// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package primitive

import (
	"sync"

	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/values"
)

// Context carries cross-call evaluation state: the locality on which
// evaluation proceeds, the logger, the loop nesting depth, and the
// chain of lexical frames of the enclosing function invocations.
// Contexts are immutable; derived contexts are created by WithFrame
// and InLoop.
type Context struct {
	// Locality is the locality on which evaluation proceeds.
	Locality *locality.Locality
	// Log receives diagnostic output, e.g., from debug().
	Log *log.Logger

	depth int
	frame *Frame
}

// NewContext returns a new root context. A nil locality means a
// single, standalone locality.
func NewContext(l *locality.Locality, log *log.Logger) *Context {
	if l == nil {
		l = locality.Single()
	}
	return &Context{Locality: l, Log: log, frame: new(Frame)}
}

// Run returns a context for running an entry point with the given
// arguments: its frame is a new outermost frame.
func (ec *Context) Run(args []values.T) *Context {
	return ec.WithFrame(&Frame{Args: args})
}

// WithFrame returns a context whose innermost frame is f.
func (ec *Context) WithFrame(f *Frame) *Context {
	c := *ec
	c.frame = f
	return &c
}

// Frame returns the frame up levels out from the innermost one.
func (ec *Context) Frame(up int) *Frame {
	f := ec.frame
	for ; up > 0 && f != nil; up-- {
		f = f.parent
	}
	return f
}

// InLoop returns a context for the body of a loop.
func (ec *Context) InLoop() *Context {
	c := *ec
	c.depth++
	return &c
}

// Depth returns the loop nesting depth.
func (ec *Context) Depth() int {
	return ec.depth
}

// Frame is the activation record of a function invocation: its
// arguments and the storage of the variables defined within it.
// Frames are chained lexically: a function's frame's parent is the
// frame in which the function value was created.
type Frame struct {
	// Args are the invocation's arguments.
	Args []values.T

	parent *Frame
	mu     sync.Mutex
	vars   map[*Variable]values.T
}

// NewFrame returns a new frame holding args, nested in parent.
func NewFrame(args []values.T, parent *Frame) *Frame {
	return &Frame{Args: args, parent: parent}
}

// Get returns the value of variable v in this frame.
func (f *Frame) Get(v *Variable) (values.T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.vars[v]
	return val, ok
}

// Set sets the value of variable v in this frame.
func (f *Frame) Set(v *Variable, val values.T) {
	f.mu.Lock()
	if f.vars == nil {
		f.vars = make(map[*Variable]values.T)
	}
	f.vars[v] = val
	f.mu.Unlock()
}
