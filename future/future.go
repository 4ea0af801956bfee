// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package future implements a channel-enabled, one-shot asynchronous
// result. A Future completes exactly once, with either a value or an
// error; any number of goroutines may wait for it.
package future

import (
	"context"
	"sync"

	"github.com/grailbio/phylanx/values"
)

// A Future is the eventual result of an asynchronous evaluation. The
// zero Future is pending; it is completed by Set.
type Future struct {
	mu    sync.Mutex
	done  bool
	doneC chan struct{}
	val   values.T
	err   error
}

// New returns a new pending future.
func New() *Future {
	return new(Future)
}

// Go runs fn in a new goroutine and returns a future for its result.
func Go(fn func() (values.T, error)) *Future {
	f := New()
	go func() {
		f.Set(fn())
	}()
	return f
}

// Ready returns a future completed with v.
func Ready(v values.T) *Future {
	f := New()
	f.Set(v, nil)
	return f
}

// Failed returns a future completed with err.
func Failed(err error) *Future {
	f := New()
	f.Set(nil, err)
	return f
}

// Set completes the future. Set panics if the future was already
// completed.
func (f *Future) Set(v values.T, err error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		panic("future: completed twice")
	}
	f.done = true
	f.val, f.err = v, err
	c := f.doneC
	f.mu.Unlock()
	if c != nil {
		close(c)
	}
}

// Done returns a channel that is closed when the future completes.
func (f *Future) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		c := make(chan struct{})
		close(c)
		return c
	}
	if f.doneC == nil {
		f.doneC = make(chan struct{})
	}
	return f.doneC
}

// Ready tells whether the future has completed.
func (f *Future) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Get waits for the future to complete and returns its result. Get
// returns early with the context's error if the context is done
// first. Get blocks the calling goroutine; evaluation code should
// compose futures rather than wait on them.
func (f *Future) Get(ctx context.Context) (values.T, error) {
	select {
	case <-f.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val, f.err
}

// All waits for all of the provided futures and returns their values
// in order. It returns the first error, in argument order, of any
// failed future.
func All(ctx context.Context, fs ...*Future) ([]values.T, error) {
	vals := make([]values.T, len(fs))
	for i, f := range fs {
		v, err := f.Get(ctx)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
