// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package compiler

import (
	"sort"
	"sync"

	"github.com/grailbio/base/sync/once"
	"github.com/grailbio/phylanx/primitive"
)

// Snippets is the cache of compiled snippets. Each snippet name is
// compiled at most once; later compiles of the same name return the
// cached entry point (or the original compile error). Snippets also
// hands out compile ids and per-primitive sequence numbers, and
// indexes every primitive instance created through it by name.
type Snippets struct {
	once once.Map

	mu         sync.Mutex
	entries    map[string]*EntryPoint
	compileID  int64
	sequences  map[string]int64
	primitives map[string]primitive.Primitive
	names      []string
}

// NewSnippets returns a new, empty snippet cache.
func NewSnippets() *Snippets {
	return &Snippets{
		entries:    make(map[string]*EntryPoint),
		sequences:  make(map[string]int64),
		primitives: make(map[string]primitive.Primitive),
	}
}

// Lookup returns the entry point compiled under the given name.
func (s *Snippets) Lookup(name string) (*EntryPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	return e, ok
}

// Snippets returns the names of the compiled snippets, sorted.
func (s *Snippets) Snippets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Names returns the names of all primitive instances created through
// the cache, in creation order.
func (s *Snippets) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// Primitive returns the primitive instance with the given name.
func (s *Snippets) Primitive(name string) (primitive.Primitive, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.primitives[name]
	return p, ok
}

func (s *Snippets) nextCompileID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.compileID
	s.compileID++
	return id
}

func (s *Snippets) nextSequence(prim string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.sequences[prim]
	s.sequences[prim]++
	return seq
}

func (s *Snippets) register(name string, p primitive.Primitive) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.primitives[name] = p
	s.names = append(s.names, name)
}

func (s *Snippets) set(name string, e *EntryPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = e
}
