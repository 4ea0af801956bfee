// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package compiler

import (
	"github.com/grailbio/phylanx/primitive"
	"src.elv.sh/pkg/persistent/vector"
)

// Binding is the binding of a name in an environment: either a
// variable or function introduced by define, or a formal parameter
// of an enclosing function.
type Binding struct {
	// Name is the bound identifier.
	Name string
	// Level is the function nesting level at which the name was
	// bound; 0 is the top level of a compile unit.
	Level int
	// Var is the variable bound by define, or nil for arguments.
	Var *primitive.Variable
	// Func is the function bound by a function define, if any. It is
	// used to resolve named arguments in calls.
	Func *primitive.Function
	// Index is the position of an argument binding among its
	// function's formal parameters.
	Index int
}

// Env is a lexical environment: a chain of bindings together with the
// current function nesting level. Environments are persistent: Bind
// and Push return new environments and leave the receiver unchanged,
// so that an environment may be captured and shared freely.
type Env struct {
	bindings vector.Vector
	level    int
}

// NewEnv returns an empty environment.
func NewEnv() Env {
	return Env{bindings: vector.Empty}
}

func (e Env) vec() vector.Vector {
	if e.bindings == nil {
		return vector.Empty
	}
	return e.bindings
}

// Bind returns an environment in which b is bound at the current
// level, shadowing any earlier binding of the same name.
func (e Env) Bind(b Binding) Env {
	b.Level = e.level
	return Env{bindings: e.vec().Conj(b), level: e.level}
}

// Push returns an environment for the body of a function nested in e.
func (e Env) Push() Env {
	return Env{bindings: e.vec(), level: e.level + 1}
}

// Level returns the environment's function nesting level.
func (e Env) Level() int {
	return e.level
}

// Lookup returns the innermost binding of name, together with the
// number of function levels between the binding and the current
// level.
func (e Env) Lookup(name string) (Binding, int, bool) {
	v := e.vec()
	for i := v.Len() - 1; i >= 0; i-- {
		x, _ := v.Index(i)
		if b := x.(Binding); b.Name == name {
			return b, e.level - b.Level, true
		}
	}
	return Binding{}, 0, false
}

// Names returns the names visible in the environment, innermost
// first.
func (e Env) Names() []string {
	var (
		v     = e.vec()
		names []string
		seen  = make(map[string]bool)
	)
	for i := v.Len() - 1; i >= 0; i-- {
		x, _ := v.Index(i)
		name := x.(Binding).Name
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
