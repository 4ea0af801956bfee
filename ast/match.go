// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package ast

// Match tells whether the candidate expression e matches pattern p.
// Placeholders (_1, _2, ...) in p match any subtree of e; ellipsis
// placeholders (__1, __2, ...) in the last argument position of a
// call (or the last operand of a binary chain) match any number of
// trailing subtrees. For every resolved placeholder, fn is invoked
// with the placeholder and the subtree bound to it, in left-to-right
// order; an ellipsis placeholder produces one invocation per bound
// subtree. fn may be nil.
//
// A mismatch of any kind (kind, arity, literal value) returns false.
// Bindings reported before a failure are not retracted; callers
// that need atomicity should collect into a Bindings and discard it
// on failure.
func Match(e, p *Expr, fn func(placeholder, value *Expr)) bool {
	if fn == nil {
		fn = func(*Expr, *Expr) {}
	}
	return match(e, p, fn)
}

func match(e, p *Expr, fn func(placeholder, value *Expr)) bool {
	if p.Placeholder() {
		fn(p, e)
		return true
	}
	if e == nil || p == nil {
		return e == p
	}
	if e.Kind != p.Kind {
		return false
	}
	switch p.Kind {
	case ExprBool, ExprInt, ExprFloat, ExprString, ExprIdent:
		return e.Equal(p)
	case ExprArray:
		return e.Equal(p)
	case ExprUnary:
		return e.Op == p.Op && match(e.Left, p.Left, fn)
	case ExprBinary:
		if !match(e.Left, p.Left, fn) {
			return false
		}
		n := len(p.List)
		if n > 0 && p.List[n-1].Ellipsis() {
			if len(e.List) < n-1 {
				return false
			}
			for i := 0; i < n-1; i++ {
				if e.Ops[i] != p.Ops[i] || !match(e.List[i], p.List[i], fn) {
					return false
				}
			}
			for i := n - 1; i < len(e.List); i++ {
				if e.Ops[i] != p.Ops[n-1] {
					return false
				}
				fn(p.List[n-1], e.List[i])
			}
			return true
		}
		if len(e.List) != n {
			return false
		}
		for i := range p.List {
			if e.Ops[i] != p.Ops[i] || !match(e.List[i], p.List[i], fn) {
				return false
			}
		}
		return true
	case ExprCall:
		if e.Ident != p.Ident {
			return false
		}
		if p.Attr != "" && e.Attr != p.Attr {
			return false
		}
		return matchList(e.List, p.List, fn)
	case ExprList:
		return matchList(e.List, p.List, fn)
	}
	return false
}

func matchList(l, pl []*Expr, fn func(placeholder, value *Expr)) bool {
	n := len(pl)
	if n > 0 && pl[n-1].Ellipsis() {
		if len(l) < n-1 {
			return false
		}
		for i := 0; i < n-1; i++ {
			if !match(l[i], pl[i], fn) {
				return false
			}
		}
		for _, e := range l[n-1:] {
			fn(pl[n-1], e)
		}
		return true
	}
	if len(l) != n {
		return false
	}
	for i := range pl {
		if !match(l[i], pl[i], fn) {
			return false
		}
	}
	return true
}

// Bindings is an ordered multimap of placeholder bindings, as
// collected by Match.
type Bindings struct {
	names  []string
	values map[string][]*Expr
}

// Bind records a binding; it is suitable as a Match callback.
func (b *Bindings) Bind(placeholder, value *Expr) {
	if b.values == nil {
		b.values = make(map[string][]*Expr)
	}
	name := placeholder.Ident
	if _, ok := b.values[name]; !ok {
		b.names = append(b.names, name)
	}
	b.values[name] = append(b.values[name], value)
}

// Names returns the bound placeholder names in order of first binding.
func (b *Bindings) Names() []string {
	return b.names
}

// Get returns the values bound to the named placeholder.
func (b *Bindings) Get(name string) []*Expr {
	return b.values[name]
}

// Len returns the total number of bindings.
func (b *Bindings) Len() int {
	var n int
	for _, v := range b.values {
		n += len(v)
	}
	return n
}
