// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package primitive

import (
	"sort"
	"strings"

	"github.com/grailbio/phylanx/ast"
	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/parser"
	"github.com/grailbio/phylanx/values"
)

// Factory creates a primitive from its compiled operands, its
// composed name, and the codename of the compile unit.
type Factory func(operands []values.T, name, codename string) (Primitive, error)

// Match is a catalogue entry: a primitive type, the signatures that
// resolve to it, and its factory.
//
// A signature is a PhySL expression in which placeholders (_1, _2,
// ...) stand for single operands and an ellipsis placeholder (__1) in
// the last position stands for any number of trailing operands, e.g.,
// "if(_1, _2, _3)", "_1 + __2", or "-_1". A call signature's formal
// may be written __arg(_N_name, default): the operand is then optional
// (taking the default when omitted) and may be passed by name, as in
// f(x, name=value).
type Match struct {
	// Name is the primitive type name.
	Name string
	// Patterns are the signatures that resolve to the primitive, in
	// order of preference.
	Patterns []string
	// Create is the primitive's factory.
	Create Factory
	// Help is a short description of the primitive.
	Help string
}

// Pattern is a parsed signature.
type Pattern struct {
	// Match is the catalogue entry the pattern belongs to.
	Match *Match
	// Source is the signature as written.
	Source string
	// Expr is the signature with __arg formals replaced by their
	// placeholders.
	Expr *ast.Expr

	formals  []formal
	variadic bool
}

// A formal is an optional or named formal of a call signature.
type formal struct {
	name string
	def  *ast.Expr
}

// Catalogue is an immutable index of catalogue entries by head: a
// call's function name, a binary chain's operator, or a unary
// expression's operator. Patterns sharing a head are tried in
// registration order and the first that matches wins.
type Catalogue struct {
	heads   map[string][]*Pattern
	matches []*Match
}

// NewCatalogue aggregates the provided tables, in order, into a
// catalogue. All patterns are parsed up front; a malformed pattern or
// a duplicate primitive name is an error.
func NewCatalogue(tables ...[]Match) (*Catalogue, error) {
	c := &Catalogue{heads: make(map[string][]*Pattern)}
	seen := make(map[string]bool)
	for _, table := range tables {
		for i := range table {
			m := &table[i]
			if seen[m.Name] {
				return nil, errors.E("catalogue", m.Name, errors.InvalidStatus, errors.New("duplicate primitive"))
			}
			seen[m.Name] = true
			if m.Create == nil {
				return nil, errors.E("catalogue", m.Name, errors.InvalidStatus, errors.New("missing factory"))
			}
			c.matches = append(c.matches, m)
			for _, src := range m.Patterns {
				p, err := newPattern(m, src)
				if err != nil {
					return nil, errors.E("catalogue", m.Name, errors.InvalidStatus, err)
				}
				head := Head(p.Expr)
				if head == "" {
					return nil, errors.E("catalogue", m.Name, errors.InvalidStatus,
						errors.Errorf("pattern %q is not a call or operator expression", src))
				}
				c.heads[head] = append(c.heads[head], p)
			}
		}
	}
	return c, nil
}

// MustCatalogue is like NewCatalogue, but panics on error.
func MustCatalogue(tables ...[]Match) *Catalogue {
	c, err := NewCatalogue(tables...)
	if err != nil {
		panic(err)
	}
	return c
}

func newPattern(m *Match, src string) (*Pattern, error) {
	e, err := parser.ParsePattern(src)
	if err != nil {
		return nil, err
	}
	p := &Pattern{Match: m, Source: src, Expr: e}
	if e.Kind != ast.ExprCall {
		return p, nil
	}
	if n := len(e.List); n > 0 && e.List[n-1].Ellipsis() {
		p.variadic = true
	}
	var optional bool
	for i, arg := range e.List {
		if arg.Kind != ast.ExprCall || arg.Ident != "__arg" {
			if optional {
				return nil, errors.Errorf("pattern %q: required formal follows an optional one", src)
			}
			p.formals = append(p.formals, formal{name: formalName(arg)})
			continue
		}
		if len(arg.List) != 2 || !arg.List[0].Placeholder() {
			return nil, errors.Errorf("pattern %q: malformed __arg formal", src)
		}
		optional = true
		p.formals = append(p.formals, formal{name: formalName(arg.List[0]), def: arg.List[1]})
		e.List[i] = arg.List[0]
	}
	return p, nil
}

// formalName returns the name of a placeholder formal written _N_name,
// or "" if it has none.
func formalName(e *ast.Expr) string {
	if !e.Placeholder() {
		return ""
	}
	id := strings.TrimLeft(e.Ident[1:], "0123456789")
	if !strings.HasPrefix(id, "_") {
		return ""
	}
	return id[1:]
}

// Head returns the catalogue key of the expression e, or "" if e
// cannot be resolved through the catalogue.
func Head(e *ast.Expr) string {
	switch e.Kind {
	case ast.ExprCall:
		return e.Ident
	case ast.ExprBinary:
		return e.Ops[0]
	case ast.ExprUnary:
		return "unary" + e.Op
	}
	return ""
}

// Has tells whether any pattern has the given head.
func (c *Catalogue) Has(head string) bool {
	return len(c.heads[head]) > 0
}

// Lookup resolves the expression e against the catalogue. It returns
// the first pattern matching e, in registration order, together with
// the placeholder bindings. Bindings are ordered by placeholder, and
// omitted optional operands are bound to their defaults.
func (c *Catalogue) Lookup(e *ast.Expr) (*Pattern, *ast.Bindings, bool) {
	for _, p := range c.heads[Head(e)] {
		cand, ok := p.normalize(e)
		if !ok {
			continue
		}
		b := new(ast.Bindings)
		if ast.Match(cand, p.Expr, b.Bind) {
			return p, b, true
		}
	}
	return nil, nil, false
}

// normalize rewrites a call's arguments into the positional order of
// the pattern's formals: positional arguments first, then named
// arguments (__arg(name, value)) in the slots of the formals with
// those names, then defaults for omitted optional formals.
func (p *Pattern) normalize(e *ast.Expr) (*ast.Expr, bool) {
	if e.Kind != ast.ExprCall || len(p.formals) == 0 || p.variadic {
		return e, true
	}
	if !hasNamed(e) && len(e.List) >= len(p.formals) {
		return e, true
	}
	var (
		args  = make([]*ast.Expr, len(p.formals))
		i     int
		named bool
	)
	for _, arg := range e.List {
		if arg.Kind == ast.ExprCall && arg.Ident == "__arg" && len(arg.List) == 2 && arg.List[0].Kind == ast.ExprIdent {
			named = true
			j := p.formal(arg.List[0].Ident)
			if j < 0 || args[j] != nil {
				return nil, false
			}
			args[j] = arg.List[1]
			continue
		}
		if named || i >= len(args) {
			return nil, false
		}
		args[i] = arg
		i++
	}
	for j := range args {
		if args[j] != nil {
			continue
		}
		if p.formals[j].def == nil {
			return nil, false
		}
		args[j] = p.formals[j].def.Copy()
	}
	n := *e
	n.List = args
	return &n, true
}

func (p *Pattern) formal(name string) int {
	for i, f := range p.formals {
		if f.name == name {
			return i
		}
	}
	return -1
}

func hasNamed(e *ast.Expr) bool {
	for _, arg := range e.List {
		if arg.Kind == ast.ExprCall && arg.Ident == "__arg" {
			return true
		}
	}
	return false
}

// Matches returns the catalogue's entries, in registration order.
func (c *Catalogue) Matches() []*Match {
	return c.matches
}

// Entry returns the catalogue entry for the named primitive type.
func (c *Catalogue) Entry(name string) (*Match, bool) {
	for _, m := range c.matches {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Heads returns the catalogue's heads, sorted.
func (c *Catalogue) Heads() []string {
	heads := make([]string, 0, len(c.heads))
	for h := range c.heads {
		heads = append(heads, h)
	}
	sort.Strings(heads)
	return heads
}
