// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package ast defines the abstract syntax tree of PhySL programs and
// the pattern matcher used to resolve calls against the primitive
// catalogue.
//
// An AST is a strict tree of *Expr nodes: every node owns its
// children and no node is shared between two parents. The tree is
// produced once by the parser, rewritten once by AssignCompileIDs,
// and from then on consumed read-only.
package ast

import (
	"text/scanner"
)

// Unset is the value of an unset source tag.
const Unset = -1

// ExprKind is the kind of an expression.
type ExprKind int

const (
	// ExprError indicates an erroneous expression (e.g., through a parse error).
	ExprError ExprKind = iota
	// ExprBool is a boolean literal.
	ExprBool
	// ExprInt is an integer literal.
	ExprInt
	// ExprFloat is a real literal.
	ExprFloat
	// ExprString is a string literal.
	ExprString
	// ExprArray is a typed literal array (vector, matrix, or tensor).
	// Its List holds either the numeric elements (vectors) or nested
	// ExprArray rows.
	ExprArray
	// ExprIdent is an identifier.
	ExprIdent
	// ExprUnary is a unary expression.
	ExprUnary
	// ExprBinary is a left-to-right chain of binary operations: Left
	// is the first operand, and Ops[i] combines the result so far
	// with List[i].
	ExprBinary
	// ExprCall is a function call.
	ExprCall
	// ExprList is a quoted list literal.
	ExprList

	maxExpr
)

var kindNames = [maxExpr]string{
	ExprError:  "error",
	ExprBool:   "bool",
	ExprInt:    "int",
	ExprFloat:  "float",
	ExprString: "string",
	ExprArray:  "array",
	ExprIdent:  "identifier",
	ExprUnary:  "unary",
	ExprBinary: "binary",
	ExprCall:   "call",
	ExprList:   "list",
}

// String returns the name of the kind.
func (k ExprKind) String() string {
	if k < 0 || k >= maxExpr {
		return "unknown"
	}
	return kindNames[k]
}

// An Expr is a node in the PhySL AST.
type Expr struct {
	// Position is the raw source position of the node, as set by the
	// parser.
	scanner.Position

	// Tag1 and Tag2 carry source-position (or compile-time ordinal)
	// information used for diagnostics and for naming the primitive
	// instances created from this node. Both default to Unset.
	Tag1, Tag2 int64

	// Kind is the expression's kind; see above.
	Kind ExprKind

	// Bool stores the value of an ExprBool.
	Bool bool
	// Int stores the value of an ExprInt.
	Int int64
	// Float stores the value of an ExprFloat.
	Float float64
	// Str stores the value of an ExprString.
	Str string

	// Ident is the identifier of an ExprIdent and the function name
	// of an ExprCall.
	Ident string
	// Attr is the optional attribute string of an ExprCall,
	// written f{attr}(...).
	Attr string

	// Op is the operator of an ExprUnary.
	Op string
	// Ops are the operators of an ExprBinary; len(Ops) == len(List).
	Ops []string

	// Left is the operand of an ExprUnary and the first operand of an
	// ExprBinary.
	Left *Expr

	// List holds call arguments (ExprCall), list elements (ExprList),
	// array elements (ExprArray), and the right-hand operands of an
	// ExprBinary.
	List []*Expr

	paren bool
}

// Parenthesized tells whether the expression was enclosed in
// parentheses in the source.
func (e *Expr) Parenthesized() bool { return e.paren }

// SetParenthesized marks the expression as parenthesized.
func (e *Expr) SetParenthesized() { e.paren = true }

func newExpr(kind ExprKind) *Expr {
	return &Expr{Kind: kind, Tag1: Unset, Tag2: Unset}
}

// NewBool returns a boolean literal.
func NewBool(b bool) *Expr {
	e := newExpr(ExprBool)
	e.Bool = b
	return e
}

// NewInt returns an integer literal.
func NewInt(i int64) *Expr {
	e := newExpr(ExprInt)
	e.Int = i
	return e
}

// NewFloat returns a real literal.
func NewFloat(f float64) *Expr {
	e := newExpr(ExprFloat)
	e.Float = f
	return e
}

// NewString returns a string literal.
func NewString(s string) *Expr {
	e := newExpr(ExprString)
	e.Str = s
	return e
}

// NewIdent returns an identifier.
func NewIdent(id string) *Expr {
	e := newExpr(ExprIdent)
	e.Ident = id
	return e
}

// NewUnary returns a unary expression.
func NewUnary(op string, operand *Expr) *Expr {
	e := newExpr(ExprUnary)
	e.Op = op
	e.Left = operand
	return e
}

// NewBinary returns a binary chain first op1 op2 ... where operators
// and operands alternate in rest: NewBinary(a, "+", b, "+", c).
func NewBinary(first *Expr, rest ...interface{}) *Expr {
	if len(rest)%2 != 0 {
		panic("ast.NewBinary: unbalanced operator/operand list")
	}
	e := newExpr(ExprBinary)
	e.Left = first
	for i := 0; i < len(rest); i += 2 {
		e.Ops = append(e.Ops, rest[i].(string))
		e.List = append(e.List, rest[i+1].(*Expr))
	}
	return e
}

// NewCall returns a call of the named function.
func NewCall(fn string, args ...*Expr) *Expr {
	e := newExpr(ExprCall)
	e.Ident = fn
	e.List = args
	return e
}

// NewList returns a quoted list literal.
func NewList(elems ...*Expr) *Expr {
	e := newExpr(ExprList)
	e.List = elems
	return e
}

// NewArray returns a literal array with the given elements, which
// must be numeric literals or nested arrays of equal shape.
func NewArray(elems ...*Expr) *Expr {
	e := newExpr(ExprArray)
	e.List = elems
	return e
}

// Placeholder tells whether e is a single-valued pattern placeholder
// (an identifier of the form _N...).
func (e *Expr) Placeholder() bool {
	return e.Kind == ExprIdent && isPlaceholder(e.Ident)
}

// Ellipsis tells whether e is an ellipsis pattern placeholder (an
// identifier of the form __N...).
func (e *Expr) Ellipsis() bool {
	return e.Kind == ExprIdent && isEllipsis(e.Ident)
}

func isPlaceholder(id string) bool {
	return len(id) > 1 && id[0] == '_' && isDigit(id[1])
}

func isEllipsis(id string) bool {
	return len(id) > 2 && id[0] == '_' && id[1] == '_' && isDigit(id[2])
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// Literal tells whether e is a scalar literal.
func (e *Expr) Literal() bool {
	switch e.Kind {
	case ExprBool, ExprInt, ExprFloat, ExprString:
		return true
	}
	return false
}

// Subexpr returns the direct children of e, in source order.
func (e *Expr) Subexpr() []*Expr {
	var x []*Expr
	if e.Left != nil {
		x = append(x, e.Left)
	}
	return append(x, e.List...)
}

// Walk calls fn for e and each of its descendants in depth-first,
// source order. If fn returns false, the children of the node are
// not visited.
func (e *Expr) Walk(fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, sub := range e.Subexpr() {
		sub.Walk(fn)
	}
}

// Copy returns a deep copy of e.
func (e *Expr) Copy() *Expr {
	if e == nil {
		return nil
	}
	f := new(Expr)
	*f = *e
	if e.Ops != nil {
		f.Ops = append([]string(nil), e.Ops...)
	}
	f.Left = e.Left.Copy()
	if e.List != nil {
		f.List = make([]*Expr, len(e.List))
		for i := range e.List {
			f.List[i] = e.List[i].Copy()
		}
	}
	return f
}

// Equal tells whether e and f denote the same expression. Source
// positions and tags are ignored.
func (e *Expr) Equal(f *Expr) bool {
	if e == nil || f == nil {
		return e == f
	}
	if e.Kind != f.Kind {
		return false
	}
	switch e.Kind {
	case ExprBool:
		return e.Bool == f.Bool
	case ExprInt:
		return e.Int == f.Int
	case ExprFloat:
		return e.Float == f.Float
	case ExprString:
		return e.Str == f.Str
	case ExprIdent:
		return e.Ident == f.Ident
	case ExprUnary:
		return e.Op == f.Op && e.Left.Equal(f.Left)
	case ExprBinary:
		if len(e.Ops) != len(f.Ops) || !e.Left.Equal(f.Left) {
			return false
		}
		for i := range e.Ops {
			if e.Ops[i] != f.Ops[i] {
				return false
			}
		}
		return equalList(e.List, f.List)
	case ExprCall:
		return e.Ident == f.Ident && e.Attr == f.Attr && equalList(e.List, f.List)
	case ExprList, ExprArray:
		return equalList(e.List, f.List)
	}
	return false
}

func equalList(l, m []*Expr) bool {
	if len(l) != len(m) {
		return false
	}
	for i := range l {
		if !l[i].Equal(m[i]) {
			return false
		}
	}
	return true
}

// Shape returns the dimensions of a literal array, outermost first.
func (e *Expr) Shape() []int {
	if e.Kind != ExprArray {
		return nil
	}
	shape := []int{len(e.List)}
	if len(e.List) > 0 && e.List[0].Kind == ExprArray {
		shape = append(shape, e.List[0].Shape()...)
	}
	return shape
}

// AssignCompileIDs is the one-time rewrite pass run immediately after
// parsing: it converts each node's raw source position into integer
// tags relative to the start of the source buffer. Tag1 becomes the
// byte offset of the node, Tag2 its column. Tags that were already
// assigned are left alone.
func AssignCompileIDs(exprs []*Expr) {
	for _, e := range exprs {
		e.Walk(func(e *Expr) bool {
			if e.Tag1 == Unset && e.Position.IsValid() {
				e.Tag1 = int64(e.Position.Offset)
				e.Tag2 = int64(e.Position.Column)
			}
			return true
		})
	}
}
