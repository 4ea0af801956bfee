// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package parser parses PhySL source text into ast expressions.
//
// The parser composes Go's text/scanner. A PhySL program is a
// sequence of top-level expressions:
//
//	define(fib, n,
//	    if(n < 2, n, fib(n - 1) + fib(n - 2))
//	)
//	fib(10)
//
// Binary operators, from lowest to highest precedence, are
//
//	||
//	&&
//	==  !=
//	<   <=  >   >=
//	+   -
//	*   /   %
//
// Runs of the same operator at one precedence level are flattened
// into a single chain (a + b + c); mixed operators nest to the left
// ((a + b) - c). Named call arguments, f(x, step=2), are rewritten
// into __arg(step, 2).
package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/grailbio/phylanx/ast"
	"github.com/grailbio/phylanx/errors"
)

// MaxArrayRank is the maximum rank of a literal array.
const MaxArrayRank = 3

// Parse parses the PhySL program in body. File is used in positions
// and error messages. Parse assigns compile ids to the returned
// expressions.
func Parse(file string, body io.Reader) (exprs []*ast.Expr, err error) {
	p := newParser(file, body)
	defer p.recover(&err)
	p.next()
	for p.tok != scanner.EOF {
		exprs = append(exprs, p.expr())
		if p.tok == ',' {
			p.next()
		}
	}
	ast.AssignCompileIDs(exprs)
	return exprs, nil
}

// ParseString parses the PhySL program in src.
func ParseString(file, src string) ([]*ast.Expr, error) {
	return Parse(file, strings.NewReader(src))
}

// ParseExpr parses a single PhySL expression.
func ParseExpr(file, src string) (*ast.Expr, error) {
	exprs, err := ParseString(file, src)
	if err != nil {
		return nil, err
	}
	if len(exprs) != 1 {
		return nil, errors.E("parse", file, errors.ParseFailure,
			errors.Errorf("expected a single expression, got %d", len(exprs)))
	}
	return exprs[0], nil
}

// ParsePattern parses a catalogue signature such as "if(_1, _2, _3)"
// or "_1 + __2". Patterns carry no compile ids.
func ParsePattern(pattern string) (e *ast.Expr, err error) {
	p := newParser("pattern", strings.NewReader(pattern))
	defer p.recover(&err)
	p.next()
	e = p.expr()
	if p.tok != scanner.EOF {
		p.errorf("unexpected %s after pattern", p.describe())
	}
	return e, nil
}

// bailout is the panic value used to unwind the parser on the first
// syntax error.
type bailout struct{ err error }

type parser struct {
	file string
	s    scanner.Scanner
	tok  rune
	text string
	pos  scanner.Position
}

func newParser(file string, body io.Reader) *parser {
	p := &parser{file: file}
	p.s.Init(body)
	p.s.Filename = file
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats |
		scanner.ScanStrings | scanner.ScanRawStrings | scanner.ScanComments | scanner.SkipComments
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.errorAt(s.Pos(), msg)
	}
	return p
}

func (p *parser) recover(errp *error) {
	if v := recover(); v != nil {
		b, ok := v.(bailout)
		if !ok {
			panic(v)
		}
		*errp = b.err
	}
}

func (p *parser) errorAt(pos scanner.Position, msg string) {
	panic(bailout{errors.E("parse", p.file, errors.ParseFailure, errors.New(pos.String()+": "+msg))})
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.errorAt(p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
	p.pos = p.s.Position
}

func (p *parser) describe() string {
	switch p.tok {
	case scanner.EOF:
		return "end of input"
	case scanner.Ident:
		return "identifier " + p.text
	default:
		return strconv.Quote(p.text)
	}
}

func (p *parser) expect(tok rune) {
	if p.tok != tok {
		p.errorf("expected %q, got %s", tok, p.describe())
	}
	p.next()
}

// precedence levels, lowest first.
var levels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

// peekOp returns the binary operator at the current position, if
// any, without consuming it.
func (p *parser) peekOp() string {
	switch p.tok {
	case '+', '-', '*', '/', '%':
		return string(p.tok)
	case '<', '>':
		if p.s.Peek() == '=' {
			return string(p.tok) + "="
		}
		return string(p.tok)
	case '=', '!':
		if p.s.Peek() == '=' {
			return string(p.tok) + "="
		}
	case '&':
		if p.s.Peek() == '&' {
			return "&&"
		}
	case '|':
		if p.s.Peek() == '|' {
			return "||"
		}
	}
	return ""
}

// consumeOp consumes the operator op, which must be at the current
// position.
func (p *parser) consumeOp(op string) {
	if len(op) == 2 {
		p.s.Next()
	}
	p.next()
}

func (p *parser) expr() *ast.Expr {
	return p.binary(0)
}

func (p *parser) binary(level int) *ast.Expr {
	if level == len(levels) {
		return p.unary()
	}
	left := p.binary(level + 1)
	for {
		op := p.peekOp()
		if !contains(levels[level], op) {
			return left
		}
		pos := left.Position
		p.consumeOp(op)
		right := p.binary(level + 1)
		if left.Kind == ast.ExprBinary && left.Ops[0] == op && allOps(left.Ops, op) && !left.Parenthesized() {
			left.Ops = append(left.Ops, op)
			left.List = append(left.List, right)
			continue
		}
		left = ast.NewBinary(left, op, right)
		left.Position = pos
	}
}

func allOps(ops []string, op string) bool {
	for _, o := range ops {
		if o != op {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, t := range list {
		if t == s {
			return true
		}
	}
	return false
}

func (p *parser) unary() *ast.Expr {
	switch p.tok {
	case '-', '!':
		if p.peekOp() == "!=" {
			p.errorf("unexpected %s", p.describe())
		}
		op, pos := string(p.tok), p.pos
		p.next()
		operand := p.unary()
		if op == "-" && !operand.Parenthesized() {
			switch operand.Kind {
			case ast.ExprInt:
				operand.Int = -operand.Int
				operand.Position = pos
				return operand
			case ast.ExprFloat:
				operand.Float = -operand.Float
				operand.Position = pos
				return operand
			}
		}
		e := ast.NewUnary(op, operand)
		e.Position = pos
		return e
	}
	return p.primary()
}

func (p *parser) primary() *ast.Expr {
	pos := p.pos
	var e *ast.Expr
	switch p.tok {
	case scanner.Int:
		i, err := strconv.ParseInt(p.text, 0, 64)
		if err != nil {
			p.errorf("invalid integer %s: %v", p.text, err)
		}
		e = ast.NewInt(i)
		p.next()
	case scanner.Float:
		f, err := strconv.ParseFloat(p.text, 64)
		if err != nil {
			p.errorf("invalid number %s: %v", p.text, err)
		}
		e = ast.NewFloat(f)
		p.next()
	case scanner.String, scanner.RawString:
		s, err := strconv.Unquote(p.text)
		if err != nil {
			p.errorf("invalid string %s: %v", p.text, err)
		}
		e = ast.NewString(s)
		p.next()
	case scanner.Ident:
		e = p.ident()
	case '(':
		p.next()
		e = p.expr()
		p.expect(')')
		e.SetParenthesized()
		return e
	case '[':
		e = p.array(1)
	case '\'':
		p.next()
		if p.tok != '(' {
			p.errorf("expected '(' after quote, got %s", p.describe())
		}
		e = ast.NewList(p.args()...)
	default:
		p.errorf("unexpected %s", p.describe())
	}
	e.Position = pos
	return e
}

func (p *parser) ident() *ast.Expr {
	id := p.text
	p.next()
	switch id {
	case "true":
		return ast.NewBool(true)
	case "false":
		return ast.NewBool(false)
	}
	var attr string
	if p.tok == '{' {
		attr = p.attr()
		if p.tok != '(' {
			p.errorf("expected '(' after attribute, got %s", p.describe())
		}
	}
	if p.tok != '(' {
		return ast.NewIdent(id)
	}
	e := ast.NewCall(id, p.args()...)
	e.Attr = attr
	return e
}

// attr scans a raw attribute string enclosed in braces.
func (p *parser) attr() string {
	var b strings.Builder
	for {
		c := p.s.Next()
		switch c {
		case scanner.EOF:
			p.errorf("unterminated attribute")
		case '}':
			p.next()
			return strings.TrimSpace(b.String())
		default:
			b.WriteRune(c)
		}
	}
}

// args parses a parenthesized, comma-separated argument list.
func (p *parser) args() []*ast.Expr {
	p.expect('(')
	var list []*ast.Expr
	for p.tok != ')' {
		arg := p.expr()
		if arg.Kind == ast.ExprIdent && !arg.Parenthesized() && p.tok == '=' && p.peekOp() != "==" {
			pos := arg.Position
			p.next()
			arg = ast.NewCall("__arg", arg, p.expr())
			arg.Position = pos
		}
		list = append(list, arg)
		if p.tok != ',' {
			break
		}
		p.next()
	}
	p.expect(')')
	return list
}

// array parses a literal array of numbers.
func (p *parser) array(rank int) *ast.Expr {
	if rank > MaxArrayRank {
		p.errorf("array literals may have at most %d dimensions", MaxArrayRank)
	}
	e := ast.NewArray()
	e.Position = p.pos
	p.expect('[')
	for p.tok != ']' {
		var elem *ast.Expr
		if p.tok == '[' {
			elem = p.array(rank + 1)
		} else {
			elem = p.unary()
			if elem.Kind != ast.ExprInt && elem.Kind != ast.ExprFloat {
				p.errorAt(elem.Position, "array elements must be numeric literals")
			}
		}
		e.List = append(e.List, elem)
		if p.tok != ',' {
			break
		}
		p.next()
	}
	p.expect(']')
	if len(e.List) > 0 {
		first := e.List[0]
		for _, elem := range e.List[1:] {
			if (elem.Kind == ast.ExprArray) != (first.Kind == ast.ExprArray) {
				p.errorAt(elem.Position, "array mixes scalars and arrays")
			}
			if elem.Kind == ast.ExprArray && !sameShape(elem.Shape(), first.Shape()) {
				p.errorAt(elem.Position, "array rows have different lengths")
			}
		}
	}
	return e
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
