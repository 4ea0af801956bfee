// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package parser

import (
	"strings"
	"testing"

	"github.com/grailbio/phylanx/ast"
	"github.com/grailbio/phylanx/errors"
)

func TestParse(t *testing.T) {
	for _, c := range []struct {
		src  string
		want *ast.Expr
	}{
		{"1", ast.NewInt(1)},
		{"-1", ast.NewInt(-1)},
		{"1.5e3", ast.NewFloat(1500)},
		{`"hello"`, ast.NewString("hello")},
		{"true", ast.NewBool(true)},
		{"x", ast.NewIdent("x")},
		{"-x", ast.NewUnary("-", ast.NewIdent("x"))},
		{"!done", ast.NewUnary("!", ast.NewIdent("done"))},
		{"a + b + c", ast.NewBinary(ast.NewIdent("a"), "+", ast.NewIdent("b"), "+", ast.NewIdent("c"))},
		{"a + b - c", ast.NewBinary(ast.NewBinary(ast.NewIdent("a"), "+", ast.NewIdent("b")), "-", ast.NewIdent("c"))},
		{"a + b * c", ast.NewBinary(ast.NewIdent("a"), "+", ast.NewBinary(ast.NewIdent("b"), "*", ast.NewIdent("c")))},
		{"(a + b) + c", ast.NewBinary(ast.NewBinary(ast.NewIdent("a"), "+", ast.NewIdent("b")), "+", ast.NewIdent("c"))},
		{"a < b && b <= c || d != e", ast.NewBinary(
			ast.NewBinary(
				ast.NewBinary(ast.NewIdent("a"), "<", ast.NewIdent("b")), "&&",
				ast.NewBinary(ast.NewIdent("b"), "<=", ast.NewIdent("c"))),
			"||",
			ast.NewBinary(ast.NewIdent("d"), "!=", ast.NewIdent("e")))},
		{"f()", ast.NewCall("f")},
		{"f(x, 1)", ast.NewCall("f", ast.NewIdent("x"), ast.NewInt(1))},
		{"f(x, step=2)", ast.NewCall("f", ast.NewIdent("x"), ast.NewCall("__arg", ast.NewIdent("step"), ast.NewInt(2)))},
		{"f(x == y)", ast.NewCall("f", ast.NewBinary(ast.NewIdent("x"), "==", ast.NewIdent("y")))},
		{"'(1, x)", ast.NewList(ast.NewInt(1), ast.NewIdent("x"))},
		{"[1, -2.5]", ast.NewArray(ast.NewInt(1), ast.NewFloat(-2.5))},
		{"[[1, 2], [3, 4]]", ast.NewArray(ast.NewArray(ast.NewInt(1), ast.NewInt(2)), ast.NewArray(ast.NewInt(3), ast.NewInt(4)))},
	} {
		got, err := ParseExpr("test.physl", c.src)
		if err != nil {
			t.Errorf("%s: %v", c.src, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("%s: got %v, want %v", c.src, got, c.want)
		}
	}
}

func TestParseAttr(t *testing.T) {
	e, err := ParseExpr("test.physl", "slice{row}(x, 0)")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := e.Attr, "row"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := e.Ident, "slice"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseProgram(t *testing.T) {
	const src = `
// Fibonacci numbers.
define(fib, n,
	if(n < 2, n, fib(n - 1) + fib(n - 2))
)
fib(10)
`
	exprs, err := ParseString("fib.physl", src)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(exprs), 2; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	def := exprs[0]
	if got, want := def.Ident, "define"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := def.Position.Line, 3; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := def.Tag1, int64(strings.Index(src, "define")); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := exprs[1].Tag1, int64(strings.Index(src, "fib(10)")); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseError(t *testing.T) {
	for _, src := range []string{
		"f(x",
		"f(x,, y)",
		"[1, x]",
		"[[1], [2, 3]]",
		"[[[[1]]]]",
		"a +",
		"'x",
		`"unterminated`,
	} {
		_, err := ParseString("bad.physl", src)
		if err == nil {
			t.Errorf("%s: expected error", src)
			continue
		}
		if !errors.Is(errors.ParseFailure, err) {
			t.Errorf("%s: expected parse failure, got %v", src, err)
		}
		if !strings.Contains(err.Error(), "bad.physl:1:") {
			t.Errorf("%s: error %q does not carry a position", src, err)
		}
	}
}

func TestRoundtrip(t *testing.T) {
	for _, src := range []string{
		"block(define(x, 0), store(x, 1), store(x, x + 1), x)",
		"for(define(i, 0), i < 5, store(i, i + 1), store(acc, acc + i))",
		"map(lambda(x, y, x * y), '(1, 2), '(3, 4))",
		"f{column}(a - (b - c), -(1), !true, [[1.5, 2], [3, 4]], \"s\")",
		"a * (b + c) % d",
	} {
		e, err := ParseExpr("test.physl", src)
		if err != nil {
			t.Errorf("%s: %v", src, err)
			continue
		}
		f, err := ParseExpr("test.physl", e.String())
		if err != nil {
			t.Errorf("%s: %v", e, err)
			continue
		}
		if !e.Equal(f) {
			t.Errorf("roundtrip: got %v, want %v", f, e)
		}
	}
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("_1 + __2")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Left.Placeholder() || !p.List[0].Ellipsis() {
		t.Errorf("bad pattern %v", p)
	}
	e, err := ParseExpr("test.physl", "1 + 2 + 3")
	if err != nil {
		t.Fatal(err)
	}
	var b ast.Bindings
	if !ast.Match(e, p, b.Bind) {
		t.Fatalf("%v does not match %v", e, p)
	}
	if got, want := len(b.Get("__2")), 2; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := ParsePattern("f(_1) g(_2)"); err == nil {
		t.Error("expected error")
	}
}
