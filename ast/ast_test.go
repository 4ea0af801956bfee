// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package ast

import (
	"testing"
	"text/scanner"
)

func TestString(t *testing.T) {
	for _, c := range []struct {
		e    *Expr
		want string
	}{
		{NewInt(-3), "-3"},
		{NewFloat(2), "2.0"},
		{NewFloat(0.25), "0.25"},
		{NewString("a\"b"), `"a\"b"`},
		{NewBinary(NewIdent("a"), "+", NewBinary(NewIdent("b"), "*", NewIdent("c"))), "a + (b * c)"},
		{NewUnary("-", NewBinary(NewIdent("a"), "-", NewIdent("b"))), "-(a - b)"},
		{NewCall("f", NewIdent("x"), NewList(NewInt(1), NewBool(false))), "f(x, '(1, false))"},
		{NewArray(NewArray(NewInt(1), NewInt(2)), NewArray(NewInt(3), NewInt(4))), "[[1, 2], [3, 4]]"},
	} {
		if got, want := c.e.String(), c.want; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	e := NewCall("slice", NewIdent("x"))
	e.Attr = "row"
	if got, want := e.String(), "slice{row}(x)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPlaceholder(t *testing.T) {
	for _, c := range []struct {
		id                  string
		placeholder, ellips bool
	}{
		{"_1", true, false},
		{"_12_name", true, false},
		{"__1", false, true},
		{"__2_rest", false, true},
		{"_x", false, false},
		{"__add", false, false},
		{"x", false, false},
	} {
		e := NewIdent(c.id)
		if got, want := e.Placeholder(), c.placeholder; got != want {
			t.Errorf("%s: placeholder: got %v, want %v", c.id, got, want)
		}
		if got, want := e.Ellipsis(), c.ellips; got != want {
			t.Errorf("%s: ellipsis: got %v, want %v", c.id, got, want)
		}
	}
}

func TestCopyEqual(t *testing.T) {
	e := NewCall("f", NewBinary(NewIdent("a"), "+", NewInt(1)), NewList(NewString("s")))
	f := e.Copy()
	if !e.Equal(f) {
		t.Fatalf("%v != %v", e, f)
	}
	f.List[0].List[0].Int = 2
	if e.Equal(f) {
		t.Errorf("copy shares structure with original")
	}
	if got, want := e.List[0].List[0].Int, int64(1); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAssignCompileIDs(t *testing.T) {
	e := NewCall("f", NewIdent("x"))
	e.Position = scanner.Position{Offset: 10, Line: 2, Column: 3}
	e.List[0].Position = scanner.Position{Offset: 12, Line: 2, Column: 5}
	AssignCompileIDs([]*Expr{e})
	if got, want := e.Tag1, int64(10); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := e.List[0].Tag1, int64(12); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := e.List[0].Tag2, int64(5); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	// Synthesized nodes keep their unset tags.
	g := NewIdent("y")
	AssignCompileIDs([]*Expr{g})
	if got, want := g.Tag1, int64(Unset); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestShape(t *testing.T) {
	e := NewArray(NewArray(NewInt(1), NewInt(2), NewInt(3)), NewArray(NewInt(4), NewInt(5), NewInt(6)))
	if got, want := e.Shape(), []int{2, 3}; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}
