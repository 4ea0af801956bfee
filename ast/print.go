// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package ast

import (
	"bytes"
	"strconv"
	"strings"
)

// String renders the expression as PhySL source. The rendering
// parses back into an expression Equal to e.
func (e *Expr) String() string {
	var b bytes.Buffer
	e.print(&b, false)
	return b.String()
}

func (e *Expr) print(b *bytes.Buffer, nested bool) {
	if e == nil {
		b.WriteString("<nil>")
		return
	}
	switch e.Kind {
	case ExprError:
		b.WriteString("<error>")
	case ExprBool:
		b.WriteString(strconv.FormatBool(e.Bool))
	case ExprInt:
		b.WriteString(strconv.FormatInt(e.Int, 10))
	case ExprFloat:
		b.WriteString(formatFloat(e.Float))
	case ExprString:
		b.WriteString(strconv.Quote(e.Str))
	case ExprIdent:
		b.WriteString(e.Ident)
	case ExprUnary:
		b.WriteString(e.Op)
		if e.Left != nil && (e.Left.Kind == ExprInt || e.Left.Kind == ExprFloat) {
			b.WriteByte('(')
			e.Left.print(b, false)
			b.WriteByte(')')
			break
		}
		e.Left.print(b, true)
	case ExprBinary:
		if nested {
			b.WriteByte('(')
		}
		e.Left.print(b, true)
		for i, op := range e.Ops {
			b.WriteString(" " + op + " ")
			e.List[i].print(b, true)
		}
		if nested {
			b.WriteByte(')')
		}
	case ExprCall:
		b.WriteString(e.Ident)
		if e.Attr != "" {
			b.WriteString("{" + e.Attr + "}")
		}
		printList(b, e.List, "(", ")")
	case ExprList:
		printList(b, e.List, "'(", ")")
	case ExprArray:
		printList(b, e.List, "[", "]")
	}
}

func printList(b *bytes.Buffer, list []*Expr, open, close string) {
	b.WriteString(open)
	for i, e := range list {
		if i > 0 {
			b.WriteString(", ")
		}
		e.print(b, false)
	}
	b.WriteString(close)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
