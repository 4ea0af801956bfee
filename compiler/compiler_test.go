// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package compiler

import (
	"context"
	"strings"
	"testing"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/future"
	"github.com/grailbio/phylanx/names"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/primitive/arith"
	"github.com/grailbio/phylanx/primitive/controls"
	"github.com/grailbio/phylanx/primitive/dist"
	"github.com/grailbio/phylanx/values"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func newCompiler() *Compiler {
	return New(primitive.MustCatalogue(controls.Matches, arith.Matches, dist.Matches), nil, nil)
}

func run(t *testing.T, c *Compiler, name, src string, args ...values.T) values.T {
	t.Helper()
	ctx := context.Background()
	e, err := c.Compile(ctx, name, src)
	require.NoError(t, err, src)
	v, err := e.Run(ctx, args...)
	require.NoError(t, err, src)
	return v
}

func TestEval(t *testing.T) {
	for _, c := range []struct {
		src  string
		want values.T
	}{
		{"1 + 2 * 3", int64(7)},
		{"block(define(x, 0), store(x, 1), store(x, x + 1), x)", int64(2)},
		{"block(define(acc, 0), for(define(i, 0), i < 5, store(i, i + 1), store(acc, acc + i)), acc)", int64(10)},
		{"block(define(n, 3), define(acc, 1), while(n > 0, block(store(acc, acc * 2), store(n, n - 1))), acc)", int64(8)},
		{"while(false, 1)", nil},
		{"if(1 < 2, \"yes\", \"no\")", "yes"},
		{"if(false, 1)", nil},
		{"define(fact, n, if(n <= 1, 1, n * fact(n - 1)))\nfact(10)", int64(3628800)},
		{"map(lambda(x, x * 2), list(1, 2, 3))", values.List{int64(2), int64(4), int64(6)}},
		{"map(lambda(x, y, x - y), '(5, 6), '(1, 2))", values.List{int64(4), int64(4)}},
		{"fold_left(lambda(acc, x, acc - x), 10, list(1, 2, 3))", int64(4)},
		{"fold_right(lambda(x, acc, x - acc), 0, list(1, 2, 3))", int64(2)},
		{"fold_left(lambda(a, b, a + b), nil, range(5))", int64(10)},
		{"apply(lambda(a, b, a * b), list(6, 7))", int64(42)},
		{"apply(lambda(a, b, c, a + b + c), 1, list(2, 3))", int64(6)},
		{"apply(lambda(a, b, a - b), 9, 4, list())", int64(5)},
		{"len('(1, 2, 3))", int64(3)},
		{"'(1, \"two\", 3.0)", values.List{int64(1), "two", 3.0}},
		{"block(define(x, 1), list(x, x + 1))", values.List{int64(1), int64(2)}},
		{"parallel_block(1, 2, 3)", int64(3)},
		{"nil", nil},
	} {
		got := run(t, newCompiler(), "test", c.src)
		if !values.Equal(got, c.want) {
			t.Errorf("%s: got %v, want %v", c.src, values.Sprint(got), values.Sprint(c.want))
		}
	}
}

func TestNamedArguments(t *testing.T) {
	c := newCompiler()
	_, err := c.Compile(context.Background(), "f", "define(f, a, b=10, a - b)")
	require.NoError(t, err)
	for _, tc := range []struct {
		src  string
		want int64
	}{
		{"f(1)", -9},
		{"f(1, 2)", -1},
		{"f(1, b=2)", -1},
		{"f(b=3, a=5)", 2},
	} {
		if got, want := run(t, c, tc.src, tc.src), tc.want; got != want {
			t.Errorf("%s: got %v, want %v", tc.src, got, want)
		}
	}
	for _, src := range []string{"f(1, c=2)", "f(b=1, 2)", "f(1, a=2)"} {
		_, err := c.Compile(context.Background(), src, src)
		if !errors.Is(errors.InvalidStatus, err) {
			t.Errorf("%s: expected InvalidStatus, got %v", src, err)
		}
	}
}

func TestVariadicFunction(t *testing.T) {
	c := newCompiler()
	expect.EQ(t, run(t, c, "count", "define(count, first, __rest, len(__rest))\ncount(1, 2, 3)"), int64(2))
	expect.EQ(t, run(t, c, "none", "count(1)"), int64(0))
	_, err := c.Compile(context.Background(), "bad", "define(g, __rest, x, x)")
	expect.True(t, errors.Is(errors.InvalidStatus, err))
}

func TestClosures(t *testing.T) {
	c := newCompiler()
	src := `
		define(adder, a, lambda(b, a + b))
		define(inc, adder(1))
		define(dec, adder(-1))
		list(inc(41), dec(41))
	`
	v := run(t, c, "closures", src)
	expect.True(t, values.Equal(v, values.List{int64(42), int64(40)}))
}

func TestEntryPointFunction(t *testing.T) {
	c := newCompiler()
	ctx := context.Background()
	e, err := c.Compile(ctx, "fact", "define(fact, n, if(n <= 1, 1, n * fact(n - 1)))")
	require.NoError(t, err)
	v, err := e.Run(ctx, int64(5))
	require.NoError(t, err)
	expect.EQ(t, v, int64(120))
	n, variadic := e.Func().Arity()
	expect.EQ(t, n, 1)
	expect.False(t, variadic)

	e, err = c.Compile(ctx, "square", "lambda(x, x * x)")
	require.NoError(t, err)
	v, err = e.RunAsync(ctx, int64(9)).Get(ctx)
	require.NoError(t, err)
	expect.EQ(t, v, int64(81))
}

func TestConcurrentRuns(t *testing.T) {
	c := newCompiler()
	ctx := context.Background()
	e, err := c.Compile(ctx, "twice", "define(twice, x, block(define(y, x), store(y, y * 2), y))")
	require.NoError(t, err)
	fs := make([]*future.Future, 50)
	for i := range fs {
		fs[i] = e.RunAsync(ctx, int64(i))
	}
	for i, f := range fs {
		v, err := f.Get(ctx)
		require.NoError(t, err)
		if got, want := v, int64(2*i); got != want {
			t.Errorf("run %d: got %v, want %v", i, got, want)
		}
	}
}

func TestSnippetCache(t *testing.T) {
	c := newCompiler()
	ctx := context.Background()
	e1, err := c.Compile(ctx, "cached", "1 + 2")
	require.NoError(t, err)
	e2, err := c.Compile(ctx, "cached", "this is not even parsed")
	require.NoError(t, err)
	expect.True(t, e1 == e2)
	expect.EQ(t, c.Snippets.Snippets(), []string{"cached"})
	e, ok := c.Snippets.Lookup("cached")
	expect.True(t, ok)
	expect.True(t, e == e1)
	expect.EQ(t, e1.Digest, values.Digester.FromString("1 + 2"))

	_, err = c.Compile(ctx, "broken", "block(")
	expect.True(t, errors.Is(errors.ParseFailure, err))
	_, ok = c.Snippets.Lookup("broken")
	expect.False(t, ok)
}

func TestEnvironmentPersists(t *testing.T) {
	c := newCompiler()
	_, err := c.Compile(context.Background(), "def", "define(x, 42)\ndefine(sq, v, v * v)")
	require.NoError(t, err)
	expect.EQ(t, run(t, c, "use", "sq(x) + 1"), int64(1765))
	expect.EQ(t, c.Env().Names(), []string{"sq", "x"})
}

func TestTopLevelState(t *testing.T) {
	c := newCompiler()
	run(t, c, "def", "define(x, 1)")
	expect.Nil(t, run(t, c, "store", "store(x, 5)"))
	expect.EQ(t, run(t, c, "read", "x"), int64(5))

	// Bodies are evaluated once; later snippets see the bound value.
	run(t, c, "counter", "define(n, 0)\ndefine(k, block(store(n, n + 1), n))")
	expect.EQ(t, run(t, c, "k1", "k"), int64(1))
	expect.EQ(t, run(t, c, "k2", "k"), int64(1))
	expect.EQ(t, run(t, c, "n", "n"), int64(1))
}

func TestFailedCompileCreatesNoPrimitives(t *testing.T) {
	c := newCompiler()
	ctx := context.Background()
	run(t, c, "ok", "1 + 2")
	before := c.Snippets.Names()
	_, err := c.Compile(ctx, "bad", "block(1 + 2, foo(3))")
	expect.True(t, errors.Is(errors.UnresolvedPrimitive, err))
	expect.EQ(t, c.Snippets.Names(), before)
}

func TestPrimitiveNames(t *testing.T) {
	c := newCompiler()
	ctx := context.Background()
	run(t, c, "first", "1")
	e, err := c.Compile(ctx, "second", "block(1 + 2, 3)")
	require.NoError(t, err)
	require.Len(t, e.Primitives, 2)
	types := make([]string, len(e.Primitives))
	for i, name := range e.Primitives {
		p, ok := names.Parse(name)
		require.True(t, ok, name)
		expect.EQ(t, p.CompileID, int64(1))
		types[i] = names.PrimitiveType(name)
		prim, ok := c.Snippets.Primitive(name)
		require.True(t, ok)
		expect.EQ(t, prim.Name(), name)
	}
	// Operands are compiled before the primitives that use them.
	expect.EQ(t, types, []string{"__add", "block"})
	root, ok := e.Root.(primitive.Primitive)
	require.True(t, ok)
	expect.EQ(t, names.PrimitiveType(root.Name()), "block")
	expect.EQ(t, len(c.Snippets.Names()), 3)
}

func TestCompileErrors(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		src  string
		kind errors.Kind
		msg  string
	}{
		{"block(1, foo(2))", errors.UnresolvedPrimitive, "unresolved primitive foo"},
		{"if(1)", errors.UnresolvedPrimitive, "no signature of if matches"},
		{"y + 1", errors.UnresolvedPrimitive, "undefined identifier y"},
		{"define(1, 2)", errors.InvalidStatus, "define expects a name"},
		{"define(f, a, a, a)", errors.InvalidStatus, "duplicate parameter"},
		{"lambda()", errors.InvalidStatus, "lambda expects a body"},
		{"store(1, 2)", errors.InvalidStatus, "must be a variable"},
		{"range(1, 2, 3, 4)", errors.UnresolvedPrimitive, "no signature of range"},
	} {
		_, err := newCompiler().Compile(ctx, "test", tc.src)
		if !errors.Is(tc.kind, err) {
			t.Errorf("%s: expected %v, got %v", tc.src, tc.kind, err)
			continue
		}
		if !strings.Contains(err.Error(), tc.msg) {
			t.Errorf("%s: error %q does not mention %q", tc.src, err, tc.msg)
		}
		if !strings.Contains(err.Error(), "test:1:") {
			t.Errorf("%s: error %q has no source position", tc.src, err)
		}
	}
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		src  string
		kind errors.Kind
	}{
		{"block(1, range(1, 2, 0), 2)", errors.BadParameter},
		{"1 / 0", errors.BadParameter},
		{"if(\"x\" + 1, 1, 2)", errors.BadParameter},
		{"map(1, list(1))", errors.BadParameter},
		{"map(lambda(x, y, x), list(1), list(1, 2))", errors.BadParameter},
		{"apply(lambda(a, b, c, a), 1, list(2))", errors.InvalidStatus},
		{"apply(lambda(a, a), 1, 2)", errors.BadParameter},
	} {
		e, err := newCompiler().Compile(ctx, "test", tc.src)
		require.NoError(t, err, tc.src)
		_, err = e.Run(ctx)
		if !errors.Is(tc.kind, err) {
			t.Errorf("%s: expected %v, got %v", tc.src, tc.kind, err)
		}
	}
}

func TestCanceled(t *testing.T) {
	c := newCompiler()
	ctx, cancel := context.WithCancel(context.Background())
	e, err := c.Compile(ctx, "loop", "while(true, 1 + 1)")
	require.NoError(t, err)
	f := e.RunAsync(ctx)
	cancel()
	_, err = f.Get(context.Background())
	expect.True(t, errors.Is(errors.Canceled, err))

	// Loops over literal operands observe cancellation too.
	for _, src := range []string{"while(true, 1)", "for(0, true, 0, 1)"} {
		ctx, cancel := context.WithCancel(context.Background())
		e, err := c.Compile(ctx, src, src)
		require.NoError(t, err)
		f := e.RunAsync(ctx)
		cancel()
		_, err = f.Get(context.Background())
		if !errors.Is(errors.Canceled, err) {
			t.Errorf("%s: expected Canceled, got %v", src, err)
		}
	}
}
