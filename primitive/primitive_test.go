// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package primitive

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/parser"
	"github.com/grailbio/phylanx/values"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

// sum evaluates its operands concurrently and adds them.
type sum struct{ Base }

func newSum(operands ...values.T) *sum {
	return &sum{NewBase(operands, "/phylanx/sum$0/0$0", "test")}
}

func (s *sum) Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error) {
	vals, err := EvalOperands(ctx, s.Args, args, ec)
	if err != nil {
		return nil, err
	}
	var n int64
	for _, v := range vals {
		i, ok := values.Int(v)
		if !ok {
			return nil, s.Error(errors.BadParameter, "not an integer: %s", values.Sprint(v))
		}
		n += i
	}
	return n, nil
}

// seq evaluates its operands in order and returns the last value.
type seq struct{ Base }

func newSeq(operands ...values.T) *seq {
	return &seq{NewBase(operands, "/phylanx/seq$0/0$0", "test")}
}

func (s *seq) Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error) {
	vals, err := EvalSequential(ctx, s.Args, args, ec)
	if err != nil {
		return nil, err
	}
	return vals[len(vals)-1], nil
}

type failing struct{ Base }

func (f *failing) Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error) {
	return nil, f.Error(errors.BadParameter, "always fails")
}

func closure(t *testing.T, f *Function) values.Func {
	t.Helper()
	v, err := EvalSync(context.Background(), f)
	require.NoError(t, err)
	fn, ok := v.(values.Func)
	require.True(t, ok, "got %s", values.TypeName(v))
	return fn
}

func TestValue(t *testing.T) {
	ctx := context.Background()
	v, err := EvalSync(ctx, int64(3))
	require.NoError(t, err)
	expect.EQ(t, v, int64(3))
	v, err = EvalSync(ctx, NewLiteral("x", "/phylanx/variable$0/0$0", "test"))
	require.NoError(t, err)
	expect.EQ(t, v, "x")
	v, err = EvalSync(ctx, newSum(int64(1), newSum(int64(2), int64(3))))
	require.NoError(t, err)
	expect.EQ(t, v, int64(6))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Value(canceled, newSum(int64(1)), nil, NewContext(nil, nil))
	expect.True(t, errors.Is(errors.Canceled, err))
}

func TestEvalOperandsFailure(t *testing.T) {
	fail := &failing{NewBase(nil, "/phylanx/failing$0/0$0", "test")}
	_, err := EvalSync(context.Background(), newSum(int64(1), fail, newSum(int64(2))))
	expect.True(t, errors.Is(errors.BadParameter, err))
}

func TestValidateArity(t *testing.T) {
	for _, c := range []struct {
		operands []values.T
		min, max int
		ok       bool
	}{
		{[]values.T{int64(1)}, 1, 1, true},
		{nil, 1, 1, false},
		{[]values.T{int64(1), int64(2)}, 1, 1, false},
		{[]values.T{int64(1), int64(2), int64(3)}, 1, -1, true},
		{[]values.T{nil}, 1, 2, false},
		{[]values.T{int64(1), nil}, 1, 2, true},
	} {
		b := NewBase(c.operands, "/phylanx/test$0/0$0", "test")
		err := b.ValidateArity(c.min, c.max)
		if got, want := err == nil, c.ok; got != want {
			t.Errorf("%v [%d, %d]: got %v, want ok=%v", c.operands, c.min, c.max, err, want)
		}
		if err != nil && !errors.Is(errors.BadParameter, err) {
			t.Errorf("expected BadParameter, got %v", err)
		}
	}
}

func TestVariableStore(t *testing.T) {
	x := NewVariable("x", int64(0), "/phylanx/variable$0$x/0$1", "test")
	access := func() *AccessVariable { return NewAccessVariable(x, 0, "/phylanx/access-variable$0$x/0$2", "test") }
	store, err := NewStore([]values.T{access(), newSum(access(), int64(5))}, "/phylanx/store$0/0$3", "test")
	require.NoError(t, err)
	v, err := EvalSync(context.Background(), newSeq(x, store, access()))
	require.NoError(t, err)
	expect.EQ(t, v, int64(5))

	// Unbound variables are bound on first access.
	v, err = EvalSync(context.Background(), access())
	require.NoError(t, err)
	expect.EQ(t, v, int64(0))

	v, err = EvalSync(context.Background(), store)
	require.NoError(t, err)
	expect.Nil(t, v)

	_, err = NewStore([]values.T{int64(1), int64(2)}, "/phylanx/store$1/0$4", "test")
	expect.True(t, errors.Is(errors.InvalidStatus, err))
	_, err = NewStore([]values.T{access()}, "/phylanx/store$2/0$5", "test")
	expect.True(t, errors.Is(errors.BadParameter, err))
}

func TestClosureDefaults(t *testing.T) {
	body := newSum(NewAccessArgument(0, 0, "/phylanx/access-argument$0/0$1", "test"),
		NewAccessArgument(1, 0, "/phylanx/access-argument$1/0$2", "test"))
	f := NewFunction("f", []Param{{Name: "x"}, {Name: "y", Default: int64(10)}}, false, body, "/phylanx/define-function$0$f/0$0", "test")
	fn := closure(t, f)
	n, variadic := fn.Arity()
	expect.EQ(t, n, 2)
	expect.False(t, variadic)
	expect.EQ(t, fn.Name(), "f")

	ctx := context.Background()
	for _, c := range []struct {
		args []values.T
		want int64
	}{
		{[]values.T{int64(1)}, 11},
		{[]values.T{int64(1), int64(2)}, 3},
		{[]values.T{int64(1), Missing}, 11},
	} {
		v, err := fn.Apply(ctx, c.args)
		require.NoError(t, err)
		if got, want := v, c.want; got != want {
			t.Errorf("%v: got %v, want %v", c.args, got, want)
		}
	}
	for _, args := range [][]values.T{nil, {int64(1), int64(2), int64(3)}, {Missing}} {
		_, err := fn.Apply(ctx, args)
		if !errors.Is(errors.InvalidStatus, err) {
			t.Errorf("%v: expected InvalidStatus, got %v", args, err)
		}
	}
}

func TestVariadic(t *testing.T) {
	body := NewAccessArgument(1, 0, "/phylanx/access-argument$0/0$1", "test")
	f := NewFunction("rest", []Param{{Name: "a"}, {Name: "__rest"}}, true, body, "/phylanx/define-function$0$rest/0$0", "test")
	fn := closure(t, f)
	ctx := context.Background()
	v, err := fn.Apply(ctx, []values.T{int64(1), int64(2), int64(3)})
	require.NoError(t, err)
	expect.True(t, values.Equal(v, values.List{int64(2), int64(3)}))
	v, err = fn.Apply(ctx, []values.T{int64(1)})
	require.NoError(t, err)
	expect.True(t, values.Equal(v, values.List{}))
	_, err = fn.Apply(ctx, nil)
	expect.True(t, errors.Is(errors.InvalidStatus, err))
}

func TestClosureCapture(t *testing.T) {
	inner := NewFunction("", nil, false,
		NewAccessArgument(0, 1, "/phylanx/access-argument$0/0$2", "test"),
		"/phylanx/lambda$0/0$1", "test")
	outer := NewFunction("f", []Param{{Name: "x"}}, false, inner, "/phylanx/define-function$0$f/0$0", "test")
	ctx := context.Background()
	fn := closure(t, outer)
	g1, err := fn.Apply(ctx, []values.T{int64(7)})
	require.NoError(t, err)
	g2, err := fn.Apply(ctx, []values.T{int64(8)})
	require.NoError(t, err)
	v, err := g1.(values.Func).Apply(ctx, nil)
	require.NoError(t, err)
	expect.EQ(t, v, int64(7))
	v, err = g2.(values.Func).Apply(ctx, nil)
	require.NoError(t, err)
	expect.EQ(t, v, int64(8))
}

func TestPerInvocationVariables(t *testing.T) {
	y := NewVariable("y", NewAccessArgument(0, 0, "/phylanx/access-argument$0/0$2", "test"), "/phylanx/variable$0$y/0$1", "test")
	body := newSeq(y, newSum(NewAccessVariable(y, 0, "/phylanx/access-variable$0$y/0$3", "test"), int64(0)))
	fn := closure(t, NewFunction("f", []Param{{Name: "x"}}, false, body, "/phylanx/define-function$0$f/0$0", "test"))
	const N = 64
	var wg sync.WaitGroup
	errs := make([]error, N)
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := fn.Apply(context.Background(), []values.T{int64(i)})
			if err == nil && v != int64(i) {
				err = fmt.Errorf("got %v, want %v", v, i)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}

func TestCall(t *testing.T) {
	f := NewFunction("inc", []Param{{Name: "x"}}, false,
		newSum(NewAccessArgument(0, 0, "/phylanx/access-argument$0/0$1", "test"), int64(1)),
		"/phylanx/define-function$0$inc/0$0", "test")
	call, err := NewCall([]values.T{f, int64(41)}, "/phylanx/call$0/0$2", "test")
	require.NoError(t, err)
	v, err := EvalSync(context.Background(), call)
	require.NoError(t, err)
	expect.EQ(t, v, int64(42))

	call, err = NewCall([]values.T{int64(1)}, "/phylanx/call$1/0$3", "test")
	require.NoError(t, err)
	_, err = EvalSync(context.Background(), call)
	expect.True(t, errors.Is(errors.InvalidStatus, err))

	_, err = NewCall(nil, "/phylanx/call$2/0$4", "test")
	expect.True(t, errors.Is(errors.BadParameter, err))
}

func factory(operands []values.T, name, codename string) (Primitive, error) {
	return newSum(operands...), nil
}

func lookup(t *testing.T, c *Catalogue, src string) (string, map[string]string) {
	t.Helper()
	e, err := parser.ParseExpr("test", src)
	require.NoError(t, err)
	p, b, ok := c.Lookup(e)
	if !ok {
		return "", nil
	}
	bound := make(map[string]string)
	for _, name := range b.Names() {
		for _, v := range b.Get(name) {
			if bound[name] != "" {
				bound[name] += " "
			}
			bound[name] += v.String()
		}
	}
	return p.Match.Name, bound
}

func TestCatalogueFirstMatch(t *testing.T) {
	c, err := NewCatalogue(
		[]Match{
			{Name: "f1", Patterns: []string{"f(_1)"}, Create: factory},
			{Name: "f2", Patterns: []string{"f(_1, _2)", "f(_1, _2, __3)"}, Create: factory},
		},
		[]Match{
			{Name: "f3", Patterns: []string{"f(_1)"}, Create: factory},
			{Name: "add", Patterns: []string{"_1 + __2"}, Create: factory},
			{Name: "minus", Patterns: []string{"-_1"}, Create: factory},
		},
	)
	require.NoError(t, err)
	for _, test := range []struct {
		src, name string
		bound     map[string]string
	}{
		{"f(x)", "f1", map[string]string{"_1": "x"}},
		{"f(x, 1)", "f2", map[string]string{"_1": "x", "_2": "1"}},
		{"f(x, 1, 2, 3)", "f2", map[string]string{"_1": "x", "_2": "1", "__3": "2 3"}},
		{"a + b + c", "add", map[string]string{"_1": "a", "__2": "b c"}},
		{"-a", "minus", map[string]string{"_1": "a"}},
		{"f()", "", nil},
		{"g(x)", "", nil},
		{"a - b", "", nil},
	} {
		name, bound := lookup(t, c, test.src)
		if got, want := name, test.name; got != want {
			t.Errorf("%s: got %q, want %q", test.src, got, want)
			continue
		}
		expect.EQ(t, bound, test.bound, test.src)
	}
	expect.True(t, c.Has("f"))
	expect.False(t, c.Has("g"))
	expect.EQ(t, c.Heads(), []string{"+", "f", "unary-"})
	expect.EQ(t, len(c.Matches()), 5)
}

func TestCatalogueNamedArguments(t *testing.T) {
	c := MustCatalogue([]Match{
		{Name: "g", Patterns: []string{"g(_1, __arg(_2_step, 1), __arg(_3_scale, 2.0))"}, Create: factory},
	})
	for _, test := range []struct {
		src   string
		bound map[string]string
	}{
		{"g(x)", map[string]string{"_1": "x", "_2_step": "1", "_3_scale": "2.0"}},
		{"g(x, 5)", map[string]string{"_1": "x", "_2_step": "5", "_3_scale": "2.0"}},
		{"g(x, 5, 6)", map[string]string{"_1": "x", "_2_step": "5", "_3_scale": "6"}},
		{"g(x, scale=3)", map[string]string{"_1": "x", "_2_step": "1", "_3_scale": "3"}},
		{"g(x, scale=3, step=4)", map[string]string{"_1": "x", "_2_step": "4", "_3_scale": "3"}},
		{"g(x, bogus=3)", nil},
		{"g(x, step=3, 4)", nil},
		{"g(x, 1, step=3)", nil},
		{"g()", nil},
		{"g(x, 1, 2, 3)", nil},
	} {
		_, bound := lookup(t, c, test.src)
		expect.EQ(t, bound, test.bound, test.src)
	}
}

func TestCatalogueErrors(t *testing.T) {
	for _, table := range [][]Match{
		{{Name: "f", Patterns: []string{"f(_1)"}, Create: factory}, {Name: "f", Patterns: []string{"f()"}, Create: factory}},
		{{Name: "f", Patterns: []string{"f("}, Create: factory}},
		{{Name: "f", Patterns: []string{"f(_1)"}}},
		{{Name: "f", Patterns: []string{"x"}, Create: factory}},
		{{Name: "f", Patterns: []string{"f(__arg(_1_x, 1), _2)"}, Create: factory}},
	} {
		_, err := NewCatalogue(table)
		if !errors.Is(errors.InvalidStatus, err) {
			t.Errorf("%v: expected InvalidStatus, got %v", table[len(table)-1].Patterns, err)
		}
	}
}
