// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package compiler compiles PhySL programs into execution trees.
//
// The compiler resolves every call and operator expression against
// the primitive catalogue: the first pattern (in registration order)
// that matches the expression determines the primitive, whose factory
// is invoked with the compiled operands. Calls of user-defined
// functions are resolved through the lexical environment instead, and
// take precedence over the catalogue. The special forms define and
// lambda introduce variables and functions:
//
//	define(x, body)               a variable
//	define(f, p1, ..., pn, body)  a function with formals p1, ..., pn
//	lambda(p1, ..., pn, body)     an anonymous function
//
// A formal may be given a default value (p=value), and a last formal
// whose name starts with "__" collects surplus arguments into a list.
//
// Every primitive instance is named with the names codec, from its
// type, a per-type sequence number, the compile id, and the source
// tags of the expression it was compiled from.
package compiler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/grailbio/phylanx/ast"
	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/metrics"
	"github.com/grailbio/phylanx/names"
	"github.com/grailbio/phylanx/parser"
	"github.com/grailbio/phylanx/primitive"
	"github.com/grailbio/phylanx/values"
)

// Compiler compiles snippets against a catalogue. Top-level
// definitions of each compiled snippet are added to the compiler's
// environment, so later snippets may refer to them.
type Compiler struct {
	// Catalogue is the primitive catalogue used for resolution.
	Catalogue *primitive.Catalogue
	// Snippets is the snippet cache.
	Snippets *Snippets
	// Locality is the locality on which compiled snippets run. It is
	// also recorded in the names of the created primitives.
	Locality *locality.Locality
	// Log receives the compiler's diagnostics and is passed on to
	// the evaluation contexts of compiled snippets.
	Log *log.Logger

	mu  sync.Mutex
	env Env
	// top is the frame holding the top-level variables of every
	// snippet compiled by the compiler.
	top *primitive.Frame
}

// New returns a new compiler with an empty snippet cache and
// environment.
func New(cat *primitive.Catalogue, l *locality.Locality, log *log.Logger) *Compiler {
	return &Compiler{
		Catalogue: cat,
		Snippets:  NewSnippets(),
		Locality:  l,
		Log:       log,
		env:       NewEnv(),
		top:       primitive.NewFrame(nil, nil),
	}
}

// Env returns the compiler's current environment.
func (c *Compiler) Env() Env {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.env
}

// Compile parses and compiles the snippet src under the given name.
// If a snippet of that name has already been compiled, the cached
// entry point is returned.
func (c *Compiler) Compile(ctx context.Context, name, src string) (*EntryPoint, error) {
	return c.compile(ctx, name, src, func() ([]*ast.Expr, error) {
		return parser.ParseString(name, src)
	})
}

// CompileReader is like Compile, but reads the snippet from r.
func (c *Compiler) CompileReader(ctx context.Context, name string, r io.Reader) (*EntryPoint, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.E("compile", name, err)
	}
	return c.Compile(ctx, name, string(b))
}

// CompileExprs compiles already parsed top-level expressions under
// the given name.
func (c *Compiler) CompileExprs(ctx context.Context, name string, exprs []*ast.Expr) (*EntryPoint, error) {
	var b strings.Builder
	for _, e := range exprs {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return c.compile(ctx, name, b.String(), func() ([]*ast.Expr, error) {
		ast.AssignCompileIDs(exprs)
		return exprs, nil
	})
}

func (c *Compiler) compile(ctx context.Context, name, src string, parse func() ([]*ast.Expr, error)) (*EntryPoint, error) {
	err := c.Snippets.once.Do(name, func() error {
		exprs, err := parse()
		if err != nil {
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		u := &unit{
			Compiler:  c,
			snippet:   name,
			compileID: c.Snippets.nextCompileID(),
			env:       c.env,
		}
		entry, err := u.compile(exprs)
		if err != nil {
			return err
		}
		entry.Digest = values.Digester.FromString(src)
		for i, name := range u.created {
			c.Snippets.register(name, u.prims[i])
		}
		c.env = u.env
		c.Snippets.set(name, entry)
		metrics.GetCompilesCountCounter(ctx).Inc()
		c.Log.Debugf("compiled %s: %d primitives, compile id %d", name, len(entry.Primitives), u.compileID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	entry, _ := c.Snippets.Lookup(name)
	return entry, nil
}

// A unit is the state of a single compile.
type unit struct {
	*Compiler
	snippet   string
	compileID int64
	env       Env
	created   []string
	prims     []primitive.Primitive
}

func (u *unit) compile(exprs []*ast.Expr) (*EntryPoint, error) {
	if len(exprs) == 0 {
		return nil, errors.E("compile", u.snippet, errors.InvalidStatus, errors.New("empty snippet"))
	}
	entry := &EntryPoint{Name: u.snippet, Locality: u.Locality, Log: u.Log, top: u.top}
	for i, e := range exprs {
		op, err := u.expr(e)
		if err != nil {
			return nil, err
		}
		if i == len(exprs)-1 {
			switch op := op.(type) {
			case *primitive.Variable:
				entry.fn, _ = op.Body().(*primitive.Function)
			case *primitive.Function:
				entry.fn = op
			}
		}
		entry.Exprs = append(entry.Exprs, op)
	}
	entry.Root = entry.Exprs[len(entry.Exprs)-1]
	if _, ok := entry.Root.(primitive.Primitive); !ok {
		// Give constant snippets a named root.
		name, err := u.name("literal", "", exprs[len(exprs)-1])
		if err != nil {
			return nil, err
		}
		lit := primitive.NewLiteral(entry.Root, name, u.snippet)
		u.record(name, lit)
		entry.Root = lit
		entry.Exprs[len(entry.Exprs)-1] = lit
	}
	entry.Primitives = u.created
	return entry, nil
}

// expr compiles the expression e into an operand: a raw value for
// constants, otherwise a primitive.
func (u *unit) expr(e *ast.Expr) (values.T, error) {
	switch e.Kind {
	case ast.ExprBool:
		return e.Bool, nil
	case ast.ExprInt:
		return e.Int, nil
	case ast.ExprFloat:
		return e.Float, nil
	case ast.ExprString:
		return e.Str, nil
	case ast.ExprArray:
		return array(e), nil
	case ast.ExprIdent:
		return u.ident(e)
	case ast.ExprList:
		return u.list(e)
	case ast.ExprCall:
		switch e.Ident {
		case "define":
			return u.define(e)
		case "lambda":
			return u.lambda(e)
		case "__arg":
			return nil, u.errorf(e, errors.InvalidStatus, "named argument %s is not allowed here", e)
		}
		if b, _, ok := u.env.Lookup(e.Ident); ok {
			return u.call(e, b)
		}
	}
	return u.resolve(e)
}

// ident compiles a variable or argument reference.
func (u *unit) ident(e *ast.Expr) (values.T, error) {
	if e.Ident == "nil" {
		return nil, nil
	}
	b, up, ok := u.env.Lookup(e.Ident)
	if !ok {
		return nil, u.errorf(e, errors.UnresolvedPrimitive, "undefined identifier %s", e.Ident)
	}
	if b.Var == nil {
		name, err := u.name("access-argument", e.Ident, e)
		if err != nil {
			return nil, err
		}
		a := primitive.NewAccessArgument(b.Index, up, name, u.snippet)
		u.record(name, a)
		return a, nil
	}
	name, err := u.name("access-variable", e.Ident, e)
	if err != nil {
		return nil, err
	}
	a := primitive.NewAccessVariable(b.Var, up, name, u.snippet)
	u.record(name, a)
	return a, nil
}

// list compiles a quoted list. Lists of constants are constants;
// other lists are constructed by make_list.
func (u *unit) list(e *ast.Expr) (values.T, error) {
	ops, err := u.exprs(e.List)
	if err != nil {
		return nil, err
	}
	constant := true
	for _, op := range ops {
		if _, ok := op.(primitive.Primitive); ok {
			constant = false
			break
		}
	}
	if constant {
		return values.List(ops), nil
	}
	m, ok := u.Catalogue.Entry("make_list")
	if !ok {
		return nil, u.errorf(e, errors.UnresolvedPrimitive, "unresolved primitive make_list")
	}
	name, err := u.name(m.Name, "", e)
	if err != nil {
		return nil, err
	}
	prim, err := m.Create(ops, name, u.snippet)
	if err != nil {
		return nil, u.wrap(e, err)
	}
	u.record(name, prim)
	return prim, nil
}

func (u *unit) exprs(list []*ast.Expr) ([]values.T, error) {
	ops := make([]values.T, len(list))
	for i, e := range list {
		var err error
		if ops[i], err = u.expr(e); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

// resolve compiles e through the catalogue.
func (u *unit) resolve(e *ast.Expr) (values.T, error) {
	head := primitive.Head(e)
	if head == "" {
		return nil, u.errorf(e, errors.InvalidStatus, "cannot compile %s expression %s", e.Kind, e)
	}
	p, b, ok := u.Catalogue.Lookup(e)
	if !ok {
		if u.Catalogue.Has(head) {
			return nil, u.errorf(e, errors.UnresolvedPrimitive, "no signature of %s matches %s", describeHead(e), e)
		}
		return nil, u.errorf(e, errors.UnresolvedPrimitive, "unresolved primitive %s", describeHead(e))
	}
	var operands []values.T
	for _, name := range b.Names() {
		for _, arg := range b.Get(name) {
			op, err := u.expr(arg)
			if err != nil {
				return nil, err
			}
			operands = append(operands, op)
		}
	}
	name, err := u.name(p.Match.Name, "", e)
	if err != nil {
		return nil, err
	}
	prim, err := p.Match.Create(operands, name, u.snippet)
	if err != nil {
		return nil, u.wrap(e, err)
	}
	u.record(name, prim)
	return prim, nil
}

// call compiles a call of a user-defined function or of a function
// value held in a variable or argument.
func (u *unit) call(e *ast.Expr, b Binding) (values.T, error) {
	id := ast.NewIdent(e.Ident)
	id.Position, id.Tag1, id.Tag2 = e.Position, e.Tag1, e.Tag2
	callee, err := u.ident(id)
	if err != nil {
		return nil, err
	}
	args, err := u.arguments(e, b.Func)
	if err != nil {
		return nil, err
	}
	name, err := u.name("call-function", e.Ident, e)
	if err != nil {
		return nil, err
	}
	prim, err := primitive.NewCall(append([]values.T{callee}, args...), name, u.snippet)
	if err != nil {
		return nil, u.wrap(e, err)
	}
	u.record(name, prim)
	return prim, nil
}

// arguments compiles the arguments of a call of fn. Named arguments
// are placed in the positions of the formals with those names;
// omitted formals receive primitive.Missing, which requests their
// defaults. Named arguments require the function to be known.
func (u *unit) arguments(e *ast.Expr, fn *primitive.Function) ([]values.T, error) {
	var (
		args  []values.T
		named bool
	)
	for _, arg := range e.List {
		if arg.Kind != ast.ExprCall || arg.Ident != "__arg" {
			if named {
				return nil, u.errorf(arg, errors.InvalidStatus, "positional argument %s follows a named argument", arg)
			}
			op, err := u.expr(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, op)
			continue
		}
		named = true
		if fn == nil {
			return nil, u.errorf(arg, errors.InvalidStatus, "%s does not accept named arguments", e.Ident)
		}
		if len(arg.List) != 2 || arg.List[0].Kind != ast.ExprIdent {
			return nil, u.errorf(arg, errors.InvalidStatus, "malformed named argument %s", arg)
		}
		i := -1
		for j, p := range fn.Params {
			if p.Name == arg.List[0].Ident {
				i = j
			}
		}
		if i < 0 || fn.Variadic && i == len(fn.Params)-1 {
			return nil, u.errorf(arg, errors.InvalidStatus, "%s has no parameter %s", e.Ident, arg.List[0].Ident)
		}
		for len(args) <= i {
			args = append(args, primitive.Missing)
		}
		if args[i] != primitive.Missing {
			return nil, u.errorf(arg, errors.InvalidStatus, "argument %s given twice", arg.List[0].Ident)
		}
		op, err := u.expr(arg.List[1])
		if err != nil {
			return nil, err
		}
		args[i] = op
	}
	return args, nil
}

// define compiles define(x, body) and define(f, params..., body).
func (u *unit) define(e *ast.Expr) (values.T, error) {
	if len(e.List) < 2 {
		return nil, u.errorf(e, errors.InvalidStatus, "define expects a name and a body")
	}
	id := e.List[0]
	if id.Kind != ast.ExprIdent || id.Ident == "nil" {
		return nil, u.errorf(id, errors.InvalidStatus, "define expects a name, got %s", id)
	}
	if len(e.List) == 2 {
		body, err := u.expr(e.List[1])
		if err != nil {
			return nil, err
		}
		name, err := u.name("variable", id.Ident, e)
		if err != nil {
			return nil, err
		}
		v := primitive.NewVariable(id.Ident, body, name, u.snippet)
		u.record(name, v)
		u.env = u.env.Bind(Binding{Name: id.Ident, Var: v})
		return v, nil
	}
	name, err := u.name("variable", id.Ident, e)
	if err != nil {
		return nil, err
	}
	v := primitive.NewVariable(id.Ident, nil, name, u.snippet)
	u.record(name, v)
	// Functions are bound before their bodies are compiled so that
	// they may call themselves.
	fn, err := u.function(e, id.Ident, e.List[1:], func(fn *primitive.Function) {
		u.env = u.env.Bind(Binding{Name: id.Ident, Var: v, Func: fn})
	})
	if err != nil {
		return nil, err
	}
	v.Args = []values.T{fn}
	return v, nil
}

// lambda compiles lambda(params..., body).
func (u *unit) lambda(e *ast.Expr) (values.T, error) {
	if len(e.List) == 0 {
		return nil, u.errorf(e, errors.InvalidStatus, "lambda expects a body")
	}
	return u.function(e, "", e.List, nil)
}

// function compiles a function from its formals and body; the last
// element of list is the body. If bind is non-nil, it is called with
// the function before its body is compiled.
func (u *unit) function(e *ast.Expr, instance string, list []*ast.Expr, bind func(*primitive.Function)) (*primitive.Function, error) {
	formals, bodyExpr := list[:len(list)-1], list[len(list)-1]
	var (
		params   []primitive.Param
		variadic bool
	)
	for i, f := range formals {
		var (
			id  = f
			def values.T
		)
		if f.Kind == ast.ExprCall && f.Ident == "__arg" && len(f.List) == 2 {
			id = f.List[0]
			var err error
			if def, err = u.expr(f.List[1]); err != nil {
				return nil, err
			}
			if def == nil {
				return nil, u.errorf(f, errors.InvalidStatus, "parameter %s has a nil default", id)
			}
		}
		if id.Kind != ast.ExprIdent || id.Ident == "nil" {
			return nil, u.errorf(f, errors.InvalidStatus, "invalid parameter %s", f)
		}
		if strings.HasPrefix(id.Ident, "__") {
			if i != len(formals)-1 || def != nil {
				return nil, u.errorf(f, errors.InvalidStatus, "variadic parameter %s must be last and have no default", id)
			}
			variadic = true
		}
		for _, p := range params {
			if p.Name == id.Ident {
				return nil, u.errorf(f, errors.InvalidStatus, "duplicate parameter %s", id)
			}
		}
		params = append(params, primitive.Param{Name: id.Ident, Default: def})
	}
	typ := "function"
	if instance == "" {
		typ = "lambda"
	}
	name, err := u.name(typ, instance, e)
	if err != nil {
		return nil, err
	}
	fn := primitive.NewFunction(instance, params, variadic, nil, name, u.snippet)
	u.record(name, fn)
	if bind != nil {
		bind(fn)
	}
	outer := u.env
	u.env = u.env.Push()
	for i, p := range params {
		u.env = u.env.Bind(Binding{Name: p.Name, Index: i})
	}
	body, err := u.expr(bodyExpr)
	u.env = outer
	if err != nil {
		return nil, err
	}
	fn.Args[0] = body
	return fn, nil
}

// name composes the name of a new instance of primitive type prim
// compiled from e.
func (u *unit) name(prim, instance string, e *ast.Expr) (string, error) {
	p := names.New(prim)
	if u.Locality != nil {
		p.Locality = uint32(u.Locality.ID)
	}
	p.Sequence = u.Snippets.nextSequence(prim)
	p.Instance = instance
	p.CompileID = u.compileID
	p.Tag1, p.Tag2 = e.Tag1, e.Tag2
	name, err := names.Compose(p)
	if err != nil {
		return "", u.wrap(e, err)
	}
	return name, nil
}

// record notes a created primitive. Primitives are indexed in the
// snippet cache only once the whole snippet has compiled.
func (u *unit) record(name string, p primitive.Primitive) {
	u.created = append(u.created, name)
	u.prims = append(u.prims, p)
}

func (u *unit) errorf(e *ast.Expr, kind errors.Kind, format string, args ...interface{}) error {
	return errors.E("compile", position(u.snippet, e), kind, errors.Errorf(format, args...))
}

func (u *unit) wrap(e *ast.Expr, err error) error {
	return errors.E("compile", position(u.snippet, e), err)
}

// position returns the source position of e: file:line:column if
// the parser recorded one, otherwise the snippet name and the
// expression's tags.
func position(snippet string, e *ast.Expr) string {
	if e.Position.IsValid() {
		return e.Position.String()
	}
	return fmt.Sprintf("%s(%d, %d)", snippet, e.Tag1, e.Tag2)
}

func describeHead(e *ast.Expr) string {
	switch e.Kind {
	case ast.ExprBinary:
		return fmt.Sprintf("operator %s", e.Ops[0])
	case ast.ExprUnary:
		return fmt.Sprintf("unary operator %s", e.Op)
	}
	return e.Ident
}

// array converts a literal array to a value.
func array(e *ast.Expr) *values.Array {
	var data []float64
	e.Walk(func(x *ast.Expr) bool {
		switch x.Kind {
		case ast.ExprInt:
			data = append(data, float64(x.Int))
		case ast.ExprFloat:
			data = append(data, x.Float)
		}
		return true
	})
	return values.NewArray(e.Shape(), data)
}
