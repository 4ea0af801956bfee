// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package primitive

import (
	"context"
	"fmt"

	"github.com/grailbio/phylanx/errors"
	"github.com/grailbio/phylanx/values"
)

// Variable is a named variable, created by define(name, body).
// Evaluating the variable evaluates its body and binds the result in
// the current frame; the value is returned. Each invocation of the
// enclosing function has its own binding.
type Variable struct {
	Base
	// Instance is the variable's name.
	Instance string
}

// NewVariable returns a new variable. Its first operand, if any, is
// its body.
func NewVariable(instance string, body values.T, name, codename string) *Variable {
	var args []values.T
	if body != nil {
		args = []values.T{body}
	}
	return &Variable{Base: NewBase(args, name, codename), Instance: instance}
}

// Body returns the variable's body.
func (v *Variable) Body() values.T {
	if len(v.Args) == 0 {
		return nil
	}
	return v.Args[0]
}

// Eval implements Primitive.
func (v *Variable) Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error) {
	val, err := Value(ctx, v.Body(), args, ec)
	if err != nil {
		return nil, err
	}
	ec.Frame(0).Set(v, val)
	return val, nil
}

// AccessVariable reads a variable defined up frames out from the
// frame in which it is evaluated. A variable that has not yet been
// bound is bound by evaluating its body in its defining frame.
type AccessVariable struct {
	Base
	Var *Variable
	Up  int
}

// NewAccessVariable returns a new variable access.
func NewAccessVariable(v *Variable, up int, name, codename string) *AccessVariable {
	return &AccessVariable{Base: NewBase(nil, name, codename), Var: v, Up: up}
}

// Eval implements Primitive.
func (a *AccessVariable) Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error) {
	f := ec.Frame(a.Up)
	if f == nil {
		return nil, a.Error(errors.InvalidStatus, "variable %s is not in scope", a.Var.Instance)
	}
	if val, ok := f.Get(a.Var); ok {
		return val, nil
	}
	return a.Var.Eval(ctx, f.Args, ec.WithFrame(f))
}

// Store assigns a new value to a variable: store(variable, value).
// Store evaluates to nil.
type Store struct {
	Base
	Target *AccessVariable
}

// NewStore returns a new store primitive. Its first operand must be
// a variable access.
func NewStore(operands []values.T, name, codename string) (Primitive, error) {
	s := &Store{Base: NewBase(operands, name, codename)}
	if err := s.ValidateArity(2, 2); err != nil {
		return nil, err
	}
	target, ok := operands[0].(*AccessVariable)
	if !ok {
		return nil, s.Error(errors.InvalidStatus, "the first operand of store must be a variable, got %s", describe(operands[0]))
	}
	s.Target = target
	return s, nil
}

// Eval implements Primitive.
func (s *Store) Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error) {
	val, err := Value(ctx, s.Args[1], args, ec)
	if err != nil {
		return nil, err
	}
	f := ec.Frame(s.Target.Up)
	if f == nil {
		return nil, s.Error(errors.InvalidStatus, "variable %s is not in scope", s.Target.Var.Instance)
	}
	f.Set(s.Target.Var, val)
	return nil, nil
}

// AccessArgument reads argument Index of the invocation Up frames
// out from the current one.
type AccessArgument struct {
	Base
	Index int
	Up    int
}

// NewAccessArgument returns a new argument access.
func NewAccessArgument(index, up int, name, codename string) *AccessArgument {
	return &AccessArgument{Base: NewBase(nil, name, codename), Index: index, Up: up}
}

// Eval implements Primitive.
func (a *AccessArgument) Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error) {
	if a.Up > 0 {
		f := ec.Frame(a.Up)
		if f == nil {
			return nil, a.Error(errors.InvalidStatus, "argument %d is not in scope", a.Index)
		}
		args = f.Args
	}
	if a.Index >= len(args) {
		return nil, a.Error(errors.BadParameter, "argument %d was not supplied (got %d arguments)", a.Index, len(args))
	}
	return args[a.Index], nil
}

// Param is a formal parameter of a user function.
type Param struct {
	Name string
	// Default is the operand evaluated for the parameter when the
	// argument is not supplied. Nil means the argument is required.
	Default values.T
}

// Function is a user-defined function: define(f, params..., body) or
// lambda(params..., body). Evaluating a Function yields a function
// value (a values.Func) that closes over the current frame. The
// function's single operand is its body.
type Function struct {
	Base
	Instance string
	Params   []Param
	// Variadic tells whether the last parameter collects any surplus
	// arguments into a list.
	Variadic bool
}

// NewFunction returns a new function primitive.
func NewFunction(instance string, params []Param, variadic bool, body values.T, name, codename string) *Function {
	return &Function{
		Base:     NewBase([]values.T{body}, name, codename),
		Instance: instance,
		Params:   params,
		Variadic: variadic,
	}
}

// Eval implements Primitive.
func (f *Function) Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error) {
	return &Closure{fn: f, ec: ec}, nil
}

// Missing is passed as an argument to a function to request the
// default value of the corresponding parameter.
var Missing = missing{}

type missing struct{}

func (missing) String() string { return "<missing>" }

// Closure is a function value: a Function together with the context
// in which it was created.
type Closure struct {
	fn *Function
	ec *Context
}

// Function returns the closure's function.
func (c *Closure) Function() *Function {
	return c.fn
}

// Name implements values.Func.
func (c *Closure) Name() string {
	if c.fn.Instance != "" {
		return c.fn.Instance
	}
	return c.fn.DisplayName()
}

// Arity implements values.Func.
func (c *Closure) Arity() (int, bool) {
	return len(c.fn.Params), c.fn.Variadic
}

// Apply implements values.Func. Missing trailing arguments take their
// parameters' defaults; a variadic function's surplus arguments are
// collected into a list bound to its last parameter.
func (c *Closure) Apply(ctx context.Context, args []values.T) (values.T, error) {
	n := len(c.fn.Params)
	fixed := n
	if c.fn.Variadic {
		fixed = n - 1
	}
	args = append([]values.T{}, args...)
	for len(args) < fixed && c.fn.Params[len(args)].Default != nil {
		args = append(args, Missing)
	}
	switch {
	case len(args) < fixed && c.fn.Variadic:
		return nil, c.fn.Error(errors.InvalidStatus, "%s expects at least %d arguments, got %d", c.Name(), fixed, len(args))
	case len(args) < fixed || len(args) > fixed && !c.fn.Variadic:
		return nil, c.fn.Error(errors.InvalidStatus, "%s expects %d arguments, got %d", c.Name(), fixed, len(args))
	}
	for i := 0; i < fixed; i++ {
		if args[i] != Missing {
			continue
		}
		d := c.fn.Params[i].Default
		if d == nil {
			return nil, c.fn.Error(errors.InvalidStatus, "%s: missing argument %s", c.Name(), c.fn.Params[i].Name)
		}
		v, err := Value(ctx, d, c.ec.Frame(0).Args, c.ec)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if c.fn.Variadic {
		rest := append(values.List{}, args[fixed:]...)
		args = append(args[:fixed:fixed], rest)
	}
	ec := c.ec.WithFrame(NewFrame(args, c.ec.Frame(0)))
	return Value(ctx, c.fn.Args[0], args, ec)
}

func (c *Closure) String() string {
	return fmt.Sprintf("function(%s)", c.Name())
}

// Call invokes a function value: its first operand evaluates to the
// function, the remaining operands to the arguments.
type Call struct {
	Base
}

// NewCall returns a new call primitive.
func NewCall(operands []values.T, name, codename string) (Primitive, error) {
	c := &Call{Base: NewBase(operands, name, codename)}
	if err := c.ValidateArity(1, -1); err != nil {
		return nil, err
	}
	return c, nil
}

// Eval implements Primitive.
func (c *Call) Eval(ctx context.Context, args []values.T, ec *Context) (values.T, error) {
	vals, err := EvalOperands(ctx, c.Args, args, ec)
	if err != nil {
		return nil, err
	}
	fn, ok := vals[0].(values.Func)
	if !ok {
		return nil, c.Error(errors.InvalidStatus, "cannot call a value of type %s", values.TypeName(vals[0]))
	}
	v, err := fn.Apply(ctx, vals[1:])
	if err != nil {
		return nil, c.Wrap(err)
	}
	return v, nil
}

func describe(v values.T) string {
	switch v := v.(type) {
	case Primitive:
		return fmt.Sprintf("primitive %s", v.Name())
	default:
		return values.TypeName(v)
	}
}
