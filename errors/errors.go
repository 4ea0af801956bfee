// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package errors provides the error definition used throughout the
// PhySL compiler and execution engine. Each error is assigned a kind
// (the class of failure), an operation (for primitives, the
// primitive's display name) and optional arguments (for primitives,
// the codename of the compilation unit). Errors may be chained and
// thus annotate upstream errors.
//
// Errors may be serialized to- and deserialized from JSON so that
// failures on a remote locality are reported faithfully to the
// requesting locality.
//
// Package errors provides functions Errorf and New as convenience
// constructors, so that users need import only one error package.
package errors

import (
	"bytes"
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"os"
	"runtime"

	"github.com/grailbio/phylanx/log"
)

// Separator is inserted between chained errors while rendering.
var Separator = ":\n\t"

// Kind denotes the type of the error.
type Kind int

const (
	// Other denotes an unknown error.
	Other Kind = iota
	// BadParameter denotes a wrong operand arity, an invalid (empty)
	// operand, an operand of the wrong shape, or malformed
	// distribution parameters.
	BadParameter
	// InvalidStatus denotes a semantically invalid program structure,
	// detected by a later structural check.
	InvalidStatus
	// UnresolvedPrimitive denotes a function call that could not be
	// matched against the pattern catalogue or the environment.
	UnresolvedPrimitive
	// ParseFailure denotes source text that does not conform to the
	// PhySL grammar.
	ParseFailure
	// NotExist denotes a reference to a nonexistent resource, such as
	// an unknown snippet or named tile.
	NotExist
	// NotSupported indicates the operation was not supported.
	NotSupported
	// Canceled denotes a cancellation error.
	Canceled
	// Timeout denotes a timeout error.
	Timeout
	// Net denotes a network error talking to a peer locality.
	Net
	// Unavailable denotes that a peer is temporarily unavailable.
	Unavailable

	maxKind
)

// String renders a human-readable description of kind k.
func (k Kind) String() string {
	switch k {
	default:
		return "unknown error"
	case BadParameter:
		return "bad parameter"
	case InvalidStatus:
		return "invalid status"
	case UnresolvedPrimitive:
		return "unresolved primitive"
	case ParseFailure:
		return "parse failure"
	case NotExist:
		return "resource does not exist"
	case NotSupported:
		return "operation not supported"
	case Canceled:
		return "canceled"
	case Timeout:
		return "timeout"
	case Net:
		return "network error"
	case Unavailable:
		return "unavailable"
	}
}

var kind2string = [maxKind]string{
	Other:               "Other",
	BadParameter:        "BadParameter",
	InvalidStatus:       "InvalidStatus",
	UnresolvedPrimitive: "UnresolvedPrimitive",
	ParseFailure:        "ParseFailure",
	NotExist:            "NotExist",
	NotSupported:        "NotSupported",
	Canceled:            "Canceled",
	Timeout:             "Timeout",
	Net:                 "Net",
	Unavailable:         "Unavailable",
}

var string2kind = map[string]Kind{
	"Other":               Other,
	"BadParameter":        BadParameter,
	"InvalidStatus":       InvalidStatus,
	"UnresolvedPrimitive": UnresolvedPrimitive,
	"ParseFailure":        ParseFailure,
	"NotExist":            NotExist,
	"NotSupported":        NotSupported,
	"Canceled":            Canceled,
	"Timeout":             Timeout,
	"Net":                 Net,
	"Unavailable":         Unavailable,
}

// Error is the error type used by the engine. It records the kind of
// failure, the operation (and arguments) that failed, and may wrap
// another error.
//
// Errors should be constructed by errors.E.
type Error struct {
	// Kind is the error's type.
	Kind Kind
	// Op is a short description of the failing operation. Primitives
	// use their display name.
	Op string
	// Arg is an (optional) list of arguments to the operation.
	// Primitives supply their codename.
	Arg []string
	// Err is this error's underlying error.
	Err error
}

// E is used to construct errors. E constructs errors from a set of
// arguments; each of which must be one of the following types:
//
//	string
//		The first string argument is taken as the error's Op; subsequent
//		arguments are taken as the error's Arg.
//	Kind
//		Taken as the error's Kind.
//	error
//		Taken as the error's underlying error.
//
// If a Kind is provided, there is no further processing. If not, and
// an underlying error is provided, E attempts to interpret it: (1) an
// underlying *Error donates its Kind; (2) context.Canceled and
// context.DeadlineExceeded map to Canceled and Timeout; (3) an
// os.IsNotExist error maps to NotExist.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("no args")
	}
	e := new(Error)
	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			if e.Op == "" {
				e.Op = arg
			} else {
				e.Arg = append(e.Arg, arg)
			}
		case Kind:
			e.Kind = arg
		case *Error:
			copy := *arg
			e.Err = &copy
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			log.Printf("errors.E: bad call (type %T) from %s:%d: %v", arg, file, line, args)
			return Errorf("unknown type %T, value %v in error call", arg, arg)
		}
	}
	if e.Err == nil {
		return e
	}
	switch prev := e.Err.(type) {
	case *Error:
		if prev.Kind == e.Kind || e.Kind == Other {
			e.Kind = prev.Kind
			prev.Kind = Other
		}
		if prev.Op == "" && prev.Kind == Other {
			e.Err = prev.Err
		}
	default:
		if e.Kind != Other {
			break
		}
		switch {
		case e.Err == context.Canceled:
			e.Kind = Canceled
		case e.Err == context.DeadlineExceeded:
			e.Kind = Timeout
		case os.IsNotExist(e.Err):
			e.Kind = NotExist
		}
	}
	return e
}

func pad(b *bytes.Buffer, s string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(s)
}

// Error renders this error and its chain of underlying errors,
// separated by Separator.
func (e *Error) Error() string {
	return e.ErrorSeparator(Separator)
}

// ErrorSeparator renders this errors and its chain of underlying
// errors, separated by sep.
func (e *Error) ErrorSeparator(sep string) string {
	if e == nil {
		return "<nil>"
	}
	b := new(bytes.Buffer)
	if e.Op != "" {
		b.WriteString(e.Op)
		for i := range e.Arg {
			b.WriteString(" " + e.Arg[i])
		}
	}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		if err, ok := e.Err.(*Error); ok {
			pad(b, sep)
			b.WriteString(err.ErrorSeparator(sep))
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}
	return b.String()
}

// Unwrap returns the underlying error, so that *Error composes with
// the standard library's errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary tells whether this error is temporary.
func (e *Error) Temporary() bool {
	return e.Kind == Unavailable || e.Kind == Net
}

// Errorf is an alternate spelling of fmt.Errorf.
var Errorf = fmt.Errorf

// New is an alternate spelling of errors.New.
var New = goerrors.New

// Recover recovers any error into an *Error. If the passed-in Error
// is already an error, it is simply returned; otherwise it is wrapped.
func Recover(err error) *Error {
	if err == nil {
		return nil
	}
	if err, ok := err.(*Error); ok {
		return err
	}
	return E(err).(*Error)
}

// Is tells whether err (or, if err is an *Error, the first error in
// its chain with a kind) has kind k.
func Is(k Kind, err error) bool {
	if err == nil {
		return false
	}
	for {
		e, ok := err.(*Error)
		if !ok {
			return false
		}
		if e.Kind != Other {
			return e.Kind == k
		}
		if e.Err == nil {
			return k == Other
		}
		err = e.Err
	}
}

// HTTPStatus indicates the HTTP status that should be presented
// in conjunction with this error.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case NotExist:
		return 404 // Not Found
	case NotSupported:
		return 405 // Method Not Allowed
	case BadParameter, InvalidStatus, ParseFailure:
		return 400 // Bad Request
	case Unavailable:
		return 503 // Service Unavailable
	default:
		return 500 // Internal Server Error
	}
}

type jsonError struct {
	Op    string
	Arg   []string
	Kind  string
	Cause *jsonError `json:",omitempty"`
	Error string
}

func (j *jsonError) toError() error {
	if j == nil {
		return nil
	}
	if j.Error != "" {
		return New(j.Error)
	}
	var args []interface{}
	args = append(args, j.Op)
	for _, arg := range j.Arg {
		args = append(args, arg)
	}
	args = append(args, string2kind[j.Kind])
	if j.Cause != nil {
		args = append(args, j.Cause.toError())
	}
	return E(args...)
}

func toJSON(err error) *jsonError {
	switch e := err.(type) {
	case *Error:
		j := &jsonError{
			Op:   e.Op,
			Arg:  e.Arg,
			Kind: kind2string[e.Kind],
		}
		if e.Err != nil {
			j.Cause = toJSON(e.Err)
		}
		return j
	default:
		return &jsonError{Error: err.Error()}
	}
}

// MarshalJSON implements JSON marshalling for Error.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(e))
}

// UnmarshalJSON implements JSON unmarshalling for Error.
func (e *Error) UnmarshalJSON(b []byte) error {
	var ej jsonError
	if err := json.Unmarshal(b, &ej); err != nil {
		return err
	}
	e2, ok := ej.toError().(*Error)
	if !ok {
		return Errorf("expected *Error, got %T", e2)
	}
	*e = *e2
	return nil
}

// Match compares err1 with err2. If err1 has type Kind, Match
// reports whether err2's Kind is the same, otherwise, Match checks
// that every nonempty field in err1 has the same value in err2. If
// err1 is an *Error with a non-nil Err field, Match recurs to check
// that the two errors chain of underlying errors also match.
func Match(err1 interface{}, err2 error) bool {
	e2 := Recover(err2)
	if e2 == nil {
		return false
	}
	switch e1 := err1.(type) {
	default:
		return false
	case Kind:
		return e1 == e2.Kind
	case *Error:
		if e1.Op != "" && e2.Op != e1.Op {
			return false
		}
		if len(e1.Arg) != len(e2.Arg) {
			return false
		}
		for i := range e1.Arg {
			if e1.Arg[i] != e2.Arg[i] {
				return false
			}
		}
		if e1.Kind != Other && e2.Kind != e1.Kind {
			return false
		}
		if e1.Err != nil {
			if _, ok := e1.Err.(*Error); ok {
				return Match(e1.Err, e2.Err)
			}
			if e2.Err == nil || e2.Err.Error() != e1.Err.Error() {
				return false
			}
		}
		return true
	}
}
