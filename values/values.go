// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package values defines the runtime representation of PhySL values.
//
// Values are represented by values.T, defined as
//
//	type T = interface{}
//
// which is done to clarify code that uses PhySL values. The concrete
// representations are:
//
//	nil          the invalid (empty) value
//	bool         booleans
//	int64        integers
//	float64      reals
//	string       strings
//	*Array       numeric arrays of rank 0 to 4 ("node data")
//	List         lists
//	*Dict        dictionaries
//	Range        integer ranges
//	Func         function values (closures, user functions)
//	*Annotation  named hierarchical key/value annotations
package values

import (
	"context"
	"crypto"
	// The SHA-256 implementation is required for this package's
	// Digester.
	_ "crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/base/digest"
)

// Digester is the digester used to compute value digests.
var Digester = digest.Digester(crypto.SHA256)

// T is the type of value. It is just an alias to interface{},
// but is used throughout code for clarity.
type T = interface{}

// List is the type of list values.
type List []T

// Range is the type of integer range values. A range denotes the
// integers Start, Start+Step, ... up to but excluding Stop.
type Range struct {
	Start, Stop, Step int64
}

// Len returns the number of elements in the range.
func (r Range) Len() int {
	switch {
	case r.Step > 0 && r.Stop > r.Start:
		return int((r.Stop - r.Start + r.Step - 1) / r.Step)
	case r.Step < 0 && r.Stop < r.Start:
		return int((r.Start - r.Stop - r.Step - 1) / -r.Step)
	}
	return 0
}

// List expands the range into a list of integers.
func (r Range) List() List {
	l := make(List, r.Len())
	for i := range l {
		l[i] = r.Start + int64(i)*r.Step
	}
	return l
}

// Func is the type of function values. Function values are produced
// by define and lambda and are invoked by the call, map, fold, and
// apply primitives.
type Func interface {
	// Apply invokes the function with the provided arguments.
	Apply(ctx context.Context, args []T) (T, error)
	// Arity returns the number of formal parameters and whether the
	// last of them collects any surplus arguments.
	Arity() (n int, variadic bool)
	// Name returns the function's name, used in diagnostics.
	Name() string
}

// Valid tells whether v is a valid (non-empty) value.
func Valid(v T) bool {
	return v != nil
}

// Bool interprets v as a condition. Booleans are themselves;
// numbers (and rank-0 arrays) are true when non-zero; strings and
// lists are true when non-empty. The second result is false if v
// cannot be interpreted as a condition.
func Bool(v T) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case int64:
		return v != 0, true
	case float64:
		return v != 0, true
	case string:
		return v != "", true
	case List:
		return len(v) > 0, true
	case *Array:
		if v.Rank() == 0 {
			return v.Data[0] != 0, true
		}
	}
	return false, false
}

// Int interprets v as an integer.
func Int(v T) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
	case *Array:
		if v.Rank() == 0 && v.Data[0] == math.Trunc(v.Data[0]) {
			return int64(v.Data[0]), true
		}
	}
	return 0, false
}

// Float interprets v as a real.
func Float(v T) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case *Array:
		if v.Rank() == 0 {
			return v.Data[0], true
		}
	}
	return 0, false
}

// ToList interprets v as a list. Ranges are expanded and vectors
// yield their elements.
func ToList(v T) (List, bool) {
	switch v := v.(type) {
	case List:
		return v, true
	case Range:
		return v.List(), true
	case *Array:
		if v.Rank() != 1 {
			return nil, false
		}
		l := make(List, len(v.Data))
		for i, f := range v.Data {
			l[i] = f
		}
		return l, true
	}
	return nil, false
}

// Equal tells whether values v and w are structurally equal. Arrays
// are equal if their shapes and elements are; functions are equal
// only to themselves.
func Equal(v, w T) bool {
	switch v := v.(type) {
	case nil:
		return w == nil
	case List:
		w, ok := w.(List)
		if !ok || len(v) != len(w) {
			return false
		}
		for i := range v {
			if !Equal(v[i], w[i]) {
				return false
			}
		}
		return true
	case *Array:
		w, ok := w.(*Array)
		return ok && v.Equal(w)
	case *Dict:
		w, ok := w.(*Dict)
		return ok && v.Equal(w)
	case *Annotation:
		w, ok := w.(*Annotation)
		return ok && v.Equal(w)
	case Func:
		w, ok := w.(Func)
		return ok && v == w
	default:
		return v == w
	}
}

// Less tells whether scalar value v is less than w. Values of
// different kinds are ordered by kind.
func Less(v, w T) bool {
	if kv, kw := kindOrder(v), kindOrder(w); kv != kw {
		return kv < kw
	}
	switch v := v.(type) {
	case bool:
		return !v && w.(bool)
	case int64:
		return v < w.(int64)
	case float64:
		return v < w.(float64)
	case string:
		return v < w.(string)
	default:
		panic(fmt.Sprintf("attempted to compare incomparable values of type %T", v))
	}
}

func kindOrder(v T) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64:
		return 2
	case float64:
		return 3
	case string:
		return 4
	}
	return 5
}

// Sprint returns a pretty-printed version of value v.
func Sprint(v T) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	case string:
		return strconv.Quote(v)
	case List:
		elems := make([]string, len(v))
		for i, e := range v {
			elems[i] = Sprint(e)
		}
		return fmt.Sprintf("list(%s)", strings.Join(elems, ", "))
	case Range:
		return fmt.Sprintf("range(%d, %d, %d)", v.Start, v.Stop, v.Step)
	case *Array:
		return v.String()
	case *Dict:
		return v.String()
	case *Annotation:
		return v.String()
	case Func:
		return fmt.Sprintf("function(%s)", v.Name())
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("<%T>", v)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// TypeName returns a short description of v's kind, used in
// diagnostics.
func TypeName(v T) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case int64:
		return "integer"
	case float64:
		return "real"
	case string:
		return "string"
	case List:
		return "list"
	case Range:
		return "range"
	case *Array:
		return fmt.Sprintf("array(rank %d)", v.Rank())
	case *Dict:
		return "dictionary"
	case *Annotation:
		return "annotation"
	case Func:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func writeLength(w io.Writer, n int) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(n))
	w.Write(b[:])
}

// Digest computes the digest for value v.
func Digest(v T) digest.Digest {
	w := Digester.NewWriter()
	WriteDigest(w, v)
	return w.Digest()
}

// WriteDigest writes digest material for value v into the writer w.
// Function values cannot be digested; WriteDigest panics if it
// encounters one.
func WriteDigest(w io.Writer, v T) {
	w.Write([]byte{byte(kindOrder(v))})
	switch v := v.(type) {
	case nil:
	case bool:
		if v {
			w.Write([]byte{1})
		} else {
			w.Write([]byte{0})
		}
	case int64:
		writeLength(w, int(v))
	case float64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		w.Write(b[:])
	case string:
		io.WriteString(w, v)
	case List:
		io.WriteString(w, "list")
		writeLength(w, len(v))
		for _, e := range v {
			WriteDigest(w, e)
		}
	case Range:
		io.WriteString(w, "range")
		writeLength(w, int(v.Start))
		writeLength(w, int(v.Stop))
		writeLength(w, int(v.Step))
	case *Array:
		io.WriteString(w, "array")
		writeLength(w, len(v.Shape))
		for _, n := range v.Shape {
			writeLength(w, n)
		}
		var b [8]byte
		for _, f := range v.Data {
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
			w.Write(b[:])
		}
	case *Annotation:
		io.WriteString(w, "annotation")
		io.WriteString(w, v.Key)
		WriteDigest(w, v.Vals)
	case *Dict:
		io.WriteString(w, "dict")
		writeLength(w, v.Len())
		v.Each(func(k, e T) {
			WriteDigest(w, k)
			WriteDigest(w, e)
		})
	default:
		panic(fmt.Sprintf("cannot digest value of type %T", v))
	}
}
