// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package values

import (
	"fmt"
	"strings"

	"github.com/grailbio/phylanx/errors"
)

// Annotation is a named hierarchical key/value structure attached to
// values. Its values are scalars, lists, or nested annotations. In
// PhySL, annotations are written as lists whose first element is the
// key:
//
//	list("tile", list("rows", 0, 2), list("columns", 0, 3))
type Annotation struct {
	Key  string
	Vals List
}

// NewAnnotation returns a new annotation with the given key and values.
func NewAnnotation(key string, vals ...T) *Annotation {
	return &Annotation{Key: key, Vals: List(vals)}
}

// AnnotationFromList converts a PhySL list of the form
// list(key, vals...) into an annotation. Nested lists whose first
// element is a string are converted recursively.
func AnnotationFromList(l List) (*Annotation, error) {
	if len(l) == 0 {
		return nil, errors.E("annotation", errors.BadParameter, errors.New("annotation list must not be empty"))
	}
	key, ok := l[0].(string)
	if !ok {
		return nil, errors.E("annotation", errors.BadParameter,
			errors.Errorf("annotation key must be a string, got %s", TypeName(l[0])))
	}
	a := &Annotation{Key: key}
	for _, v := range l[1:] {
		if sub, ok := v.(List); ok && len(sub) > 0 {
			if _, ok := sub[0].(string); ok {
				nested, err := AnnotationFromList(sub)
				if err != nil {
					return nil, err
				}
				v = nested
			}
		}
		a.Vals = append(a.Vals, v)
	}
	return a, nil
}

// Find returns the first nested annotation with the given key.
func (a *Annotation) Find(key string) (*Annotation, bool) {
	if a == nil {
		return nil, false
	}
	for _, v := range a.Vals {
		if sub, ok := v.(*Annotation); ok && sub.Key == key {
			return sub, true
		}
	}
	return nil, false
}

// List converts the annotation back into its PhySL list form.
func (a *Annotation) List() List {
	l := List{a.Key}
	for _, v := range a.Vals {
		if sub, ok := v.(*Annotation); ok {
			v = sub.List()
		}
		l = append(l, v)
	}
	return l
}

// Equal tells whether two annotations are structurally equal.
func (a *Annotation) Equal(b *Annotation) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key == b.Key && Equal(a.Vals, b.Vals)
}

// String renders the annotation.
func (a *Annotation) String() string {
	elems := make([]string, len(a.Vals)+1)
	elems[0] = fmt.Sprintf("%q", a.Key)
	for i, v := range a.Vals {
		elems[i+1] = Sprint(v)
	}
	return fmt.Sprintf("annotation(%s)", strings.Join(elems, ", "))
}
