// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package names implements the primitive-name codec. Every primitive
// instance created by the compiler is identified by a name of the
// form
//
//	/phylanx[$locality]/primitive$sequence[$instance]/compile_id$tag1[$tag2]
//
// The name doubles as the instance's registration key for
// distributed addressing and as its diagnostic label. External
// tooling (topology dumps, performance-counter correlation) parses
// it, so the format is fixed.
package names

import (
	"strconv"
	"strings"

	"github.com/grailbio/phylanx/errors"
)

const (
	// NoLocality is the sentinel for an unspecified locality.
	NoLocality = ^uint32(0)
	// Unset is the sentinel for unset sequence numbers, compile ids,
	// and tags.
	Unset = -1

	prefix = "/phylanx"
)

// Parts are the components of a primitive name.
type Parts struct {
	// Locality is the id of the locality owning the instance, or
	// NoLocality.
	Locality uint32
	// Primitive is the primitive type name, e.g. "block" or "__add".
	Primitive string
	// Sequence disambiguates instances of the same primitive type
	// within one compile unit.
	Sequence int64
	// Instance is the user-visible variable or function name, if any.
	Instance string
	// CompileID groups all primitives created by one compile
	// invocation.
	CompileID int64
	// Tag1 and Tag2 are the source tags of the AST node the instance
	// was created from.
	Tag1, Tag2 int64
}

// New returns Parts for the given primitive type with all other
// components unset.
func New(primitive string) Parts {
	return Parts{
		Locality:  NoLocality,
		Primitive: primitive,
		Sequence:  Unset,
		CompileID: Unset,
		Tag1:      Unset,
		Tag2:      Unset,
	}
}

// Normalize returns p with sentinels replaced by the values they
// encode as: sequence numbers and compile ids default to 0, a
// negative first tag is clamped to 0, and a negative second tag
// becomes Unset.
func (p Parts) Normalize() Parts {
	if p.Sequence < 0 {
		p.Sequence = 0
	}
	if p.CompileID < 0 {
		p.CompileID = 0
	}
	if p.Tag1 < 0 {
		p.Tag1 = 0
	}
	if p.Tag2 < 0 {
		p.Tag2 = Unset
	}
	return p
}

// Compose encodes p into a primitive name. It fails with
// errors.BadParameter if p.Primitive is empty.
func Compose(p Parts) (string, error) {
	switch {
	case p.Primitive == "":
		return "", errors.E("names.Compose", errors.BadParameter,
			errors.New("primitive type name must not be empty"))
	case strings.ContainsAny(p.Primitive, "$/"):
		return "", errors.E("names.Compose", p.Primitive, errors.BadParameter,
			errors.New("primitive type name contains a delimiter"))
	case strings.Contains(p.Instance, "/"):
		return "", errors.E("names.Compose", p.Instance, errors.BadParameter,
			errors.New("instance name contains a delimiter"))
	}
	p = p.Normalize()
	var b strings.Builder
	b.WriteString(prefix)
	if p.Locality != NoLocality {
		b.WriteByte('$')
		b.WriteString(strconv.FormatUint(uint64(p.Locality), 10))
	}
	b.WriteByte('/')
	b.WriteString(p.Primitive)
	b.WriteByte('$')
	b.WriteString(strconv.FormatInt(p.Sequence, 10))
	if p.Instance != "" {
		b.WriteByte('$')
		b.WriteString(p.Instance)
	}
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(p.CompileID, 10))
	b.WriteByte('$')
	b.WriteString(strconv.FormatInt(p.Tag1, 10))
	if p.Tag2 != Unset {
		b.WriteByte('$')
		b.WriteString(strconv.FormatInt(p.Tag2, 10))
	}
	return b.String(), nil
}

// MustCompose is like Compose but panics on error.
func MustCompose(p Parts) string {
	name, err := Compose(p)
	if err != nil {
		panic(err)
	}
	return name
}

// Parse decodes a primitive name. The second result is false if name
// does not strictly conform to the name grammar, in which case the
// returned Parts are zero.
func Parse(name string) (Parts, bool) {
	if !strings.HasPrefix(name, prefix) {
		return Parts{}, false
	}
	var (
		p    = New("")
		rest = name[len(prefix):]
		err  error
	)
	if strings.HasPrefix(rest, "$") {
		i := strings.Index(rest, "/")
		if i < 0 || !isDigits(rest[1:i]) {
			return Parts{}, false
		}
		l, err := strconv.ParseUint(rest[1:i], 10, 32)
		if err != nil || uint32(l) == NoLocality {
			return Parts{}, false
		}
		p.Locality = uint32(l)
		rest = rest[i:]
	}
	if !strings.HasPrefix(rest, "/") {
		return Parts{}, false
	}
	segs := strings.Split(rest[1:], "/")
	if len(segs) != 2 {
		return Parts{}, false
	}

	// primitive$sequence[$instance]
	fields := strings.SplitN(segs[0], "$", 3)
	if len(fields) < 2 || fields[0] == "" || !isDigits(fields[1]) {
		return Parts{}, false
	}
	p.Primitive = fields[0]
	if p.Sequence, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return Parts{}, false
	}
	if len(fields) == 3 {
		if fields[2] == "" {
			return Parts{}, false
		}
		p.Instance = fields[2]
	}

	// compile_id$tag1[$tag2]
	fields = strings.Split(segs[1], "$")
	if len(fields) < 2 || len(fields) > 3 || !isDigits(fields[0]) {
		return Parts{}, false
	}
	if p.CompileID, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
		return Parts{}, false
	}
	for i, tag := range []*int64{&p.Tag1, &p.Tag2}[:len(fields)-1] {
		if !isSigned(fields[i+1]) {
			return Parts{}, false
		}
		if *tag, err = strconv.ParseInt(fields[i+1], 10, 64); err != nil {
			return Parts{}, false
		}
	}
	return p, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isSigned(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	return isDigits(s)
}

// PrimitiveType returns the primitive type name encoded in name. For
// names that do not conform to the name grammar, PrimitiveType falls
// back to the text preceding the first '$' (less any leading
// "/phylanx/" path), or the whole name if there is none.
func PrimitiveType(name string) string {
	if p, ok := Parse(name); ok {
		return p.Primitive
	}
	s := name
	if i := strings.Index(s, "$"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// DisplayName returns the human-readable projection of a primitive
// name: the primitive type without a leading "__", followed by
// "/instance" if there is an instance name, "/L#locality" if there is
// a locality, and "(tag1[, tag2])". Names that do not parse are
// returned unchanged.
func DisplayName(name string) string {
	p, ok := Parse(name)
	if !ok {
		return name
	}
	return DisplayNameOf(p)
}

// DisplayNameOf returns the display name of p.
func DisplayNameOf(p Parts) string {
	var b strings.Builder
	b.WriteString(strings.TrimPrefix(p.Primitive, "__"))
	if p.Instance != "" {
		b.WriteByte('/')
		b.WriteString(p.Instance)
	}
	if p.Locality != NoLocality {
		b.WriteString("/L#")
		b.WriteString(strconv.FormatUint(uint64(p.Locality), 10))
	}
	if p.Tag1 >= 0 {
		b.WriteByte('(')
		b.WriteString(strconv.FormatInt(p.Tag1, 10))
		if p.Tag2 >= 0 {
			b.WriteString(", ")
			b.WriteString(strconv.FormatInt(p.Tag2, 10))
		}
		b.WriteByte(')')
	}
	return b.String()
}
