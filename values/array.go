// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package values

import (
	"fmt"
	"strings"
)

// MaxRank is the maximum rank of an array.
const MaxRank = 4

// Array is a dense, row-major numeric array of rank 0 (a scalar) to
// MaxRank. The array storage engine proper is external; Array is the
// container the execution engine moves between primitives.
type Array struct {
	// Shape holds the array's dimensions, outermost first.
	Shape []int
	// Data holds the elements in row-major order.
	Data []float64
	// Ref indicates that Data is shared with another value and must
	// be copied before it is modified.
	Ref bool
	// Annotation is the array's (optional) annotation, usually its
	// distributed tiling.
	Annotation *Annotation
}

// NewArray returns a new array of the given shape backed by data. If
// data is nil, a zero-filled array is allocated. NewArray panics if
// the shape is invalid or the data does not fit it.
func NewArray(shape []int, data []float64) *Array {
	if len(shape) > MaxRank {
		panic(fmt.Sprintf("values.NewArray: rank %d exceeds maximum rank %d", len(shape), MaxRank))
	}
	n := Size(shape)
	if data == nil {
		data = make([]float64, n)
	}
	if len(data) != n {
		panic(fmt.Sprintf("values.NewArray: %d elements do not fit shape %v", len(data), shape))
	}
	return &Array{Shape: append([]int(nil), shape...), Data: data}
}

// Scalar returns a rank-0 array holding f.
func Scalar(f float64) *Array {
	return &Array{Data: []float64{f}}
}

// Vector returns a rank-1 array holding the provided elements.
func Vector(elems ...float64) *Array {
	return &Array{Shape: []int{len(elems)}, Data: elems}
}

// Size returns the number of elements in an array of the given shape.
func Size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Rank returns the number of dimensions of the array.
func (a *Array) Rank() int {
	return len(a.Shape)
}

// Len returns the number of elements in the array.
func (a *Array) Len() int {
	return len(a.Data)
}

// strides returns the row-major stride of each dimension.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	n := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = n
		n *= shape[i]
	}
	return s
}

// Offset returns the position in Data of the element at index.
func (a *Array) Offset(index ...int) int {
	if len(index) != len(a.Shape) {
		panic(fmt.Sprintf("values.Array.Offset: index %v does not match shape %v", index, a.Shape))
	}
	var off int
	for i, s := range strides(a.Shape) {
		if index[i] < 0 || index[i] >= a.Shape[i] {
			panic(fmt.Sprintf("values.Array.Offset: index %v out of bounds for shape %v", index, a.Shape))
		}
		off += index[i] * s
	}
	return off
}

// At returns the element at the given index.
func (a *Array) At(index ...int) float64 {
	return a.Data[a.Offset(index...)]
}

// Copy returns an array that owns a copy of a's storage.
func (a *Array) Copy() *Array {
	b := &Array{
		Shape:      append([]int(nil), a.Shape...),
		Data:       append([]float64(nil), a.Data...),
		Annotation: a.Annotation,
	}
	return b
}

// AsRef returns an array sharing a's storage, marked as a reference.
func (a *Array) AsRef() *Array {
	b := *a
	b.Ref = true
	return &b
}

// Owned returns an array with storage that may be modified: a itself
// if it owns its storage, otherwise a copy.
func (a *Array) Owned() *Array {
	if a.Ref {
		return a.Copy()
	}
	return a
}

// Sub returns a copy of the sub-array starting at the given index
// with the given per-dimension sizes.
func (a *Array) Sub(start, size []int) *Array {
	if len(start) != a.Rank() || len(size) != a.Rank() {
		panic(fmt.Sprintf("values.Array.Sub: subrange %v+%v does not match rank %d", start, size, a.Rank()))
	}
	for i := range start {
		if start[i] < 0 || size[i] < 0 || start[i]+size[i] > a.Shape[i] {
			panic(fmt.Sprintf("values.Array.Sub: subrange %v+%v out of bounds for shape %v", start, size, a.Shape))
		}
	}
	b := NewArray(size, nil)
	CopyRegion(b, make([]int, len(size)), a, start, size)
	return b
}

// CopyRegion copies the region of src beginning at srcStart with the
// given size into dst beginning at dstStart. Both arrays must have
// the same rank.
func CopyRegion(dst *Array, dstStart []int, src *Array, srcStart, size []int) {
	rank := len(size)
	if rank == 0 {
		dst.Data[0] = src.Data[0]
		return
	}
	for _, n := range size {
		if n == 0 {
			return
		}
	}
	var (
		dstStrides = strides(dst.Shape)
		srcStrides = strides(src.Shape)
		idx        = make([]int, rank)
		run        = size[rank-1]
	)
	for {
		var doff, soff int
		for i := 0; i < rank; i++ {
			doff += (dstStart[i] + idx[i]) * dstStrides[i]
			soff += (srcStart[i] + idx[i]) * srcStrides[i]
		}
		copy(dst.Data[doff:doff+run], src.Data[soff:soff+run])
		// Advance the index over all but the innermost dimension.
		i := rank - 2
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < size[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// Equal tells whether a and b have the same shape and elements.
// References and annotations are not compared.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Shape) != len(b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

// String renders the array as a (nested) PhySL array literal.
func (a *Array) String() string {
	if a.Rank() == 0 {
		return formatFloat(a.Data[0])
	}
	var b strings.Builder
	a.print(&b, 0, 0)
	return b.String()
}

func (a *Array) print(b *strings.Builder, dim, off int) {
	b.WriteByte('[')
	stride := Size(a.Shape[dim+1:])
	for i := 0; i < a.Shape[dim]; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if dim == a.Rank()-1 {
			b.WriteString(formatFloat(a.Data[off+i]))
		} else {
			a.print(b, dim+1, off+i*stride)
		}
	}
	b.WriteByte(']')
}
