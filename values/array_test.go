// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package values

import (
	"testing"
)

func iota(n int) []float64 {
	d := make([]float64, n)
	for i := range d {
		d[i] = float64(i)
	}
	return d
}

func TestArraySub(t *testing.T) {
	a := NewArray([]int{3, 4}, iota(12))
	if got, want := a.At(2, 1), 9.0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	sub := a.Sub([]int{1, 1}, []int{2, 2})
	want := NewArray([]int{2, 2}, []float64{5, 6, 9, 10})
	if !sub.Equal(want) {
		t.Errorf("got %v, want %v", sub, want)
	}
	sub.Data[0] = -1
	if got, want := a.At(1, 1), 5.0; got != want {
		t.Errorf("sub-array shares storage: got %v, want %v", got, want)
	}
}

func TestArraySub3(t *testing.T) {
	a := NewArray([]int{2, 3, 4}, iota(24))
	sub := a.Sub([]int{1, 0, 2}, []int{1, 2, 2})
	want := NewArray([]int{1, 2, 2}, []float64{14, 15, 18, 19})
	if !sub.Equal(want) {
		t.Errorf("got %v, want %v", sub, want)
	}
}

func TestCopyRegion(t *testing.T) {
	dst := NewArray([]int{2, 3}, nil)
	src := NewArray([]int{1, 2}, []float64{7, 8})
	CopyRegion(dst, []int{1, 1}, src, []int{0, 0}, []int{1, 2})
	want := NewArray([]int{2, 3}, []float64{0, 0, 0, 0, 7, 8})
	if !dst.Equal(want) {
		t.Errorf("got %v, want %v", dst, want)
	}
}

func TestArrayRef(t *testing.T) {
	a := Vector(1, 2, 3)
	r := a.AsRef()
	if !r.Ref {
		t.Fatal("expected reference")
	}
	o := r.Owned()
	o.Data[0] = 9
	if got, want := a.Data[0], 1.0; got != want {
		t.Errorf("owned copy shares storage: got %v, want %v", got, want)
	}
	if a.Owned() != a {
		t.Error("owned array copied")
	}
}
