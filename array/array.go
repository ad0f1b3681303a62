// Package array provides the dense n-dimensional float64 array that carries
// pixel data through the batching pipeline.
//
// Arrays are stored in row-major (C) order. A sample read from a raster has
// shape (bands, height, width), and a batch adds a leading axis.
package array

import (
	"fmt"
	"math"

	"github.com/MasterOfBinary/geobatch"
	"github.com/pkg/errors"
)

// Array is a dense row-major array of float64 values.
type Array struct {
	shape []int
	data  []float64
}

// New returns a zero-filled array with the given shape. It panics if a
// dimension is negative.
func New(shape ...int) *Array {
	return &Array{
		shape: append([]int(nil), shape...),
		data:  make([]float64, size(shape)),
	}
}

// Full returns an array with the given shape where every element is v.
func Full(v float64, shape ...int) *Array {
	a := New(shape...)
	if v != 0 {
		for i := range a.data {
			a.data[i] = v
		}
	}
	return a
}

// FromSlice wraps data in an array of the given shape. The slice is not
// copied.
func FromSlice(data []float64, shape ...int) (*Array, error) {
	if n := size(shape); n != len(data) {
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "shape %v needs %d values, got %d", shape, n, len(data))
	}
	return &Array{
		shape: append([]int(nil), shape...),
		data:  data,
	}, nil
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("array: negative dimension in shape %v", shape))
		}
		n *= d
	}
	return n
}

// Shape returns a copy of the array's shape.
func (a *Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

// Dims returns the number of axes.
func (a *Array) Dims() int {
	return len(a.shape)
}

// Dim returns the length of one axis.
func (a *Array) Dim(axis int) int {
	return a.shape[axis]
}

// Size returns the number of elements.
func (a *Array) Size() int {
	return len(a.data)
}

// Data returns the backing slice in row-major order.
func (a *Array) Data() []float64 {
	return a.data
}

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("array: index %v does not match shape %v", idx, a.shape))
	}
	off := 0
	for i, n := range a.shape {
		if idx[i] < 0 || idx[i] >= n {
			panic(fmt.Sprintf("array: index %v out of range for shape %v", idx, a.shape))
		}
		off = off*n + idx[i]
	}
	return off
}

// At returns the element at idx.
func (a *Array) At(idx ...int) float64 {
	return a.data[a.offset(idx)]
}

// Set stores v at idx.
func (a *Array) Set(v float64, idx ...int) {
	a.data[a.offset(idx)] = v
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	return &Array{
		shape: append([]int(nil), a.shape...),
		data:  append([]float64(nil), a.data...),
	}
}

// Reshape returns a copy with a new shape holding the same number of
// elements.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	c := a.Clone()
	if size(shape) != len(a.data) {
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "cannot reshape %v to %v", a.shape, shape)
	}
	c.shape = append([]int(nil), shape...)
	return c, nil
}

// Index returns a copy of the i-th sub-array along the first axis.
func (a *Array) Index(i int) *Array {
	if len(a.shape) == 0 || i < 0 || i >= a.shape[0] {
		panic(fmt.Sprintf("array: index %d out of range for shape %v", i, a.shape))
	}
	inner := size(a.shape[1:])
	return &Array{
		shape: append([]int(nil), a.shape[1:]...),
		data:  append([]float64(nil), a.data[i*inner:(i+1)*inner]...),
	}
}

// ExpandDims returns a copy with a new axis of length one inserted at axis.
func (a *Array) ExpandDims(axis int) *Array {
	if axis < 0 {
		axis += len(a.shape) + 1
	}
	if axis < 0 || axis > len(a.shape) {
		panic(fmt.Sprintf("array: axis %d out of range for shape %v", axis, a.shape))
	}
	shape := make([]int, 0, len(a.shape)+1)
	shape = append(shape, a.shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, a.shape[axis:]...)
	return &Array{
		shape: shape,
		data:  append([]float64(nil), a.data...),
	}
}

// MoveAxis returns a copy with axis src moved to position dst, keeping the
// other axes in order. MoveAxis(0, 2) turns (bands, h, w) into (h, w, bands).
func (a *Array) MoveAxis(src, dst int) *Array {
	n := len(a.shape)
	if src < 0 {
		src += n
	}
	if dst < 0 {
		dst += n
	}
	if src < 0 || src >= n || dst < 0 || dst >= n {
		panic(fmt.Sprintf("array: cannot move axis %d to %d in shape %v", src, dst, a.shape))
	}

	perm := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != src {
			perm = append(perm, i)
		}
	}
	perm = append(perm[:dst], append([]int{src}, perm[dst:]...)...)
	return a.transpose(perm)
}

// transpose returns a copy whose axis i is axis perm[i] of a.
func (a *Array) transpose(perm []int) *Array {
	n := len(a.shape)
	strides := make([]int, n)
	s := 1
	for i := n - 1; i >= 0; i-- {
		strides[i] = s
		s *= a.shape[i]
	}

	out := &Array{
		shape: make([]int, n),
		data:  make([]float64, len(a.data)),
	}
	srcStrides := make([]int, n)
	for i, p := range perm {
		out.shape[i] = a.shape[p]
		srcStrides[i] = strides[p]
	}

	idx := make([]int, n)
	for o := range out.data {
		off := 0
		for i := range idx {
			off += idx[i] * srcStrides[i]
		}
		out.data[o] = a.data[off]
		for i := n - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < out.shape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}

// ResizeNearest returns a copy whose last two axes are resampled to
// height x width by nearest neighbour. Leading axes are kept.
func (a *Array) ResizeNearest(height, width int) *Array {
	n := len(a.shape)
	if n < 2 {
		panic(fmt.Sprintf("array: cannot resize shape %v", a.shape))
	}
	srcH, srcW := a.shape[n-2], a.shape[n-1]
	shape := append(append([]int(nil), a.shape[:n-2]...), height, width)
	out := New(shape...)
	if srcH == 0 || srcW == 0 {
		return out
	}

	planes := size(a.shape[:n-2])
	for p := 0; p < planes; p++ {
		src := a.data[p*srcH*srcW : (p+1)*srcH*srcW]
		dst := out.data[p*height*width : (p+1)*height*width]
		for r := 0; r < height; r++ {
			sr := int(float64(r) * float64(srcH) / float64(height))
			for c := 0; c < width; c++ {
				sc := int(float64(c) * float64(srcW) / float64(width))
				dst[r*width+c] = src[sr*srcW+sc]
			}
		}
	}
	return out
}

// Map returns a copy with fn applied to every element.
func (a *Array) Map(fn func(float64) float64) *Array {
	out := a.Clone()
	for i, v := range out.data {
		out.data[i] = fn(v)
	}
	return out
}

// Count returns the number of elements equal to v. A NaN v counts NaN
// elements.
func (a *Array) Count(v float64) int {
	n := 0
	if math.IsNaN(v) {
		for _, x := range a.data {
			if math.IsNaN(x) {
				n++
			}
		}
		return n
	}
	for _, x := range a.data {
		if x == v {
			n++
		}
	}
	return n
}

// SameShape reports whether a and b have identical shapes.
func SameShape(a, b *Array) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	return true
}

// Stack joins arrays of identical shape along a new leading axis.
func Stack(arrs []*Array) (*Array, error) {
	if len(arrs) == 0 {
		return nil, errors.Wrap(geobatch.ErrInvalidParameter, "nothing to stack")
	}
	first := arrs[0]
	out := New(append([]int{len(arrs)}, first.shape...)...)
	for i, a := range arrs {
		if !SameShape(first, a) {
			return nil, errors.Wrapf(geobatch.ErrInvalidParameter,
				"cannot stack shape %v with shape %v at index %d", first.shape, a.shape, i)
		}
		copy(out.data[i*len(first.data):], a.data)
	}
	return out, nil
}

func (a *Array) String() string {
	return fmt.Sprintf("array%v", a.shape)
}
