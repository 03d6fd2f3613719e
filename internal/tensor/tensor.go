package tensor

import "fmt"

// Tensor is a dense float32 array with row-major layout.
//
// The zero value has no shape and no data. Tensors share their backing slice
// when copied; callers that need isolation should use Clone.
type Tensor struct {
	shape []int
	data  []float32
}

// New returns a zero-filled tensor with the given shape.
// It panics if any dimension is negative, mirroring make.
func New(shape ...int) Tensor {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("tensor: negative dimension %d", d))
		}
		n *= d
	}
	return Tensor{shape: append([]int(nil), shape...), data: make([]float32, n)}
}

// FromSlice wraps an existing slice as a tensor of the given shape.
// The slice is not copied. The length must match the shape's element count.
func FromSlice(data []float32, shape ...int) (Tensor, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return Tensor{}, fmt.Errorf("tensor: negative dimension %d", d)
		}
		n *= d
	}
	if len(data) != n {
		return Tensor{}, fmt.Errorf("tensor: %d values do not fit shape %v (want %d)", len(data), shape, n)
	}
	return Tensor{shape: append([]int(nil), shape...), data: data}, nil
}

// Shape returns a copy of the tensor's dimensions.
func (t Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Rank returns the number of dimensions.
func (t Tensor) Rank() int {
	return len(t.shape)
}

// Dim returns the size of dimension i.
func (t Tensor) Dim(i int) int {
	return t.shape[i]
}

// Len returns the total number of elements.
func (t Tensor) Len() int {
	return len(t.data)
}

// Data returns the backing slice. Mutations are visible to every copy of the
// tensor sharing the slice.
func (t Tensor) Data() []float32 {
	return t.data
}

// At returns the element at the given coordinates.
func (t Tensor) At(coords ...int) float32 {
	return t.data[t.offset(coords)]
}

// Set stores v at the given coordinates.
func (t Tensor) Set(v float32, coords ...int) {
	t.data[t.offset(coords)] = v
}

// Clone returns a deep copy that shares nothing with the receiver.
func (t Tensor) Clone() Tensor {
	c := Tensor{shape: append([]int(nil), t.shape...), data: make([]float32, len(t.data))}
	copy(c.data, t.data)
	return c
}

// SameShape reports whether the receiver and other have identical dimensions.
func (t Tensor) SameShape(other Tensor) bool {
	if len(t.shape) != len(other.shape) {
		return false
	}
	for i, d := range t.shape {
		if other.shape[i] != d {
			return false
		}
	}
	return true
}

func (t Tensor) offset(coords []int) int {
	if len(coords) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d coordinates for rank %d tensor", len(coords), len(t.shape)))
	}
	off := 0
	for i, c := range coords {
		if c < 0 || c >= t.shape[i] {
			panic(fmt.Sprintf("tensor: coordinate %d out of range for dimension %d (size %d)", c, i, t.shape[i]))
		}
		off = off*t.shape[i] + c
	}
	return off
}
