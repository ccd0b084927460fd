// Package tensor provides a minimal dense, strided multidimensional array
// shared by the geometry kernels. It covers allocation, device placement,
// typed element access, and slicing along the leading dimension; it is not a
// general linear-algebra container (see gonum/mat for fixed-size matrices).
package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Dtype is the element type of a Tensor.
type Dtype int

// Supported element types.
const (
	Uint16 Dtype = iota
	Float32
	Int32
)

func (d Dtype) String() string {
	switch d {
	case Uint16:
		return "uint16"
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return fmt.Sprintf("Dtype(%d)", int(d))
	}
}

// Device is where a Tensor's storage lives. Kernels allocate outputs on the
// input's device and place shared counters in memory the device's workers can
// address.
type Device int

// CPU is host memory. It is the only device compiled in today; the tag exists
// so allocation and counter placement stay routed through it.
const CPU Device = iota

func (d Device) String() string {
	if d == CPU {
		return "cpu"
	}
	return fmt.Sprintf("Device(%d)", int(d))
}

// Tensor is a dense array with row-major allocation. All element access goes
// through per-dimension element strides, so views onto non-contiguous layouts
// index correctly.
type Tensor struct {
	shape   []int
	strides []int
	dtype   Dtype
	device  Device

	u16 []uint16
	f32 []float32
	i32 []int32
}

// New allocates a zeroed tensor of the given shape on the given device.
func New(shape []int, dtype Dtype, device Device) *Tensor {
	n := numElements(shape)
	t := &Tensor{
		shape:   append([]int(nil), shape...),
		strides: rowMajorStrides(shape),
		dtype:   dtype,
		device:  device,
	}
	switch dtype {
	case Uint16:
		t.u16 = make([]uint16, n)
	case Float32:
		t.f32 = make([]float32, n)
	case Int32:
		t.i32 = make([]int32, n)
	}
	return t
}

// FromUint16 wraps an existing uint16 slice as a CPU tensor of the given shape.
func FromUint16(data []uint16, shape ...int) (*Tensor, error) {
	if err := checkLen(len(data), shape); err != nil {
		return nil, err
	}
	return &Tensor{
		shape:   append([]int(nil), shape...),
		strides: rowMajorStrides(shape),
		dtype:   Uint16,
		device:  CPU,
		u16:     data,
	}, nil
}

// FromFloat32 wraps an existing float32 slice as a CPU tensor of the given shape.
func FromFloat32(data []float32, shape ...int) (*Tensor, error) {
	if err := checkLen(len(data), shape); err != nil {
		return nil, err
	}
	return &Tensor{
		shape:   append([]int(nil), shape...),
		strides: rowMajorStrides(shape),
		dtype:   Float32,
		device:  CPU,
		f32:     data,
	}, nil
}

func checkLen(n int, shape []int) error {
	if want := numElements(shape); n != want {
		return errors.Errorf("data length %d does not match shape %v (want %d)", n, shape, want)
	}
	return nil
}

func numElements(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// Dims returns the number of dimensions.
func (t *Tensor) Dims() int { return len(t.shape) }

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int { return append([]int(nil), t.shape...) }

// ShapeAt returns the size of dimension i.
func (t *Tensor) ShapeAt(i int) int { return t.shape[i] }

// StrideAt returns the element stride of dimension i.
func (t *Tensor) StrideAt(i int) int { return t.strides[i] }

// Dtype returns the element type.
func (t *Tensor) Dtype() Dtype { return t.dtype }

// Device returns the device the storage lives on.
func (t *Tensor) Device() Device { return t.device }

// NumElements returns the total element count.
func (t *Tensor) NumElements() int {
	if t == nil {
		return 0
	}
	return numElements(t.shape)
}

// IsEmpty reports whether the tensor is nil or has no elements.
func (t *Tensor) IsEmpty() bool { return t.NumElements() == 0 }

// Uint16s returns the backing uint16 storage.
func (t *Tensor) Uint16s() []uint16 {
	if t.dtype != Uint16 {
		panic(fmt.Sprintf("tensor is %v, not uint16", t.dtype))
	}
	return t.u16
}

// Float32s returns the backing float32 storage.
func (t *Tensor) Float32s() []float32 {
	if t.dtype != Float32 {
		panic(fmt.Sprintf("tensor is %v, not float32", t.dtype))
	}
	return t.f32
}

// Int32s returns the backing int32 storage.
func (t *Tensor) Int32s() []int32 {
	if t.dtype != Int32 {
		panic(fmt.Sprintf("tensor is %v, not int32", t.dtype))
	}
	return t.i32
}

// Slice returns a view of rows [start, stop) along dimension 0, sharing
// storage with t. It is how kernels truncate a worst-case allocation down to
// the number of elements actually written.
func (t *Tensor) Slice(start, stop int) (*Tensor, error) {
	if t.Dims() == 0 {
		return nil, errors.New("cannot slice a 0-d tensor")
	}
	if start < 0 || stop < start || stop > t.shape[0] {
		return nil, errors.Errorf("slice [%d, %d) out of range for dimension of size %d", start, stop, t.shape[0])
	}
	shape := append([]int(nil), t.shape...)
	shape[0] = stop - start
	out := &Tensor{
		shape:   shape,
		strides: append([]int(nil), t.strides...),
		dtype:   t.dtype,
		device:  t.device,
	}
	lo := start * t.strides[0]
	hi := stop * t.strides[0]
	switch t.dtype {
	case Uint16:
		out.u16 = t.u16[lo:hi]
	case Float32:
		out.f32 = t.f32[lo:hi]
	case Int32:
		out.i32 = t.i32[lo:hi]
	}
	return out, nil
}
