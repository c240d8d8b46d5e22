package container

import (
	"fmt"
)

type DType uint8

const (
	Float64 DType = 1 + iota
	Float32
	Int64
	Int8
	Bytes
)

func (d DType) String() string {
	switch d {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	case Int8:
		return "int8"
	case Bytes:
		return "bytes"
	}
	return fmt.Sprintf("dtype(%d)", uint8(d))
}

// size of one element, in bytes.
func (d DType) size() int {
	switch d {
	case Float64, Int64:
		return 8
	case Float32:
		return 4
	}
	return 1
}

// Dataset is a typed, shaped array of values.
//
// The empty shape means a scalar (one value). Accessors return internal
// buffers which callers must not modify.
type Dataset struct {
	dtype DType
	shape []int
	data  any
}

func shapeLen(shape []int) (int, error) {
	if maxDims < len(shape) {
		return 0, fmt.Errorf("%w: %d dimensions (limit %d)", ErrMalformed, len(shape), maxDims)
	}
	n := 1
	for _, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("%w: negative dimension %d", ErrMalformed, dim)
		}
		if dim != 0 && maxDatasetBytes/dim < n {
			return 0, fmt.Errorf("%w: shape %v is too large", ErrMalformed, shape)
		}
		n *= dim
	}
	return n, nil
}

func newDataset[T any](dtype DType, shape []int, values []T) (*Dataset, error) {
	n, err := shapeLen(shape)
	if err != nil {
		return nil, err
	}
	if n != len(values) {
		return nil, fmt.Errorf(
			"%w: shape %v wants %d values, got %d", ErrMalformed, shape, n, len(values),
		)
	}
	s := make([]int, len(shape))
	copy(s, shape)
	v := make([]T, len(values))
	copy(v, values)
	return &Dataset{dtype: dtype, shape: s, data: v}, nil
}

func NewFloat64s(shape []int, values []float64) (*Dataset, error) {
	return newDataset(Float64, shape, values)
}

func NewFloat32s(shape []int, values []float32) (*Dataset, error) {
	return newDataset(Float32, shape, values)
}

func NewInt64s(shape []int, values []int64) (*Dataset, error) {
	return newDataset(Int64, shape, values)
}

func NewInt8s(shape []int, values []int8) (*Dataset, error) {
	return newDataset(Int8, shape, values)
}

// NewScalarInt64 returns a shapeless single-value int64 Dataset.
func NewScalarInt64(value int64) *Dataset {
	return &Dataset{dtype: Int64, shape: []int{}, data: []int64{value}}
}

// NewBytes returns an opaque byte Dataset of shape (len(values),).
func NewBytes(values []byte) *Dataset {
	v := make([]byte, len(values))
	copy(v, values)
	return &Dataset{dtype: Bytes, shape: []int{len(values)}, data: v}
}

func (d *Dataset) DType() DType {
	return d.dtype
}

func (d *Dataset) Shape() []int {
	return d.shape
}

// Len is the total number of values (the product of Shape).
func (d *Dataset) Len() int {
	n := 1
	for _, dim := range d.shape {
		n *= dim
	}
	return n
}

func (d *Dataset) Float64s() ([]float64, bool) {
	v, ok := d.data.([]float64)
	return v, ok
}

func (d *Dataset) Float32s() ([]float32, bool) {
	v, ok := d.data.([]float32)
	return v, ok
}

func (d *Dataset) Int64s() ([]int64, bool) {
	v, ok := d.data.([]int64)
	return v, ok
}

func (d *Dataset) Int8s() ([]int8, bool) {
	v, ok := d.data.([]int8)
	return v, ok
}

func (d *Dataset) Raw() ([]byte, bool) {
	v, ok := d.data.([]byte)
	return v, ok
}

// Numbers widens any numeric Dataset to a fresh float64 slice.
//
// It fails for Bytes datasets.
func (d *Dataset) Numbers() ([]float64, error) {
	out := make([]float64, d.Len())
	switch v := d.data.(type) {
	case []float64:
		copy(out, v)
	case []float32:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []int64:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []int8:
		for i, x := range v {
			out[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("%w: %s dataset is not numeric", ErrMalformed, d.dtype)
	}
	return out, nil
}

func (d *Dataset) Equal(o *Dataset) bool {
	if d == nil || o == nil {
		return d == nil && o == nil
	}
	if d.dtype != o.dtype || len(d.shape) != len(o.shape) {
		return false
	}
	for i := range d.shape {
		if d.shape[i] != o.shape[i] {
			return false
		}
	}
	switch v := d.data.(type) {
	case []float64:
		return sliceEq(v, o.data.([]float64))
	case []float32:
		return sliceEq(v, o.data.([]float32))
	case []int64:
		return sliceEq(v, o.data.([]int64))
	case []int8:
		return sliceEq(v, o.data.([]int8))
	case []byte:
		return sliceEq(v, o.data.([]byte))
	}
	return false
}

func sliceEq[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
