// context_tensors.go - Tensor-Erstellungsmethoden fuer Context
// Enthaelt: newTensor(), Zeros(), FromBytes(), FromFloats(), FromInts(), Arange()

package cpu

import (
	"fmt"

	"github.com/ollama/adaptor/ml"
)

// newTensor erstellt einen neuen float32-Tensor mit Nullen
func (b *Backend) newTensor(shape ...int) *Tensor {
	if len(shape) > 4 {
		panic("unsupported number of dimensions")
	}

	ne := [4]int{1, 1, 1, 1}
	for i, dim := range shape {
		if dim < 1 {
			panic("invalid shape")
		}
		ne[i] = dim
	}

	return &Tensor{b: b, dtype: ml.DTypeF32, ne: ne, data: make([]float32, ne[0]*ne[1]*ne[2]*ne[3])}
}

func checkShape[S ~[]E, E any](s S, shape ...int) {
	if elements(shape) != len(s) {
		panic(fmt.Errorf("invalid shape %v for %d elements", shape, len(s)))
	}
}

func elements(shape []int) int {
	n := 1
	for _, v := range shape {
		n *= v
	}
	return n
}

// Zeros erstellt einen mit Nullen gefuellten Tensor
func (c *Context) Zeros(dtype ml.DType, shape ...int) ml.Tensor {
	t := c.b.newTensor(shape...)
	if dtype == ml.DTypeI32 {
		t.dtype = ml.DTypeI32
		t.ints = make([]int32, len(t.data))
		t.data = nil
	}
	return t
}

// FromBytes erstellt einen Tensor aus Little-Endian-Bytes. F16 und BF16
// werden beim Einlesen nach F32 gewandelt.
func (c *Context) FromBytes(dtype ml.DType, s []byte, shape ...int) ml.Tensor {
	if dtype == ml.DTypeI32 {
		ints := make([]int32, len(s)/4)
		t := c.FromInts(ints, shape...).(*Tensor)
		t.FromBytes(s)
		return t
	}

	f32s, err := decodeFloats(dtype, s)
	if err != nil {
		panic(err)
	}

	return c.FromFloats(f32s, shape...)
}

// FromFloats erstellt einen Tensor aus float32-Werten
func (c *Context) FromFloats(s []float32, shape ...int) ml.Tensor {
	checkShape(s, shape...)
	t := c.b.newTensor(shape...)
	copy(t.data, s)
	return t
}

// FromInts erstellt einen Tensor aus int32-Werten
func (c *Context) FromInts(s []int32, shape ...int) ml.Tensor {
	checkShape(s, shape...)
	t := c.b.newTensor(shape...)
	t.dtype = ml.DTypeI32
	t.data = nil
	t.ints = make([]int32, len(s))
	copy(t.ints, s)
	return t
}

// Arange erstellt einen 1D-Tensor mit Werten in [start, stop) im Abstand step
func (c *Context) Arange(start, stop, step float32, dtype ml.DType) ml.Tensor {
	switch dtype {
	case ml.DTypeF32:
		var s []float32
		for v := start; v < stop; v += step {
			s = append(s, v)
		}
		return c.FromFloats(s, len(s))
	case ml.DTypeI32:
		var s []int32
		for v := int32(start); v < int32(stop); v += int32(step) {
			s = append(s, v)
		}
		return c.FromInts(s, len(s))
	default:
		panic("unsupported dtype for arange")
	}
}
