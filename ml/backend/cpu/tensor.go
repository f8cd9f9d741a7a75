// tensor.go - Tensor-Struktur und Basis-Methoden
// Enthaelt: Tensor struct, LogValue, Dim, Shape, DType, Bytes, Floats, Ints, FromBytes, FromFloats

package cpu

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/ollama/adaptor/ml"
)

// Tensor ist ein zusammenhaengender Tensor mit bis zu 4 Dimensionen.
// ne[0] ist die innerste Dimension. Float-Tensoren halten data,
// I32-Tensoren halten ints.
type Tensor struct {
	b     *Backend
	name  string
	dtype ml.DType
	ne    [4]int

	data []float32
	ints []int32
}

// LogValue gibt den Tensor als slog-Wert zurueck
func (t *Tensor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", t.name),
		slog.String("type", t.dtype.String()),
		slog.Any("shape", t.Shape()),
	)
}

// Dim gibt die Groesse einer Dimension zurueck
func (t *Tensor) Dim(n int) int {
	if n >= len(t.ne) {
		return 1
	}
	return t.ne[n]
}

// Shape gibt die Form ohne abschliessende 1er-Dimensionen zurueck
func (t *Tensor) Shape() []int {
	n := len(t.ne)
	for n > 1 && t.ne[n-1] == 1 {
		n--
	}

	return slices.Clone(t.ne[:n])
}

func (t *Tensor) DType() ml.DType {
	return t.dtype
}

func (t *Tensor) elements() int {
	return t.ne[0] * t.ne[1] * t.ne[2] * t.ne[3]
}

// f32 gibt die Werte als float32 zurueck, ohne Kopie bei Float-Tensoren
func (t *Tensor) f32() []float32 {
	if t.dtype != ml.DTypeI32 {
		return t.data
	}

	f32s := make([]float32, len(t.ints))
	for i, v := range t.ints {
		f32s[i] = float32(v)
	}
	return f32s
}

// Bytes gibt die Tensor-Daten als Little-Endian-Bytes zurueck
func (t *Tensor) Bytes() []byte {
	if t.dtype == ml.DTypeI32 {
		data := make([]byte, 4*len(t.ints))
		for i, v := range t.ints {
			binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
		}
		return data
	}

	data := make([]byte, 4*len(t.data))
	for i, v := range t.data {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

// Floats gibt eine Kopie der Werte als float32 zurueck
func (t *Tensor) Floats() []float32 {
	if t.dtype == ml.DTypeI32 {
		return t.f32()
	}
	return slices.Clone(t.data)
}

// Ints gibt eine Kopie der Werte als int32 zurueck
func (t *Tensor) Ints() []int32 {
	if t.dtype == ml.DTypeI32 {
		return slices.Clone(t.ints)
	}

	ints := make([]int32, len(t.data))
	for i, v := range t.data {
		ints[i] = int32(v)
	}
	return ints
}

// FromBytes ueberschreibt die Werte mit Little-Endian-Bytes im eigenen DType
func (t *Tensor) FromBytes(s []byte) {
	if len(s) != 4*t.elements() {
		panic(fmt.Errorf("cpu: %d bytes for tensor of %d elements", len(s), t.elements()))
	}

	if t.dtype == ml.DTypeI32 {
		for i := range t.ints {
			t.ints[i] = int32(binary.LittleEndian.Uint32(s[i*4:]))
		}
		return
	}

	for i := range t.data {
		t.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(s[i*4:]))
	}
}

// FromFloats ueberschreibt die Werte
func (t *Tensor) FromFloats(s []float32) {
	if len(s) != t.elements() {
		panic(fmt.Errorf("cpu: %d values for tensor of %d elements", len(s), t.elements()))
	}

	if t.dtype == ml.DTypeI32 {
		for i, v := range s {
			t.ints[i] = int32(v)
		}
		return
	}

	copy(t.data, s)
}
