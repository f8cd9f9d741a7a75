// backend_load.go - Allokation und Laden von Parametern
// Enthaelt: Allocate(), Load(), initialize(), decodeFloats()

package cpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	bfloat16 "github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/ollama/adaptor/logutil"
	"github.com/ollama/adaptor/ml"
)

var ErrUnknownParameter = errors.New("cpu: unknown parameter")

// Allocate legt fehlende Parameter an und initialisiert sie
func (b *Backend) Allocate(specs ...ml.ParamSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, spec := range specs {
		if spec.Name == "" {
			return errors.New("cpu: parameter without name")
		}

		if len(spec.Shape) == 0 || len(spec.Shape) > 4 {
			return fmt.Errorf("cpu: parameter %q has unsupported rank %d", spec.Name, len(spec.Shape))
		}

		for _, dim := range spec.Shape {
			if dim < 1 {
				return fmt.Errorf("cpu: parameter %q has invalid shape %v", spec.Name, spec.Shape)
			}
		}

		if p, ok := b.params.Get(spec.Name); ok {
			if !spec.SameShape(p.t.Shape()) {
				return fmt.Errorf("cpu: parameter %q already allocated with shape %v, want %v", spec.Name, p.t.Shape(), spec.Shape)
			}

			// vorhandene Werte bleiben erhalten
			continue
		}

		t := b.newTensor(spec.Shape...)
		t.name = spec.Name
		b.initialize(t.data, spec.Init)
		b.params.Set(spec.Name, &param{spec: spec, t: t})
		logutil.Trace("allocated parameter", "tensor", t, "init", spec.Init.Kind)
	}

	return nil
}

// Load ueberschreibt die Werte eines Parameters
func (b *Backend) Load(name string, dtype ml.DType, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.params.Get(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownParameter, name)
	}

	f32s, err := decodeFloats(dtype, data)
	if err != nil {
		return fmt.Errorf("cpu: load %q: %w", name, err)
	}

	if len(f32s) != len(p.t.data) {
		return fmt.Errorf("cpu: load %q: expected %d elements, got %d", name, len(p.t.data), len(f32s))
	}

	copy(p.t.data, f32s)
	logutil.Trace("loaded parameter", "tensor", p.t, "dtype", dtype)
	return nil
}

// initialize fuellt einen neuen Parameter gemaess Initializer
func (b *Backend) initialize(data []float32, init ml.Initializer) {
	switch init.Kind {
	case ml.InitZeros:
	case ml.InitOnes:
		for i := range data {
			data[i] = 1
		}
	case ml.InitConstant:
		for i := range data {
			data[i] = init.Value
		}
	case ml.InitNormal:
		for i := range data {
			data[i] = float32(b.rng.NormFloat64()) * init.Value
		}
	case ml.InitUniform:
		for i := range data {
			data[i] = float32(2*b.rng.Float64()-1) * init.Value
		}
	default:
		panic(fmt.Sprintf("cpu: unsupported initializer %v", init.Kind))
	}
}

// decodeFloats wandelt Little-Endian-Bytes in float32 um
func decodeFloats(dtype ml.DType, data []byte) ([]float32, error) {
	if size := dtype.Size(); size == 0 || len(data)%size != 0 {
		return nil, fmt.Errorf("invalid %d bytes for dtype %v", len(data), dtype)
	}

	switch dtype {
	case ml.DTypeF32:
		f32s := make([]float32, len(data)/4)
		for i := range f32s {
			f32s[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return f32s, nil
	case ml.DTypeF16:
		f32s := make([]float32, len(data)/2)
		for i := range f32s {
			f32s[i] = float16.Frombits(binary.LittleEndian.Uint16(data[i*2:])).Float32()
		}
		return f32s, nil
	case ml.DTypeBF16:
		return bfloat16.DecodeFloat32(data), nil
	case ml.DTypeI32:
		f32s := make([]float32, len(data)/4)
		for i := range f32s {
			f32s[i] = float32(int32(binary.LittleEndian.Uint32(data[i*4:])))
		}
		return f32s, nil
	default:
		return nil, fmt.Errorf("unsupported dtype %v", dtype)
	}
}
