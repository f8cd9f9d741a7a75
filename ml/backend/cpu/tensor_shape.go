// tensor_shape.go - Shape-Operationen fuer Tensoren
// Enthaelt: Reshape, Permute, Contiguous, Duplicate, Slice, inferShape

package cpu

import (
	"fmt"
	"slices"

	"github.com/pdevine/tensor"
	"github.com/pdevine/tensor/native"

	"github.com/ollama/adaptor/ml"
)

// Reshape aendert die Form ohne Datenkopie. Eine Dimension darf -1 sein.
func (t *Tensor) Reshape(ctx ml.Context, shape ...int) ml.Tensor {
	shape = slices.Clone(shape)
	if slices.Contains(shape, -1) {
		inferShape(t, shape)
	}

	if len(shape) > 4 {
		panic("unsupported number of dimensions")
	}

	if elements(shape) != t.elements() {
		panic(fmt.Errorf("cpu: cannot reshape %v to %v", t.Shape(), shape))
	}

	out := &Tensor{b: t.b, dtype: t.dtype, ne: [4]int{1, 1, 1, 1}, data: t.data, ints: t.ints}
	copy(out.ne[:], shape)
	return out
}

// Permute verschiebt Dimension i an Position order[i]
func (t *Tensor) Permute(ctx ml.Context, order ...int) ml.Tensor {
	if len(order) != 4 {
		panic("cpu: permute needs 4 axes")
	}

	var ne, axes [4]int
	var seen [4]bool
	for i, p := range order {
		if p < 0 || p > 3 || seen[p] {
			panic(fmt.Errorf("cpu: invalid permutation %v", order))
		}
		seen[p] = true
		ne[p] = t.ne[i]
		// tensor.Dense ist row-major, Achse 0 ist die aeusserste
		axes[3-p] = 3 - i
	}

	out := &Tensor{b: t.b, dtype: ml.DTypeF32, ne: ne}
	if slices.Equal(order, []int{0, 1, 2, 3}) || t.elements() == 1 {
		out.data = slices.Clone(t.f32())
		return out
	}

	var tt tensor.Tensor = tensor.New(
		tensor.WithShape(t.ne[3], t.ne[2], t.ne[1], t.ne[0]),
		tensor.WithBacking(slices.Clone(t.f32())),
	)
	tt, err := tensor.Transpose(tt, axes[:]...)
	if err != nil {
		panic(err)
	}

	if err := tt.Reshape(tt.Shape().TotalSize()); err != nil {
		panic(err)
	}

	data, err := native.VectorF32(tt.(*tensor.Dense))
	if err != nil {
		panic(err)
	}

	out.data = data
	return out
}

// Contiguous erstellt eine Kopie des Tensors, optional mit neuer Form
func (t *Tensor) Contiguous(ctx ml.Context, shape ...int) ml.Tensor {
	dup := t.Duplicate(ctx)
	if len(shape) == 0 {
		return dup
	}
	return dup.Reshape(ctx, shape...)
}

// Duplicate kopiert den Tensor
func (t *Tensor) Duplicate(ctx ml.Context) ml.Tensor {
	return &Tensor{b: t.b, dtype: t.dtype, ne: t.ne, data: slices.Clone(t.data), ints: slices.Clone(t.ints)}
}

// Slice waehlt die Indizes low, low+step, ... < high entlang dim
func (t *Tensor) Slice(ctx ml.Context, dim, low, high, step int) ml.Tensor {
	if dim < 0 || dim > 3 || low < 0 || high > t.ne[dim] || low >= high || step < 1 {
		panic(fmt.Errorf("cpu: invalid slice [%d:%d:%d] of dim %d in %v", low, high, step, dim, t.Shape()))
	}

	n := (high - low + step - 1) / step
	ne := t.ne
	ne[dim] = n
	out := t.b.newTensor(ne[:]...)

	inner := elements(t.ne[:dim])
	src := t.f32()
	for o := range elements(t.ne[dim+1:]) {
		for j := range n {
			s := (o*t.ne[dim] + low + j*step) * inner
			d := (o*n + j) * inner
			copy(out.data[d:d+inner], src[s:s+inner])
		}
	}

	return out
}

// inferShape berechnet automatisch eine -1 Dimension
func inferShape(t *Tensor, shape []int) {
	total := t.elements()

	dim := -1
	for i := range shape {
		switch shape[i] {
		case -1:
			if dim != -1 {
				panic("only one dimension can be inferred")
			}
			dim = i
		case 0:
			panic("dimension cannot be zero")
		default:
			if total%shape[i] != 0 {
				panic("cannot infer dimension")
			}

			total /= shape[i]
		}
	}

	if dim != -1 {
		shape[dim] = total
	}
}
