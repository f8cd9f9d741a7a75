// tensor_arithmetic.go - Basis-Arithmetik-Operationen fuer Tensoren
// Enthaelt: Add, Sub, Mul, Div, Scale, SumRows, Concat

package cpu

import (
	"fmt"

	"github.com/ollama/adaptor/ml"
)

// binary wendet op elementweise an. t2 wird entlang jeder Dimension
// wiederholt, deren Groesse t teilt.
func (t *Tensor) binary(t2 ml.Tensor, op func(a, b float32) float32) *Tensor {
	u := t2.(*Tensor)
	for i := range t.ne {
		if t.ne[i]%u.ne[i] != 0 {
			panic(fmt.Errorf("cpu: cannot broadcast %v to %v", u.Shape(), t.Shape()))
		}
	}

	a, b := t.f32(), u.f32()
	out := t.b.newTensor(t.ne[:]...)
	if u.ne == t.ne {
		for i := range out.data {
			out.data[i] = op(a[i], b[i])
		}
		return out
	}

	i := 0
	for i3 := range t.ne[3] {
		j3 := i3 % u.ne[3]
		for i2 := range t.ne[2] {
			j2 := i2 % u.ne[2]
			for i1 := range t.ne[1] {
				j1 := i1 % u.ne[1]
				row := ((j3*u.ne[2]+j2)*u.ne[1] + j1) * u.ne[0]
				for i0 := range t.ne[0] {
					out.data[i] = op(a[i], b[row+i0%u.ne[0]])
					i++
				}
			}
		}
	}

	return out
}

// Add addiert zwei Tensoren elementweise
func (t *Tensor) Add(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(t2, func(a, b float32) float32 { return a + b })
}

// Sub subtrahiert zwei Tensoren elementweise
func (t *Tensor) Sub(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(t2, func(a, b float32) float32 { return a - b })
}

// Mul multipliziert zwei Tensoren elementweise
func (t *Tensor) Mul(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(t2, func(a, b float32) float32 { return a * b })
}

// Div dividiert zwei Tensoren elementweise
func (t *Tensor) Div(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(t2, func(a, b float32) float32 { return a / b })
}

// Scale multipliziert alle Elemente mit s
func (t *Tensor) Scale(ctx ml.Context, s float64) ml.Tensor {
	out := t.b.newTensor(t.ne[:]...)
	for i, v := range t.f32() {
		out.data[i] = v * float32(s)
	}
	return out
}

// SumRows summiert entlang der innersten Dimension
func (t *Tensor) SumRows(ctx ml.Context) ml.Tensor {
	out := t.b.newTensor(1, t.ne[1], t.ne[2], t.ne[3])
	src := t.f32()
	for r := range out.data {
		var sum float64
		for _, v := range src[r*t.ne[0] : (r+1)*t.ne[0]] {
			sum += float64(v)
		}
		out.data[r] = float32(sum)
	}
	return out
}

// Concat verbindet zwei Tensoren entlang dim
func (t *Tensor) Concat(ctx ml.Context, t2 ml.Tensor, dim int) ml.Tensor {
	u := t2.(*Tensor)
	for i := range t.ne {
		if i != dim && t.ne[i] != u.ne[i] {
			panic(fmt.Errorf("cpu: cannot concat %v and %v along %d", t.Shape(), u.Shape(), dim))
		}
	}

	ne := t.ne
	ne[dim] += u.ne[dim]
	out := t.b.newTensor(ne[:]...)

	na, nb := elements(t.ne[:dim+1]), elements(u.ne[:dim+1])
	a, b := t.f32(), u.f32()
	for o := range elements(t.ne[dim+1:]) {
		copy(out.data[o*(na+nb):], a[o*na:(o+1)*na])
		copy(out.data[o*(na+nb)+na:], b[o*nb:(o+1)*nb])
	}

	return out
}
