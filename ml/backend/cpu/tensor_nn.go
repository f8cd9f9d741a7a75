// tensor_nn.go - Neuronale-Netzwerk-Operationen fuer Tensoren
// Enthaelt: Softmax, L2Norm, LayerNorm, Tanh, GELU

package cpu

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/ollama/adaptor/ml"
)

// rows ruft fn fuer jede Zeile der innersten Dimension auf
func (t *Tensor) rows(fn func(dst, src []float32)) *Tensor {
	out := t.b.newTensor(t.ne[:]...)
	src := t.f32()
	for r := 0; r < len(src); r += t.ne[0] {
		fn(out.data[r:r+t.ne[0]], src[r:r+t.ne[0]])
	}
	return out
}

// Softmax entlang der innersten Dimension
func (t *Tensor) Softmax(ctx ml.Context) ml.Tensor {
	return t.rows(func(dst, src []float32) {
		peak := src[0]
		for _, v := range src[1:] {
			peak = max(peak, v)
		}

		var sum float64
		for i, v := range src {
			dst[i] = math32.Exp(v - peak)
			sum += float64(dst[i])
		}

		for i := range dst {
			dst[i] = float32(float64(dst[i]) / sum)
		}
	})
}

// L2Norm teilt jede Zeile durch max(||x||, eps)
func (t *Tensor) L2Norm(ctx ml.Context, eps float32) ml.Tensor {
	return t.rows(func(dst, src []float32) {
		var sum float64
		for _, v := range src {
			sum += float64(v) * float64(v)
		}

		scale := 1 / max(float32(math.Sqrt(sum)), eps)
		for i, v := range src {
			dst[i] = v * scale
		}
	})
}

// LayerNorm normalisiert jede Zeile auf Mittelwert 0 und Varianz 1 und
// wendet danach weight und bias an, falls vorhanden
func (t *Tensor) LayerNorm(ctx ml.Context, weight, bias ml.Tensor, eps float32) ml.Tensor {
	var out ml.Tensor = t.rows(func(dst, src []float32) {
		var mean float64
		for _, v := range src {
			mean += float64(v)
		}
		mean /= float64(len(src))

		var variance float64
		for _, v := range src {
			d := float64(v) - mean
			variance += d * d
		}
		variance /= float64(len(src))

		scale := 1 / math.Sqrt(variance+float64(eps))
		for i, v := range src {
			dst[i] = float32((float64(v) - mean) * scale)
		}
	})

	if weight != nil {
		out = out.Mul(ctx, weight)
	}

	if bias != nil {
		out = out.Add(ctx, bias)
	}

	return out
}

func (t *Tensor) unary(fn func(float32) float32) *Tensor {
	out := t.b.newTensor(t.ne[:]...)
	for i, v := range t.f32() {
		out.data[i] = fn(v)
	}
	return out
}

// Tanh wendet tanh elementweise an
func (t *Tensor) Tanh(ctx ml.Context) ml.Tensor {
	return t.unary(func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}

// GELU wendet die exakte GELU-Funktion x * Phi(x) mit der Fehlerfunktion an
func (t *Tensor) GELU(ctx ml.Context) ml.Tensor {
	return t.unary(func(v float32) float32 {
		x := float64(v)
		return float32(0.5 * x * (1 + math.Erf(x/math.Sqrt2)))
	})
}
