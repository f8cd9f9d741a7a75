package nn

import "github.com/ollama/adaptor/ml"

// Linear computes Weight·x (+ Bias). Weight has shape (in, out); a nil Bias
// makes the layer bias-free.
type Linear struct {
	Weight ml.Tensor `tensor:"weight"`
	Bias   ml.Tensor `tensor:"bias"`
}

func (m *Linear) Forward(ctx ml.Context, t ml.Tensor) ml.Tensor {
	t = m.Weight.Mulmat(ctx, t)
	if m.Bias != nil {
		t = t.Add(ctx, m.Bias)
	}

	return t
}
