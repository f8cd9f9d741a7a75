package adaptor

import (
	"github.com/ollama/adaptor/ml"
	"github.com/ollama/adaptor/ml/nn"
)

// normEps schuetzt die L2-Normierung vor Division durch Null
const normEps = 1e-12

// Projection maps text and image embeddings into the shared space and
// normalizes every token to unit length.
type Projection struct {
	Text   *nn.Linear `tensor:"text_projection"`
	Visual *nn.Linear `tensor:"visual_projection"`
}

// Forward projects text (Ht, Lt, B) and image (Hv, Li, B) embeddings to
// (D, Lt, B) and (D, Li, B).
func (p *Projection) Forward(ctx ml.Context, text, image ml.Tensor) (ml.Tensor, ml.Tensor, error) {
	if err := checkSequence("text projection", text, p.Text.Weight.Dim(0)); err != nil {
		return nil, nil, err
	}

	if err := checkSequence("visual projection", image, p.Visual.Weight.Dim(0)); err != nil {
		return nil, nil, err
	}

	text = p.Text.Forward(ctx, text).L2Norm(ctx, normEps)
	image = p.Visual.Forward(ctx, image).L2Norm(ctx, normEps)
	return text, image, nil
}

// checkSequence prueft eine Sequenz (hidden, seq, batch) auf die Breite hidden
func checkSequence(op string, t ml.Tensor, hidden int) error {
	if t.Dim(0) != hidden || t.Dim(3) != 1 {
		return &ShapeError{Op: op, Want: []int{hidden, -1, -1}, Got: t.Shape()}
	}
	return nil
}
