package adaptor

import (
	"github.com/chewxy/math32"

	"github.com/ollama/adaptor/ml"
)

// extendAttentionMask turns a (seq, batch) mask of ones and zeros into the
// additive bias (seq, 1, 1, batch) shared by every attention layer. A nil
// mask attends to every position.
func extendAttentionMask(ctx ml.Context, mask ml.Tensor, seqLen, batch int) (ml.Tensor, error) {
	values := make([]float32, seqLen*batch)
	if mask != nil {
		if mask.Dim(0) != seqLen || mask.Dim(1) != batch || mask.Dim(2) != 1 || mask.Dim(3) != 1 {
			return nil, &ShapeError{Op: "attention mask", Want: []int{seqLen, batch}, Got: mask.Shape()}
		}

		for i, v := range mask.Floats() {
			values[i] = (v - 1) * math32.MaxFloat32
		}
	}

	return ctx.Input().FromFloats(values, seqLen, 1, 1, batch), nil
}

// expandHeadMask returns one multiplier (1, 1, heads, 1) per layer. A mask of
// shape (heads) applies to every layer, (heads, layers) selects per layer.
// Entries are nil when headMask is nil.
func expandHeadMask(ctx ml.Context, headMask ml.Tensor, layers, heads int) ([]ml.Tensor, error) {
	masks := make([]ml.Tensor, layers)
	if headMask == nil {
		return masks, nil
	}

	switch {
	case headMask.Dim(0) != heads || headMask.Dim(2) != 1 || headMask.Dim(3) != 1:
	case headMask.Dim(1) == 1:
		shared := headMask.Reshape(ctx, 1, 1, heads, 1)
		for i := range masks {
			masks[i] = shared
		}
		return masks, nil
	case headMask.Dim(1) == layers:
		for i := range masks {
			masks[i] = headMask.Slice(ctx, 1, i, i+1, 1).Reshape(ctx, 1, 1, heads, 1)
		}
		return masks, nil
	}

	return nil, &ShapeError{Op: "head mask", Want: []int{heads, layers}, Got: headMask.Shape()}
}

// FusedAttentionMask builds the (textLen+imageLen, batch) mask for a fused
// sequence: the text mask followed by ones for every image token.
func FusedAttentionMask(ctx ml.Context, textMask ml.Tensor, imageLen int) ml.Tensor {
	batch := textMask.Dim(1)
	ones := make([]float32, imageLen*batch)
	for i := range ones {
		ones[i] = 1
	}

	return textMask.Concat(ctx, ctx.Input().FromFloats(ones, imageLen, batch), 0)
}
