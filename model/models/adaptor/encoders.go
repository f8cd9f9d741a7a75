package adaptor

import (
	"errors"

	"github.com/ollama/adaptor/ml"
)

// TextInput holds the tokenized text batch. InputIDs has shape (seq, batch);
// the optional tensors share that shape.
type TextInput struct {
	InputIDs      ml.Tensor
	AttentionMask ml.Tensor
	TokenTypeIDs  ml.Tensor
	PositionIDs   ml.Tensor
}

// TextEncoder produces per-token text embeddings of shape (hidden, seq, batch).
type TextEncoder interface {
	EncodeText(ctx ml.Context, in TextInput) (ml.Tensor, error)
	HiddenSize() int
}

// VisionEncoder produces raw image embeddings. Their layout depends on the
// backbone kind, see Backbone.Sequence.
type VisionEncoder interface {
	EncodeImage(ctx ml.Context, pixelValues ml.Tensor) (ml.Tensor, error)
}

// VisionOutputDimReporter is implemented by vision encoders that know their
// output width.
type VisionOutputDimReporter interface {
	OutputDim() int
}

// PooledOutputReporter is implemented by convolutional vision encoders whose
// output is a pooled (hidden, batch) vector instead of a feature sequence.
type PooledOutputReporter interface {
	PooledOutput() bool
}

var errNoEmbeddings = errors.New("adaptor: no precomputed embeddings")

// PrecomputedText is a TextEncoder over stored embeddings.
type PrecomputedText struct {
	Embeds ml.Tensor
}

func (p *PrecomputedText) EncodeText(ctx ml.Context, in TextInput) (ml.Tensor, error) {
	if p.Embeds == nil {
		return nil, errNoEmbeddings
	}

	if in.InputIDs != nil && in.InputIDs.Dim(1) != p.Embeds.Dim(2) {
		return nil, &ShapeError{
			Op:   "precomputed text",
			Want: []int{-1, p.Embeds.Dim(2)},
			Got:  in.InputIDs.Shape(),
		}
	}

	return p.Embeds, nil
}

func (p *PrecomputedText) HiddenSize() int {
	if p.Embeds == nil {
		return 0
	}
	return p.Embeds.Dim(0)
}

// PrecomputedVision is a VisionEncoder over stored embeddings. Dim overrides
// the reported width, which otherwise is the innermost dimension of Output.
// Pooled marks Output as a pooled convolutional (hidden, batch) vector.
type PrecomputedVision struct {
	Output ml.Tensor
	Dim    int
	Pooled bool
}

func (p *PrecomputedVision) EncodeImage(ctx ml.Context, pixelValues ml.Tensor) (ml.Tensor, error) {
	if p.Output == nil {
		return nil, errNoEmbeddings
	}
	return p.Output, nil
}

func (p *PrecomputedVision) OutputDim() int {
	if p.Dim > 0 || p.Output == nil {
		return p.Dim
	}
	return p.Output.Dim(0)
}

func (p *PrecomputedVision) PooledOutput() bool {
	return p.Pooled
}
