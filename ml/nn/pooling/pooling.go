package pooling

import (
	"github.com/ollama/adaptor/ml"
)

type Type uint32

const (
	TypeNone Type = iota
	TypeMean
	TypeCLS
	TypeLast
)

func (t Type) String() string {
	switch t {
	case TypeMean:
		return "Mean"
	case TypeCLS:
		return "CLS"
	case TypeLast:
		return "Last"
	default:
		return "Unknown"
	}
}

// Forward reduces hidden states (hidden, seq, batch) to (hidden, batch).
func (t Type) Forward(ctx ml.Context, hiddenStates ml.Tensor) ml.Tensor {
	hidden, seq, batch := hiddenStates.Dim(0), hiddenStates.Dim(1), hiddenStates.Dim(2)
	switch t {
	case TypeMean:
		hiddenStates = hiddenStates.Permute(ctx, 1, 0, 2, 3).Contiguous(ctx).SumRows(ctx).Scale(ctx, 1/float64(seq))
		return hiddenStates.Reshape(ctx, hidden, batch)
	case TypeCLS:
		return hiddenStates.Slice(ctx, 1, 0, 1, 1).Reshape(ctx, hidden, batch)
	case TypeLast:
		return hiddenStates.Slice(ctx, 1, seq-1, seq, 1).Reshape(ctx, hidden, batch)
	default:
		panic("unknown pooling type")
	}
}
