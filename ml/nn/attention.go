package nn

import (
	"fmt"

	"github.com/ollama/adaptor/ml"
)

// Attention implements scaled dot-product attention for transformer models:
// Attention(Q, K, V) = softmax(QK^T/√d_k + mask) ⊙ headMask · V
//
// Parameters:
//   - ctx: Context for tensor operations
//   - query: Query tensor (Q) with shape [d_k, heads, seq_len_q, batch]
//   - key: Key tensor (K) with shape [d_k, heads, seq_len_k, batch]
//   - value: Value tensor (V) with shape [d_v, heads, seq_len_k, batch]
//   - mask: additive bias with shape [seq_len_k, 1, 1, batch], can be nil
//   - headMask: multiplier on the attention probabilities with shape [1, 1, heads, 1], can be nil
//   - scale: Scaling factor, typically 1/√d_k where d_k is the key dimension
//
// Returns:
//
//	Attention output with shape [d_v, heads, seq_len_q, batch]
func Attention(ctx ml.Context, query, key, value, mask, headMask ml.Tensor, scale float64) ml.Tensor {
	ctx.Forward(query, key, value)
	if query.Dim(0) != key.Dim(0) {
		panic(fmt.Errorf("d_k in attention operation does not match between query(%v) and key(%v)", query.Dim(0), key.Dim(0)))
	}

	if key.Dim(1) != value.Dim(1) || query.Dim(1) != key.Dim(1) {
		panic(fmt.Errorf("heads in attention operation do not match between query(%v), key(%v) and value(%v)", query.Dim(1), key.Dim(1), value.Dim(1)))
	}

	if key.Dim(2) != value.Dim(2) {
		panic(fmt.Errorf("seq_len_k in attention operation does not match between key(%v) and value(%v)", key.Dim(2), value.Dim(2)))
	}

	query = query.Permute(ctx, 0, 2, 1, 3)
	key = key.Permute(ctx, 0, 2, 1, 3)
	value = value.Permute(ctx, 1, 2, 0, 3).Contiguous(ctx)

	kq := key.Mulmat(ctx, query)

	kq = kq.Scale(ctx, scale)
	if mask != nil {
		kq = kq.Add(ctx, mask)
	}
	kq = kq.Softmax(ctx)

	if headMask != nil {
		kq = kq.Mul(ctx, headMask)
	}

	kqv := value.Mulmat(ctx, kq)
	return kqv.Permute(ctx, 0, 2, 1, 3).Contiguous(ctx)
}
