package adaptor

import (
	"math"

	"github.com/ollama/adaptor/logutil"
	"github.com/ollama/adaptor/ml"
	"github.com/ollama/adaptor/ml/nn"
	"github.com/ollama/adaptor/ml/nn/pooling"
)

// ============================================================================
// Fusion-Encoder - BERT-Encoder ueber die verbundene Text+Bild-Sequenz
// ============================================================================
//
// Dieses Modul enthaelt:
// - fusionOptions: Hyperparameter, die alle Layer teilen
// - SelfAttention: Multi-Head Self-Attention mit Ausgabe-Projektion
// - MLP: Feed-Forward-Block mit GELU
// - EncoderLayer: Post-LN Encoder-Layer
// - FusionEncoder: Layer-Stapel plus Pooler

type fusionOptions struct {
	hiddenSize       int
	numHeads         int
	intermediateSize int
	eps              float32
}

func (o *fusionOptions) headDim() int {
	return o.hiddenSize / o.numHeads
}

// SelfAttention implementiert die Self-Attention eines Encoder-Layers
type SelfAttention struct {
	Query  *nn.Linear `tensor:"attn_q"`
	Key    *nn.Linear `tensor:"attn_k"`
	Value  *nn.Linear `tensor:"attn_v"`
	Output *nn.Linear `tensor:"attn_output"`
}

// Forward berechnet die Self-Attention fuer hiddenStates (hidden, seq, batch)
func (sa *SelfAttention) Forward(ctx ml.Context, hiddenStates, mask, headMask ml.Tensor, opts *fusionOptions) ml.Tensor {
	seqLen, batch := hiddenStates.Dim(1), hiddenStates.Dim(2)
	headDim := opts.headDim()

	query := sa.Query.Forward(ctx, hiddenStates).Reshape(ctx, headDim, opts.numHeads, seqLen, batch)
	key := sa.Key.Forward(ctx, hiddenStates).Reshape(ctx, headDim, opts.numHeads, seqLen, batch)
	value := sa.Value.Forward(ctx, hiddenStates).Reshape(ctx, headDim, opts.numHeads, seqLen, batch)

	attention := nn.Attention(ctx, query, key, value, mask, headMask, 1.0/math.Sqrt(float64(headDim)))
	attention = attention.Reshape(ctx, opts.hiddenSize, seqLen, batch)
	return sa.Output.Forward(ctx, attention)
}

// MLP implementiert den Feed-Forward-Block
type MLP struct {
	Up   *nn.Linear `tensor:"ffn_up"`
	Down *nn.Linear `tensor:"ffn_down"`
}

// Forward berechnet Down(GELU(Up(x)))
func (mlp *MLP) Forward(ctx ml.Context, hiddenStates ml.Tensor) ml.Tensor {
	return mlp.Down.Forward(ctx, mlp.Up.Forward(ctx, hiddenStates).GELU(ctx))
}

// EncoderLayer ist ein Post-LN Encoder-Layer
type EncoderLayer struct {
	*SelfAttention
	AttentionNorm *nn.LayerNorm `tensor:"attn_output_norm"`
	*MLP
	MLPNorm *nn.LayerNorm `tensor:"layer_output_norm"`
}

// Forward berechnet einen Encoder-Layer
func (e *EncoderLayer) Forward(ctx ml.Context, hiddenStates, mask, headMask ml.Tensor, opts *fusionOptions) ml.Tensor {
	// Self-Attention mit Residual, danach LayerNorm
	residual := hiddenStates
	hiddenStates = e.SelfAttention.Forward(ctx, hiddenStates, mask, headMask, opts)
	hiddenStates = e.AttentionNorm.Forward(ctx, hiddenStates.Add(ctx, residual), opts.eps)

	// Feed-Forward mit Residual, danach LayerNorm
	residual = hiddenStates
	hiddenStates = e.MLP.Forward(ctx, hiddenStates)
	return e.MLPNorm.Forward(ctx, hiddenStates.Add(ctx, residual), opts.eps)
}

// FusionOutput holds the fusion encoder results.
type FusionOutput struct {
	// LastHiddenState has shape (hidden, seq, batch)
	LastHiddenState ml.Tensor
	// PooledOutput is tanh(dense(position 0)) with shape (hidden, batch)
	PooledOutput ml.Tensor
}

// FusionEncoder is a stack of self-attention encoder layers followed by a
// pooler over the first token. It only attends within one sequence and keeps
// no state between calls.
type FusionEncoder struct {
	Layers []EncoderLayer `tensor:"blk"`
	Pooler *nn.Linear     `tensor:"pooler"`

	*fusionOptions

	// observe sieht jede Eingabe, bevor der erste Layer laeuft
	observe func(ml.Tensor)
}

func newFusionEncoder(c FusionConfig) *FusionEncoder {
	return &FusionEncoder{
		Layers: make([]EncoderLayer, c.NumHiddenLayers),
		fusionOptions: &fusionOptions{
			hiddenSize:       c.HiddenSize,
			numHeads:         c.NumAttentionHeads,
			intermediateSize: c.IntermediateSize,
			eps:              c.LayerNormEps,
		},
	}
}

// Forward encodes hiddenStates (hidden, seq, batch). mask is (seq, batch)
// with 1 for tokens to attend to and may be nil. headMask is nil, (heads) or
// (heads, layers).
func (f *FusionEncoder) Forward(ctx ml.Context, hiddenStates, mask, headMask ml.Tensor) (*FusionOutput, error) {
	if err := checkSequence("fusion input", hiddenStates, f.hiddenSize); err != nil {
		return nil, err
	}

	seqLen, batch := hiddenStates.Dim(1), hiddenStates.Dim(2)
	bias, err := extendAttentionMask(ctx, mask, seqLen, batch)
	if err != nil {
		return nil, err
	}

	headMasks, err := expandHeadMask(ctx, headMask, len(f.Layers), f.numHeads)
	if err != nil {
		return nil, err
	}

	if f.observe != nil {
		f.observe(hiddenStates)
	}

	for i, layer := range f.Layers {
		logutil.Trace("fusion layer", "layer", i, "seq", seqLen, "batch", batch)
		hiddenStates = layer.Forward(ctx.Layer(i), hiddenStates, bias, headMasks[i], f.fusionOptions)
	}

	pooled := pooling.TypeCLS.Forward(ctx, hiddenStates)
	pooled = f.Pooler.Forward(ctx, pooled).Tanh(ctx)

	return &FusionOutput{LastHiddenState: hiddenStates, PooledOutput: pooled}, nil
}
