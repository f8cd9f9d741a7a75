package adaptor

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ollama/adaptor/ml"
	"github.com/ollama/adaptor/model"
)

// fusionModel bindet nur den Fusion-Encoder an ein Backend
type fusionModel struct {
	model.Base
	Fusion *FusionEncoder `tensor:"fusion"`
}

func newFusion(t *testing.T, layers, heads int) (*FusionEncoder, ml.Context) {
	t.Helper()

	c := DefaultConfig()
	c.ProjectionDim = 16
	c.NumFusionLayers = layers
	c.Fusion.NumAttentionHeads = heads
	c.TextEmbedDim, c.VisionOutputDim = 4, 4

	b := newBackend(t)
	a, err := New(b, c, nil, nil)
	require.NoError(t, err)

	m := &fusionModel{Fusion: newFusionEncoder(a.Config().Fusion)}
	require.NoError(t, model.Bind(b, m))
	return m.Fusion, b.NewContext()
}

func TestFusionEncoder(t *testing.T) {
	f, ctx := newFusion(t, 2, 2)

	hidden := randomTensor(ctx, 1, 16, 7, 3)
	out, err := f.Forward(ctx, hidden, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []int{16, 7, 3}, out.LastHiddenState.Shape())
	require.Equal(t, []int{16, 3}, out.PooledOutput.Shape())

	for _, v := range out.PooledOutput.Floats() {
		require.LessOrEqual(t, v, float32(1))
		require.GreaterOrEqual(t, v, float32(-1))
	}

	t.Run("full mask", func(t *testing.T) {
		ones := slices.Repeat([]float32{1}, 7*3)
		masked, err := f.Forward(ctx, hidden, ctx.FromFloats(ones, 7, 3), nil)
		require.NoError(t, err)
		require.Equal(t, out.LastHiddenState.Floats(), masked.LastHiddenState.Floats())
		require.Equal(t, out.PooledOutput.Floats(), masked.PooledOutput.Floats())
	})

	t.Run("ones head mask", func(t *testing.T) {
		masked, err := f.Forward(ctx, hidden, nil, ctx.FromFloats([]float32{1, 1}, 2))
		require.NoError(t, err)
		require.Equal(t, out.LastHiddenState.Floats(), masked.LastHiddenState.Floats())
	})

	t.Run("head mask per layer", func(t *testing.T) {
		masked, err := f.Forward(ctx, hidden, nil, ctx.FromFloats([]float32{1, 0, 1, 1}, 2, 2))
		require.NoError(t, err)
		require.Equal(t, []int{16, 7, 3}, masked.LastHiddenState.Shape())
		if cmp.Equal(out.LastHiddenState.Floats(), masked.LastHiddenState.Floats()) {
			t.Error("head mask had no effect")
		}
	})

	t.Run("padding", func(t *testing.T) {
		// Padding-Token beeinflussen die uebrigen Tokens nicht
		mask := ctx.FromFloats([]float32{1, 1, 1, 1, 1, 0, 0}, 7, 1)
		first := hidden.Slice(ctx, 2, 0, 1, 1)
		a, err := f.Forward(ctx, first, mask, nil)
		require.NoError(t, err)

		values := first.Floats()
		for i := 5 * 16; i < len(values); i++ {
			values[i] *= -3
		}
		b, err := f.Forward(ctx, ctx.FromFloats(values, 16, 7, 1), mask, nil)
		require.NoError(t, err)

		if diff := cmp.Diff(a.LastHiddenState.Floats()[:5*16], b.LastHiddenState.Floats()[:5*16]); diff != "" {
			t.Errorf("padding changed valid tokens (-a +b):\n%s", diff)
		}
	})
}

func TestFusionEncoderErrors(t *testing.T) {
	f, ctx := newFusion(t, 1, 4)

	var calls int
	f.observe = func(ml.Tensor) { calls++ }

	cases := []struct {
		name     string
		hidden   ml.Tensor
		mask     ml.Tensor
		headMask ml.Tensor
	}{
		{"width", randomTensor(ctx, 1, 15, 3, 2), nil, nil},
		{"mask length", randomTensor(ctx, 1, 16, 3, 2), ctx.FromFloats(make([]float32, 4), 2, 2), nil},
		{"mask batch", randomTensor(ctx, 1, 16, 3, 2), ctx.FromFloats(make([]float32, 3), 3, 1), nil},
		{"head mask", randomTensor(ctx, 1, 16, 3, 2), nil, ctx.FromFloats(make([]float32, 3), 3)},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Forward(ctx, tt.hidden, tt.mask, tt.headMask)
			require.ErrorIs(t, err, ErrShapeMismatch)
		})
	}

	require.Zero(t, calls)
}
