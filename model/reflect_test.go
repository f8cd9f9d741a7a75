package model

import (
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ollama/adaptor/ml"
	_ "github.com/ollama/adaptor/ml/backend"
	"github.com/ollama/adaptor/ml/nn"
)

type fakeBackend struct {
	ml.Backend
	names []string
}

type fakeTensor struct {
	ml.Tensor
	Name string
}

func (m *fakeBackend) Get(name string) ml.Tensor {
	if slices.Contains(m.names, name) {
		return &fakeTensor{Name: name}
	}

	return nil
}

func TestBindFields(t *testing.T) {
	type fakeLayer struct {
		Query  *nn.Linear    `tensor:"attn_q"`
		Key    *nn.Linear    `tensor:"attn_k"`
		Norm   *nn.LayerNorm `tensor:"attn_output_norm"`
		Output *nn.Linear    `tensor:"attn_output"`
	}

	type fakeModel struct {
		Projection nn.Linear    `tensor:"text_projection"`
		Layers     [2]fakeLayer `tensor:"blk"`
		Scale      ml.Tensor    `tensor:"logit_scale"`
		heads      int
	}

	m := fakeModel{heads: 4}
	bd := &binder{base: Base{b: &fakeBackend{
		names: []string{
			"text_projection.weight",
			"blk.0.attn_q.weight",
			"blk.0.attn_q.bias",
			"blk.0.attn_k.weight",
			"blk.0.attn_output_norm.weight",
			"blk.0.attn_output_norm.bias",
			"blk.1.attn_q.weight",
			"blk.1.attn_k.weight",
			"logit_scale",
		},
	}}}
	bd.bindStruct(reflect.ValueOf(&m).Elem(), nil)
	require.Equal(t, 9, bd.bound)

	if diff := cmp.Diff(fakeModel{
		Projection: nn.Linear{Weight: &fakeTensor{Name: "text_projection.weight"}},
		Layers: [2]fakeLayer{
			{
				Query: &nn.Linear{Weight: &fakeTensor{Name: "blk.0.attn_q.weight"}, Bias: &fakeTensor{Name: "blk.0.attn_q.bias"}},
				Key:   &nn.Linear{Weight: &fakeTensor{Name: "blk.0.attn_k.weight"}},
				Norm:  &nn.LayerNorm{Weight: &fakeTensor{Name: "blk.0.attn_output_norm.weight"}, Bias: &fakeTensor{Name: "blk.0.attn_output_norm.bias"}},
			},
			{
				Query: &nn.Linear{Weight: &fakeTensor{Name: "blk.1.attn_q.weight"}},
				Key:   &nn.Linear{Weight: &fakeTensor{Name: "blk.1.attn_k.weight"}},
			},
		},
		Scale: &fakeTensor{Name: "logit_scale"},
		heads: 4,
	}, m, cmp.AllowUnexported(fakeModel{})); diff != "" {
		t.Errorf("bindStruct() set incorrect values (-want +got):\n%s", diff)
	}
}

func TestBindFieldsOptionalBias(t *testing.T) {
	type Heads struct {
		Text   *nn.Linear `tensor:"text_projection"`
		Visual *nn.Linear `tensor:"visual_projection,omitempty"`
		Pooler *nn.Linear `tensor:"pooler"`
	}

	// eingebettete Felder ohne Tag reichen den Pfad weiter
	type fakeModel struct {
		Heads
	}

	backend := &fakeBackend{names: []string{"text_projection.weight", "visual_projection.weight"}}
	var m fakeModel
	bd := &binder{base: Base{b: backend}}
	require.True(t, bd.bindStruct(reflect.ValueOf(&m).Elem(), nil))
	require.Equal(t, 2, bd.bound)

	if diff := cmp.Diff(fakeModel{Heads{
		Text:   &nn.Linear{Weight: &fakeTensor{Name: "text_projection.weight"}},
		Visual: &nn.Linear{Weight: &fakeTensor{Name: "visual_projection.weight"}},
	}}, m, cmp.AllowUnexported(fakeModel{})); diff != "" {
		t.Errorf("bindStruct() set incorrect values (-want +got):\n%s", diff)
	}
}

type bindModel struct {
	Base
	Dense *nn.Linear `tensor:"dense"`
	width int
	err   error
}

func (m *bindModel) Declare() Manifest {
	var manifest Manifest
	manifest.Add(ml.Initializer{Kind: ml.InitNormal, Value: 0.02}, []int{m.width, m.width}, "dense", "weight")
	manifest.Add(ml.Initializer{Kind: ml.InitZeros}, []int{m.width}, "dense", "bias")
	return manifest
}

func (m *bindModel) Validate() error {
	if m.Dense == nil || m.Dense.Weight == nil {
		return errors.New("dense missing")
	}
	return m.err
}

func TestBind(t *testing.T) {
	b, err := ml.NewBackend("cpu", ml.BackendParams{})
	require.NoError(t, err)
	defer b.Close()

	m := &bindModel{width: 3}
	require.NoError(t, Bind(b, m))

	if m.Backend() != b {
		t.Error("Base wurde nicht gesetzt")
	}
	if diff := cmp.Diff([]int{3, 3}, m.Dense.Weight.Shape()); diff != "" {
		t.Error(diff)
	}
	if diff := cmp.Diff([]float32{0, 0, 0}, m.Dense.Bias.Floats()); diff != "" {
		t.Error(diff)
	}
	if m.width != 3 {
		t.Errorf("Optionen duerfen nicht ueberschrieben werden, width=%d", m.width)
	}

	if diff := cmp.Diff([]string{"dense.weight", "dense.bias"}, (m.Declare()).Names()); diff != "" {
		t.Error(diff)
	}
	if got := m.Declare().Elements(); got != 12 {
		t.Errorf("erwartet 12 Elemente, bekommen %d", got)
	}

	sentinel := errors.New("invalid")
	require.ErrorIs(t, Bind(b, &bindModel{width: 3, err: sentinel}), sentinel)
	require.Error(t, Bind(b, &bindModel{width: 4}), "Formkonflikt mit vorhandenen Parametern")
}
