// Package adaptor fuses embeddings of a pretrained text encoder and a
// pretrained vision encoder into a shared space and scores them with a
// CLIP-style contrastive objective.
package adaptor

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/ollama/adaptor/ml"
	"github.com/ollama/adaptor/ml/nn/pooling"
	"github.com/ollama/adaptor/model"
)

// ============================================================================
// Adaptor - Ausrichtung von Text- und Bild-Embeddings
// ============================================================================
//
// Dieses Modul enthaelt:
// - Adaptor: Projektion, Fusion-Encoder und Logit-Skala
// - New: Konstruktion, Parameter-Deklaration und Bindung
// - Forward / ForwardEmbeds: Similarity-Logits und optionaler Loss

// Adaptor aligns text and image embeddings.
type Adaptor struct {
	model.Base

	Projection Projection
	Fusion     *FusionEncoder `tensor:"fusion"`
	LogitScale ml.Tensor      `tensor:"logit_scale"`

	config   Config
	backbone Backbone
	text     TextEncoder
	vision   VisionEncoder
}

// New validates c against the encoders, allocates every parameter in b and
// binds them. Parameters already present in b with the declared shape keep
// their values. text and vision may be nil when only ForwardEmbeds is used;
// c must then carry TextEmbedDim and VisionOutputDim.
func New(b ml.Backend, c Config, text TextEncoder, vision VisionEncoder) (*Adaptor, error) {
	c, backbone, err := c.resolve(text, vision)
	if err != nil {
		return nil, err
	}

	if c.TextEmbedDim <= 0 {
		return nil, &ConfigError{Field: "text_embed_dim", Reason: "required without a text encoder"}
	}

	if c.VisionOutputDim <= 0 {
		return nil, &ConfigError{Field: "vision_output_dim", Reason: "required without a vision encoder"}
	}

	m := &Adaptor{
		Fusion:   newFusionEncoder(c.Fusion),
		config:   c,
		backbone: backbone,
		text:     text,
		vision:   vision,
	}

	if err := model.Bind(b, m); err != nil {
		return nil, err
	}

	slog.Debug("adaptor ready", "backbone", backbone, "projection_dim", c.ProjectionDim,
		"layers", c.NumFusionLayers, "heads", c.Fusion.NumAttentionHeads,
		"text_dim", c.TextEmbedDim, "vision_dim", c.VisionOutputDim)
	return m, nil
}

// Declare lists every parameter with its shape (in, out) and initializer.
func (m *Adaptor) Declare() model.Manifest {
	c := m.config
	d, inter := c.ProjectionDim, c.Fusion.IntermediateSize
	normal := ml.Initializer{Kind: ml.InitNormal, Value: c.Fusion.InitializerRange}
	zeros := ml.Initializer{Kind: ml.InitZeros}
	ones := ml.Initializer{Kind: ml.InitOnes}

	var manifest model.Manifest
	manifest.Add(uniform(c.TextEmbedDim), []int{c.TextEmbedDim, d}, "text_projection", "weight")
	manifest.Add(uniform(c.VisionOutputDim), []int{c.VisionOutputDim, d}, "visual_projection", "weight")

	for i := range c.NumFusionLayers {
		blk := []string{"fusion", "blk", strconv.Itoa(i)}
		for _, dense := range []struct {
			name    string
			in, out int
		}{
			{"attn_q", d, d},
			{"attn_k", d, d},
			{"attn_v", d, d},
			{"attn_output", d, d},
			{"ffn_up", d, inter},
			{"ffn_down", inter, d},
		} {
			manifest.Add(normal, []int{dense.in, dense.out}, append(blk, dense.name, "weight")...)
			manifest.Add(zeros, []int{dense.out}, append(blk, dense.name, "bias")...)
		}

		for _, norm := range []string{"attn_output_norm", "layer_output_norm"} {
			manifest.Add(ones, []int{d}, append(blk, norm, "weight")...)
			manifest.Add(zeros, []int{d}, append(blk, norm, "bias")...)
		}
	}

	manifest.Add(normal, []int{d, d}, "fusion", "pooler", "weight")
	manifest.Add(zeros, []int{d}, "fusion", "pooler", "bias")
	manifest.Add(ml.Initializer{Kind: ml.InitConstant, Value: c.LogitScaleInitValue}, []int{1}, "logit_scale")
	return manifest
}

// uniform entspricht der Default-Initialisierung eines Linear-Layers
func uniform(in int) ml.Initializer {
	return ml.Initializer{Kind: ml.InitUniform, Value: float32(1 / math.Sqrt(float64(in)))}
}

// Validate reports parameters that could not be bound.
func (m *Adaptor) Validate() error {
	missing := func(name string) error {
		return &ConfigError{Field: name, Reason: "parameter not bound"}
	}

	switch {
	case m.Projection.Text == nil || m.Projection.Text.Weight == nil:
		return missing("text_projection.weight")
	case m.Projection.Visual == nil || m.Projection.Visual.Weight == nil:
		return missing("visual_projection.weight")
	case m.Fusion == nil || m.Fusion.Pooler == nil:
		return missing("fusion.pooler")
	case m.LogitScale == nil:
		return missing("logit_scale")
	}

	for i, layer := range m.Fusion.Layers {
		if layer.SelfAttention == nil || layer.MLP == nil || layer.AttentionNorm == nil || layer.MLPNorm == nil {
			return missing(fmt.Sprintf("fusion.blk.%d", i))
		}
	}

	return nil
}

// Config returns the resolved configuration.
func (m *Adaptor) Config() Config {
	return m.config
}

// Backbone returns the vision backbone kind fixed at construction.
func (m *Adaptor) Backbone() Backbone {
	return m.backbone
}

// Parameters lists the allocated parameters in declaration order.
func (m *Adaptor) Parameters() []ml.ParamSpec {
	return m.Backend().Parameters()
}

// ForwardOptions controls a forward pass.
type ForwardOptions struct {
	// FusionMask is an optional (textLen+imageLen, batch) mask for the
	// fused sequence. Without it every token attends to every other.
	FusionMask ml.Tensor
	// HeadMask is nil, (heads) or (heads, layers).
	HeadMask ml.Tensor
	// ReturnLoss computes the contrastive loss of the batch.
	ReturnLoss bool
	// MaskTextPadding derives FusionMask from the text attention mask when
	// FusionMask is nil. Only Forward has a text attention mask.
	MaskTextPadding bool
	// PooledImage marks convolutional image embeddings as pooled
	// (hidden, batch) vectors. Forward sets it from a vision encoder that
	// implements PooledOutputReporter.
	PooledImage bool
}

// Batch is the input of Forward.
type Batch struct {
	TextInput
	// PixelValues are passed unchanged to the vision encoder.
	PixelValues ml.Tensor
	ForwardOptions
}

// Output holds the result of a forward pass.
//
// The summary of each modality is its token at position 0 after fusion, so
// text inputs should start with a classification token.
type Output struct {
	Loss *float32
	// LogitsPerImage is the exact transpose of LogitsPerText.
	LogitsPerImage ml.Tensor
	// LogitsPerText has shape (imageBatch, textBatch): row t holds the scaled
	// similarities of text t to every image.
	LogitsPerText ml.Tensor
	// TextEmbeds (dim, textLen, batch) and ImageEmbeds (dim, imageLen, batch)
	// are the unit length fused token embeddings.
	TextEmbeds  ml.Tensor
	ImageEmbeds ml.Tensor
}

// Forward encodes both modalities and aligns them.
func (m *Adaptor) Forward(ctx ml.Context, batch Batch) (*Output, error) {
	if m.text == nil || m.vision == nil {
		return nil, &ConfigError{Field: "encoders", Reason: "Forward needs a text and a vision encoder"}
	}

	image, err := m.vision.EncodeImage(ctx, batch.PixelValues)
	if err != nil {
		return nil, fmt.Errorf("adaptor: encode image: %w", err)
	}

	text, err := m.text.EncodeText(ctx, batch.TextInput)
	if err != nil {
		return nil, fmt.Errorf("adaptor: encode text: %w", err)
	}

	opts := batch.ForwardOptions
	if r, ok := m.vision.(PooledOutputReporter); ok && r.PooledOutput() {
		opts.PooledImage = true
	}

	if opts.FusionMask == nil && opts.MaskTextPadding && batch.AttentionMask != nil {
		mask := batch.AttentionMask
		if mask.Dim(0) != text.Dim(1) || mask.Dim(1) != text.Dim(2) || mask.Dim(2) != 1 || mask.Dim(3) != 1 {
			return nil, &ShapeError{Op: "attention mask", Want: []int{text.Dim(1), text.Dim(2)}, Got: mask.Shape()}
		}

		seq, err := m.backbone.Sequence(ctx, image, opts.PooledImage)
		if err != nil {
			return nil, err
		}
		opts.FusionMask = FusedAttentionMask(ctx, mask, seq.Dim(1))
	}

	return m.ForwardEmbeds(ctx, text, image, opts)
}

// ForwardEmbeds aligns already encoded text (textDim, textLen, batch) and raw
// vision encoder output.
func (m *Adaptor) ForwardEmbeds(ctx ml.Context, text, image ml.Tensor, opts ForwardOptions) (*Output, error) {
	image, err := m.backbone.Sequence(ctx, image, opts.PooledImage)
	if err != nil {
		return nil, err
	}

	if text.Dim(2) != image.Dim(2) {
		return nil, &BatchError{Text: text.Dim(2), Image: image.Dim(2)}
	}

	textEmbeds, imageEmbeds, err := m.Projection.Forward(ctx, text, image)
	if err != nil {
		return nil, err
	}

	textLen := textEmbeds.Dim(1)
	slog.Debug("adaptor forward", "text", textEmbeds.Shape(), "image", imageEmbeds.Shape())

	fused, err := m.Fusion.Forward(ctx, textEmbeds.Concat(ctx, imageEmbeds, 1), opts.FusionMask, opts.HeadMask)
	if err != nil {
		return nil, err
	}

	hidden := fused.LastHiddenState
	seqLen := hidden.Dim(1)
	textEmbeds = hidden.Slice(ctx, 1, 0, textLen, 1).L2Norm(ctx, normEps)
	imageEmbeds = hidden.Slice(ctx, 1, textLen, seqLen, 1).L2Norm(ctx, normEps)

	textSummary := pooling.TypeCLS.Forward(ctx, textEmbeds)
	imageSummary := pooling.TypeCLS.Forward(ctx, imageEmbeds)

	scale := math.Exp(float64(m.LogitScale.Floats()[0]))
	logitsPerText := imageSummary.Mulmat(ctx, textSummary).Scale(ctx, scale)
	logitsPerImage := logitsPerText.Permute(ctx, 1, 0, 2, 3).Contiguous(ctx)

	out := &Output{
		LogitsPerImage: logitsPerImage,
		LogitsPerText:  logitsPerText,
		TextEmbeds:     textEmbeds,
		ImageEmbeds:    imageEmbeds,
	}

	if opts.ReturnLoss {
		loss, err := ContrastiveLoss(logitsPerText)
		if err != nil {
			return nil, err
		}
		out.Loss = &loss
	}

	return out, nil
}
