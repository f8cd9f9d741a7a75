package adaptor

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ollama/adaptor/envconfig"
)

// ============================================================================
// Konfiguration
// ============================================================================
//
// Dieses Modul enthaelt:
// - FusionConfig: Hyperparameter des Fusion-Encoders
// - Config: Adaptor-Konfiguration mit Defaults und Validierung
// - resolve: leitet abhaengige Werte aus Config und Encodern ab

// FusionConfig describes the BERT-style fusion encoder. Zero values are
// filled in by Config.Validate.
type FusionConfig struct {
	HiddenSize                int     `json:"hidden_size"`
	NumHiddenLayers           int     `json:"num_hidden_layers"`
	NumAttentionHeads         int     `json:"num_attention_heads"`
	IntermediateSize          int     `json:"intermediate_size"`
	HiddenDropoutProb         float32 `json:"hidden_dropout_prob"`
	AttentionProbsDropoutProb float32 `json:"attention_probs_dropout_prob"`
	LayerNormEps              float32 `json:"layer_norm_eps"`
	InitializerRange          float32 `json:"initializer_range"`
}

// Config configures an Adaptor.
type Config struct {
	NumFusionLayers     int          `json:"num_fusion_layers"`
	ProjectionDim       int          `json:"projection_dim"`
	VisionModelType     string       `json:"vision_model_type"`
	VisionOutputDim     int          `json:"vision_output_dim,omitempty"`
	TextEmbedDim        int          `json:"text_embed_dim,omitempty"`
	LogitScaleInitValue float32      `json:"logit_scale_init_value"`
	Fusion              FusionConfig `json:"fusion"`
}

const (
	defaultLayerNormEps     = 1e-12
	defaultInitializerRange = 0.02
	defaultLogitScale       = 2.6592
)

// DefaultConfig returns the configuration used by the pretraining script:
// one fusion layer over a 768 wide shared space.
func DefaultConfig() Config {
	return Config{
		NumFusionLayers:     1,
		ProjectionDim:       768,
		VisionModelType:     BackboneTransformer.String(),
		LogitScaleInitValue: defaultLogitScale,
		Fusion: FusionConfig{
			HiddenDropoutProb:         0.1,
			AttentionProbsDropoutProb: 0.1,
			LayerNormEps:              defaultLayerNormEps,
			InitializerRange:          defaultInitializerRange,
		},
	}
}

// FromEnv overlays ADAPTOR_VISION_MODEL_TYPE, ADAPTOR_PROJECTION_DIM,
// ADAPTOR_NUM_FUSION_LAYERS and the encoder widths ADAPTOR_TEXT_EMBED_DIM
// and ADAPTOR_VISION_OUTPUT_DIM when they are set.
func (c Config) FromEnv() Config {
	if s := envconfig.VisionModelType(); s != "" {
		c.VisionModelType = s
	}
	if n := envconfig.ProjectionDim(); n > 0 {
		c.ProjectionDim = int(n)
		c.Fusion.HiddenSize = 0
	}
	if n := envconfig.NumFusionLayers(); n > 0 {
		c.NumFusionLayers = int(n)
		c.Fusion.NumHiddenLayers = 0
	}
	if n := envconfig.TextEmbedDim(); n > 0 {
		c.TextEmbedDim = int(n)
	}
	if n := envconfig.VisionOutputDim(); n > 0 {
		c.VisionOutputDim = int(n)
	}
	return c
}

// Validate checks the fields that do not depend on the encoders. New
// performs the same checks plus the encoder dependent ones.
func (c Config) Validate() error {
	_, _, err := c.resolve(nil, nil)
	return err
}

// resolve gibt eine vollstaendig ausgefuellte Kopie von c zurueck.
// text und vision duerfen nil sein, dann werden die Breiten nicht abgeleitet.
func (c Config) resolve(text TextEncoder, vision VisionEncoder) (Config, Backbone, error) {
	backbone, err := ParseBackbone(c.VisionModelType)
	if err != nil {
		return c, 0, err
	}
	c.VisionModelType = backbone.String()

	if c.ProjectionDim <= 0 {
		return c, 0, &ConfigError{Field: "projection_dim", Reason: "must be positive"}
	}

	f := &c.Fusion
	switch {
	case f.HiddenSize == 0:
		f.HiddenSize = c.ProjectionDim
	case f.HiddenSize != c.ProjectionDim:
		return c, 0, &ShapeError{Op: "fusion hidden size", Want: []int{c.ProjectionDim}, Got: []int{f.HiddenSize}}
	}

	switch {
	case c.NumFusionLayers == 0 && f.NumHiddenLayers == 0:
		return c, 0, &ConfigError{Field: "num_fusion_layers", Reason: "must be positive"}
	case c.NumFusionLayers == 0:
		c.NumFusionLayers = f.NumHiddenLayers
	case f.NumHiddenLayers == 0:
		f.NumHiddenLayers = c.NumFusionLayers
	case c.NumFusionLayers != f.NumHiddenLayers:
		return c, 0, &ConfigError{
			Field:  "num_fusion_layers",
			Reason: fmt.Sprintf("%d conflicts with fusion.num_hidden_layers %d", c.NumFusionLayers, f.NumHiddenLayers),
		}
	}

	if c.NumFusionLayers < 0 {
		return c, 0, &ConfigError{Field: "num_fusion_layers", Reason: "must be positive"}
	}

	switch {
	case f.NumAttentionHeads == 0:
		f.NumAttentionHeads = defaultHeads(f.HiddenSize)
	case f.NumAttentionHeads < 0 || f.HiddenSize%f.NumAttentionHeads != 0:
		return c, 0, &ConfigError{
			Field:  "fusion.num_attention_heads",
			Reason: fmt.Sprintf("%d does not divide hidden size %d", f.NumAttentionHeads, f.HiddenSize),
		}
	}

	switch {
	case f.IntermediateSize == 0:
		f.IntermediateSize = 4 * f.HiddenSize
	case f.IntermediateSize < 0:
		return c, 0, &ConfigError{Field: "fusion.intermediate_size", Reason: "must be positive"}
	}

	for field, p := range map[string]float32{
		"fusion.hidden_dropout_prob":          f.HiddenDropoutProb,
		"fusion.attention_probs_dropout_prob": f.AttentionProbsDropoutProb,
	} {
		if !(p >= 0 && p < 1) {
			return c, 0, &ConfigError{Field: field, Reason: fmt.Sprintf("%v is not in [0, 1)", p)}
		}
	}

	if f.LayerNormEps == 0 {
		f.LayerNormEps = defaultLayerNormEps
	} else if !(f.LayerNormEps > 0) {
		return c, 0, &ConfigError{Field: "fusion.layer_norm_eps", Reason: "must be positive"}
	}

	if f.InitializerRange == 0 {
		f.InitializerRange = defaultInitializerRange
	} else if !(f.InitializerRange > 0) {
		return c, 0, &ConfigError{Field: "fusion.initializer_range", Reason: "must be positive"}
	}

	if math32.IsNaN(c.LogitScaleInitValue) || math32.IsInf(c.LogitScaleInitValue, 0) {
		return c, 0, &ConfigError{Field: "logit_scale_init_value", Reason: "must be finite"}
	}

	if c.VisionOutputDim < 0 || c.TextEmbedDim < 0 {
		return c, 0, &ConfigError{Field: "embed_dim", Reason: "must not be negative"}
	}

	if reporter, ok := vision.(VisionOutputDimReporter); ok && backbone.SelfDescribing() {
		switch dim := reporter.OutputDim(); {
		case c.VisionOutputDim == 0:
			c.VisionOutputDim = dim
		case dim > 0 && dim != c.VisionOutputDim:
			return c, 0, &ConfigError{
				Field:  "vision_output_dim",
				Reason: fmt.Sprintf("%d conflicts with encoder output %d", c.VisionOutputDim, dim),
			}
		}
	}

	if c.VisionOutputDim == 0 && (vision != nil || !backbone.SelfDescribing()) {
		return c, 0, &ConfigError{
			Field:  "vision_output_dim",
			Reason: fmt.Sprintf("required for %s backbones", backbone),
		}
	}

	if text != nil {
		switch dim := text.HiddenSize(); {
		case c.TextEmbedDim == 0:
			c.TextEmbedDim = dim
		case dim > 0 && dim != c.TextEmbedDim:
			return c, 0, &ConfigError{
				Field:  "text_embed_dim",
				Reason: fmt.Sprintf("%d conflicts with encoder hidden size %d", c.TextEmbedDim, dim),
			}
		}

		if c.TextEmbedDim <= 0 {
			return c, 0, &ConfigError{Field: "text_embed_dim", Reason: "must be positive"}
		}
	}

	return c, backbone, nil
}

// defaultHeads waehlt den groessten Teiler von hidden, der hidden/64 nicht
// ueberschreitet
func defaultHeads(hidden int) int {
	for h := max(1, hidden/64); h > 1; h-- {
		if hidden%h == 0 {
			return h
		}
	}
	return 1
}
