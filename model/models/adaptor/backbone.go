package adaptor

import (
	"maps"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ollama/adaptor/ml"
)

// Backbone names the kind of vision encoder that produced the image embeddings.
// It decides how the raw encoder output becomes a (hidden, seq, batch) sequence.
type Backbone int

const (
	// BackboneTransformer outputs a last hidden state (hidden, seq, batch) and
	// reports its own width.
	BackboneTransformer Backbone = iota
	// BackboneConvolutional outputs a sequence (hidden, seq, batch) or, when the
	// caller says so, a pooled (hidden, batch) vector.
	BackboneConvolutional
	// BackboneAutoencoder outputs a latent (width, height, channels, batch).
	BackboneAutoencoder
)

var backboneTags = map[string]Backbone{
	"transformer":                 BackboneTransformer,
	"huggingface":                 BackboneTransformer,
	"general-purpose-transformer": BackboneTransformer,
	"convolutional":               BackboneConvolutional,
	"timm":                        BackboneConvolutional,
	"convolutional-backbone":      BackboneConvolutional,
	"autoencoder":                 BackboneAutoencoder,
	"ae":                          BackboneAutoencoder,
	"autoencoder-latent":          BackboneAutoencoder,
}

// ParseBackbone resolves a backbone tag or alias. The empty tag selects
// BackboneTransformer.
func ParseBackbone(s string) (Backbone, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	if tag == "" {
		return BackboneTransformer, nil
	}

	if b, ok := backboneTags[tag]; ok {
		return b, nil
	}

	return 0, &BackboneError{Tag: s, Suggestion: suggestBackbone(tag)}
}

// suggestBackbone gibt das naechste bekannte Tag zurueck oder ""
func suggestBackbone(tag string) string {
	best, distance := "", len(tag)/2+2
	for _, known := range slices.Sorted(maps.Keys(backboneTags)) {
		if d := levenshtein.ComputeDistance(tag, known); d < distance {
			best, distance = known, d
		}
	}
	return best
}

// BackboneTags lists every accepted tag in sorted order.
func BackboneTags() []string {
	return slices.Sorted(maps.Keys(backboneTags))
}

func (b Backbone) String() string {
	switch b {
	case BackboneTransformer:
		return "transformer"
	case BackboneConvolutional:
		return "convolutional"
	case BackboneAutoencoder:
		return "autoencoder"
	default:
		return "unknown"
	}
}

// SelfDescribing reports whether encoders of this kind report their output
// width, making Config.VisionOutputDim optional.
func (b Backbone) SelfDescribing() bool {
	return b == BackboneTransformer
}

// Sequence reshapes raw vision encoder output into (hidden, seq, batch).
// pooled marks a convolutional output of shape (hidden, batch), which becomes
// a single token per image. Other backbones never produce pooled output.
func (b Backbone) Sequence(ctx ml.Context, raw ml.Tensor, pooled bool) (ml.Tensor, error) {
	if pooled && b != BackboneConvolutional {
		return nil, &ConfigError{Field: "pooled", Reason: "only convolutional backbones produce pooled output, got " + b.String()}
	}

	switch b {
	case BackboneTransformer:
		if raw.Dim(3) != 1 {
			return nil, &ShapeError{Op: "transformer image embeddings", Want: []int{-1, -1, -1}, Got: raw.Shape()}
		}
		return raw, nil
	case BackboneConvolutional:
		if pooled {
			if raw.Dim(2) != 1 || raw.Dim(3) != 1 {
				return nil, &ShapeError{Op: "pooled convolutional image embeddings", Want: []int{-1, -1}, Got: raw.Shape()}
			}
			return raw.Reshape(ctx, raw.Dim(0), 1, raw.Dim(1)), nil
		}

		if raw.Dim(3) != 1 {
			return nil, &ShapeError{Op: "convolutional image embeddings", Want: []int{-1, -1, -1}, Got: raw.Shape()}
		}
		return raw, nil
	case BackboneAutoencoder:
		w, h, c, n := raw.Dim(0), raw.Dim(1), raw.Dim(2), raw.Dim(3)
		return raw.Reshape(ctx, w*h, c, n).Permute(ctx, 1, 0, 2, 3).Contiguous(ctx), nil
	default:
		return nil, &BackboneError{Tag: b.String()}
	}
}
