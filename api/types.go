// types.go - API-Typen fuer den Adaptor-Server
// Enthaelt: StatusError, AlignRequest/Response, ShowResponse, ParameterInfo
package api

import (
	"fmt"
	"time"

	"github.com/ollama/adaptor/model/models/adaptor"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		// this should not happen
		return "something went wrong, please see the adaptor server logs for details"
	}
}

// AlignRequest is the request passed to [Client.Align].
//
// Embeddings are nested (batch, sequence, hidden). Every sequence of a
// modality must have the same length and every vector the same width.
type AlignRequest struct {
	// TextEmbeds are text encoder outputs, one sequence per caption.
	TextEmbeds [][][]float32 `json:"text_embeds"`

	// ImageEmbeds are vision encoder outputs, one sequence per image.
	ImageEmbeds [][][]float32 `json:"image_embeds"`

	// AttentionMask marks valid text positions with 1, padding with 0.
	// When set, padded text positions are masked inside the fusion encoder.
	AttentionMask [][]int32 `json:"attention_mask,omitempty"`

	// ReturnLoss requests the symmetric contrastive loss. Defaults to
	// ADAPTOR_RETURN_LOSS.
	ReturnLoss *bool `json:"return_loss,omitempty"`
}

// AlignResponse is the response from [Client.Align].
type AlignResponse struct {
	// LogitsPerText is indexed [text][image].
	LogitsPerText [][]float32 `json:"logits_per_text"`

	// LogitsPerImage is indexed [image][text].
	LogitsPerImage [][]float32 `json:"logits_per_image"`

	Loss *float32 `json:"loss,omitempty"`

	TotalDuration time.Duration `json:"total_duration,omitempty"`
}

// ParameterInfo describes one trainable parameter.
type ParameterInfo struct {
	Name string `json:"name"`

	// Shape is innermost-first.
	Shape    []int `json:"shape"`
	Elements int   `json:"elements"`
}

// ShowResponse is the response from [Client.Show].
type ShowResponse struct {
	Config     adaptor.Config  `json:"config"`
	Backbone   string          `json:"backbone"`
	Parameters []ParameterInfo `json:"parameters"`
}

// TotalElements sums the element counts of all parameters.
func (r ShowResponse) TotalElements() int {
	var n int
	for _, p := range r.Parameters {
		n += p.Elements
	}
	return n
}
