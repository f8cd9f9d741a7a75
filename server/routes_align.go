// routes_align.go - Handler fuer /api/align und /api/show
// Enthaelt: AlignHandler, ShowHandler, Umwandlung verschachtelter Arrays in Tensoren

package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ollama/adaptor/api"
	"github.com/ollama/adaptor/envconfig"
	"github.com/ollama/adaptor/ml"
	"github.com/ollama/adaptor/model/models/adaptor"
)

var errInvalidRequest = errors.New("invalid request")

// statusCode ordnet Modellfehler HTTP-Statuscodes zu
func statusCode(err error) int {
	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, adaptor.ErrShapeMismatch),
		errors.Is(err, adaptor.ErrBatchSizeMismatch),
		errors.Is(err, adaptor.ErrConfiguration),
		errors.Is(err, adaptor.ErrUnsupportedBackbone):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ShowHandler gibt Konfiguration und Parameterliste zurueck
func (s *Server) ShowHandler(c *gin.Context) {
	params := s.model.Parameters()
	resp := api.ShowResponse{
		Config:     s.model.Config(),
		Backbone:   s.model.Backbone().String(),
		Parameters: make([]api.ParameterInfo, len(params)),
	}

	for i, p := range params {
		resp.Parameters[i] = api.ParameterInfo{Name: p.Name, Shape: p.Shape, Elements: p.Elements()}
	}

	c.JSON(http.StatusOK, resp)
}

// AlignHandler verarbeitet POST /api/align
func (s *Server) AlignHandler(c *gin.Context) {
	checkpointStart := time.Now()

	var req api.AlignRequest
	if err := c.ShouldBindJSON(&req); errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing request body"})
		return
	} else if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := s.backend.NewContext()
	defer ctx.Close()

	resp, err := s.align(ctx, req)
	if err != nil {
		slog.Debug("align failed", "id", c.GetString("request_id"), "error", err)
		c.AbortWithStatusJSON(statusCode(err), gin.H{"error": err.Error()})
		return
	}

	resp.TotalDuration = time.Since(checkpointStart)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) align(ctx ml.Context, req api.AlignRequest) (*api.AlignResponse, error) {
	text, err := sequenceTensor(ctx, "text_embeds", req.TextEmbeds)
	if err != nil {
		return nil, err
	}

	image, err := sequenceTensor(ctx, "image_embeds", req.ImageEmbeds)
	if err != nil {
		return nil, err
	}

	// Autoencoder-Ausgaben kommen als (batch, channels, spatial)
	if s.model.Backbone() == adaptor.BackboneAutoencoder {
		image = image.Reshape(ctx, image.Dim(0), 1, image.Dim(1), image.Dim(2))
	}

	opts := adaptor.ForwardOptions{ReturnLoss: envconfig.ReturnLoss(false)}
	if req.ReturnLoss != nil {
		opts.ReturnLoss = *req.ReturnLoss
	}

	if req.AttentionMask != nil {
		mask, err := maskTensor(ctx, req.AttentionMask, text.Dim(1), text.Dim(2))
		if err != nil {
			return nil, err
		}

		seq, err := s.model.Backbone().Sequence(ctx, image, false)
		if err != nil {
			return nil, err
		}
		opts.FusionMask = adaptor.FusedAttentionMask(ctx, mask, seq.Dim(1))
	}

	out, err := s.model.ForwardEmbeds(ctx, text, image, opts)
	if err != nil {
		return nil, err
	}

	return &api.AlignResponse{
		LogitsPerText:  matrix(out.LogitsPerText),
		LogitsPerImage: matrix(out.LogitsPerImage),
		Loss:           out.Loss,
	}, nil
}

// sequenceTensor wandelt (batch, seq, hidden) in einen Tensor (hidden, seq, batch)
func sequenceTensor(ctx ml.Context, field string, v [][][]float32) (ml.Tensor, error) {
	if len(v) == 0 || len(v[0]) == 0 || len(v[0][0]) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", errInvalidRequest, field)
	}

	batch, seq, hidden := len(v), len(v[0]), len(v[0][0])
	values := make([]float32, 0, batch*seq*hidden)
	for b, sequence := range v {
		if len(sequence) != seq {
			return nil, fmt.Errorf("%w: %s[%d] has length %d, want %d", errInvalidRequest, field, b, len(sequence), seq)
		}

		for l, vector := range sequence {
			if len(vector) != hidden {
				return nil, fmt.Errorf("%w: %s[%d][%d] has width %d, want %d", errInvalidRequest, field, b, l, len(vector), hidden)
			}
			values = append(values, vector...)
		}
	}

	return ctx.Input().FromFloats(values, hidden, seq, batch), nil
}

// maskTensor wandelt (batch, seq) in einen Tensor (seq, batch)
func maskTensor(ctx ml.Context, v [][]int32, seq, batch int) (ml.Tensor, error) {
	if len(v) != batch {
		return nil, fmt.Errorf("%w: attention_mask has %d rows, want %d", errInvalidRequest, len(v), batch)
	}

	values := make([]int32, 0, seq*batch)
	for b, row := range v {
		if len(row) != seq {
			return nil, fmt.Errorf("%w: attention_mask[%d] has length %d, want %d", errInvalidRequest, b, len(row), seq)
		}
		values = append(values, row...)
	}

	return ctx.Input().FromInts(values, seq, batch), nil
}

// matrix wandelt einen Tensor (spalten, zeilen) in [zeilen][spalten]
func matrix(t ml.Tensor) [][]float32 {
	cols, rows := t.Dim(0), t.Dim(1)
	values := t.Floats()

	out := make([][]float32, rows)
	for i := range out {
		out[i] = values[i*cols : (i+1)*cols]
	}
	return out
}
