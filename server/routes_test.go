package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ollama/adaptor/api"
	"github.com/ollama/adaptor/ml"
	_ "github.com/ollama/adaptor/ml/backend"
	"github.com/ollama/adaptor/model/models/adaptor"
)

func newTestServer(t *testing.T, backbone string) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b, err := ml.NewBackend("cpu", ml.BackendParams{NumThreads: 1, Seed: 3})
	require.NoError(t, err)
	t.Cleanup(b.Close)

	c := adaptor.DefaultConfig()
	c.ProjectionDim = 16
	c.VisionModelType = backbone
	c.TextEmbedDim = 4
	c.VisionOutputDim = 6

	m, err := adaptor.New(b, c, nil, nil)
	require.NoError(t, err)

	h, err := NewServer(b, m).GenerateRoutes()
	require.NoError(t, err)
	return h
}

// sequences erzeugt deterministische (batch, seq, hidden) Einbettungen
func sequences(batch, seq, hidden int, offset float32) [][][]float32 {
	out := make([][][]float32, batch)
	for b := range out {
		out[b] = make([][]float32, seq)
		for l := range out[b] {
			out[b][l] = make([]float32, hidden)
			for h := range out[b][l] {
				out[b][l][h] = float32(math.Sin(float64(offset) + float64(b*seq*hidden+l*hidden+h)))
			}
		}
	}
	return out
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, "transformer")

	w := doRequest(t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Adaptor is running", w.Body.String())

	_, err := uuid.Parse(w.Header().Get("X-Request-Id"))
	require.NoError(t, err)
}

func TestShowHandler(t *testing.T) {
	h := newTestServer(t, "timm")

	w := doRequest(t, h, http.MethodGet, "/api/show", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ShowResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "convolutional", resp.Backbone)
	require.Equal(t, 16, resp.Config.ProjectionDim)
	require.Len(t, resp.Parameters, 2+16+3)

	first := resp.Parameters[0]
	require.Equal(t, "text_projection.weight", first.Name)
	require.Equal(t, []int{4, 16}, first.Shape)
	require.Equal(t, 64, first.Elements)
}

func TestAlignHandler(t *testing.T) {
	h := newTestServer(t, "transformer")

	returnLoss := true
	w := doRequest(t, h, http.MethodPost, "/api/align", api.AlignRequest{
		TextEmbeds:  sequences(3, 5, 4, 0),
		ImageEmbeds: sequences(3, 7, 6, 1),
		ReturnLoss:  &returnLoss,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.AlignResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.LogitsPerText, 3)
	require.Len(t, resp.LogitsPerText[0], 3)
	require.NotNil(t, resp.Loss)
	require.GreaterOrEqual(t, *resp.Loss, float32(0))

	transposed := make([][]float32, 3)
	for i := range transposed {
		transposed[i] = make([]float32, 3)
		for j := range transposed[i] {
			transposed[i][j] = resp.LogitsPerText[j][i]
		}
	}
	if diff := cmp.Diff(transposed, resp.LogitsPerImage); diff != "" {
		t.Errorf("logits_per_image is not the transpose (-want +got):\n%s", diff)
	}
}

func TestAlignHandlerMask(t *testing.T) {
	h := newTestServer(t, "transformer")

	req := api.AlignRequest{
		TextEmbeds:  sequences(2, 3, 4, 0),
		ImageEmbeds: sequences(2, 2, 6, 1),
	}

	w := doRequest(t, h, http.MethodPost, "/api/align", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var unmasked api.AlignResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&unmasked))
	require.Nil(t, unmasked.Loss)

	req.AttentionMask = [][]int32{{1, 1, 1}, {1, 1, 1}}
	w = doRequest(t, h, http.MethodPost, "/api/align", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var masked api.AlignResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&masked))
	if diff := cmp.Diff(unmasked.LogitsPerText, masked.LogitsPerText, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("full mask changed the logits (-want +got):\n%s", diff)
	}
}

func TestAlignHandlerAutoencoder(t *testing.T) {
	h := newTestServer(t, "autoencoder")

	// (batch, channels, spatial)
	w := doRequest(t, h, http.MethodPost, "/api/align", api.AlignRequest{
		TextEmbeds:  sequences(2, 3, 4, 0),
		ImageEmbeds: sequences(2, 6, 9, 1),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.AlignResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.LogitsPerImage, 2)
}

func TestAlignHandlerErrors(t *testing.T) {
	h := newTestServer(t, "transformer")

	cases := []struct {
		name string
		body any
		want string
	}{
		{
			name: "missing body",
			want: "missing request body",
		},
		{
			name: "empty text",
			body: api.AlignRequest{ImageEmbeds: sequences(1, 1, 6, 0)},
			want: "invalid request: text_embeds is empty",
		},
		{
			name: "ragged",
			body: api.AlignRequest{
				TextEmbeds:  [][][]float32{{{1, 2, 3, 4}}, {{1, 2, 3, 4}, {1, 2, 3, 4}}},
				ImageEmbeds: sequences(2, 1, 6, 0),
			},
			want: "invalid request: text_embeds[1] has length 2, want 1",
		},
		{
			name: "batch mismatch",
			body: api.AlignRequest{
				TextEmbeds:  sequences(2, 3, 4, 0),
				ImageEmbeds: sequences(3, 2, 6, 0),
			},
			want: "adaptor: text batch 2 does not match image batch 3",
		},
		{
			name: "mask rows",
			body: api.AlignRequest{
				TextEmbeds:    sequences(2, 3, 4, 0),
				ImageEmbeds:   sequences(2, 2, 6, 0),
				AttentionMask: [][]int32{{1, 1, 1}},
			},
			want: "invalid request: attention_mask has 1 rows, want 2",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, "/api/align", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.Equal(t, tt.want, resp["error"])
		})
	}
}

func TestAlignHandlerWidthMismatch(t *testing.T) {
	h := newTestServer(t, "transformer")

	w := doRequest(t, h, http.MethodPost, "/api/align", api.AlignRequest{
		TextEmbeds:  sequences(1, 2, 5, 0),
		ImageEmbeds: sequences(1, 2, 6, 0),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "want shape (4, *, *)")
}
