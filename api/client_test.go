package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	base, err := url.Parse(ts.URL)
	require.NoError(t, err)
	return NewClient(base, ts.Client())
}

func TestClientFromEnvironment(t *testing.T) {
	cases := map[string]struct {
		value  string
		expect string
	}{
		"empty":   {"", "http://127.0.0.1:11500"},
		"port":    {":9000", "http://:9000"},
		"address": {"example.com:8080", "http://example.com:8080"},
	}

	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("ADAPTOR_HOST", v.value)

			client, err := ClientFromEnvironment()
			require.NoError(t, err)
			if client.base.String() != v.expect {
				t.Fatalf("expected %s, got %s", v.expect, client.base.String())
			}
		})
	}
}

func TestClientAlign(t *testing.T) {
	loss := float32(0.5)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/align" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var req AlignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.TextEmbeds) != 1 || req.ReturnLoss == nil {
			t.Errorf("unexpected request %+v", req)
		}

		json.NewEncoder(w).Encode(AlignResponse{
			LogitsPerText:  [][]float32{{1, 2}},
			LogitsPerImage: [][]float32{{1}, {2}},
			Loss:           &loss,
		})
	})

	returnLoss := true
	resp, err := client.Align(context.Background(), &AlignRequest{
		TextEmbeds:  [][][]float32{{{1, 0}}},
		ImageEmbeds: [][][]float32{{{1, 0}}, {{0, 1}}},
		ReturnLoss:  &returnLoss,
	})
	require.NoError(t, err)

	if diff := cmp.Diff([][]float32{{1, 2}}, resp.LogitsPerText); diff != "" {
		t.Errorf("logits mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, loss, *resp.Loss)
}

func TestClientError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"adaptor: batch size mismatch"}`))
	})

	_, err := client.Show(context.Background())

	var statusError StatusError
	require.True(t, errors.As(err, &statusError))
	require.Equal(t, http.StatusBadRequest, statusError.StatusCode)
	require.Equal(t, "adaptor: batch size mismatch", statusError.ErrorMessage)
}

func TestClientErrorPlainBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	_, err := client.Show(context.Background())

	var statusError StatusError
	require.True(t, errors.As(err, &statusError))
	require.Equal(t, "boom", statusError.ErrorMessage)
}

func TestShowResponseTotalElements(t *testing.T) {
	resp := ShowResponse{Parameters: []ParameterInfo{
		{Name: "a", Shape: []int{2, 3}, Elements: 6},
		{Name: "b", Shape: []int{4}, Elements: 4},
	}}
	require.Equal(t, 10, resp.TotalElements())
}

func TestClientVersion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"version":"1.2.3"}`))
	})

	v, err := client.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v)
}
