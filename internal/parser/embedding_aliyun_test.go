package parser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cv-agent-go/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *AliyunEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	e, err := NewAliyunEmbedder(config.EmbeddingConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "text-embedding-v3",
		Dimensions: 3,
	}, WithEmbedderHTTPClient(srv.Client()), WithEmbedderLogger(zerolog.Nop()))
	require.NoError(t, err)
	return e
}

func TestNewAliyunEmbedderRequiresKey(t *testing.T) {
	_, err := NewAliyunEmbedder(config.EmbeddingConfig{})
	assert.Error(t, err)
}

func TestEmbedStringsOrdersByIndex(t *testing.T) {
	var got embeddingRequest
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0,1,0]},
			{"index":0,"embedding":[1,0,0]}
		],"usage":{"total_tokens":4}}`))
	})

	vecs, err := e.EmbedStrings(context.Background(), []string{"go", "sql"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0, 0}, {0, 1, 0}}, vecs)
	assert.Equal(t, "text-embedding-v3", got.Model)
	assert.Equal(t, 3, got.Dimensions)
	assert.Equal(t, []any{"go", "sql"}, got.Input)
	assert.Equal(t, 3, e.Dimensions())
}

func TestEmbedStringsSingleInputIsString(t *testing.T) {
	var got embeddingRequest
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.5,0.5,0]}]}`))
	})
	_, err := e.EmbedStrings(context.Background(), []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, "only", got.Input)

	vecs, err := e.EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestEmbedStringsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, "429"},
		{"api error", http.StatusOK, `{"error":{"message":"bad input","type":"invalid"}}`, "bad input"},
		{"count mismatch", http.StatusOK, `{"data":[]}`, "向量数量"},
		{"bad index", http.StatusOK, `{"data":[{"index":5,"embedding":[1]}]}`, "越界"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := e.EmbedStrings(context.Background(), []string{"x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTruncateEmbedding(t *testing.T) {
	assert.Equal(t, "[1 2]", truncateEmbedding([]float64{1, 2}))
	assert.Equal(t, "[1.0000, 2.0000, 3.0000, ..., 6.0000, 7.0000, 8.0000]",
		truncateEmbedding([]float64{1, 2, 3, 4, 5, 6, 7, 8}))
}
