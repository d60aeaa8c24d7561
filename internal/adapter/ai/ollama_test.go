package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

func newOllama(t *testing.T, h http.HandlerFunc, dim int) *OllamaProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOllamaProvider(OllamaConfig{
		BaseURL:        srv.URL,
		EmbeddingModel: "nomic-embed-text",
		ChatModel:      "llama3.1",
		Token:          "tok",
		Dimension:      dim,
	}, srv.Client())
}

func TestOllama_EmbedBatch(t *testing.T) {
	o := newOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		out := make([][]float32, len(req.Input))
		for i := range out {
			out[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	}, 2)

	vecs, err := o.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{2, 1}, vecs[2])
}

func TestOllama_EmbedDimensionMismatch(t *testing.T) {
	o := newOllama(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,2,3]]}`))
	}, 2)

	_, err := o.Embed(context.Background(), "measles")
	assert.ErrorIs(t, err, port.ErrEmbedding)
	assert.ErrorIs(t, err, port.ErrDimensionMismatch)
}

func TestOllama_EmbedHTTPError(t *testing.T) {
	o := newOllama(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}, 0)

	_, err := o.Embed(context.Background(), "measles")
	var ee *port.EmbeddingError
	require.ErrorAs(t, err, &ee)
	assert.Contains(t, err.Error(), "404")
}

func TestOllama_ChatStream(t *testing.T) {
	o := newOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req struct {
			Messages []ollamaMessage `json:"messages"`
			Stream   bool            `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		require.Len(t, req.Messages, 3)
		assert.Equal(t, domain.RoleSystem, req.Messages[0].Role)
		assert.Equal(t, "hi", req.Messages[2].Content)

		for _, tok := range []string{"Measles ", "is ", "contagious."} {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", tok)
		}
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}, 0)

	ch, err := o.ChatStream(context.Background(), "system", []domain.ChatTurn{
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)

	var sb strings.Builder
	for c := range ch {
		require.NoError(t, c.Err)
		sb.WriteString(c.Delta)
	}
	assert.Equal(t, "Measles is contagious.", sb.String())
	assert.Equal(t, "llama3.1", o.ModelName())
}

func TestOllama_ChatStreamTruncated(t *testing.T) {
	o := newOllama(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"partial"},"done":false}`)
	}, 0)

	ch, err := o.ChatStream(context.Background(), "system", nil)
	require.NoError(t, err)

	var last domain.StreamChunk
	for c := range ch {
		last = c
	}
	assert.ErrorIs(t, last.Err, port.ErrGeneration)
}
