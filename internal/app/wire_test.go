package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/vitaldocs-rag/internal/adapter/ai"
	"github.com/arturoeanton/vitaldocs-rag/internal/adapter/store"
	"github.com/arturoeanton/vitaldocs-rag/pkg/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StoreBackend:       BackendMemory,
		EmbeddingDimension: 8,
		EmbeddingModel:     "text-embedding-3-small",
		ChatModel:          "gpt-4o-mini",
		RetrievalTopK:      5,
		RetrievalThreshold: 0.5,
		ChunkSize:          400,
		ChunkOverlap:       50,
		ChunkMinLength:     20,
		ReadabilityFilter:  true,
		MaxNonASCIIRatio:   0.05,
		MinWordCount:       5,
	}
}

func TestBuild_Memory(t *testing.T) {
	d, err := Build(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	assert.IsType(t, &store.MemoryStore{}, d.Store)
	assert.IsType(t, &ai.OpenAIProvider{}, d.Provider)
	assert.IsType(t, &store.MemoryAuditLog{}, d.Audit)
	assert.Same(t, d.Provider, d.Embedder)
	assert.NotNil(t, d.Retriever(memoryConfig()))
	assert.NotNil(t, d.IngestService(memoryConfig()))
}

func TestBuild_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreBackend = "sqlite"
	_, err := Build(context.Background(), cfg)
	assert.ErrorContains(t, err, "sqlite")
}

func TestBuild_Ollama(t *testing.T) {
	cfg := memoryConfig()
	cfg.AIProvider = ProviderOllama
	cfg.OllamaChatModel = "llama3.1"
	d, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &ai.OllamaProvider{}, d.Provider)
	assert.Equal(t, "llama3.1", d.Provider.ModelName())
}

func TestBuild_UnknownProvider(t *testing.T) {
	cfg := memoryConfig()
	cfg.AIProvider = "bedrock"
	_, err := Build(context.Background(), cfg)
	assert.ErrorContains(t, err, "bedrock")
}

func TestBuild_UnreachableRedisFallsBack(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisURL = "redis://127.0.0.1:1/0"
	d, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Same(t, d.Provider, d.Embedder)
}

func TestIngestOptions(t *testing.T) {
	cfg := memoryConfig()
	opts := IngestOptions(cfg)
	assert.Equal(t, 400, opts.Chunker.Size())
	assert.Equal(t, 50, opts.Chunker.Overlap())
	require.NotNil(t, opts.Readability)
	assert.Equal(t, 5, opts.Readability.MinWords)

	cfg.ReadabilityFilter = false
	assert.Nil(t, IngestOptions(cfg).Readability)
}
