// Package app assembles adapters and services from configuration for the
// server and ingestion binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arturoeanton/vitaldocs-rag/internal/adapter/ai"
	"github.com/arturoeanton/vitaldocs-rag/internal/adapter/cache"
	"github.com/arturoeanton/vitaldocs-rag/internal/adapter/extract"
	"github.com/arturoeanton/vitaldocs-rag/internal/adapter/store"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
	"github.com/arturoeanton/vitaldocs-rag/internal/rag"
	"github.com/arturoeanton/vitaldocs-rag/internal/service"
	"github.com/arturoeanton/vitaldocs-rag/pkg/config"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// AI providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Provider embeds and generates with one backend.
type Provider interface {
	port.Embedder
	port.Generator
}

// Deps holds the wired adapters. Close releases every connection opened.
type Deps struct {
	Store    port.VectorStore
	Provider Provider
	Embedder port.Embedder
	Audit    port.AuditLog

	closers []func() error
}

// Build opens the vector store and provider clients described by cfg.
func Build(ctx context.Context, cfg *config.Config) (*Deps, error) {
	d := &Deps{}

	switch cfg.StoreBackend {
	case BackendMemory:
		d.Store = store.NewMemoryStore(cfg.EmbeddingDimension)
	case BackendPostgres, "":
		pg, err := store.NewPostgresStore(ctx, store.PostgresConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DBMaxConns,
			ConnectTimeout: cfg.DBConnectTimeout,
			IdleTimeout:    cfg.DBIdleTimeout,
			Dimension:      cfg.EmbeddingDimension,
		})
		if err != nil {
			return nil, err
		}
		d.Store = pg
		d.closers = append(d.closers, pg.Close)
		if err := pg.EnsureAuditSchema(ctx); err != nil {
			slog.Warn("audit table unavailable; keeping audit log in memory", "error", err)
		} else {
			d.Audit = pg
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if d.Audit == nil {
		d.Audit = store.NewMemoryAuditLog(0)
	}

	embeddingModel := cfg.EmbeddingModel
	switch cfg.AIProvider {
	case ProviderOllama:
		d.Provider = ai.NewOllamaProvider(ai.OllamaConfig{
			BaseURL:        cfg.OllamaURL,
			EmbeddingModel: cfg.OllamaEmbedModel,
			ChatModel:      cfg.OllamaChatModel,
			Token:          cfg.OllamaToken,
			Dimension:      cfg.EmbeddingDimension,
		}, nil)
		embeddingModel = cfg.OllamaEmbedModel
	case ProviderOpenAI, "":
		d.Provider = ai.NewOpenAIProvider(ai.OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			Dimension:      cfg.EmbeddingDimension,
			ChatModel:      cfg.ChatModel,
			MaxRetries:     2,
		})
	default:
		_ = d.Close()
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
	d.Embedder = d.Provider

	if cfg.RedisURL != "" {
		kv, err := cache.NewRedisKV(ctx, cfg.RedisURL)
		if err != nil {
			// the cache is optional; run without it
			slog.Warn("embedding cache disabled", "error", err)
		} else {
			d.Embedder = cache.NewCachedEmbedder(d.Provider, kv, embeddingModel, cfg.EmbedCacheTTL)
			d.closers = append(d.closers, kv.Close)
		}
	}

	return d, nil
}

// Close releases connections in reverse order of opening.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Retriever builds the retriever with the configured k and threshold.
func (d *Deps) Retriever(cfg *config.Config) *service.Retriever {
	return service.NewRetriever(d.Embedder, d.Store, cfg.RetrievalTopK, cfg.RetrievalThreshold)
}

// IngestService builds the ingestion pipeline. Ingestion embeds through the
// provider directly; batch calls never touch the cache.
func (d *Deps) IngestService(cfg *config.Config) *service.IngestService {
	return service.NewIngestService(
		extract.NewHTMLExtractor(nil),
		d.Provider,
		d.Store,
		IngestOptions(cfg),
	)
}

// IngestOptions maps chunking and filter settings from cfg.
func IngestOptions(cfg *config.Config) service.IngestOptions {
	opts := service.IngestOptions{
		Chunker: rag.NewChunker(
			rag.WithChunkSize(cfg.ChunkSize),
			rag.WithOverlap(cfg.ChunkOverlap),
			rag.WithMinLength(cfg.ChunkMinLength),
		),
	}
	if cfg.ReadabilityFilter {
		opts.Readability = &rag.Readability{
			MaxNonASCIIRatio: cfg.MaxNonASCIIRatio,
			MinWords:         cfg.MinWordCount,
		}
	}
	return opts
}

// ShutdownTimeout bounds graceful shutdown of the HTTP servers.
const ShutdownTimeout = 10 * time.Second
