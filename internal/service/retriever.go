package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// Retriever defaults.
const (
	DefaultTopK      = 5
	DefaultThreshold = 0.5
)

// Retriever embeds a query and reads the nearest chunks from the store.
type Retriever struct {
	embedder  port.Embedder
	store     port.VectorStore
	topK      int
	threshold float64
}

// NewRetriever creates a retriever. Non-positive topK falls back to DefaultTopK.
func NewRetriever(embedder port.Embedder, store port.VectorStore, topK int, threshold float64) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK, threshold: threshold}
}

// Retrieve uses the configured k and threshold.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.RetrievalResult, error) {
	return r.RetrieveWith(ctx, query, r.topK, r.threshold)
}

// RetrieveWith returns at most k results with similarity strictly above
// threshold, most similar first. No match is an empty result, not an error,
// and so is a non-positive k.
func (r *Retriever) RetrieveWith(ctx context.Context, query string, k int, threshold float64) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return []domain.RetrievalResult{}, nil
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.SearchSimilar(ctx, vec, k, threshold)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}

	// hold the contract even if a store implementation is loose about it
	kept := results[:0]
	for _, res := range results {
		if res.Similarity > threshold {
			kept = append(kept, res)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Similarity > kept[j].Similarity })
	if len(kept) > k {
		kept = kept[:k]
	}
	if len(kept) == 0 {
		return []domain.RetrievalResult{}, nil
	}
	return kept, nil
}
