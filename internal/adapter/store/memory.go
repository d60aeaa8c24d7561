package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// MemoryStore keeps documents in process. Used for local runs and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      []domain.DocumentRecord
	nextID    int64
	dimension int
}

var _ port.VectorStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store. dimension 0 disables the length check.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{nextID: 1, dimension: dimension}
}

func (s *MemoryStore) EnsureSchema(ctx context.Context) error { return nil }

func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.nextID = 1
	return nil
}

func (s *MemoryStore) InsertDocuments(ctx context.Context, docs []domain.DocumentRecord) error {
	for _, d := range docs {
		if s.dimension > 0 && len(d.Embedding) != s.dimension {
			return fmt.Errorf("%w: want %d, got %d", port.ErrDimensionMismatch, s.dimension, len(d.Embedding))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		d.ID = s.nextID
		s.nextID++
		d.Embedding = append([]float32(nil), d.Embedding...)
		s.docs = append(s.docs, d)
	}
	return nil
}

func (s *MemoryStore) SearchSimilar(ctx context.Context, query []float32, limit int, threshold float64) ([]domain.RetrievalResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.RetrievalResult
	for _, d := range s.docs {
		sim := cosine(query, d.Embedding)
		if sim <= threshold {
			continue
		}
		results = append(results, domain.RetrievalResult{
			Content:    d.Content,
			Title:      d.Metadata.Title,
			SourceURL:  d.Metadata.Source,
			ChunkIndex: d.Metadata.Chunk,
			Similarity: sim,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// cosine returns 0 for mismatched lengths or zero vectors.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
