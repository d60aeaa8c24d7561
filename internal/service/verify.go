package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// ErrEmptyStore means the knowledge base holds no chunks.
var ErrEmptyStore = errors.New("no documents stored; run ingestion first")

// SampleQueries are checked by Verify.
var SampleQueries = []string{
	"What are the symptoms of measles?",
	"What is the isolation period for measles exposure?",
	"What is the MMR vaccine schedule for children?",
}

// Verify defaults, looser than chat retrieval so a sparse corpus still shows hits.
const (
	VerifyTopK      = 3
	VerifyThreshold = 0.4
)

// Clock is implemented by stores that can report their own time.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}

// QueryCheck is the retrieval outcome for one sample query.
type QueryCheck struct {
	Query   string                   `json:"query"`
	Results []domain.RetrievalResult `json:"results"`
}

// VerifyReport summarizes a knowledge base smoke test.
type VerifyReport struct {
	StoreTime time.Time    `json:"store_time,omitempty"`
	Chunks    int64        `json:"chunks"`
	Checks    []QueryCheck `json:"checks"`
}

// Verify checks connectivity, that the store is populated, and runs each
// query through the retriever.
func Verify(ctx context.Context, store port.VectorStore, retriever *Retriever, queries []string) (VerifyReport, error) {
	var report VerifyReport

	if err := store.Ping(ctx); err != nil {
		return report, err
	}
	if c, ok := store.(Clock); ok {
		t, err := c.Now(ctx)
		if err != nil {
			return report, err
		}
		report.StoreTime = t
	}

	n, err := store.Count(ctx)
	if err != nil {
		return report, err
	}
	report.Chunks = n
	if n == 0 {
		return report, ErrEmptyStore
	}

	for _, q := range queries {
		results, err := retriever.RetrieveWith(ctx, q, VerifyTopK, VerifyThreshold)
		if err != nil {
			return report, fmt.Errorf("query %q: %w", q, err)
		}
		report.Checks = append(report.Checks, QueryCheck{Query: q, Results: results})
	}
	return report, nil
}
