package port

import (
	"context"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
)

// VectorStore owns DocumentRecord storage.
type VectorStore interface {
	// EnsureSchema creates the vector extension, table and index if absent.
	EnsureSchema(ctx context.Context) error

	// Reset removes every record and restarts id numbering.
	Reset(ctx context.Context) error

	// InsertDocuments persists one record per chunk.
	InsertDocuments(ctx context.Context, docs []domain.DocumentRecord) error

	// SearchSimilar returns at most limit records whose cosine similarity to
	// query is strictly greater than threshold, most similar first.
	SearchSimilar(ctx context.Context, query []float32, limit int, threshold float64) ([]domain.RetrievalResult, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error
}

// Extractor turns a remote source into normalized plain text.
type Extractor interface {
	Extract(ctx context.Context, src domain.Source) (string, error)
}

// AuditLog persists request audit records and lists the most recent ones.
type AuditLog interface {
	WriteAudit(ctx context.Context, ev domain.AuditEvent) error

	// ListAudit returns at most limit events, newest first. An empty action
	// matches every event.
	ListAudit(ctx context.Context, limit int, action string) ([]domain.AuditEvent, error)
}
