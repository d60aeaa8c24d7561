package store

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// InsertDocuments persists all records in a single transaction.
func (s *PostgresStore) InsertDocuments(ctx context.Context, docs []domain.DocumentRecord) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (content, metadata, embedding) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		if s.dimension > 0 && len(d.Embedding) != s.dimension {
			return fmt.Errorf("%w: want %d, got %d", port.ErrDimensionMismatch, s.dimension, len(d.Embedding))
		}
		if _, err := stmt.ExecContext(ctx, d.Content, d.Metadata, pgvector.NewVector(d.Embedding)); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}

	return tx.Commit()
}

// SearchSimilar performs a cosine similarity search over documents.
func (s *PostgresStore) SearchSimilar(ctx context.Context, query []float32, limit int, threshold float64) ([]domain.RetrievalResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := `SELECT content, metadata, 1 - (embedding <=> $1) AS similarity
	      FROM documents
	      WHERE 1 - (embedding <=> $1) > $2
	      ORDER BY embedding <=> $1
	      LIMIT $3`

	rows, err := s.db.QueryContext(ctx, q, pgvector.NewVector(query), threshold, limit)
	if err != nil {
		return nil, unavailable(fmt.Errorf("search similar: %w", err))
	}
	defer rows.Close()

	var results []domain.RetrievalResult
	for rows.Next() {
		var (
			content string
			meta    domain.Metadata
			sim     float64
		)
		if err := rows.Scan(&content, &meta, &sim); err != nil {
			return nil, fmt.Errorf("scan similar: %w", err)
		}
		results = append(results, domain.RetrievalResult{
			Content:    content,
			Title:      meta.Title,
			SourceURL:  meta.Source,
			ChunkIndex: meta.Chunk,
			Similarity: sim,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return results, nil
}
