package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
	"github.com/arturoeanton/vitaldocs-rag/internal/rag"
)

// ProgressFunc receives one report per source, in processing order.
type ProgressFunc func(report domain.SourceReport, total int)

// IngestOptions tunes a run.
type IngestOptions struct {
	Chunker     *rag.Chunker
	Readability *rag.Readability // nil disables the filter
}

// IngestService rebuilds the knowledge base from a source list. It is the
// only writer of the vector store.
type IngestService struct {
	extractor port.Extractor
	embedder  port.Embedder
	store     port.VectorStore
	opts      IngestOptions

	running sync.Mutex
}

// NewIngestService creates an ingestion service.
func NewIngestService(extractor port.Extractor, embedder port.Embedder, store port.VectorStore, opts IngestOptions) *IngestService {
	if opts.Chunker == nil {
		opts.Chunker = rag.NewChunker()
	}
	return &IngestService{extractor: extractor, embedder: embedder, store: store, opts: opts}
}

// Ingest ensures the schema, clears every stored record and processes
// sources one at a time. A failing source is skipped and the run continues.
// Only one run may be active; a concurrent call returns ErrIngestionRunning.
func (s *IngestService) Ingest(ctx context.Context, sources []domain.Source, progress ProgressFunc) (domain.IngestSummary, error) {
	if !s.running.TryLock() {
		return domain.IngestSummary{}, port.ErrIngestionRunning
	}
	defer s.running.Unlock()

	summary := domain.IngestSummary{Total: len(sources)}
	start := time.Now()

	slog.Info("ingestion starting", "sources", len(sources),
		"chunk_size", s.opts.Chunker.Size(), "overlap", s.opts.Chunker.Overlap(),
		"readability_filter", s.opts.Readability != nil)

	if err := s.store.EnsureSchema(ctx); err != nil {
		return summary, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.store.Reset(ctx); err != nil {
		return summary, fmt.Errorf("reset store: %w", err)
	}

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		report := s.ingestSource(ctx, src)
		report.Position = i + 1

		if report.Skipped {
			summary.Skipped++
			slog.Warn("source skipped", "position", report.Position, "title", src.Title, "error", report.Error)
		} else {
			summary.Processed++
			summary.TotalChunks += report.Chunks
			slog.Info("source ingested", "position", report.Position, "title", src.Title,
				"chars", report.Chars, "chunks", report.Chunks, "dropped", report.Dropped)
		}

		if progress != nil {
			progress(report, len(sources))
		}
	}

	slog.Info("ingestion complete",
		"processed", summary.Processed, "skipped", summary.Skipped,
		"total_chunks", summary.TotalChunks, "duration", time.Since(start).Round(time.Millisecond))
	return summary, nil
}

func (s *IngestService) ingestSource(ctx context.Context, src domain.Source) domain.SourceReport {
	report := domain.SourceReport{Source: src}
	skip := func(err error) domain.SourceReport {
		report.Skipped = true
		report.Error = err.Error()
		return report
	}

	text, err := s.extractor.Extract(ctx, src)
	if err != nil {
		return skip(err)
	}
	report.Chars = len([]rune(text))

	chunks := s.opts.Chunker.Chunk(text)
	if s.opts.Readability != nil {
		chunks, report.Dropped = s.opts.Readability.Filter(chunks)
	}
	if len(chunks) == 0 {
		return report
	}

	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return skip(err)
	}
	if len(vectors) != len(chunks) {
		return skip(fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	docs := make([]domain.DocumentRecord, len(chunks))
	for i, c := range chunks {
		docs[i] = domain.DocumentRecord{
			Content:   c,
			Metadata:  domain.Metadata{Source: src.URL, Title: src.Title, Chunk: i},
			Embedding: vectors[i],
		}
	}
	if err := s.store.InsertDocuments(ctx, docs); err != nil {
		return skip(fmt.Errorf("insert: %w", err))
	}

	report.Chunks = len(docs)
	return report
}
