package service

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// Source lookup limits.
const (
	MaxQueryLength = 500
	SnippetLength  = 350
)

// LookupService returns retrieved chunks as citation cards. It never calls
// the generation model.
type LookupService struct {
	retriever *Retriever
}

// NewLookupService creates a lookup service.
func NewLookupService(retriever *Retriever) *LookupService {
	return &LookupService{retriever: retriever}
}

// Lookup validates query and returns one citation per retrieved chunk.
func (s *LookupService) Lookup(ctx context.Context, query string) ([]domain.SourceCitation, error) {
	n := utf8.RuneCountInString(query)
	if n == 0 || strings.TrimSpace(query) == "" {
		return nil, port.NewValidationError(port.CodeInvalidQuery, "query is required")
	}
	if n > MaxQueryLength {
		return nil, port.NewValidationError(port.CodeInvalidQuery, "query exceeds %d characters", MaxQueryLength)
	}

	results, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	citations := make([]domain.SourceCitation, len(results))
	for i, r := range results {
		citations[i] = domain.SourceCitation{
			Title:      r.Title,
			URL:        r.SourceURL,
			Snippet:    Snippet(r.Content, SnippetLength),
			Similarity: int(math.Round(r.Similarity * 100)),
		}
	}
	return citations, nil
}

// Snippet returns the first n characters of content, trimmed.
func Snippet(content string, n int) string {
	if utf8.RuneCountInString(content) > n {
		content = string([]rune(content)[:n])
	}
	return strings.TrimSpace(content)
}
