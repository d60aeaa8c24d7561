package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

func TestLookupService_RoundsSimilarity(t *testing.T) {
	st := &fakeStore{results: []domain.RetrievalResult{{
		Title:      "CDC Clinical Overview of Measles",
		SourceURL:  "https://www.cdc.gov/measles/hcp/clinical-overview/index.html",
		Content:    "  Measles symptoms include fever, cough, coryza and conjunctivitis.  ",
		Similarity: 0.81,
	}}}
	gen := &fakeGenerator{}
	svc := NewLookupService(NewRetriever(&fakeEmbedder{}, st, 5, 0.5))

	sources, err := svc.Lookup(context.Background(), "measles symptoms")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, 81, sources[0].Similarity)
	assert.Equal(t, "CDC Clinical Overview of Measles", sources[0].Title)
	assert.Equal(t, "https://www.cdc.gov/measles/hcp/clinical-overview/index.html", sources[0].URL)
	assert.Equal(t, "Measles symptoms include fever, cough, coryza and conjunctivitis.", sources[0].Snippet)
	assert.Zero(t, gen.calls)
}

func TestLookupService_SnippetLength(t *testing.T) {
	st := &fakeStore{results: []domain.RetrievalResult{{Title: "T", Content: strings.Repeat("é", 1000), Similarity: 0.7}}}
	svc := NewLookupService(NewRetriever(&fakeEmbedder{}, st, 5, 0.5))

	sources, err := svc.Lookup(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, SnippetLength, utf8.RuneCountInString(sources[0].Snippet))
}

func TestLookupService_InvalidQuery(t *testing.T) {
	st := &fakeStore{}
	emb := &fakeEmbedder{}
	svc := NewLookupService(NewRetriever(emb, st, 5, 0.5))

	for _, q := range []string{"", "   ", strings.Repeat("a", MaxQueryLength+1)} {
		_, err := svc.Lookup(context.Background(), q)
		var ve *port.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, port.CodeInvalidQuery, ve.Code)
	}
	assert.Zero(t, emb.embedCalls)

	_, err := svc.Lookup(context.Background(), strings.Repeat("a", MaxQueryLength))
	assert.NoError(t, err)
}

func TestLookupService_NoMatchesIsEmpty(t *testing.T) {
	svc := NewLookupService(NewRetriever(&fakeEmbedder{}, &fakeStore{}, 5, 0.5))
	sources, err := svc.Lookup(context.Background(), "broken arm")
	require.NoError(t, err)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "abc", Snippet("abc", 10))
	assert.Equal(t, "ab", Snippet("ab cd", 3))
	assert.Equal(t, "", Snippet("", 3))
}
