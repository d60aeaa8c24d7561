package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

const (
	defaultWait  = 2 * time.Second
	pollInterval = 10 * time.Millisecond
)

type fakeEmbedder struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	batchSizes []int
	err        error
	failOn     string // EmbedBatch fails when any text contains this
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls++
	if f.err != nil {
		return nil, &port.EmbeddingError{Op: "embed", Err: f.err}
	}
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.err != nil {
		return nil, &port.EmbeddingError{Op: "embed batch", Err: f.err}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.failOn != "" && strings.Contains(t, f.failOn) {
			return nil, &port.EmbeddingError{Op: "embed batch", Err: errors.New("rate limited")}
		}
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

// fakeStore returns fixed search results and records writes.
type fakeStore struct {
	mu          sync.Mutex
	results     []domain.RetrievalResult
	searchErr   error
	searchCalls int
	lastLimit   int
	lastThresh  float64
	inserted    []domain.DocumentRecord
	insertErr   error
	resets      int
	schemas     int
	count       int64
	pingErr     error
	block       chan struct{} // EnsureSchema waits on it when set
}

func (f *fakeStore) EnsureSchema(ctx context.Context) error {
	f.mu.Lock()
	f.schemas++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return nil
}

func (f *fakeStore) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.inserted = nil
	return nil
}

func (f *fakeStore) InsertDocuments(ctx context.Context, docs []domain.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, docs...)
	return nil
}

func (f *fakeStore) SearchSimilar(ctx context.Context, query []float32, limit int, threshold float64) ([]domain.RetrievalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.lastLimit, f.lastThresh = limit, threshold
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := make([]domain.RetrievalResult, len(f.results))
	copy(out, f.results)
	return out, nil
}

func (f *fakeStore) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.count != 0 {
		return f.count, nil
	}
	return int64(len(f.inserted)), nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) Extract(ctx context.Context, src domain.Source) (string, error) {
	if err, ok := f.errs[src.URL]; ok {
		return "", err
	}
	return f.texts[src.URL], nil
}

type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	system string
	turns  []domain.ChatTurn
	deltas []string
	err    error
}

func (f *fakeGenerator) ModelName() string { return "fake" }

func (f *fakeGenerator) ChatStream(ctx context.Context, systemPrompt string, turns []domain.ChatTurn) (<-chan domain.StreamChunk, error) {
	f.mu.Lock()
	f.calls++
	f.system, f.turns = systemPrompt, turns
	f.mu.Unlock()

	ch := make(chan domain.StreamChunk, len(f.deltas)+1)
	for _, d := range f.deltas {
		ch <- domain.StreamChunk{Delta: d}
	}
	if f.err != nil {
		ch <- domain.StreamChunk{Err: &port.GenerationError{Err: f.err}}
	}
	close(ch)
	return ch, nil
}

func text(s string) *string { return &s }

func msg(id, role string, parts ...domain.MessagePart) domain.ConversationMessage {
	return domain.ConversationMessage{ID: &id, Role: role, Parts: parts}
}

func textPart(s string) domain.MessagePart {
	return domain.MessagePart{Type: domain.PartTypeText, Text: text(s)}
}

func collect(ch <-chan domain.StreamChunk) (string, error) {
	var sb strings.Builder
	for c := range ch {
		if c.Err != nil {
			return sb.String(), c.Err
		}
		sb.WriteString(c.Delta)
	}
	return sb.String(), nil
}
