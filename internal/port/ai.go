package port

import (
	"context"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
)

// Embedder maps text to fixed-length dense vectors.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result is index-aligned with texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator streams chat completions.
type Generator interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// ChatStream sends the system prompt and conversation and streams the reply.
	// The channel is closed when the completion ends; a chunk carrying Err is the last one sent.
	ChatStream(ctx context.Context, systemPrompt string, turns []domain.ChatTurn) (<-chan domain.StreamChunk, error)
}
