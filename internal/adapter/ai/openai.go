package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// OpenAIConfig holds the configuration for the OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string // empty = api.openai.com
	EmbeddingModel string // e.g. text-embedding-3-small
	Dimension      int    // e.g. 1536
	ChatModel      string // e.g. gpt-4o-mini
	MaxRetries     int
}

// OpenAIProvider implements port.Embedder and port.Generator using the OpenAI API.
type OpenAIProvider struct {
	client openai.Client
	cfg    OpenAIConfig
}

var (
	_ port.Embedder  = (*OpenAIProvider)(nil)
	_ port.Generator = (*OpenAIProvider)(nil)
)

// NewOpenAIProvider creates a new OpenAI-backed provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

// ModelName returns the chat model identifier.
func (o *OpenAIProvider) ModelName() string {
	return o.cfg.ChatModel
}

// Embed generates a vector embedding for the given text.
func (o *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.embed(ctx, []string{text})
	if err != nil {
		return nil, &port.EmbeddingError{Op: "openai embed", Err: err}
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (o *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := o.embed(ctx, texts)
	if err != nil {
		return nil, &port.EmbeddingError{Op: "openai embed batch", Err: err}
	}
	return vectors, nil
}

func (o *OpenAIProvider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(o.cfg.EmbeddingModel),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if o.cfg.Dimension > 0 {
		params.Dimensions = openai.Int(int64(o.cfg.Dimension))
	}

	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// the API reports an index per item; order the result by it
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			return nil, fmt.Errorf("unexpected embedding index %d", d.Index)
		}
		if o.cfg.Dimension > 0 && len(d.Embedding) != o.cfg.Dimension {
			return nil, fmt.Errorf("%w: want %d, got %d", port.ErrDimensionMismatch, o.cfg.Dimension, len(d.Embedding))
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[idx] = vec
	}
	return out, nil
}

// ChatStream streams a completion for the system prompt and conversation turns.
func (o *OpenAIProvider) ChatStream(ctx context.Context, systemPrompt string, turns []domain.ChatTurn) (<-chan domain.StreamChunk, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, t := range turns {
		switch t.Role {
		case domain.RoleUser:
			messages = append(messages, openai.UserMessage(t.Content))
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		}
	}

	stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.cfg.ChatModel),
		Messages: messages,
	})
	// a failed connection surfaces before the first event
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, &port.GenerationError{Err: err}
	}

	ch := make(chan domain.StreamChunk, 64)
	go func() {
		defer close(ch)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				select {
				case ch <- domain.StreamChunk{Delta: delta}:
				case <-ctx.Done():
					select {
					case ch <- domain.StreamChunk{Err: &port.GenerationError{Err: ctx.Err()}}:
					default:
					}
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			ch <- domain.StreamChunk{Err: &port.GenerationError{Err: err}}
		}
	}()

	return ch, nil
}
