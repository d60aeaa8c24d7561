package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// OllamaConfig holds the configuration for a self-hosted Ollama endpoint.
type OllamaConfig struct {
	BaseURL        string // e.g. http://localhost:11434
	EmbeddingModel string // e.g. nomic-embed-text
	ChatModel      string // e.g. llama3.1
	Token          string // Bearer token for hosted Ollama (empty = no auth)
	Dimension      int    // expected vector length; 0 skips the check
}

// OllamaProvider implements port.Embedder and port.Generator using the Ollama REST API.
type OllamaProvider struct {
	cfg        OllamaConfig
	httpClient *http.Client
}

var (
	_ port.Embedder  = (*OllamaProvider)(nil)
	_ port.Generator = (*OllamaProvider)(nil)
)

// NewOllamaProvider creates a new Ollama-backed provider. A nil client uses
// http.DefaultClient.
func NewOllamaProvider(cfg OllamaConfig, client *http.Client) *OllamaProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaProvider{cfg: cfg, httpClient: client}
}

// ModelName returns the chat model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.cfg.ChatModel
}

// Embed generates a vector embedding for the given text.
func (o *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.embed(ctx, "embed", text, 1)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (o *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return o.embed(ctx, "embed batch", texts, len(texts))
}

func (o *OllamaProvider) embed(ctx context.Context, op string, input any, want int) ([][]float32, error) {
	body, err := o.post(ctx, "/api/embed", map[string]any{
		"model": o.cfg.EmbeddingModel,
		"input": input,
	})
	if err != nil {
		return nil, &port.EmbeddingError{Op: "ollama " + op, Err: err}
	}
	defer body.Close()

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, &port.EmbeddingError{Op: "ollama " + op, Err: fmt.Errorf("decode: %w", err)}
	}
	if len(resp.Embeddings) != want {
		return nil, &port.EmbeddingError{Op: "ollama " + op, Err: fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), want)}
	}
	if o.cfg.Dimension > 0 {
		for _, v := range resp.Embeddings {
			if len(v) != o.cfg.Dimension {
				return nil, &port.EmbeddingError{Op: "ollama " + op, Err: fmt.Errorf("%w: got %d, want %d", port.ErrDimensionMismatch, len(v), o.cfg.Dimension)}
			}
		}
	}
	return resp.Embeddings, nil
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatStream sends the system prompt and conversation and streams the reply.
// Ollama answers with newline-delimited JSON objects until one has done=true.
func (o *OllamaProvider) ChatStream(ctx context.Context, systemPrompt string, turns []domain.ChatTurn) (<-chan domain.StreamChunk, error) {
	messages := make([]ollamaMessage, 0, len(turns)+1)
	messages = append(messages, ollamaMessage{Role: domain.RoleSystem, Content: systemPrompt})
	for _, t := range turns {
		messages = append(messages, ollamaMessage{Role: t.Role, Content: t.Content})
	}

	body, err := o.post(ctx, "/api/chat", map[string]any{
		"model":    o.cfg.ChatModel,
		"messages": messages,
		"stream":   true,
	})
	if err != nil {
		return nil, &port.GenerationError{Err: fmt.Errorf("ollama chat: %w", err)}
	}

	ch := make(chan domain.StreamChunk, 64)
	go func() {
		defer close(ch)
		defer body.Close()

		send := func(c domain.StreamChunk) bool {
			select {
			case ch <- c:
				return true
			case <-ctx.Done():
				select {
				case ch <- domain.StreamChunk{Err: &port.GenerationError{Err: ctx.Err()}}:
				default:
				}
				return false
			}
		}

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk struct {
				Message ollamaMessage `json:"message"`
				Done    bool          `json:"done"`
				Error   string        `json:"error"`
			}
			if err := json.Unmarshal(line, &chunk); err != nil {
				send(domain.StreamChunk{Err: &port.GenerationError{Err: fmt.Errorf("decode: %w", err)}})
				return
			}
			if chunk.Error != "" {
				send(domain.StreamChunk{Err: &port.GenerationError{Err: fmt.Errorf("ollama: %s", chunk.Error)}})
				return
			}
			if chunk.Message.Content != "" && !send(domain.StreamChunk{Delta: chunk.Message.Content}) {
				return
			}
			if chunk.Done {
				return
			}
		}
		err := scanner.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		send(domain.StreamChunk{Err: &port.GenerationError{Err: err}})
	}()

	return ch, nil
}

// post sends a JSON request and returns the body of a 200 response. The
// caller closes it.
func (o *OllamaProvider) post(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}
