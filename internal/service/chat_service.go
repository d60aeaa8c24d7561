package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
	"github.com/arturoeanton/vitaldocs-rag/internal/rag"
)

// Chat request limits.
const (
	DefaultMaxMessages = 20
	MaxPartTextLength  = 2000
)

// ChatService answers a conversation from retrieved guideline context.
type ChatService struct {
	retriever   *Retriever
	generator   port.Generator
	maxMessages int
}

// NewChatService creates a chat service accepting up to maxMessages turns.
func NewChatService(retriever *Retriever, generator port.Generator, maxMessages int) *ChatService {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &ChatService{retriever: retriever, generator: generator, maxMessages: maxMessages}
}

// MaxMessages returns the accepted conversation length.
func (s *ChatService) MaxMessages() int { return s.maxMessages }

// PreparedChat is a validated conversation with its retrieved context.
// Generation has not started yet.
type PreparedChat struct {
	Query   string
	Sources []domain.RetrievalResult
	Prompt  rag.PromptContext
	Turns   []domain.ChatTurn

	generator port.Generator
}

// Validate checks the conversation shape and returns the latest user text.
// It has no side effects.
func (s *ChatService) Validate(messages []domain.ConversationMessage) (string, error) {
	if len(messages) == 0 {
		return "", port.NewValidationError(port.CodeEmptyMessages, "messages must contain at least one message")
	}
	if len(messages) > s.maxMessages {
		return "", port.NewValidationError(port.CodeTooManyMessages, "at most %d messages are allowed, got %d", s.maxMessages, len(messages))
	}

	for i, m := range messages {
		if m.ID == nil {
			return "", port.NewValidationError(port.CodeInvalidMessage, "message %d: id is required", i)
		}
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		default:
			return "", port.NewValidationError(port.CodeInvalidMessage, "message %d: unknown role %q", i, m.Role)
		}
		if m.Parts == nil {
			return "", port.NewValidationError(port.CodeInvalidMessage, "message %d: parts is required", i)
		}
		for j, p := range m.Parts {
			if p.Type == "" {
				return "", port.NewValidationError(port.CodeInvalidMessage, "message %d part %d: type is required", i, j)
			}
			if p.Text != nil && utf8.RuneCountInString(*p.Text) > MaxPartTextLength {
				return "", port.NewValidationError(port.CodeTextTooLong, "message %d part %d: text exceeds %d characters", i, j, MaxPartTextLength)
			}
		}
	}

	var latest *domain.ConversationMessage
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			latest = &messages[i]
			break
		}
	}
	if latest == nil {
		return "", port.NewValidationError(port.CodeNoUserMessage, "no user message found")
	}

	text := strings.TrimSpace(latest.Text())
	if text == "" {
		return "", port.NewValidationError(port.CodeEmptyUserMessage, "latest user message has no text")
	}
	return text, nil
}

// Prepare validates the conversation, retrieves context for the latest user
// turn and assembles the prompt. Validation failures happen before any
// embedding or store call.
func (s *ChatService) Prepare(ctx context.Context, messages []domain.ConversationMessage) (*PreparedChat, error) {
	query, err := s.Validate(messages)
	if err != nil {
		return nil, err
	}

	results, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	slog.Info("chat context retrieved", "sources", len(results), "turns", len(messages))

	return &PreparedChat{
		Query:     query,
		Sources:   results,
		Prompt:    rag.Assemble(results),
		Turns:     BuildTurns(messages),
		generator: s.generator,
	}, nil
}

// Respond runs Prepare and starts the stream.
func (s *ChatService) Respond(ctx context.Context, messages []domain.ConversationMessage) (<-chan domain.StreamChunk, error) {
	p, err := s.Prepare(ctx, messages)
	if err != nil {
		return nil, err
	}
	return p.Stream(ctx)
}

// Stream starts generation. Without context the refusal is streamed directly
// and the model is not called.
func (p *PreparedChat) Stream(ctx context.Context) (<-chan domain.StreamChunk, error) {
	if !p.Prompt.HasContext {
		ch := make(chan domain.StreamChunk, 1)
		ch <- domain.StreamChunk{Delta: rag.RefusalMessage}
		close(ch)
		return ch, nil
	}
	return p.generator.ChatStream(ctx, p.Prompt.System, p.Turns)
}

// BuildTurns keeps the text of user and assistant turns in order, dropping
// system turns and turns without text.
func BuildTurns(messages []domain.ConversationMessage) []domain.ChatTurn {
	turns := make([]domain.ChatTurn, 0, len(messages))
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		text := m.Text()
		if text == "" {
			continue
		}
		turns = append(turns, domain.ChatTurn{Role: m.Role, Content: text})
	}
	return turns
}
