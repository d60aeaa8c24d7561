package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/middleware"
	"github.com/arturoeanton/vitaldocs-rag/internal/service"
)

// Stream event types written to the chat event stream.
const (
	EventStart     = "start"
	EventTextDelta = "text-delta"
	EventFinish    = "finish"
	EventError     = "error"
)

// StreamEvent is one data line of the chat event stream.
type StreamEvent struct {
	Type      string `json:"type"`
	Delta     string `json:"delta,omitempty"`
	ErrorText string `json:"errorText,omitempty"`
}

// ChatRequest is the chat endpoint body.
type ChatRequest struct {
	Messages []domain.ConversationMessage `json:"messages"`
}

// ChatHandler streams guideline-grounded answers.
type ChatHandler struct {
	chat    *service.ChatService
	timeout time.Duration
}

// NewChatHandler creates a chat handler. timeout caps the whole request,
// retrieval and generation together.
func NewChatHandler(chat *service.ChatService, timeout time.Duration) *ChatHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatHandler{chat: chat, timeout: timeout}
}

// Chat validates the conversation and retrieves context synchronously so
// failures map to status codes, then streams the answer as server-sent events.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body ChatRequest
	if err := c.Bind().JSON(&body); err != nil {
		return invalidBody(c)
	}

	deadline := time.Now().Add(h.timeout)
	prepareCtx, cancelPrepare := context.WithDeadline(c.Context(), deadline)
	prepared, err := h.chat.Prepare(prepareCtx, body.Messages)
	cancelPrepare()
	if err != nil {
		return respondError(c, err)
	}

	userID := "anonymous"
	if uc := middleware.GetUserContext(c); uc != nil {
		userID = uc.UserID
	}
	slog.Info("chat request", "user_id", userID, "sources", len(prepared.Sources), "grounded", prepared.Prompt.HasContext)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		// the request context is not usable once the handler has returned
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		defer cancel()

		if err := writeEvent(w, StreamEvent{Type: EventStart}); err != nil {
			return
		}

		ch, err := prepared.Stream(ctx)
		if err != nil {
			slog.Error("chat stream failed to start", "user_id", userID, "error", err)
			_ = writeEvent(w, StreamEvent{Type: EventError, ErrorText: "The answer could not be generated. Please try again."})
			_ = writeDone(w)
			return
		}

		for chunk := range ch {
			if chunk.Err != nil {
				slog.Error("chat stream aborted", "user_id", userID, "error", chunk.Err)
				_ = writeEvent(w, StreamEvent{Type: EventError, ErrorText: "The answer was interrupted. Please try again."})
				_ = writeDone(w)
				return
			}
			if err := writeEvent(w, StreamEvent{Type: EventTextDelta, Delta: chunk.Delta}); err != nil {
				slog.Warn("chat client disconnected", "user_id", userID)
				cancel()
				for range ch {
				}
				return
			}
		}

		_ = writeEvent(w, StreamEvent{Type: EventFinish})
		_ = writeDone(w)
	})
}

func writeEvent(w *bufio.Writer, ev StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

func writeDone(w *bufio.Writer) error {
	if _, err := w.WriteString("data: [DONE]\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
