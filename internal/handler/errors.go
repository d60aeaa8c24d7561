package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// respondError maps a service error to a status code and JSON body.
// Provider and store details are logged, not returned.
func respondError(c fiber.Ctx, err error) error {
	var ve *port.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Message, "code": ve.Code})
	case errors.Is(err, context.DeadlineExceeded):
		slog.Error("request timed out", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "Request timed out", "code": "timeout"})
	case errors.Is(err, port.ErrEmbedding):
		slog.Error("embedding provider failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Embedding service unavailable", "code": "embedding_failed"})
	case errors.Is(err, port.ErrGeneration):
		slog.Error("generation provider failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Generation service unavailable", "code": "generation_failed"})
	case errors.Is(err, port.ErrStoreUnavailable):
		slog.Error("vector store unavailable", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Knowledge base unavailable", "code": "store_unavailable"})
	case errors.Is(err, port.ErrIngestionRunning):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "ingestion_running"})
	case errors.Is(err, port.ErrJobNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "code": "not_found"})
	default:
		slog.Error("request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

func invalidBody(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body", "code": port.CodeInvalidBody})
}
