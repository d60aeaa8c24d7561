package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
	"github.com/arturoeanton/vitaldocs-rag/internal/rag"
	"github.com/arturoeanton/vitaldocs-rag/internal/service"
)

// SourcesHandler serves citation cards, health and the citation format.
type SourcesHandler struct {
	lookup  *service.LookupService
	store   port.VectorStore
	timeout time.Duration
}

// NewSourcesHandler creates a sources handler. timeout caps a lookup.
func NewSourcesHandler(lookup *service.LookupService, store port.VectorStore, timeout time.Duration) *SourcesHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SourcesHandler{lookup: lookup, store: store, timeout: timeout}
}

// Register sets up public routes.
func (h *SourcesHandler) Register(router fiber.Router) {
	router.Post("/sources", h.Sources)
	router.Get("/health", h.Health)
	router.Get("/citation-format", h.CitationFormat)
}

// Sources returns the retrieved chunks for a query as citation records.
func (h *SourcesHandler) Sources(c fiber.Ctx) error {
	var body struct {
		Query string `json:"query"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	sources, err := h.lookup.Lookup(ctx, body.Query)
	if err != nil {
		return respondError(c, err)
	}
	if sources == nil {
		sources = []domain.SourceCitation{}
	}
	return c.JSON(fiber.Map{"sources": sources})
}

// Health reports store connectivity and the stored chunk count.
func (h *SourcesHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	n, err := h.store.Count(ctx)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":    "error",
			"db":        "unreachable",
			"message":   err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{
		"status":    "ok",
		"db":        "connected",
		"chunks":    n,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CitationFormat publishes the citation marker contract for UI parsers.
func (h *SourcesHandler) CitationFormat(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": rag.CitationFormatVersion,
		"pattern": rag.CitationPattern,
		"example": rag.FormatCitation(1, "CDC Clinical Overview of Measles"),
	})
}
