package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/middleware"
)

// Routes bundles the handlers mounted under /api/v1.
type Routes struct {
	Chat    *ChatHandler
	Demo    *ChatHandler
	Sources *SourcesHandler
	Ingest  *IngestHandler
	Audit   *AuditHandler
	JWT     middleware.JWTConfig
}

// Register mounts public, authenticated and admin routes.
func (r Routes) Register(app *fiber.App) {
	api := app.Group("/api/v1")

	// public
	r.Sources.Register(api)
	if r.Demo != nil {
		api.Post("/demo-chat", r.Demo.Chat)
	}

	jwtMiddleware := middleware.JWTMiddleware(r.JWT)
	api.Post("/chat", jwtMiddleware, r.Chat.Chat)

	if r.Ingest == nil && r.Audit == nil {
		return
	}
	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(domain.RoleAdmin))
	if r.Ingest != nil {
		r.Ingest.Register(admin)
	}
	if r.Audit != nil {
		r.Audit.Register(admin)
	}
}
