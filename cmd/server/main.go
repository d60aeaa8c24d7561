package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/arturoeanton/vitaldocs-rag/internal/app"
	"github.com/arturoeanton/vitaldocs-rag/internal/handler"
	"github.com/arturoeanton/vitaldocs-rag/internal/mcp"
	"github.com/arturoeanton/vitaldocs-rag/internal/middleware"
	"github.com/arturoeanton/vitaldocs-rag/internal/service"
	"github.com/arturoeanton/vitaldocs-rag/pkg/config"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("Starting VitalDocs AI",
		"port", cfg.Port,
		"store", cfg.StoreBackend,
		"ai_provider", cfg.AIProvider,
		"embedding_model", cfg.EmbeddingModel,
		"chat_model", cfg.ChatModel,
		"top_k", cfg.RetrievalTopK,
		"threshold", cfg.RetrievalThreshold,
		"mcp_enabled", cfg.MCPEnabled,
	)
	if cfg.AIProvider == app.ProviderOpenAI && cfg.OpenAIAPIKey == "" {
		slog.Warn("OPENAI_API_KEY is not set; embedding and chat requests will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Adapters ─────────────────────────────────────────────────────────
	deps, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise adapters", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			slog.Error("failed to close adapters", "error", err)
		}
	}()

	sources, err := service.LoadSources(cfg.SourcesFile)
	if err != nil {
		slog.Error("failed to load sources", "file", cfg.SourcesFile, "error", err)
		os.Exit(1)
	}

	// ── Services ─────────────────────────────────────────────────────────
	retriever := deps.Retriever(cfg)
	lookupService := service.NewLookupService(retriever)
	chatService := service.NewChatService(retriever, deps.Provider, cfg.ChatMaxMessages)
	demoService := service.NewChatService(retriever, deps.Provider, cfg.DemoMaxMessages)
	ingestService := deps.IngestService(cfg)

	// ── Fiber App ────────────────────────────────────────────────────────
	fiberApp := fiber.New(fiber.Config{
		AppName:     cfg.AppName,
		ReadTimeout: 30 * time.Second,
		// streamed answers are bounded by the request timeout instead
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
	})

	// Global middleware
	fiberApp.Use(recover.New())
	fiberApp.Use(fiberlogger.New())
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	fiberApp.Use(middleware.AuditMiddleware(middleware.MultiAuditWriter{
		middleware.NewSlogAuditWriter(slog.Default()),
		deps.Audit,
	}))

	handler.Routes{
		Chat:    handler.NewChatHandler(chatService, cfg.RequestTimeout),
		Demo:    handler.NewChatHandler(demoService, cfg.RequestTimeout),
		Sources: handler.NewSourcesHandler(lookupService, deps.Store, cfg.RequestTimeout),
		Ingest:  handler.NewIngestHandler(ingestService, sources, handler.NewJobTracker()),
		Audit:   handler.NewAuditHandler(deps.Audit),
		JWT: middleware.JWTConfig{
			Secret: cfg.JWTSecret,
			Issuer: cfg.JWTIssuer,
		},
	}.Register(fiberApp)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(lookupService, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(ctx); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
		defer cancel()
		if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("Fiber listening", "port", cfg.Port)
	if err := fiberApp.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
