package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
)

// AuditWriter defines how audit records are persisted.
type AuditWriter interface {
	WriteAudit(ctx context.Context, ev domain.AuditEvent) error
}

// SlogAuditWriter writes audit events as structured log records.
type SlogAuditWriter struct {
	logger *slog.Logger
}

// NewSlogAuditWriter returns a writer over logger, or slog.Default when nil.
func NewSlogAuditWriter(logger *slog.Logger) *SlogAuditWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditWriter{logger: logger.With("component", "audit")}
}

func (w *SlogAuditWriter) WriteAudit(ctx context.Context, ev domain.AuditEvent) error {
	w.logger.LogAttrs(ctx, slog.LevelInfo, ev.Action,
		slog.String("user_id", ev.UserID),
		slog.String("method", ev.Method),
		slog.String("path", ev.Path),
		slog.Int("status", ev.Status),
		slog.Int64("duration_ms", ev.DurationMS),
		slog.String("ip", ev.IP),
		slog.String("user_agent", ev.UserAgent),
	)
	return nil
}

// MultiAuditWriter writes every event to each writer in turn.
type MultiAuditWriter []AuditWriter

func (m MultiAuditWriter) WriteAudit(ctx context.Context, ev domain.AuditEvent) error {
	var errs []error
	for _, w := range m {
		if err := w.WriteAudit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AuditAction classifies a request path.
func AuditAction(path string) string {
	switch {
	case strings.HasSuffix(path, "/chat"), strings.HasSuffix(path, "/demo-chat"):
		return domain.AuditActionChat
	case strings.HasSuffix(path, "/sources"):
		return domain.AuditActionLookup
	case strings.Contains(path, "/admin/ingest"):
		return domain.AuditActionIngest
	default:
		return domain.AuditActionHTTPRequest
	}
}

// AuditMiddleware records every request. Request bodies, which may hold
// clinical questions, are never recorded.
func AuditMiddleware(writer AuditWriter) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Fiber reuses context objects; capture before the handler runs
		method := c.Method()
		path := c.Path()
		ip := c.IP()
		userAgent := c.Get("User-Agent")

		err := c.Next()

		userID := "anonymous"
		if uc := GetUserContext(c); uc != nil {
			userID = uc.UserID
		}

		ev := domain.AuditEvent{
			UserID:     userID,
			Action:     AuditAction(path),
			Method:     method,
			Path:       path,
			Status:     c.Response().StatusCode(),
			DurationMS: time.Since(start).Milliseconds(),
			IP:         ip,
			UserAgent:  userAgent,
			At:         start,
		}

		go func() {
			if writeErr := writer.WriteAudit(context.Background(), ev); writeErr != nil {
				slog.Error("failed to write audit log", "error", writeErr)
			}
		}()

		return err
	}
}
