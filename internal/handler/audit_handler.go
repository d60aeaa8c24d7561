package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// Audit listing bounds. The upper bound matches what the audit stores keep.
const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// AuditHandler serves the admin view of the request audit trail.
type AuditHandler struct {
	log port.AuditLog
}

// NewAuditHandler creates an audit handler over log.
func NewAuditHandler(log port.AuditLog) *AuditHandler {
	return &AuditHandler{log: log}
}

// Register mounts /audit/logs. The router must already enforce the admin role.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/audit/logs", h.ListLogs)
}

// ListLogs returns the newest audit events first. Query parameters:
// limit (1-500, default 100) and action, one of the recorded audit actions
// such as chat or source_lookup.
func (h *AuditHandler) ListLogs(c fiber.Ctx) error {
	limit, err := auditLimit(c.Query("limit"))
	if err != nil {
		return respondError(c, err)
	}

	action := c.Query("action")
	if action != "" && !domain.IsAuditAction(action) {
		return respondError(c, port.NewValidationError(port.CodeInvalidAction, "unknown audit action %q", action))
	}

	events, err := h.log.ListAudit(c.Context(), limit, action)
	if err != nil {
		return respondError(c, err)
	}
	if events == nil {
		events = []domain.AuditEvent{}
	}

	return c.JSON(fiber.Map{
		"logs":   events,
		"count":  len(events),
		"limit":  limit,
		"action": action,
	})
}

func auditLimit(raw string) (int, error) {
	if raw == "" {
		return defaultAuditLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxAuditLimit {
		return 0, port.NewValidationError(port.CodeInvalidLimit, "limit must be an integer between 1 and %d", maxAuditLimit)
	}
	return n, nil
}
