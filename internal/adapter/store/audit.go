package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// MaxAuditList caps ListAudit results.
const MaxAuditList = 500

var (
	_ port.AuditLog = (*PostgresStore)(nil)
	_ port.AuditLog = (*MemoryAuditLog)(nil)
)

// EnsureAuditSchema creates the audit table if absent.
func (s *PostgresStore) EnsureAuditSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			status INT NOT NULL,
			duration_ms BIGINT NOT NULL,
			ip TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS audit_logs_created_at_idx ON audit_logs (created_at DESC)`,
	}
	return s.WithConn(ctx, func(conn *sql.Conn) error {
		for _, q := range stmts {
			if _, err := conn.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("ensure audit schema: %w", err)
			}
		}
		return nil
	})
}

// WriteAudit implements middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(ctx context.Context, ev domain.AuditEvent) error {
	query := `INSERT INTO audit_logs (user_id, action, method, path, status, duration_ms, ip, user_agent, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		ev.UserID, ev.Action, ev.Method, ev.Path, ev.Status, ev.DurationMS, ev.IP, ev.UserAgent, ev.At,
	)
	if err != nil {
		return fmt.Errorf("write audit: %w", err)
	}
	return nil
}

// ListAudit returns recent audit events with an optional action filter.
func (s *PostgresStore) ListAudit(ctx context.Context, limit int, action string) ([]domain.AuditEvent, error) {
	query := `SELECT user_id, action, method, path, status, duration_ms, ip, user_agent, created_at
	          FROM audit_logs`
	args := []any{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(" WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)
	args = append(args, clampAuditLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	logs := []domain.AuditEvent{}
	for rows.Next() {
		var ev domain.AuditEvent
		if err := rows.Scan(
			&ev.UserID, &ev.Action, &ev.Method, &ev.Path, &ev.Status,
			&ev.DurationMS, &ev.IP, &ev.UserAgent, &ev.At,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, ev)
	}
	return logs, rows.Err()
}

func clampAuditLimit(limit int) int {
	if limit <= 0 || limit > MaxAuditList {
		return MaxAuditList
	}
	return limit
}

// MemoryAuditLog keeps the most recent audit events in a bounded buffer.
type MemoryAuditLog struct {
	mu     sync.RWMutex
	events []domain.AuditEvent
	max    int
}

// NewMemoryAuditLog keeps at most max events; max <= 0 uses MaxAuditList.
func NewMemoryAuditLog(max int) *MemoryAuditLog {
	if max <= 0 {
		max = MaxAuditList
	}
	return &MemoryAuditLog{max: max}
}

func (l *MemoryAuditLog) WriteAudit(ctx context.Context, ev domain.AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	if over := len(l.events) - l.max; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
	return nil
}

func (l *MemoryAuditLog) ListAudit(ctx context.Context, limit int, action string) ([]domain.AuditEvent, error) {
	limit = clampAuditLimit(limit)

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []domain.AuditEvent{}
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		if action == "" || l.events[i].Action == action {
			out = append(out, l.events[i])
		}
	}
	return out, nil
}
