package domain

import "time"

// AuditEvent records a handled request for compliance.
type AuditEvent struct {
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent"`
	At         time.Time `json:"at"`
}

// Audit action constants.
const (
	AuditActionHTTPRequest = "http_request"
	AuditActionChat        = "chat"
	AuditActionLookup      = "source_lookup"
	AuditActionIngest      = "ingest"
	AuditActionMCPCall     = "mcp_call"
)

// IsAuditAction reports whether action is one the audit trail records.
func IsAuditAction(action string) bool {
	switch action {
	case AuditActionHTTPRequest, AuditActionChat, AuditActionLookup, AuditActionIngest, AuditActionMCPCall:
		return true
	}
	return false
}
