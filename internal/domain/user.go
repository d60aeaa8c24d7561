package domain

// UserContext is the authenticated identity injected into request handlers.
// Identity itself is owned by an external auth provider.
type UserContext struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// RoleAdmin may trigger ingestion.
const RoleAdmin = "admin"
