package models

import "time"

// Audit actions recorded by the authentication flows.
const (
	AuditActionRegister    = "auth.register"
	AuditActionLogin       = "auth.login"
	AuditActionRefresh     = "auth.refresh"
	AuditActionUserDelete  = "auth.user_delete"
	AuditActionTokenRevoke = "auth.token_revoke"
)

// AuditLog is a single audit trail entry, written asynchronously by the
// audit worker queue.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Detail     string    `db:"detail" json:"detail"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
