package models

import "time"

// AuditEvent rows live in Postgres, not Mongo. The audit trail is
// append-only and queried by compliance reviewers, so it sits in the
// relational store where retention and reporting tooling already exist.
type AuditEvent struct {
	ID         int64     `json:"id"`
	TenantID   string    `json:"tenantId"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
