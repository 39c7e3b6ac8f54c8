package queries

const (
	InsertAuditEvent = `
		INSERT INTO audit_events (
			tenant_id,
			actor,
			action,
			resource,
			resource_id,
			detail,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING
			id,
			created_at
	`

	GetAuditEventsByTenantID = `
		SELECT
			id,
			tenant_id,
			actor,
			action,
			resource,
			resource_id,
			detail,
			created_at
		FROM audit_events
		WHERE tenant_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
)
