package audits

import (
	"context"
	"database/sql"
	"errors"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/queries"
	"aegis-service/internal/pkg/tenant"
)

type auditPostgresRepository struct {
	DB *sql.DB
}

func NewAuditPostgresRepository(db *sql.DB) contracts.AuditRepository {
	return &auditPostgresRepository{
		DB: db,
	}
}

func (repo *auditPostgresRepository) InsertAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	query := queries.InsertAuditEvent
	err := repo.DB.QueryRowContext(ctx, query,
		event.TenantID,
		event.Actor,
		event.Action,
		event.Resource,
		event.ResourceID,
		event.Detail,
	).Scan(
		&event.ID,
		&event.CreatedAt,
	)
	if err != nil {
		return exceptions.ErrPostgresDBInsertData(err)
	}
	return nil
}

func (repo *auditPostgresRepository) FindByTenantID(ctx context.Context, tc tenant.Context, limit int) ([]models.AuditEvent, error) {
	if tc.IsZero() {
		return nil, exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	query := queries.GetAuditEventsByTenantID
	rows, err := repo.DB.QueryContext(ctx, query, tc.ID(), limit)
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var event models.AuditEvent
		if err := rows.Scan(
			&event.ID,
			&event.TenantID,
			&event.Actor,
			&event.Action,
			&event.Resource,
			&event.ResourceID,
			&event.Detail,
			&event.CreatedAt,
		); err != nil {
			return nil, exceptions.ErrPostgresDBFindData(err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, exceptions.ErrPostgresDBIterateDataset(err)
	}

	return events, nil
}
