package audits

import (
	"context"
	"errors"
	"testing"
	"time"

	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

const auditTestTenantID = "3f2c8a94-0d6e-4f24-9c57-1f0de7a20b11"

func newMockDB(t *testing.T) (*auditPostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &auditPostgresRepository{DB: db}, mock
}

func assertAuditErrorStatus(t *testing.T, err error, statusCode int) {
	t.Helper()
	var customErr *exceptions.CustomError
	assert.ErrorAs(t, err, &customErr)
	if customErr != nil {
		assert.Equal(t, statusCode, customErr.StatusCode)
	}
}

func TestInsertAuditEvent(t *testing.T) {
	t.Run("ShouldInsertAndHydrateIDAndTimestamp", func(t *testing.T) {
		repo, mock := newMockDB(t)
		createdAt := time.Date(2026, 3, 14, 9, 30, 2, 0, time.UTC)

		mock.ExpectQuery(`INSERT INTO audit_events`).
			WithArgs(auditTestTenantID, "partner:copay-portal", "verification_code.redeemed", "verification_code", "code-1", `{"transaction_id":"txn-77"}`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(41), createdAt))

		event := &models.AuditEvent{
			TenantID:   auditTestTenantID,
			Actor:      "partner:copay-portal",
			Action:     "verification_code.redeemed",
			Resource:   "verification_code",
			ResourceID: "code-1",
			Detail:     `{"transaction_id":"txn-77"}`,
		}
		err := repo.InsertAuditEvent(context.Background(), event)

		assert.NoError(t, err)
		assert.Equal(t, int64(41), event.ID)
		assert.Equal(t, createdAt, event.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ShouldWrapDriverFault", func(t *testing.T) {
		repo, mock := newMockDB(t)

		mock.ExpectQuery(`INSERT INTO audit_events`).
			WillReturnError(errors.New("connection refused"))

		err := repo.InsertAuditEvent(context.Background(), &models.AuditEvent{
			TenantID: auditTestTenantID,
			Actor:    "system:sweeper",
			Action:   "verification_code.expired_sweep",
			Resource: "verification_code",
		})

		assertAuditErrorStatus(t, err, 500)
	})
}

func TestFindAuditEventsByTenantID(t *testing.T) {
	tc := tenant.MustBind(auditTestTenantID)

	t.Run("ShouldReturnRowsInStoredOrder", func(t *testing.T) {
		repo, mock := newMockDB(t)
		first := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
		second := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "actor", "action", "resource", "resource_id", "detail", "created_at"}).
			AddRow(int64(7), auditTestTenantID, "partner:copay-portal", "verification_code.redeemed", "verification_code", "code-2", `{}`, first).
			AddRow(int64(6), auditTestTenantID, "session:sess-1", "screening.completed", "screening_session", "sess-1", `{}`, second)
		mock.ExpectQuery(`FROM audit_events`).
			WithArgs(auditTestTenantID, 50).
			WillReturnRows(rows)

		events, err := repo.FindByTenantID(context.Background(), tc, 50)

		assert.NoError(t, err)
		assert.Len(t, events, 2)
		assert.Equal(t, int64(7), events[0].ID)
		assert.Equal(t, "verification_code.redeemed", events[0].Action)
		assert.Equal(t, int64(6), events[1].ID)
		assert.Equal(t, "screening.completed", events[1].Action)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ShouldReturnEmptyWhenTenantHasNoTrail", func(t *testing.T) {
		repo, mock := newMockDB(t)

		mock.ExpectQuery(`FROM audit_events`).
			WithArgs(auditTestTenantID, 50).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "actor", "action", "resource", "resource_id", "detail", "created_at"}))

		events, err := repo.FindByTenantID(context.Background(), tc, 50)

		assert.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("ShouldRejectUnboundTenant", func(t *testing.T) {
		repo, mock := newMockDB(t)

		events, err := repo.FindByTenantID(context.Background(), tenant.Context{}, 50)

		assert.Nil(t, events)
		assertAuditErrorStatus(t, err, 401)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ShouldWrapQueryFault", func(t *testing.T) {
		repo, mock := newMockDB(t)

		mock.ExpectQuery(`FROM audit_events`).
			WillReturnError(errors.New("connection refused"))

		events, err := repo.FindByTenantID(context.Background(), tc, 50)

		assert.Nil(t, events)
		assertAuditErrorStatus(t, err, 500)
	})

	t.Run("ShouldWrapScanFault", func(t *testing.T) {
		repo, mock := newMockDB(t)

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "actor", "action", "resource", "resource_id", "detail", "created_at"}).
			AddRow("not-a-number", auditTestTenantID, "actor", "action", "resource", "rid", `{}`, time.Now())
		mock.ExpectQuery(`FROM audit_events`).
			WillReturnRows(rows)

		events, err := repo.FindByTenantID(context.Background(), tc, 50)

		assert.Nil(t, events)
		assertAuditErrorStatus(t, err, 500)
	})

	t.Run("ShouldWrapRowIterationFault", func(t *testing.T) {
		repo, mock := newMockDB(t)

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "actor", "action", "resource", "resource_id", "detail", "created_at"}).
			AddRow(int64(7), auditTestTenantID, "actor", "action", "resource", "rid", `{}`, time.Now()).
			RowError(0, errors.New("cursor lost"))
		mock.ExpectQuery(`FROM audit_events`).
			WillReturnRows(rows)

		events, err := repo.FindByTenantID(context.Background(), tc, 50)

		assert.Nil(t, events)
		assertAuditErrorStatus(t, err, 500)
	})
}
