package models

import "time"

// TimeModel carries the write timestamps embedded in every stored record.
// Records are never soft-deleted: codes and sessions are retired by status,
// and the audit trail is append-only.
type TimeModel struct {
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (m *TimeModel) SetCreatedAtUpdatedAt() {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
}

func (m *TimeModel) SetUpdatedAt() {
	m.UpdatedAt = time.Now()
}
