package models

import "aegis-service/internal/pkg/dto/responses"

type ProgramStatus string

const (
	ProgramActive   ProgramStatus = "active"
	ProgramPaused   ProgramStatus = "paused"
	ProgramArchived ProgramStatus = "archived"
)

// Program is a patient-assistance program owned by exactly one tenant.
// ActiveVersionID points at the questionnaire version screenings run
// against; it is empty until the first publish.
type Program struct {
	ID              string        `json:"id" bson:"_id,omitempty"`
	TenantID        string        `json:"tenantId" bson:"tenantId"`
	Name            string        `json:"name" bson:"name"`
	DrugName        string        `json:"drugName" bson:"drugName"`
	Description     string        `json:"description,omitempty" bson:"description,omitempty"`
	Status          ProgramStatus `json:"status" bson:"status"`
	ActiveVersionID string        `json:"activeVersionId,omitempty" bson:"activeVersionId,omitempty"`
	TimeModel       `bson:",inline"`
}

func (m *Program) ConvertIntoResponse() responses.Program {
	return responses.Program{
		ID:              m.ID,
		Name:            m.Name,
		DrugName:        m.DrugName,
		Description:     m.Description,
		Status:          string(m.Status),
		ActiveVersionID: m.ActiveVersionID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
