package responses

import "time"

type Program struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DrugName        string    `json:"drugName"`
	Description     string    `json:"description,omitempty"`
	Status          string    `json:"status"`
	ActiveVersionID string    `json:"activeVersionId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
