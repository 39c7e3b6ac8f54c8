package contracts

import (
	"context"

	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/tenant"
)

type ProgramUsecase interface {
	CreateProgram(ctx context.Context, tc tenant.Context, request *requests.CreateProgram) (*responses.Program, error)
	GetPrograms(ctx context.Context, tc tenant.Context, page, pageSize int) ([]responses.Program, int, error)
	GetProgramByID(ctx context.Context, tc tenant.Context, programID string) (*responses.Program, error)
	ActivateQuestionnaireVersion(ctx context.Context, tc tenant.Context, programID, versionID string) (*responses.Program, error)
}

type ProgramRepository interface {
	CreateProgram(ctx context.Context, tc tenant.Context, program *models.Program) (programID string, err error)
	FindByID(ctx context.Context, tc tenant.Context, programID string) (*models.Program, error)
	FindAll(ctx context.Context, tc tenant.Context, page, pageSize int) ([]models.Program, int, error)
	UpdateActiveVersion(ctx context.Context, tc tenant.Context, programID, versionID string) error
}
