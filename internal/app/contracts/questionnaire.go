package contracts

import (
	"context"

	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/tenant"
)

type QuestionnaireUsecase interface {
	PublishQuestionnaireVersion(ctx context.Context, tc tenant.Context, programID string, request *requests.PublishQuestionnaireVersion) (*responses.QuestionnaireVersion, error)
	GetQuestionnaireVersionByID(ctx context.Context, tc tenant.Context, versionID string) (*responses.QuestionnaireVersion, error)
	GetQuestionnaireVersionsByProgram(ctx context.Context, tc tenant.Context, programID string) ([]responses.QuestionnaireVersion, error)
	// GetActiveQuestionnaireVersion returns the full model because the
	// screening pipeline evaluates against it, not a trimmed view.
	GetActiveQuestionnaireVersion(ctx context.Context, tc tenant.Context, programID string) (*models.QuestionnaireVersion, error)
}

type QuestionnaireVersionRepository interface {
	CreateQuestionnaireVersion(ctx context.Context, tc tenant.Context, version *models.QuestionnaireVersion) (versionID string, err error)
	FindByID(ctx context.Context, tc tenant.Context, versionID string) (*models.QuestionnaireVersion, error)
	FindByProgramID(ctx context.Context, tc tenant.Context, programID string) ([]models.QuestionnaireVersion, error)
	FindLatestVersionNumber(ctx context.Context, tc tenant.Context, programID string) (int, error)
	UpdateStatus(ctx context.Context, tc tenant.Context, versionID string, status models.QuestionnaireVersionStatus) error
}
