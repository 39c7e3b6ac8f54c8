package contracts

import (
	"context"

	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/tenant"
)

type PartnerUsecase interface {
	// CreatePartner provisions a credential and returns the plaintext
	// secret exactly once; only its hash is stored.
	CreatePartner(ctx context.Context, tc tenant.Context, request *requests.CreatePartner) (*responses.CreatedPartner, error)
	GetPartners(ctx context.Context, tc tenant.Context, page, pageSize int) ([]responses.Partner, int, error)
	// AuthenticateAPIKey resolves and verifies a presented key. It takes no
	// tenant context because the tenant is derived from the partner record,
	// never from client input.
	AuthenticateAPIKey(ctx context.Context, apiKey string) (*models.Partner, error)
	UpdatePartnerStatus(ctx context.Context, tc tenant.Context, partnerID string, status models.PartnerStatus) (*responses.Partner, error)
}

type PartnerRepository interface {
	CreatePartner(ctx context.Context, tc tenant.Context, partner *models.Partner) (partnerID string, err error)
	FindByID(ctx context.Context, tc tenant.Context, partnerID string) (*models.Partner, error)
	FindAll(ctx context.Context, tc tenant.Context, page, pageSize int) ([]models.Partner, int, error)
	// FindByAPIKeyID is the pre-authentication lookup. The tenant is not
	// known until the record is found, so this is keyed on the public key
	// id alone.
	FindByAPIKeyID(ctx context.Context, apiKeyID string) (*models.Partner, error)
	UpdateStatus(ctx context.Context, tc tenant.Context, partnerID string, status models.PartnerStatus) error
}
