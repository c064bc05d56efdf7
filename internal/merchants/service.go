package merchants

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
	"github.com/nbox-app/nbox-backend/pkg/types"
)

// Service exposes the merchant configuration reads the order core
// depends on, plus the business-hours write path.
type Service interface {
	GetConfig(ctx context.Context, merchantID uuid.UUID) (*models.MerchantConfig, error)
	SetBusinessHours(ctx context.Context, merchantID uuid.UUID, input HoursInput) (types.BusinessHours, error)
}

type service struct {
	repo Repository
}

// NewService builds a merchant config service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("merchants repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetConfig(ctx context.Context, merchantID uuid.UUID) (*models.MerchantConfig, error) {
	cfg, err := s.repo.FindConfigByMerchant(ctx, merchantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant configuration not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant configuration")
	}
	return cfg, nil
}

func (s *service) SetBusinessHours(ctx context.Context, merchantID uuid.UUID, input HoursInput) (types.BusinessHours, error) {
	if merchantID == uuid.Nil {
		return types.BusinessHours{}, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	hours, err := NormalizeHours(input)
	if err != nil {
		return types.BusinessHours{}, err
	}
	if _, err := s.GetConfig(ctx, merchantID); err != nil {
		return types.BusinessHours{}, err
	}
	if err := s.repo.UpdateBusinessHours(ctx, merchantID, hours); err != nil {
		return types.BusinessHours{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store business hours")
	}
	return hours, nil
}
