package merchants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/types"
)

// Repository reads merchant storefront configuration. Writes are
// limited to the business-hours normalization path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindConfigByMerchant(ctx context.Context, merchantID uuid.UUID) (*models.MerchantConfig, error)
	UpdateBusinessHours(ctx context.Context, merchantID uuid.UUID, hours types.BusinessHours) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a merchant config repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindConfigByMerchant(ctx context.Context, merchantID uuid.UUID) (*models.MerchantConfig, error) {
	var cfg models.MerchantConfig
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *repository) UpdateBusinessHours(ctx context.Context, merchantID uuid.UUID, hours types.BusinessHours) error {
	return r.db.WithContext(ctx).
		Model(&models.MerchantConfig{}).
		Where("merchant_id = ?", merchantID).
		Update("business_hours", hours).Error
}
