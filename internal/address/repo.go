package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
)

// Repository reads saved delivery addresses. Address management lives
// outside the order core; checkout only verifies ownership.
type Repository interface {
	FindForUser(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindForUser(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addrs []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addrs).Error
	if err != nil {
		return nil, err
	}
	return addrs, nil
}
