package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
)

// Repository persists order reviews.
type Repository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}
