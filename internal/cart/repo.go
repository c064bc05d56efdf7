package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
)

// Repository owns cart persistence. Carts are consumed on checkout and
// replaced wholesale on reorder.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCartForBuyer(ctx context.Context, cartID, buyerID uuid.UUID) (*models.Cart, []models.CartItem, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
	ReplaceCart(ctx context.Context, buyerID, merchantID uuid.UUID, items []models.CartItem) (*models.Cart, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCartForBuyer(ctx context.Context, cartID, buyerID uuid.UUID) (*models.Cart, []models.CartItem, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where("id = ? AND buyer_id = ?", cartID, buyerID).
		First(&cart).Error
	if err != nil {
		return nil, nil, err
	}

	var items []models.CartItem
	err = r.db.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, nil, err
	}
	return &cart, items, nil
}

func (r *repository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", cartID).Delete(&models.Cart{}).Error
}

// ReplaceCart drops the buyer's existing cart for any merchant and
// creates a fresh one holding the given items.
func (r *repository) ReplaceCart(ctx context.Context, buyerID, merchantID uuid.UUID, items []models.CartItem) (*models.Cart, error) {
	db := r.db.WithContext(ctx)

	var existing []models.Cart
	if err := db.Where("buyer_id = ?", buyerID).Find(&existing).Error; err != nil {
		return nil, err
	}
	for _, cart := range existing {
		if err := r.DeleteCart(ctx, cart.ID); err != nil {
			return nil, err
		}
	}

	cart := models.Cart{
		ID:         uuid.New(),
		BuyerID:    buyerID,
		MerchantID: merchantID,
	}
	if err := db.Create(&cart).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ID = uuid.New()
		items[i].CartID = cart.ID
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return nil, err
		}
	}
	return &cart, nil
}
