package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is a buyer's single open cart against one merchant.
type Cart struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID    uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;index"`
	MerchantID uuid.UUID `gorm:"column:merchant_id;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
