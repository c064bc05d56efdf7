package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nbox-app/nbox-backend/pkg/enums"
)

// Product is a merchant listing. Availability is derived from the
// inventory ledger and must never be written outside of it.
type Product struct {
	ID                uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID        uuid.UUID                 `gorm:"column:merchant_id;type:uuid;not null;index"`
	Name              string                    `gorm:"column:name;not null"`
	NameFr            string                    `gorm:"column:name_fr;not null;default:''"`
	Description       *string                   `gorm:"column:description"`
	Category          string                    `gorm:"column:category;not null;default:''"`
	Price             decimal.Decimal           `gorm:"column:price;type:numeric(12,2);not null"`
	Inventory         int                       `gorm:"column:inventory;not null;default:0"`
	LowStockThreshold int                       `gorm:"column:low_stock_threshold;not null;default:5"`
	MinOrderQuantity  *int                      `gorm:"column:min_order_quantity"`
	MaxOrderQuantity  *int                      `gorm:"column:max_order_quantity"`
	Status            enums.ProductStatus       `gorm:"column:status;type:product_status;not null;default:'active'"`
	Availability      enums.ProductAvailability `gorm:"column:availability;type:product_availability;not null;default:'in-stock'"`
	ImageURL          *string                   `gorm:"column:image_url"`
	CreatedAt         time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                 `gorm:"column:updated_at;autoUpdateTime"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

// ProductVariant is an optional priced variation of a product.
// A selected variant's price wins over the base product price.
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	NameFr    string          `gorm:"column:name_fr;not null;default:''"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
