package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots one product line at checkout time. Names and
// prices are copied so later catalog edits never change a placed order.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	VariantID     *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Name          string          `gorm:"column:name;not null"`
	NameFr        string          `gorm:"column:name_fr;not null;default:''"`
	VariantName   *string         `gorm:"column:variant_name"`
	VariantNameFr *string         `gorm:"column:variant_name_fr"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	LineTotal     decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
