package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nbox-app/nbox-backend/pkg/enums"
	"github.com/nbox-app/nbox-backend/pkg/types"
)

// MerchantConfig carries per-merchant storefront settings: scheduling,
// delivery pricing, preparation windows and weekly business hours.
type MerchantConfig struct {
	ID                     uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID             uuid.UUID           `gorm:"column:merchant_id;type:uuid;not null;uniqueIndex"`
	StoreName              string              `gorm:"column:store_name;not null"`
	SchedulingEnabled      bool                `gorm:"column:scheduling_enabled;not null;default:false"`
	AutoAcceptEnabled      bool                `gorm:"column:auto_accept_enabled;not null;default:false"`
	DeliveryType           enums.DeliveryType  `gorm:"column:delivery_type;type:delivery_type;not null;default:'none'"`
	DeliveryFee            decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	PreparationTimeMinutes int                 `gorm:"column:preparation_time_minutes;not null;default:0"`
	DeliveryTimeMinutes    int                 `gorm:"column:delivery_time_minutes;not null;default:0"`
	BusinessHours          types.BusinessHours `gorm:"column:business_hours;type:jsonb"`
	LowStockAlertsEnabled  bool                `gorm:"column:low_stock_alerts_enabled;not null;default:true"`
	CreatedAt              time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
