package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nbox-app/nbox-backend/pkg/enums"
)

// Order is the aggregate root of the order lifecycle. TransactionID is
// empty until the payment webhook claims the order; a partial unique
// index guarantees at most one claim per transaction.
type Order struct {
	ID                     uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber            int64               `gorm:"column:order_number;not null;uniqueIndex"`
	BuyerID                uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	MerchantID             uuid.UUID           `gorm:"column:merchant_id;type:uuid;not null;index"`
	AddressID              *uuid.UUID          `gorm:"column:address_id;type:uuid"`
	OrderStatus            enums.OrderStatus   `gorm:"column:order_status;type:order_status;not null;default:'payment-pending'"`
	PaymentStatus          enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentSessionID       string              `gorm:"column:payment_session_id;not null;default:''"`
	TransactionID          string              `gorm:"column:transaction_id;not null;default:''"`
	Subtotal               decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee            decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	Total                  decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentDate            *time.Time          `gorm:"column:payment_date"`
	ScheduledAt            *time.Time          `gorm:"column:scheduled_at"`
	PreparationTimeMinutes int                 `gorm:"column:preparation_time_minutes;not null;default:0"`
	DeliveryTimeMinutes    int                 `gorm:"column:delivery_time_minutes;not null;default:0"`
	Note                   *string             `gorm:"column:note"`
	CancelReason           *string             `gorm:"column:cancel_reason"`
	CreatedAt              time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}
