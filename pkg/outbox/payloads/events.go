package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nbox-app/nbox-backend/pkg/enums"
)

// OrderPlacedEvent signals that a payment webhook settled a new order.
// StartingStatus is pending unless the merchant auto-accepts; the buyer
// message differs between the two.
type OrderPlacedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    int64             `json:"order_number"`
	BuyerID        uuid.UUID         `json:"buyer_id"`
	MerchantID     uuid.UUID         `json:"merchant_id"`
	Total          decimal.Decimal   `json:"total"`
	StartingStatus enums.OrderStatus `json:"starting_status"`
	ScheduledAt    *time.Time        `json:"scheduled_at,omitempty"`
}

// OrderStatusEvent is emitted for every status transition after placement.
// PreparationTimeMinutes is set only on the preparing transition.
type OrderStatusEvent struct {
	OrderID                uuid.UUID         `json:"order_id"`
	OrderNumber            int64             `json:"order_number"`
	BuyerID                uuid.UUID         `json:"buyer_id"`
	MerchantID             uuid.UUID         `json:"merchant_id"`
	FromStatus             enums.OrderStatus `json:"from_status"`
	ToStatus               enums.OrderStatus `json:"to_status"`
	PreparationTimeMinutes int               `json:"preparation_time_minutes,omitempty"`
}

// OrderCanceledEvent carries refund context alongside the transition.
type OrderCanceledEvent struct {
	OrderID      uuid.UUID  `json:"order_id"`
	OrderNumber  int64      `json:"order_number"`
	BuyerID      uuid.UUID  `json:"buyer_id"`
	MerchantID   uuid.UUID  `json:"merchant_id"`
	CanceledAt   time.Time  `json:"canceled_at"`
	Reason       string     `json:"reason,omitempty"`
	RefundIssued bool       `json:"refund_issued"`
	CanceledBy   *uuid.UUID `json:"canceled_by,omitempty"`
}

// LowStockEvent alerts the merchant that one settled order pushed
// products under their thresholds. Batched per order so the merchant
// gets a single notification however many lines crossed the line.
type LowStockEvent struct {
	MerchantID uuid.UUID         `json:"merchant_id"`
	OrderID    uuid.UUID         `json:"order_id"`
	Products   []LowStockProduct `json:"products"`
}

// LowStockProduct is one product entry inside a LowStockEvent.
type LowStockProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Remaining int       `json:"remaining"`
	Threshold int       `json:"threshold"`
}
