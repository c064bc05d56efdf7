package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
)

// MerchantOrderFilters describe the inputs supported by the merchant orders list.
type MerchantOrderFilters struct {
	Status *enums.OrderStatus
	// Search matches against the human-facing order number.
	Search   string
	Page     int
	PageSize int
}

// BuyerOrderSummary exposes the aggregated fields returned in the buyer list.
type BuyerOrderSummary struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber int64             `json:"order_number"`
	StoreName   string            `json:"store_name"`
	Status      enums.OrderStatus `json:"status"`
	Total       decimal.Decimal   `json:"total"`
	ItemCount   int               `json:"item_count"`
	Scheduled   bool              `json:"scheduled"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// BuyerOrderList wraps the cursor-paginated buyer orders.
type BuyerOrderList struct {
	Orders     []BuyerOrderSummary `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// MerchantOrderSummary exposes the aggregated fields returned in the merchant list.
type MerchantOrderSummary struct {
	OrderID     uuid.UUID           `json:"order_id"`
	OrderNumber int64               `json:"order_number"`
	BuyerName   string              `json:"buyer_name"`
	Status      enums.OrderStatus   `json:"status"`
	Payment     enums.PaymentStatus `json:"payment_status"`
	Total       decimal.Decimal     `json:"total"`
	ItemCount   int                 `json:"item_count"`
	ScheduledAt *time.Time          `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// MerchantOrderList wraps page/pageSize merchant orders.
type MerchantOrderList struct {
	Orders   []MerchantOrderSummary `json:"orders"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	Total    int64                  `json:"total"`
}

// OrderDetail is the full single-order view for either side.
type OrderDetail struct {
	Order   models.Order                `json:"order"`
	History []models.OrderStatusHistory `json:"history"`
	Review  *models.Review              `json:"review,omitempty"`
}
