package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	"github.com/nbox-app/nbox-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	FindForMerchant(ctx context.Context, orderID, merchantID uuid.UUID) (*models.Order, error)
	FindHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
	ClaimTransaction(ctx context.Context, orderID uuid.UUID, transactionID string, updates map[string]any) (bool, error)
	UpdateStatusCAS(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*BuyerOrderList, error)
	ListForMerchant(ctx context.Context, merchantID uuid.UUID, filters MerchantOrderFilters, now time.Time) (*MerchantOrderList, error)
	ListScheduledForMerchant(ctx context.Context, merchantID uuid.UUID, now time.Time) ([]MerchantOrderSummary, error)
}
