package orders

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	"github.com/nbox-app/nbox-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextOrderNumber increments the single counter row and returns the new
// value. Running this inside the checkout transaction serializes
// concurrent sessions without a read-modify-write race.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var number int64
	res := r.db.WithContext(ctx).Raw(`
		UPDATE order_counters
		SET next_number = next_number + 1
		WHERE id = 1
		RETURNING next_number
	`).Scan(&number)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return number, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("payment_session_id", sessionID).Error
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND buyer_id = ?", orderID, buyerID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindForMerchant(ctx context.Context, orderID, merchantID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND merchant_id = ?", orderID, merchantID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var entries []models.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ClaimTransaction performs the webhook idempotency claim: the update
// only lands while transaction_id is still empty, so concurrent
// redeliveries resolve to exactly one winner.
func (r *repository) ClaimTransaction(ctx context.Context, orderID uuid.UUID, transactionID string, updates map[string]any) (bool, error) {
	set := map[string]any{"transaction_id": transactionID}
	for column, value := range updates {
		set[column] = value
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND transaction_id = ''", orderID).
		Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateStatusCAS transitions order_status only when the row still
// holds the expected from status. Zero rows means a concurrent
// transition won.
func (r *repository) UpdateStatusCAS(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	set := map[string]any{"order_status": to}
	for column, value := range updates {
		set[column] = value
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND order_status = ?", orderID, from).
		Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*BuyerOrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > limit {
		last := rows[limit-1]
		rows = rows[:limit]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	storeNames, err := r.storeNamesFor(ctx, rows)
	if err != nil {
		return nil, err
	}

	out := &BuyerOrderList{NextCursor: nextCursor}
	for _, row := range rows {
		scheduled := row.ScheduledAt != nil &&
			(row.OrderStatus == enums.OrderStatusPending || row.OrderStatus == enums.OrderStatusAccepted)
		out.Orders = append(out.Orders, BuyerOrderSummary{
			OrderID:     row.ID,
			OrderNumber: row.OrderNumber,
			StoreName:   storeNames[row.MerchantID],
			Status:      row.OrderStatus,
			Total:       row.Total,
			ItemCount:   len(row.Items),
			Scheduled:   scheduled,
			ScheduledAt: row.ScheduledAt,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (r *repository) storeNamesFor(ctx context.Context, rows []models.Order) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]bool{}
	for _, row := range rows {
		if !seen[row.MerchantID] {
			seen[row.MerchantID] = true
			ids = append(ids, row.MerchantID)
		}
	}
	names := map[uuid.UUID]string{}
	if len(ids) == 0 {
		return names, nil
	}
	var configs []models.MerchantConfig
	err := r.db.WithContext(ctx).
		Where("merchant_id IN ?", ids).
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		names[cfg.MerchantID] = cfg.StoreName
	}
	return names, nil
}

// ListForMerchant excludes payment-pending orders and scheduled orders
// that are not yet due.
func (r *repository) ListForMerchant(ctx context.Context, merchantID uuid.UUID, filters MerchantOrderFilters, now time.Time) (*MerchantOrderList, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 || pageSize > pagination.MaxLimit {
		pageSize = pagination.DefaultLimit
	}

	base := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("merchant_id = ?", merchantID).
		Where("order_status <> ?", enums.OrderStatusPaymentPending).
		Where("scheduled_at IS NULL OR scheduled_at <= ? OR order_status NOT IN ?",
			now, []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusAccepted})
	if filters.Status != nil {
		base = base.Where("order_status = ?", *filters.Status)
	}
	if filters.Search != "" {
		if number, err := strconv.ParseInt(filters.Search, 10, 64); err == nil {
			base = base.Where("order_number = ?", number)
		} else {
			base = base.Where("1 = 0")
		}
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.Order
	err := base.Session(&gorm.Session{}).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	buyerNames, err := r.buyerNamesFor(ctx, rows)
	if err != nil {
		return nil, err
	}

	out := &MerchantOrderList{Page: page, PageSize: pageSize, Total: total}
	for _, row := range rows {
		out.Orders = append(out.Orders, merchantSummary(row, buyerNames))
	}
	return out, nil
}

// ListScheduledForMerchant returns future scheduled pending/accepted
// orders, soonest first.
func (r *repository) ListScheduledForMerchant(ctx context.Context, merchantID uuid.UUID, now time.Time) ([]MerchantOrderSummary, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("merchant_id = ?", merchantID).
		Where("scheduled_at IS NOT NULL AND scheduled_at > ?", now).
		Where("order_status IN ?", []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusAccepted}).
		Order("scheduled_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	buyerNames, err := r.buyerNamesFor(ctx, rows)
	if err != nil {
		return nil, err
	}

	out := make([]MerchantOrderSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, merchantSummary(row, buyerNames))
	}
	return out, nil
}

func (r *repository) buyerNamesFor(ctx context.Context, rows []models.Order) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]bool{}
	for _, row := range rows {
		if !seen[row.BuyerID] {
			seen[row.BuyerID] = true
			ids = append(ids, row.BuyerID)
		}
	}
	names := map[uuid.UUID]string{}
	if len(ids) == 0 {
		return names, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		names[user.ID] = user.FirstName + " " + user.LastName
	}
	return names, nil
}

func merchantSummary(row models.Order, buyerNames map[uuid.UUID]string) MerchantOrderSummary {
	return MerchantOrderSummary{
		OrderID:     row.ID,
		OrderNumber: row.OrderNumber,
		BuyerName:   buyerNames[row.BuyerID],
		Status:      row.OrderStatus,
		Payment:     row.PaymentStatus,
		Total:       row.Total,
		ItemCount:   len(row.Items),
		ScheduledAt: row.ScheduledAt,
		CreatedAt:   row.CreatedAt,
	}
}
