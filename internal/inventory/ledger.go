package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/enums"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
)

// Adjustment reports the outcome of a single stock decrement.
type Adjustment struct {
	ProductID      uuid.UUID
	MerchantID     uuid.UUID
	ProductName    string
	NewStock       int
	Threshold      int
	WentOutOfStock bool
	LowStock       bool
}

// Ledger owns every write to product stock. Callers must never
// read-modify-write inventory outside of it.
type Ledger struct{}

// NewLedger exposes the default inventory ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Decrement subtracts qty from a product's stock in a single UPDATE.
// Stock is clamped at 0 and availability flips to out-of-stock when it
// lands there; both happen in the same statement so concurrent
// decrements can never interleave a stale read.
func (l *Ledger) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (*Adjustment, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory decrement")
	}

	var row struct {
		Inventory         int
		Availability      string
		LowStockThreshold int
		MerchantID        uuid.UUID
		Name              string
	}

	// CASE references the pre-update row, so "inventory <= qty" means
	// the write lands on zero.
	res := tx.WithContext(ctx).Raw(`
		UPDATE products
		SET inventory = CASE WHEN inventory > ? THEN inventory - ? ELSE 0 END,
			availability = CASE WHEN inventory <= ? THEN 'out-of-stock' ELSE availability END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING inventory, availability, low_stock_threshold, merchant_id, name
	`, qty, qty, qty, productID).Scan(&row)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement inventory")
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	return &Adjustment{
		ProductID:      productID,
		MerchantID:     row.MerchantID,
		ProductName:    row.Name,
		NewStock:       row.Inventory,
		Threshold:      row.LowStockThreshold,
		WentOutOfStock: row.Availability == enums.ProductAvailabilityOutOfStock.String(),
		LowStock:       row.Inventory > 0 && row.Inventory <= row.LowStockThreshold,
	}, nil
}
