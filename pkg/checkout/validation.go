package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
)

// QuantityValidationInput describes one line item to range-check
// against the product's configured order-quantity bounds.
type QuantityValidationInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	MinQuantity *int
	MaxQuantity *int
}

// QuantityViolationDetail exposes the data returned to callers when a validation fails.
type QuantityViolationDetail struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name,omitempty"`
	RequestedQty int       `json:"requested_qty"`
	MinQty       *int      `json:"min_qty,omitempty"`
	MaxQty       *int      `json:"max_qty,omitempty"`
}

// ValidateQuantities ensures every line item requests at least one unit
// and respects the product's min/max order quantity when configured.
func ValidateQuantities(items []QuantityValidationInput) error {
	var violations []QuantityViolationDetail
	for _, item := range items {
		if quantityInRange(item) {
			continue
		}
		violations = append(violations, QuantityViolationDetail{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			RequestedQty: item.Quantity,
			MinQty:       item.MinQuantity,
			MaxQty:       item.MaxQuantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.NewReason(
		pkgerrors.ReasonQuantityOutOfRange,
		fmt.Sprintf("quantity out of range for %d item(s)", len(violations)),
	).WithDetails(map[string]any{
		"violations": violations,
	})
}

func quantityInRange(item QuantityValidationInput) bool {
	if item.Quantity < 1 {
		return false
	}
	if item.MinQuantity != nil && item.Quantity < *item.MinQuantity {
		return false
	}
	if item.MaxQuantity != nil && item.Quantity > *item.MaxQuantity {
		return false
	}
	return true
}
