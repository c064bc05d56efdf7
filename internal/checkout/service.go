package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/internal/address"
	"github.com/nbox-app/nbox-backend/internal/cart"
	"github.com/nbox-app/nbox-backend/internal/merchants"
	"github.com/nbox-app/nbox-backend/internal/orders"
	"github.com/nbox-app/nbox-backend/internal/products"
	pkgcheckout "github.com/nbox-app/nbox-backend/pkg/checkout"
	"github.com/nbox-app/nbox-backend/pkg/config"
	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CheckoutInput is the buyer's checkout request.
type CheckoutInput struct {
	AddressID    uuid.UUID
	ScheduleTime *time.Time
	Note         *string
}

// CheckoutResult carries the pending order plus the payment session the
// buyer is redirected to.
type CheckoutResult struct {
	OrderID     uuid.UUID
	OrderNumber int64
	SessionID   string
	SessionURL  string
}

// Service converts a cart into a pending order with a hosted payment
// session.
type Service interface {
	Execute(ctx context.Context, buyerID, cartID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	cartRepo    cart.Repository
	productRepo products.Repository
	orderRepo   orders.Repository
	addressRepo address.Repository
	merchantSvc merchants.Service
	sessions    Sessions
	tx          txRunner
	cfg         config.OrdersConfig
	now         func() time.Time
}

// NewService builds the checkout orchestrator.
func NewService(
	cartRepo cart.Repository,
	productRepo products.Repository,
	orderRepo orders.Repository,
	addressRepo address.Repository,
	merchantSvc merchants.Service,
	sessions Sessions,
	tx txRunner,
	cfg config.OrdersConfig,
) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if addressRepo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if merchantSvc == nil {
		return nil, fmt.Errorf("merchant service required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session creator required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
		merchantSvc: merchantSvc,
		sessions:    sessions,
		tx:          tx,
		cfg:         cfg,
		now:         time.Now,
	}, nil
}

// resolvedLine is a cart line with its catalog snapshot and final price.
type resolvedLine struct {
	item    models.CartItem
	product models.Product
	variant *models.ProductVariant
	price   decimal.Decimal
}

func (s *service) Execute(ctx context.Context, buyerID, cartID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	cartRow, items, err := s.cartRepo.FindCartForBuyer(ctx, cartID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines, err := s.resolveLines(ctx, items)
	if err != nil {
		return nil, err
	}
	if err := s.validateQuantities(lines); err != nil {
		return nil, err
	}

	if _, err := s.addressRepo.FindForUser(ctx, input.AddressID, buyerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NewReason(pkgerrors.ReasonAddressNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}

	cfg, err := s.merchantSvc.GetConfig(ctx, cartRow.MerchantID)
	if err != nil {
		return nil, err
	}

	var scheduledAt *time.Time
	if input.ScheduleTime != nil {
		normalized, err := s.validateSchedule(*input.ScheduleTime, cfg)
		if err != nil {
			return nil, err
		}
		scheduledAt = &normalized
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.price.Mul(decimal.NewFromInt(int64(line.item.Quantity))))
	}
	subtotal = subtotal.Round(2)
	deliveryFee := decimal.Zero
	if cfg.DeliveryType == enums.DeliveryTypeFixed {
		deliveryFee = cfg.DeliveryFee.Round(2)
	}
	total := subtotal.Add(deliveryFee).Round(2)

	order := &models.Order{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		MerchantID:    cartRow.MerchantID,
		AddressID:     &input.AddressID,
		OrderStatus:   enums.OrderStatusPaymentPending,
		PaymentStatus: enums.PaymentStatusPending,
		Subtotal:      subtotal,
		DeliveryFee:   deliveryFee,
		Total:         total,
		ScheduledAt:   scheduledAt,
		Note:          input.Note,
	}

	var result *CheckoutResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)

		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return fmt.Errorf("next order number: %w", err)
		}
		order.OrderNumber = number

		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := repo.CreateOrderItems(ctx, snapshotItems(order.ID, lines)); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		if err := repo.AppendHistory(ctx, &models.OrderStatusHistory{
			ID:         uuid.New(),
			OrderID:    order.ID,
			FromStatus: enums.OrderStatusPaymentPending,
			ToStatus:   enums.OrderStatusPaymentPending,
			Actor:      enums.ActorRoleBuyer,
		}); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		if err := s.cartRepo.WithTx(tx).DeleteCart(ctx, cartRow.ID); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}

		// Session creation runs inside the transaction so a provider
		// failure rolls the pending order back instead of leaking it.
		// The tx (and its pool connection) stays open across the
		// provider round trip.
		sess, err := s.sessions.Create(ctx, SessionRequest{
			OrderID:     order.ID,
			LineItems:   sessionLines(lines, deliveryFee),
			ScheduledAt: scheduledAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
		}
		if err := repo.SetPaymentSession(ctx, order.ID, sess.ID); err != nil {
			return fmt.Errorf("store payment session: %w", err)
		}

		result = &CheckoutResult{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			SessionID:   sess.ID,
			SessionURL:  sess.URL,
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute checkout")
	}
	return result, nil
}

// resolveLines joins cart lines with the catalog and fails fast on the
// first unavailable or under-stocked product.
func (s *service) resolveLines(ctx context.Context, items []models.CartItem) ([]resolvedLine, error) {
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	catalog, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	variants, err := s.productRepo.FindVariants(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
	}

	lines := make([]resolvedLine, 0, len(items))
	for _, item := range items {
		product, ok := catalog[item.ProductID]
		if !ok || product.Status != enums.ProductStatusActive {
			return nil, pkgerrors.NewReason(
				pkgerrors.ReasonProductUnavailable,
				fmt.Sprintf("product %q is no longer available", productName(product, item)),
			)
		}
		if product.Availability != enums.ProductAvailabilityInStock {
			return nil, pkgerrors.NewReason(
				pkgerrors.ReasonProductUnavailable,
				fmt.Sprintf("product %q is out of stock", product.Name),
			)
		}
		if product.Inventory < item.Quantity {
			return nil, pkgerrors.NewReason(
				pkgerrors.ReasonInsufficientStock,
				fmt.Sprintf("not enough stock for %q, only %d left", product.Name, product.Inventory),
			)
		}

		line := resolvedLine{item: item, product: product, price: product.Price}
		if item.VariantID != nil {
			variant, ok := variants[*item.VariantID]
			if !ok || variant.ProductID != product.ID {
				return nil, pkgerrors.NewReason(
					pkgerrors.ReasonProductUnavailable,
					fmt.Sprintf("variant of %q is no longer available", product.Name),
				)
			}
			line.variant = &variant
			line.price = variant.Price
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *service) validateQuantities(lines []resolvedLine) error {
	inputs := make([]pkgcheckout.QuantityValidationInput, 0, len(lines))
	for _, line := range lines {
		maxQuantity := line.product.MaxOrderQuantity
		if maxQuantity == nil && s.cfg.MaxQuantityPerItem > 0 {
			ceiling := s.cfg.MaxQuantityPerItem
			maxQuantity = &ceiling
		}
		inputs = append(inputs, pkgcheckout.QuantityValidationInput{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			Quantity:    line.item.Quantity,
			MinQuantity: line.product.MinOrderQuantity,
			MaxQuantity: maxQuantity,
		})
	}
	return pkgcheckout.ValidateQuantities(inputs)
}

// validateSchedule normalizes the requested slot to UTC and checks it
// against the merchant's scheduling settings and opening hours.
func (s *service) validateSchedule(scheduleTime time.Time, cfg *models.MerchantConfig) (time.Time, error) {
	if !cfg.SchedulingEnabled {
		return time.Time{}, pkgerrors.NewReason(
			pkgerrors.ReasonSchedulingDisabled,
			"scheduling is not available for this store",
		)
	}

	slot := scheduleTime.UTC()
	now := s.now().UTC()
	if slot.Before(now) {
		return time.Time{}, pkgerrors.NewReason(
			pkgerrors.ReasonScheduleInPast,
			"scheduling is not allowed in the past",
		)
	}

	horizonDays := s.cfg.ScheduleHorizonDays
	if horizonDays <= 0 {
		horizonDays = 6
	}
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	horizonEnd := startOfToday.AddDate(0, 0, horizonDays+1)
	if !slot.Before(horizonEnd) {
		return time.Time{}, pkgerrors.NewReason(
			pkgerrors.ReasonScheduleTooFar,
			fmt.Sprintf("scheduling is only allowed within the next %d days", horizonDays),
		)
	}

	hours := cfg.BusinessHours
	if hours.IsClosedOn(slot.Weekday()) {
		return time.Time{}, pkgerrors.NewReason(
			pkgerrors.ReasonStoreClosed,
			"store will be closed on the selected day",
		)
	}
	if !hours.IsOpenAt(slot) {
		return time.Time{}, pkgerrors.NewReason(
			pkgerrors.ReasonOutsideBusinessHours,
			"selected time is outside of business hours",
		)
	}
	return slot, nil
}

// snapshotItems freezes names and prices so later catalog edits never
// change what the buyer agreed to pay.
func snapshotItems(orderID uuid.UUID, lines []resolvedLine) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		productID := line.product.ID
		item := models.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: &productID,
			Name:      line.product.Name,
			NameFr:    line.product.NameFr,
			UnitPrice: line.price,
			Quantity:  line.item.Quantity,
			LineTotal: line.price.Mul(decimal.NewFromInt(int64(line.item.Quantity))).Round(2),
		}
		if line.variant != nil {
			variantID := line.variant.ID
			variantName := line.variant.Name
			variantNameFr := line.variant.NameFr
			item.VariantID = &variantID
			item.VariantName = &variantName
			item.VariantNameFr = &variantNameFr
		}
		out = append(out, item)
	}
	return out
}

func sessionLines(lines []resolvedLine, deliveryFee decimal.Decimal) []SessionLineItem {
	out := make([]SessionLineItem, 0, len(lines)+1)
	for _, line := range lines {
		name := line.product.Name
		if line.variant != nil {
			name = name + " - " + line.variant.Name
		}
		out = append(out, SessionLineItem{
			Name:       name,
			UnitAmount: line.price.Shift(2).IntPart(),
			Quantity:   int64(line.item.Quantity),
		})
	}
	if deliveryFee.IsPositive() {
		out = append(out, SessionLineItem{
			Name:       "Delivery Fee",
			UnitAmount: deliveryFee.Shift(2).IntPart(),
			Quantity:   1,
		})
	}
	return out
}

func productName(product models.Product, item models.CartItem) string {
	if product.Name != "" {
		return product.Name
	}
	return item.ProductID.String()
}
