package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/internal/cart"
	"github.com/nbox-app/nbox-backend/internal/merchants"
	"github.com/nbox-app/nbox-backend/internal/products"
	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
	"github.com/nbox-app/nbox-backend/pkg/metrics"
	"github.com/nbox-app/nbox-backend/pkg/outbox"
	"github.com/nbox-app/nbox-backend/pkg/outbox/payloads"
	"github.com/nbox-app/nbox-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Refunder returns money for a canceled paid order. Implemented against
// Stripe in pkg/stripe-backed wiring; faked in tests.
type Refunder interface {
	Refund(ctx context.Context, checkoutSessionID string) error
}

// TransitionInput carries the acting user for a lifecycle action.
type TransitionInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	// PreparationTime only applies to ActionPrepare.
	PreparationTime int
	// Reason only applies to ActionCancel.
	Reason string
}

// Service drives the order lifecycle plus the buyer/merchant read surface.
type Service interface {
	Accept(ctx context.Context, input TransitionInput) error
	Cancel(ctx context.Context, input TransitionInput) error
	Prepare(ctx context.Context, input TransitionInput) error
	Ready(ctx context.Context, input TransitionInput) error
	Deliver(ctx context.Context, input TransitionInput) error
	Complete(ctx context.Context, input TransitionInput) error
	Reorder(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Cart, error)
	GetForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderDetail, error)
	GetForMerchant(ctx context.Context, merchantID, orderID uuid.UUID) (*OrderDetail, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*BuyerOrderList, error)
	ListForMerchant(ctx context.Context, merchantID uuid.UUID, filters MerchantOrderFilters) (*MerchantOrderList, error)
	ListScheduledForMerchant(ctx context.Context, merchantID uuid.UUID) ([]MerchantOrderSummary, error)
}

type reviewLoader interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error)
}

type service struct {
	repo        Repository
	cartRepo    cart.Repository
	productRepo products.Repository
	merchantSvc merchants.Service
	reviews     reviewLoader
	tx          txRunner
	outbox      outboxPublisher
	refunder    Refunder
	metrics     *metrics.OrderMetrics
	now         func() time.Time
}

// NewService builds the order lifecycle service.
func NewService(
	repo Repository,
	cartRepo cart.Repository,
	productRepo products.Repository,
	merchantSvc merchants.Service,
	reviews reviewLoader,
	tx txRunner,
	publisher outboxPublisher,
	refunder Refunder,
	orderMetrics *metrics.OrderMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if merchantSvc == nil {
		return nil, fmt.Errorf("merchant service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if refunder == nil {
		return nil, fmt.Errorf("refunder required")
	}
	return &service{
		repo:        repo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		merchantSvc: merchantSvc,
		reviews:     reviews,
		tx:          tx,
		outbox:      publisher,
		refunder:    refunder,
		metrics:     orderMetrics,
		now:         time.Now,
	}, nil
}

func (s *service) Accept(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, ActionAccept, input, nil)
}

// Cancel commits the status change first and issues the refund after;
// a refund failure never rolls back a committed cancel.
func (s *service) Cancel(ctx context.Context, input TransitionInput) error {
	var sessionID string
	var refundNeeded bool

	err := s.transition(ctx, ActionCancel, input, func(order *models.Order, updates map[string]any, event *outbox.DomainEvent) error {
		refundNeeded = order.PaymentStatus == enums.PaymentStatusPaid
		sessionID = order.PaymentSessionID
		updates["payment_status"] = enums.PaymentStatusRefunded
		if input.Reason != "" {
			updates["cancel_reason"] = input.Reason
		}
		var canceledBy *uuid.UUID
		if input.ActorID != uuid.Nil {
			id := input.ActorID
			canceledBy = &id
		}
		event.Data = payloads.OrderCanceledEvent{
			OrderID:      order.ID,
			OrderNumber:  order.OrderNumber,
			BuyerID:      order.BuyerID,
			MerchantID:   order.MerchantID,
			CanceledAt:   s.now().UTC(),
			Reason:       input.Reason,
			RefundIssued: refundNeeded,
			CanceledBy:   canceledBy,
		}
		return nil
	})
	if err != nil {
		return err
	}

	if refundNeeded {
		if err := s.refunder.Refund(ctx, sessionID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund canceled order")
		}
	}
	return nil
}

// Prepare validates the preparation window for scheduled orders before
// transitioning.
func (s *service) Prepare(ctx context.Context, input TransitionInput) error {
	if input.PreparationTime <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "preparation time must be positive minutes")
	}
	return s.transition(ctx, ActionPrepare, input, func(order *models.Order, updates map[string]any, event *outbox.DomainEvent) error {
		if order.ScheduledAt != nil {
			cfg, err := s.merchantSvc.GetConfig(ctx, order.MerchantID)
			if err != nil {
				return err
			}
			window := time.Duration(input.PreparationTime+cfg.DeliveryTimeMinutes) * time.Minute
			eta := s.now().UTC().Add(window)
			scheduled := order.ScheduledAt.UTC()
			if eta.Before(scheduled) || eta.After(scheduled.Add(window)) {
				return pkgerrors.NewReason(
					pkgerrors.ReasonPreparationTimeMismatch,
					fmt.Sprintf("order is scheduled for %s; a %d minute preparation lands outside its window",
						scheduled.Format(time.RFC3339), input.PreparationTime),
				)
			}
		}
		updates["preparation_time_minutes"] = input.PreparationTime
		data := event.Data.(payloads.OrderStatusEvent)
		data.PreparationTimeMinutes = input.PreparationTime
		event.Data = data
		return nil
	})
}

func (s *service) Ready(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, ActionReady, input, nil)
}

func (s *service) Deliver(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, ActionDeliver, input, nil)
}

func (s *service) Complete(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, ActionComplete, input, nil)
}

// decorator mutates the CAS update set or the outbox event before the
// transition commits.
type transitionDecorator func(order *models.Order, updates map[string]any, event *outbox.DomainEvent) error

func (s *service) transition(ctx context.Context, action Action, input TransitionInput, decorate transitionDecorator) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	tr, err := transitionFor(action)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadScoped(ctx, repo, input.OrderID, input.ActorID, tr.Actor)
		if err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     tr.Event,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: tr.Actor.String()},
			Data: payloads.OrderStatusEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BuyerID:     order.BuyerID,
				MerchantID:  order.MerchantID,
				FromStatus:  tr.From,
				ToStatus:    tr.To,
			},
		}
		updates := map[string]any{}
		if decorate != nil {
			if err := decorate(order, updates, &event); err != nil {
				return err
			}
		}

		swapped, err := repo.UpdateStatusCAS(ctx, order.ID, tr.From, tr.To, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !swapped {
			// A concurrent transition may have won between the load
			// and the CAS; report the status the row holds now.
			current := order.OrderStatus
			if fresh, ferr := repo.FindByID(ctx, order.ID); ferr == nil {
				current = fresh.OrderStatus
			}
			if s.metrics != nil {
				s.metrics.ObserveRejectedTransition(current.String(), tr.To.String())
			}
			return invalidTransitionError(current, tr.From)
		}

		history := models.OrderStatusHistory{
			ID:         uuid.New(),
			OrderID:    order.ID,
			FromStatus: tr.From,
			ToStatus:   tr.To,
			Actor:      tr.Actor,
		}
		if err := repo.AppendHistory(ctx, &history); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveTransition(tr.From.String(), tr.To.String())
	}
	return nil
}

func (s *service) loadScoped(ctx context.Context, repo Repository, orderID, actorID uuid.UUID, role enums.ActorRole) (*models.Order, error) {
	var order *models.Order
	var err error
	switch role {
	case enums.ActorRoleBuyer:
		order, err = repo.FindForBuyer(ctx, orderID, actorID)
	default:
		order, err = repo.FindForMerchant(ctx, orderID, actorID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// Reorder rebuilds the buyer's cart from a delivered or completed
// order. Unavailable products are skipped; an available product without
// enough stock fails the whole reorder.
func (s *service) Reorder(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Cart, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.loadScoped(ctx, s.repo, orderID, buyerID, enums.ActorRoleBuyer)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != enums.OrderStatusDelivered && order.OrderStatus != enums.OrderStatusCompleted {
		return nil, pkgerrors.NewReason(
			pkgerrors.ReasonInvalidStatusTransition,
			fmt.Sprintf("order is %s; only delivered or completed orders can be reordered", order.OrderStatus),
		)
	}

	productIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ProductID != nil {
			productIDs = append(productIDs, *item.ProductID)
		}
	}
	catalog, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	var items []models.CartItem
	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		product, ok := catalog[*item.ProductID]
		if !ok || product.Status != enums.ProductStatusActive ||
			product.Availability != enums.ProductAvailabilityInStock {
			continue
		}
		if product.Inventory < item.Quantity {
			return nil, pkgerrors.NewReason(
				pkgerrors.ReasonInsufficientStock,
				fmt.Sprintf("only %d of %q left in stock", product.Inventory, product.Name),
			)
		}
		items = append(items, models.CartItem{
			ProductID: product.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	if len(items) == 0 {
		return nil, pkgerrors.NewReason(
			pkgerrors.ReasonProductUnavailable,
			"none of the items in this order are available anymore",
		)
	}

	var created *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err = s.cartRepo.WithTx(tx).ReplaceCart(ctx, buyerID, order.MerchantID, items)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rebuild cart")
	}
	return created, nil
}

func (s *service) GetForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.loadScoped(ctx, s.repo, orderID, buyerID, enums.ActorRoleBuyer)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, order)
}

func (s *service) GetForMerchant(ctx context.Context, merchantID, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.loadScoped(ctx, s.repo, orderID, merchantID, enums.ActorRoleMerchant)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, order)
}

func (s *service) detail(ctx context.Context, order *models.Order) (*OrderDetail, error) {
	history, err := s.repo.FindHistory(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
	}
	out := &OrderDetail{Order: *order, History: history}
	if s.reviews != nil {
		review, err := s.reviews.FindByOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
		}
		out.Review = review
	}
	return out, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*BuyerOrderList, error) {
	list, err := s.repo.ListForBuyer(ctx, buyerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return list, nil
}

func (s *service) ListForMerchant(ctx context.Context, merchantID uuid.UUID, filters MerchantOrderFilters) (*MerchantOrderList, error) {
	list, err := s.repo.ListForMerchant(ctx, merchantID, filters, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list merchant orders")
	}
	return list, nil
}

func (s *service) ListScheduledForMerchant(ctx context.Context, merchantID uuid.UUID) ([]MerchantOrderSummary, error) {
	list, err := s.repo.ListScheduledForMerchant(ctx, merchantID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list scheduled orders")
	}
	return list, nil
}
