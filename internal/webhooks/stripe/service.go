package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/internal/inventory"
	"github.com/nbox-app/nbox-backend/internal/merchants"
	"github.com/nbox-app/nbox-backend/internal/orders"
	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
	"github.com/nbox-app/nbox-backend/pkg/logger"
	"github.com/nbox-app/nbox-backend/pkg/metrics"
	"github.com/nbox-app/nbox-backend/pkg/outbox"
	"github.com/nbox-app/nbox-backend/pkg/outbox/payloads"
)

// Outcome classifies how a webhook delivery was resolved.
type Outcome string

const (
	OutcomeSettled   Outcome = "settled"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

// SessionFetcher re-reads a checkout session from the provider.
type SessionFetcher interface {
	Fetch(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockLedger interface {
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (*inventory.Adjustment, error)
}

// claimLost aborts the settlement transaction when another delivery
// already claimed the order.
var claimLost = errors.New("transaction already claimed")

type ServiceParams struct {
	OrdersRepo        orders.Repository
	MerchantSvc       merchants.Service
	Ledger            stockLedger
	Sessions          SessionFetcher
	Guard             eventGuard
	TransactionRunner txRunner
	Publisher         outboxPublisher
	Metrics           *metrics.OrderMetrics
	Logger            *logger.Logger
}

// Service settles paid checkout sessions: it claims the order by
// transaction id, decrements stock and emits notification events, all
// in one transaction.
type Service struct {
	ordersRepo  orders.Repository
	merchantSvc merchants.Service
	ledger      stockLedger
	sessions    SessionFetcher
	guard       eventGuard
	tx          txRunner
	outbox      outboxPublisher
	metrics     *metrics.OrderMetrics
	logg        *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.MerchantSvc == nil {
		return nil, fmt.Errorf("merchant service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session fetcher required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{
		ordersRepo:  params.OrdersRepo,
		merchantSvc: params.MerchantSvc,
		ledger:      params.Ledger,
		sessions:    params.Sessions,
		guard:       params.Guard,
		tx:          params.TransactionRunner,
		outbox:      params.Publisher,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// HandleEvent processes one verified Stripe event. Redelivered events
// resolve to OutcomeDuplicate without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (Outcome, error) {
	if event == nil || event.Data == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return OutcomeIgnored, nil
	}

	// Cheap redelivery screen. Redis being down never blocks
	// settlement; the conditional claim below is the durable check.
	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, string(event.ID))
		if err != nil {
			s.logError(ctx, "webhook idempotency guard unavailable", err)
		} else if seen {
			s.observe(OutcomeDuplicate)
			return OutcomeDuplicate, nil
		}
	}

	var raw stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &raw); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	// Never trust the delivered payload for money decisions.
	sess, err := s.sessions.Fetch(ctx, raw.ID)
	if err != nil {
		s.unmark(ctx, event)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch checkout session")
	}

	orderID, err := uuid.Parse(sess.Metadata["orderId"])
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	outcome, err := s.settle(ctx, orderID, sess, time.Unix(event.Created, 0).UTC())
	if err != nil {
		s.unmark(ctx, event)
		s.observe("failed")
		return "", err
	}
	s.observe(outcome)
	return outcome, nil
}

func (s *Service) settle(ctx context.Context, orderID uuid.UUID, sess *stripe.CheckoutSession, eventTime time.Time) (Outcome, error) {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	cfg, err := s.merchantSvc.GetConfig(ctx, order.MerchantID)
	if err != nil {
		return "", err
	}

	startStatus := enums.OrderStatusPending
	if cfg.AutoAcceptEnabled {
		startStatus = enums.OrderStatusAccepted
	}

	updates := map[string]any{"order_status": startStatus}
	paid := sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	if paid {
		updates["payment_status"] = enums.PaymentStatusPaid
		updates["payment_date"] = eventTime
	}
	scheduledAt := scheduledFromMetadata(sess.Metadata)
	if scheduledAt != nil {
		updates["scheduled_at"] = *scheduledAt
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		claimed, err := repo.ClaimTransaction(ctx, order.ID, sess.ID, updates)
		if err != nil {
			return fmt.Errorf("claim transaction: %w", err)
		}
		if !claimed {
			return claimLost
		}

		if err := repo.AppendHistory(ctx, &models.OrderStatusHistory{
			ID:         uuid.New(),
			OrderID:    order.ID,
			FromStatus: enums.OrderStatusPaymentPending,
			ToStatus:   startStatus,
			Actor:      enums.ActorRoleSystem,
		}); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		lowStock := make([]payloads.LowStockProduct, 0)
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			adj, err := s.ledger.Decrement(ctx, tx, *item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if adj.LowStock {
				lowStock = append(lowStock, payloads.LowStockProduct{
					ProductID: adj.ProductID,
					Name:      adj.ProductName,
					Remaining: adj.NewStock,
					Threshold: adj.Threshold,
				})
			}
		}

		placed := outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Role: enums.ActorRoleSystem.String()},
			Data: payloads.OrderPlacedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				BuyerID:        order.BuyerID,
				MerchantID:     order.MerchantID,
				Total:          order.Total,
				StartingStatus: startStatus,
				ScheduledAt:    scheduledAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, placed); err != nil {
			return fmt.Errorf("emit order placed: %w", err)
		}

		if len(lowStock) > 0 && cfg.LowStockAlertsEnabled {
			alert := outbox.DomainEvent{
				EventType:     enums.EventInventoryLowStock,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{Role: enums.ActorRoleSystem.String()},
				Data: payloads.LowStockEvent{
					MerchantID: order.MerchantID,
					OrderID:    order.ID,
					Products:   lowStock,
				},
			}
			if err := s.outbox.Emit(ctx, tx, alert); err != nil {
				return fmt.Errorf("emit low stock: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, claimLost) {
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle order")
	}
	return OutcomeSettled, nil
}

// scheduledFromMetadata reads the slot the checkout session carried,
// normalized to UTC.
func scheduledFromMetadata(metadata map[string]string) *time.Time {
	raw := metadata["scheduledDate"]
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

// unmark releases the redis guard so the provider's retry is not
// swallowed by a transient failure.
func (s *Service) unmark(ctx context.Context, event *stripe.Event) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Delete(ctx, string(event.ID)); err != nil {
		s.logError(ctx, "release webhook idempotency key", err)
	}
}

func (s *Service) observe(outcome Outcome) {
	if s.metrics != nil {
		s.metrics.ObserveWebhook(string(outcome))
	}
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}
