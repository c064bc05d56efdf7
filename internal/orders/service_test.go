package orders

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/internal/cart"
	"github.com/nbox-app/nbox-backend/internal/merchants"
	"github.com/nbox-app/nbox-backend/internal/products"
	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
	"github.com/nbox-app/nbox-backend/pkg/outbox"
	"github.com/nbox-app/nbox-backend/pkg/outbox/payloads"
	"github.com/nbox-app/nbox-backend/pkg/pagination"
	"github.com/nbox-app/nbox-backend/pkg/types"
)

type casCall struct {
	From    enums.OrderStatus
	To      enums.OrderStatus
	Updates map[string]any
}

type stubOrdersRepo struct {
	order       *models.Order
	casResult   bool
	casCalls    []casCall
	history     []models.OrderStatusHistory
	freshStatus *enums.OrderStatus
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	s.history = append(s.history, *entry)
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	if s.freshStatus != nil {
		fresh := *s.order
		fresh.OrderStatus = *s.freshStatus
		return &fresh, nil
	}
	return s.order, nil
}

func (s *stubOrdersRepo) FindForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID || s.order.BuyerID != buyerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) FindForMerchant(ctx context.Context, orderID, merchantID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID || s.order.MerchantID != merchantID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) FindHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	return s.history, nil
}

func (s *stubOrdersRepo) ClaimTransaction(ctx context.Context, orderID uuid.UUID, transactionID string, updates map[string]any) (bool, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) UpdateStatusCAS(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	s.casCalls = append(s.casCalls, casCall{From: from, To: to, Updates: updates})
	return s.casResult, nil
}

func (s *stubOrdersRepo) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*BuyerOrderList, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListForMerchant(ctx context.Context, merchantID uuid.UUID, filters MerchantOrderFilters, now time.Time) (*MerchantOrderList, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListScheduledForMerchant(ctx context.Context, merchantID uuid.UUID, now time.Time) ([]MerchantOrderSummary, error) {
	panic("not implemented")
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubRefunder struct {
	calls []string
	err   error
}

func (s *stubRefunder) Refund(ctx context.Context, sessionID string) error {
	s.calls = append(s.calls, sessionID)
	return s.err
}

type stubCartRepo struct {
	replacedItems []models.CartItem
	replacedFor   uuid.UUID
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) cart.Repository { return s }

func (s *stubCartRepo) FindCartForBuyer(ctx context.Context, cartID, buyerID uuid.UUID) (*models.Cart, []models.CartItem, error) {
	panic("not implemented")
}

func (s *stubCartRepo) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	panic("not implemented")
}

func (s *stubCartRepo) ReplaceCart(ctx context.Context, buyerID, merchantID uuid.UUID, items []models.CartItem) (*models.Cart, error) {
	s.replacedItems = items
	s.replacedFor = merchantID
	return &models.Cart{ID: uuid.New(), BuyerID: buyerID, MerchantID: merchantID}, nil
}

type stubProductsRepo struct {
	products map[uuid.UUID]models.Product
}

func (s *stubProductsRepo) WithTx(tx *gorm.DB) products.Repository { return s }

func (s *stubProductsRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *stubProductsRepo) FindVariants(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]models.ProductVariant, error) {
	return map[uuid.UUID]models.ProductVariant{}, nil
}

type stubMerchantSvc struct {
	cfg *models.MerchantConfig
}

func (s *stubMerchantSvc) GetConfig(ctx context.Context, merchantID uuid.UUID) (*models.MerchantConfig, error) {
	if s.cfg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant configuration not found")
	}
	return s.cfg, nil
}

func (s *stubMerchantSvc) SetBusinessHours(ctx context.Context, merchantID uuid.UUID, input merchants.HoursInput) (types.BusinessHours, error) {
	panic("not implemented")
}

type fixture struct {
	repo     *stubOrdersRepo
	cartRepo *stubCartRepo
	catalog  *stubProductsRepo
	merchant *stubMerchantSvc
	outbox   *stubOutbox
	refunder *stubRefunder
	svc      *service
}

func newFixture(t *testing.T, order *models.Order) *fixture {
	t.Helper()

	f := &fixture{
		repo:     &stubOrdersRepo{order: order, casResult: true},
		cartRepo: &stubCartRepo{},
		catalog:  &stubProductsRepo{products: map[uuid.UUID]models.Product{}},
		merchant: &stubMerchantSvc{cfg: &models.MerchantConfig{DeliveryTimeMinutes: 30}},
		outbox:   &stubOutbox{},
		refunder: &stubRefunder{},
	}
	svc, err := NewService(f.repo, f.cartRepo, f.catalog, f.merchant, nil, stubTx{}, f.outbox, f.refunder, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc.(*service)
	return f
}

func newPendingOrder() *models.Order {
	return &models.Order{
		ID:               uuid.New(),
		OrderNumber:      1042,
		BuyerID:          uuid.New(),
		MerchantID:       uuid.New(),
		OrderStatus:      enums.OrderStatusPending,
		PaymentStatus:    enums.PaymentStatusPaid,
		PaymentSessionID: "cs_test_123",
	}
}

func TestAcceptTransitionsPendingOrder(t *testing.T) {
	order := newPendingOrder()
	f := newFixture(t, order)

	err := f.svc.Accept(context.Background(), TransitionInput{OrderID: order.ID, ActorID: order.MerchantID})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	if len(f.repo.casCalls) != 1 {
		t.Fatalf("expected one CAS call, got %d", len(f.repo.casCalls))
	}
	call := f.repo.casCalls[0]
	if call.From != enums.OrderStatusPending || call.To != enums.OrderStatusAccepted {
		t.Fatalf("unexpected CAS edge %s -> %s", call.From, call.To)
	}

	if len(f.repo.history) != 1 {
		t.Fatalf("expected one history row, got %d", len(f.repo.history))
	}
	entry := f.repo.history[0]
	if entry.ToStatus != enums.OrderStatusAccepted || entry.Actor != enums.ActorRoleMerchant {
		t.Fatalf("unexpected history row %+v", entry)
	}

	if len(f.outbox.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(f.outbox.events))
	}
	if f.outbox.events[0].EventType != enums.EventOrderAccepted {
		t.Fatalf("unexpected event type %s", f.outbox.events[0].EventType)
	}
}

func TestTransitionRejectedLeavesStateUntouched(t *testing.T) {
	order := newPendingOrder()
	order.OrderStatus = enums.OrderStatusAccepted
	f := newFixture(t, order)
	f.repo.casResult = false

	err := f.svc.Accept(context.Background(), TransitionInput{OrderID: order.ID, ActorID: order.MerchantID})
	if !pkgerrors.IsReason(err, pkgerrors.ReasonInvalidStatusTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if !strings.Contains(err.Error(), string(enums.OrderStatusAccepted)) ||
		!strings.Contains(err.Error(), string(enums.OrderStatusPending)) {
		t.Fatalf("message should state current vs required status: %q", err.Error())
	}
	if len(f.repo.history) != 0 {
		t.Fatal("no history row may be appended on a rejected transition")
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("no event may be emitted on a rejected transition")
	}
}

func TestRejectedTransitionReportsConcurrentStatus(t *testing.T) {
	order := newPendingOrder()
	f := newFixture(t, order)
	f.repo.casResult = false
	canceled := enums.OrderStatusCanceled
	f.repo.freshStatus = &canceled

	err := f.svc.Accept(context.Background(), TransitionInput{OrderID: order.ID, ActorID: order.MerchantID})
	if !pkgerrors.IsReason(err, pkgerrors.ReasonInvalidStatusTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if !strings.Contains(err.Error(), string(enums.OrderStatusCanceled)) {
		t.Fatalf("message should name the status a concurrent transition set: %q", err.Error())
	}
}

func TestTransitionUnownedOrderIsNotFound(t *testing.T) {
	order := newPendingOrder()
	f := newFixture(t, order)

	err := f.svc.Accept(context.Background(), TransitionInput{OrderID: order.ID, ActorID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign merchant, got %v", err)
	}
}

func TestCancelIssuesRefundAfterCommit(t *testing.T) {
	order := newPendingOrder()
	f := newFixture(t, order)

	err := f.svc.Cancel(context.Background(), TransitionInput{
		OrderID: order.ID,
		ActorID: order.MerchantID,
		Reason:  "out of beans",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	call := f.repo.casCalls[0]
	if call.Updates["payment_status"] != enums.PaymentStatusRefunded {
		t.Fatalf("expected refunded payment status, got %v", call.Updates["payment_status"])
	}
	if call.Updates["cancel_reason"] != "out of beans" {
		t.Fatalf("expected cancel reason update, got %v", call.Updates["cancel_reason"])
	}
	if len(f.refunder.calls) != 1 || f.refunder.calls[0] != "cs_test_123" {
		t.Fatalf("expected refund of session cs_test_123, got %v", f.refunder.calls)
	}

	event := f.outbox.events[0]
	data, ok := event.Data.(payloads.OrderCanceledEvent)
	if !ok {
		t.Fatalf("unexpected event payload %T", event.Data)
	}
	if !data.RefundIssued || data.Reason != "out of beans" {
		t.Fatalf("unexpected cancel payload %+v", data)
	}
}

func TestCancelSkipsRefundWhenUnpaid(t *testing.T) {
	order := newPendingOrder()
	order.PaymentStatus = enums.PaymentStatusPending
	f := newFixture(t, order)

	err := f.svc.Cancel(context.Background(), TransitionInput{OrderID: order.ID, ActorID: order.MerchantID})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(f.refunder.calls) != 0 {
		t.Fatalf("no refund expected for unpaid order, got %v", f.refunder.calls)
	}
}

func TestCancelRefundFailureSurfacesAfterCommit(t *testing.T) {
	order := newPendingOrder()
	f := newFixture(t, order)
	f.refunder.err = errors.New("stripe unavailable")

	err := f.svc.Cancel(context.Background(), TransitionInput{OrderID: order.ID, ActorID: order.MerchantID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	// the cancel itself committed before the refund ran
	if len(f.repo.casCalls) != 1 || len(f.repo.history) != 1 {
		t.Fatal("cancel must commit independently of the refund outcome")
	}
}

func TestPrepareValidatesScheduledWindow(t *testing.T) {
	order := newPendingOrder()
	order.OrderStatus = enums.OrderStatusAccepted
	scheduled := time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC)
	order.ScheduledAt = &scheduled

	f := newFixture(t, order)
	f.svc.now = func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) }

	// 60 min prep + 30 min delivery lands at 11:30, hours before the slot
	err := f.svc.Prepare(context.Background(), TransitionInput{
		OrderID:         order.ID,
		ActorID:         order.MerchantID,
		PreparationTime: 60,
	})
	if !pkgerrors.IsReason(err, pkgerrors.ReasonPreparationTimeMismatch) {
		t.Fatalf("expected preparation mismatch, got %v", err)
	}
	if len(f.repo.casCalls) != 0 {
		t.Fatal("no CAS may run when the window validation fails")
	}

	// starting at 17:10, 60+30 min lands at 18:40 inside [18:00, 19:30]
	f.svc.now = func() time.Time { return time.Date(2026, 8, 29, 17, 10, 0, 0, time.UTC) }
	err = f.svc.Prepare(context.Background(), TransitionInput{
		OrderID:         order.ID,
		ActorID:         order.MerchantID,
		PreparationTime: 60,
	})
	if err != nil {
		t.Fatalf("prepare inside window: %v", err)
	}
	if got := f.repo.casCalls[0].Updates["preparation_time_minutes"]; got != 60 {
		t.Fatalf("expected preparation minutes persisted, got %v", got)
	}
}

func TestPrepareUnscheduledOrderSkipsWindowCheck(t *testing.T) {
	order := newPendingOrder()
	order.OrderStatus = enums.OrderStatusAccepted
	f := newFixture(t, order)

	err := f.svc.Prepare(context.Background(), TransitionInput{
		OrderID:         order.ID,
		ActorID:         order.MerchantID,
		PreparationTime: 20,
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if len(f.outbox.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(f.outbox.events))
	}
	data, ok := f.outbox.events[0].Data.(payloads.OrderStatusEvent)
	if !ok {
		t.Fatalf("unexpected event payload %T", f.outbox.events[0].Data)
	}
	if data.PreparationTimeMinutes != 20 {
		t.Fatalf("expected preparation time on event, got %d", data.PreparationTimeMinutes)
	}
}

func TestDeliverIsBuyerScoped(t *testing.T) {
	order := newPendingOrder()
	order.OrderStatus = enums.OrderStatusOutForDelivery
	f := newFixture(t, order)

	// merchant id must not resolve the order on the deliver edge
	err := f.svc.Deliver(context.Background(), TransitionInput{OrderID: order.ID, ActorID: order.MerchantID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for merchant on deliver, got %v", err)
	}

	if err := f.svc.Deliver(context.Background(), TransitionInput{OrderID: order.ID, ActorID: order.BuyerID}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if f.outbox.events[0].EventType != enums.EventOrderDelivered {
		t.Fatalf("unexpected event %s", f.outbox.events[0].EventType)
	}
}

func reorderFixture(t *testing.T, status enums.OrderStatus) (*fixture, *models.Order, uuid.UUID, uuid.UUID) {
	t.Helper()

	availableID := uuid.New()
	goneID := uuid.New()
	order := newPendingOrder()
	order.OrderStatus = status
	order.Items = []models.OrderItem{
		{ProductID: &availableID, Name: "House Blend", Quantity: 2},
		{ProductID: &goneID, Name: "Seasonal Roast", Quantity: 1},
	}

	f := newFixture(t, order)
	f.catalog.products[availableID] = models.Product{
		ID:           availableID,
		Name:         "House Blend",
		Inventory:    10,
		Status:       enums.ProductStatusActive,
		Availability: enums.ProductAvailabilityInStock,
	}
	f.catalog.products[goneID] = models.Product{
		ID:           goneID,
		Name:         "Seasonal Roast",
		Inventory:    0,
		Status:       enums.ProductStatusActive,
		Availability: enums.ProductAvailabilityOutOfStock,
	}
	return f, order, availableID, goneID
}

func TestReorderSkipsUnavailableProducts(t *testing.T) {
	f, order, availableID, _ := reorderFixture(t, enums.OrderStatusCompleted)

	created, err := f.svc.Reorder(context.Background(), order.BuyerID, order.ID)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if created.MerchantID != order.MerchantID {
		t.Fatalf("cart bound to wrong merchant %s", created.MerchantID)
	}
	if len(f.cartRepo.replacedItems) != 1 || f.cartRepo.replacedItems[0].ProductID != availableID {
		t.Fatalf("expected only the available product, got %+v", f.cartRepo.replacedItems)
	}
}

func TestReorderFailsOnInsufficientStock(t *testing.T) {
	f, order, availableID, _ := reorderFixture(t, enums.OrderStatusDelivered)
	short := f.catalog.products[availableID]
	short.Inventory = 1
	f.catalog.products[availableID] = short

	_, err := f.svc.Reorder(context.Background(), order.BuyerID, order.ID)
	if !pkgerrors.IsReason(err, pkgerrors.ReasonInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if len(f.cartRepo.replacedItems) != 0 {
		t.Fatal("cart must not be touched when reorder fails")
	}
}

func TestReorderFailsWhenNothingAvailable(t *testing.T) {
	f, order, availableID, _ := reorderFixture(t, enums.OrderStatusCompleted)
	gone := f.catalog.products[availableID]
	gone.Status = enums.ProductStatusInactive
	f.catalog.products[availableID] = gone

	_, err := f.svc.Reorder(context.Background(), order.BuyerID, order.ID)
	if !pkgerrors.IsReason(err, pkgerrors.ReasonProductUnavailable) {
		t.Fatalf("expected product unavailable, got %v", err)
	}
}

func TestReorderRequiresTerminalDeliveryState(t *testing.T) {
	f, order, _, _ := reorderFixture(t, enums.OrderStatusPreparing)

	_, err := f.svc.Reorder(context.Background(), order.BuyerID, order.ID)
	if !pkgerrors.IsReason(err, pkgerrors.ReasonInvalidStatusTransition) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}
