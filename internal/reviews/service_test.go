package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
)

type stubOrders struct {
	order *models.Order
}

func (s *stubOrders) FindForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID || s.order.BuyerID != buyerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

type stubRepo struct {
	existing *models.Review
	created  *models.Review
}

func (s *stubRepo) Create(ctx context.Context, review *models.Review) error {
	s.created = review
	return nil
}

func (s *stubRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	if s.existing == nil || s.existing.OrderID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.existing, nil
}

func deliveredOrder() *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		BuyerID:     uuid.New(),
		MerchantID:  uuid.New(),
		OrderStatus: enums.OrderStatusDelivered,
	}
}

func newService(t *testing.T, order *models.Order, existing *models.Review) (Service, *stubRepo) {
	t.Helper()
	repo := &stubRepo{existing: existing}
	svc, err := NewService(repo, &stubOrders{order: order})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func TestSubmitCreatesReview(t *testing.T) {
	order := deliveredOrder()
	svc, repo := newService(t, order, nil)
	comment := "great coffee"

	review, err := svc.Submit(context.Background(), SubmitInput{
		OrderID: order.ID,
		BuyerID: order.BuyerID,
		Rating:  5,
		Comment: &comment,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if review.MerchantID != order.MerchantID || review.Rating != 5 {
		t.Fatalf("unexpected review %+v", review)
	}
	if repo.created == nil {
		t.Fatal("review was not persisted")
	}
}

func TestSubmitDuplicateIsConflict(t *testing.T) {
	order := deliveredOrder()
	svc, _ := newService(t, order, &models.Review{OrderID: order.ID})

	_, err := svc.Submit(context.Background(), SubmitInput{
		OrderID: order.ID,
		BuyerID: order.BuyerID,
		Rating:  4,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSubmitRequiresTerminalStatus(t *testing.T) {
	order := deliveredOrder()
	order.OrderStatus = enums.OrderStatusPreparing
	svc, _ := newService(t, order, nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		OrderID: order.ID,
		BuyerID: order.BuyerID,
		Rating:  4,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSubmitRejectsOutOfRangeRating(t *testing.T) {
	order := deliveredOrder()
	svc, _ := newService(t, order, nil)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(context.Background(), SubmitInput{
			OrderID: order.ID,
			BuyerID: order.BuyerID,
			Rating:  rating,
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
	}
}

func TestSubmitForeignOrderNotFound(t *testing.T) {
	order := deliveredOrder()
	svc, _ := newService(t, order, nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		OrderID: order.ID,
		BuyerID: uuid.New(),
		Rating:  4,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetForOrderReturnsReview(t *testing.T) {
	order := deliveredOrder()
	svc, _ := newService(t, order, &models.Review{OrderID: order.ID, Rating: 3})

	review, err := svc.GetForOrder(context.Background(), order.ID, order.BuyerID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if review.Rating != 3 {
		t.Fatalf("unexpected review %+v", review)
	}

	_, err = svc.GetForOrder(context.Background(), order.ID, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign buyer, got %v", err)
	}
}
