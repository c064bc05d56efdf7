package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
)

type orderLoader interface {
	FindForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
}

// SubmitInput is a buyer's review of one order.
type SubmitInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
	Rating  int
	Comment *string
}

// Service guards review writes: one review per delivered or completed
// order, buyer-scoped.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Review, error)
	GetForOrder(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Review, error)
}

type service struct {
	repo   Repository
	orders orderLoader
}

func NewService(repo Repository, orders orderLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	return &service{repo: repo, orders: orders}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	order, err := s.orders.FindForBuyer(ctx, input.OrderID, input.BuyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.OrderStatus != enums.OrderStatusDelivered && order.OrderStatus != enums.OrderStatusCompleted {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			"only delivered or completed orders can be reviewed",
		)
	}

	if _, err := s.repo.FindByOrder(ctx, order.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order has already been reviewed")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}

	review := &models.Review{
		ID:         uuid.New(),
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		MerchantID: order.MerchantID,
		Rating:     input.Rating,
		Comment:    input.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		// the unique index wins races the pre-check misses
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order has already been reviewed")
	}
	return review, nil
}

func (s *service) GetForOrder(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Review, error) {
	if _, err := s.orders.FindForBuyer(ctx, orderID, buyerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	review, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	return review, nil
}
