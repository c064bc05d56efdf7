package controllers

import (
	"net/http"
	"strings"

	"github.com/nbox-app/nbox-backend/api/responses"
	"github.com/nbox-app/nbox-backend/api/validators"
	"github.com/nbox-app/nbox-backend/internal/orders"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
	"github.com/nbox-app/nbox-backend/pkg/logger"
)

const (
	defaultMerchantPageSize = 20
	maxMerchantPageSize     = 100
)

// MerchantOrderList returns the merchant's paged order book. Unpaid and
// not-yet-due scheduled orders stay hidden.
func MerchantOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "pageSize", defaultMerchantPageSize, 1, maxMerchantPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := orders.MerchantOrderFilters{
			Page:     page,
			PageSize: pageSize,
			Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.ListForMerchant(r.Context(), merchantID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Orders fetched", list)
	}
}

// MerchantScheduledOrders lists future scheduled orders, soonest first.
func MerchantScheduledOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListScheduledForMerchant(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Scheduled orders fetched", list)
	}
}

// MerchantOrderDetail returns one order with buyer contact, review, and timeline.
func MerchantOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetForMerchant(r.Context(), merchantID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Order fetched", detail)
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type prepareOrderRequest struct {
	PreparationTime int `json:"preparationTime" validate:"required,min=1,max=1440"`
}

// MerchantOrderAccept moves a pending order into accepted.
func MerchantOrderAccept(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, "Order accepted", func(svc orders.Service, r *http.Request, input orders.TransitionInput) error {
		return svc.Accept(r.Context(), input)
	})
}

// MerchantOrderCancel cancels a pending order and refunds the payment.
func MerchantOrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, "Order canceled", func(svc orders.Service, r *http.Request, input orders.TransitionInput) error {
		if r.ContentLength > 0 {
			var body cancelOrderRequest
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				return err
			}
			input.Reason = validators.SanitizeString(body.Reason, 500)
		}
		return svc.Cancel(r.Context(), input)
	})
}

// MerchantOrderPrepare starts preparation with the provided time budget.
func MerchantOrderPrepare(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, "Order preparation started", func(svc orders.Service, r *http.Request, input orders.TransitionInput) error {
		var body prepareOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		input.PreparationTime = body.PreparationTime
		return svc.Prepare(r.Context(), input)
	})
}

// MerchantOrderReady marks a prepared order as out for delivery.
func MerchantOrderReady(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, "Order out for delivery", func(svc orders.Service, r *http.Request, input orders.TransitionInput) error {
		return svc.Ready(r.Context(), input)
	})
}

// MerchantOrderComplete closes out a delivered order.
func MerchantOrderComplete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, "Order completed", func(svc orders.Service, r *http.Request, input orders.TransitionInput) error {
		return svc.Complete(r.Context(), input)
	})
}

func transitionHandler(svc orders.Service, logg *logger.Logger, message string, run func(svc orders.Service, r *http.Request, input orders.TransitionInput) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.TransitionInput{OrderID: orderID, ActorID: merchantID}
		if err := run(svc, r, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, message, nil)
	}
}
