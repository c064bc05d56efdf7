package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nbox-app/nbox-backend/api/responses"
	"github.com/nbox-app/nbox-backend/api/validators"
	"github.com/nbox-app/nbox-backend/internal/checkout"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
	"github.com/nbox-app/nbox-backend/pkg/logger"
)

type checkoutRequest struct {
	AddressID    string  `json:"addressId" validate:"required,uuid"`
	ScheduleTime *string `json:"scheduleTime,omitempty"`
	Note         *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// Checkout converts the buyer's cart into a pending order and returns
// the hosted payment session the client redirects to.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cartID, err := pathUUID(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := uuid.Parse(body.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid addressId"))
			return
		}

		input := checkout.CheckoutInput{
			AddressID: addressID,
			Note:      body.Note,
		}
		if body.ScheduleTime != nil {
			slot, err := time.Parse(time.RFC3339, *body.ScheduleTime)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "scheduleTime must be RFC3339"))
				return
			}
			input.ScheduleTime = &slot
		}

		result, err := svc.Execute(r.Context(), buyerID, cartID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "Order created", result)
	}
}
