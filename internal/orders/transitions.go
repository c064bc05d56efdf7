package orders

import (
	"fmt"

	"github.com/nbox-app/nbox-backend/pkg/enums"
	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
)

// Action names a lifecycle operation a caller can take on an order.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionCancel   Action = "cancel"
	ActionPrepare  Action = "prepare"
	ActionReady    Action = "ready"
	ActionDeliver  Action = "deliver"
	ActionComplete Action = "complete"
)

// transition pins an action to its only legal edge and the actor
// allowed to take it. This table is the single source of truth for the
// order lifecycle.
type transition struct {
	From  enums.OrderStatus
	To    enums.OrderStatus
	Actor enums.ActorRole
	Event enums.OutboxEventType
}

var transitions = map[Action]transition{
	ActionAccept:   {From: enums.OrderStatusPending, To: enums.OrderStatusAccepted, Actor: enums.ActorRoleMerchant, Event: enums.EventOrderAccepted},
	ActionCancel:   {From: enums.OrderStatusPending, To: enums.OrderStatusCanceled, Actor: enums.ActorRoleMerchant, Event: enums.EventOrderCanceled},
	ActionPrepare:  {From: enums.OrderStatusAccepted, To: enums.OrderStatusPreparing, Actor: enums.ActorRoleMerchant, Event: enums.EventOrderPreparing},
	ActionReady:    {From: enums.OrderStatusPreparing, To: enums.OrderStatusOutForDelivery, Actor: enums.ActorRoleMerchant, Event: enums.EventOrderOutForDelivery},
	ActionDeliver:  {From: enums.OrderStatusOutForDelivery, To: enums.OrderStatusDelivered, Actor: enums.ActorRoleBuyer, Event: enums.EventOrderDelivered},
	ActionComplete: {From: enums.OrderStatusDelivered, To: enums.OrderStatusCompleted, Actor: enums.ActorRoleMerchant, Event: enums.EventOrderCompleted},
}

// transitionFor resolves the edge for an action or fails validation.
func transitionFor(action Action) (transition, error) {
	tr, ok := transitions[action]
	if !ok {
		return transition{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order action %q", action))
	}
	return tr, nil
}

// invalidTransitionError builds the conflict returned when the CAS
// finds the order in a different status than the action requires.
func invalidTransitionError(current, required enums.OrderStatus) error {
	return pkgerrors.NewReason(
		pkgerrors.ReasonInvalidStatusTransition,
		fmt.Sprintf("order is %s, must be %s", current, required),
	)
}
