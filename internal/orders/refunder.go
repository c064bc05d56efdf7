package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/charge"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/refund"

	pkgstripe "github.com/nbox-app/nbox-backend/pkg/stripe"
)

type stripeRefunder struct{}

// NewStripeRefunder wraps the initialized Stripe client so the order
// service can be tested with a fake.
func NewStripeRefunder(api *pkgstripe.Client) Refunder {
	if api == nil {
		return nil
	}
	return &stripeRefunder{}
}

// Refund resolves the checkout session's payment intent, lists its
// charges and refunds the first one. An already-refunded charge is
// treated as success.
func (r *stripeRefunder) Refund(ctx context.Context, checkoutSessionID string) error {
	if checkoutSessionID == "" {
		return fmt.Errorf("checkout session id required")
	}

	sessParams := &stripe.CheckoutSessionParams{}
	sessParams.Context = ctx
	sess, err := session.Get(checkoutSessionID, sessParams)
	if err != nil {
		return fmt.Errorf("retrieve checkout session: %w", err)
	}
	if sess.PaymentIntent == nil {
		return fmt.Errorf("checkout session %s has no payment intent", checkoutSessionID)
	}

	listParams := &stripe.ChargeListParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
	}
	listParams.Context = ctx
	iter := charge.List(listParams)
	if !iter.Next() {
		if err := iter.Err(); err != nil {
			return fmt.Errorf("list charges: %w", err)
		}
		return fmt.Errorf("no charge found for payment intent %s", sess.PaymentIntent.ID)
	}
	ch := iter.Charge()

	refundParams := &stripe.RefundParams{
		Charge: stripe.String(ch.ID),
	}
	refundParams.Context = ctx
	if _, err := refund.New(refundParams); err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeChargeAlreadyRefunded {
			return nil
		}
		return fmt.Errorf("create refund: %w", err)
	}
	return nil
}
