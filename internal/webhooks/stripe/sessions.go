package stripewebhook

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	pkgstripe "github.com/nbox-app/nbox-backend/pkg/stripe"
)

type stripeSessionFetcher struct{}

// NewSessionFetcher wraps the initialized Stripe client so settlement
// always re-reads the session from the provider.
func NewSessionFetcher(api *pkgstripe.Client) SessionFetcher {
	if api == nil {
		return nil
	}
	return &stripeSessionFetcher{}
}

func (f *stripeSessionFetcher) Fetch(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	return session.Get(sessionID, params)
}
