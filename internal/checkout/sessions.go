package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/nbox-app/nbox-backend/pkg/config"
	pkgstripe "github.com/nbox-app/nbox-backend/pkg/stripe"
)

// SessionLineItem is one hosted-payment line, amount in cents.
type SessionLineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest carries everything Stripe needs to build the hosted
// checkout page for a pending order.
type SessionRequest struct {
	OrderID     uuid.UUID
	LineItems   []SessionLineItem
	ScheduledAt *time.Time
}

// Session identifies a created hosted checkout session.
type Session struct {
	ID  string
	URL string
}

// Sessions creates hosted payment sessions.
type Sessions interface {
	Create(ctx context.Context, req SessionRequest) (*Session, error)
}

type stripeSessions struct {
	successURL string
	cancelURL  string
}

// NewStripeSessions builds the Stripe-backed session creator.
func NewStripeSessions(api *pkgstripe.Client, cfg config.StripeConfig) Sessions {
	if api == nil {
		return nil
	}
	return &stripeSessions{
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

func (s *stripeSessions) Create(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(s.successURL),
		CancelURL:          stripe.String(s.cancelURL),
	}
	params.Context = ctx
	params.AddMetadata("orderId", req.OrderID.String())
	if req.ScheduledAt != nil {
		params.AddMetadata("scheduledDate", req.ScheduledAt.UTC().Format(time.RFC3339))
	}
	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}
