package processor

import (
	"context"
	"errors"
	"net/http"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	apperrors "github.com/brightmove/checkout/internal/errors"
	"github.com/brightmove/checkout/internal/models"
)

// Client is the injected payment processor capability. Components receive a
// constructed Client rather than touching the SDK's process-wide singleton,
// so tests can substitute a fake.
type Client interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeClient implements Client against the Stripe API
type StripeClient struct {
	api *client.API
}

// NewStripeClient constructs a Stripe-backed client with its own API handle
func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return c.api.CheckoutSessions.New(params)
}

func (c *StripeClient) GetCheckoutSession(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return c.api.CheckoutSessions.Get(id, params)
}

// MapError translates an SDK error into the application taxonomy. An unknown
// session id becomes ErrNotFound; everything else (transport, auth, request
// rejection) is a ProcessorError carrying the processor's detail.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound {
			return apperrors.ErrNotFound
		}
	}
	return apperrors.ProcessorError{Op: op, Err: err}
}

// CardSummary projects the card brand and last four digits out of a session's
// expanded payment intent. Every level of the chain may be absent (the charge
// attaches asynchronously, and not every payment has a card), in which case it
// returns nil.
func CardSummary(sess *stripe.CheckoutSession) *models.CardSummary {
	if sess == nil || sess.PaymentIntent == nil {
		return nil
	}
	charge := sess.PaymentIntent.LatestCharge
	if charge == nil || charge.PaymentMethodDetails == nil {
		return nil
	}
	card := charge.PaymentMethodDetails.Card
	if card == nil || card.Last4 == "" {
		return nil
	}
	return &models.CardSummary{
		Brand: string(card.Brand),
		Last4: card.Last4,
	}
}
