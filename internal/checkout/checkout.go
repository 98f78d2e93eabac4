package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v76"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/brightmove/checkout/internal/errors"
	"github.com/brightmove/checkout/internal/models"
	"github.com/brightmove/checkout/internal/processor"
)

// Success and failure routes on the front end. The success route carries the
// session id placeholder the processor substitutes when redirecting back.
const (
	successRoute = "/success?session_id={CHECKOUT_SESSION_ID}"
	cancelRoute  = "/failed"
)

const currency = "gbp"

// Service orchestrates hosted checkout sessions against the payment processor.
// It holds no local state between requests; the processor is the system of
// record for every session it mints.
type Service struct {
	client      processor.Client
	frontendURL string
	timeout     time.Duration
	group       singleflight.Group
}

// NewService creates a checkout service. frontendURL is the configured front-end
// origin the redirect URLs are derived from; timeout bounds each outbound
// processor call.
func NewService(client processor.Client, frontendURL string, timeout time.Duration) *Service {
	return &Service{
		client:      client,
		frontendURL: frontendURL,
		timeout:     timeout,
	}
}

// CreateSession mints a hosted payment session for the priced order and returns
// the processor-issued redirect URL verbatim. One best-effort call, no retry:
// a failed call surfaces as a ProcessorError and the buyer re-enters the flow
// from the pricing step, which is idempotent.
func (s *Service) CreateSession(ctx context.Context, order models.PricedOrder) (models.CreatedSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// The order reference travels as client_reference_id and metadata so a
	// double-submitted intent is at least distinguishable processor-side.
	orderRef := uuid.NewString()

	metadata := make(map[string]string, len(order.Metadata)+1)
	for k, v := range order.Metadata {
		metadata[k] = v
	}
	metadata[models.MetaKeyOrderReference] = orderRef

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(s.frontendURL + successRoute),
		CancelURL:          stripe.String(s.frontendURL + cancelRoute),
		ClientReferenceID:  stripe.String(orderRef),
		Metadata:           metadata,
	}
	for _, li := range order.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Label),
				},
				UnitAmount: stripe.Int64(li.UnitAmountMinor),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	sess, err := s.client.CreateCheckoutSession(ctx, params)
	if err != nil {
		return models.CreatedSession{}, apperrors.ProcessorError{Op: "create checkout session", Err: err}
	}
	return models.CreatedSession{URL: sess.URL, OrderReference: orderRef}, nil
}

// GetSession fetches the processor's current view of a session for display.
// The payment intent and its latest charge are expanded in the same call so the
// result page never races a charge that has not been attached yet. Concurrent
// reads for the same id are collapsed into one processor call.
func (s *Service) GetSession(ctx context.Context, id string) (models.SessionSnapshot, error) {
	if id == "" {
		return models.SessionSnapshot{}, apperrors.ErrNotFound
	}

	v, err, _ := s.group.Do(id, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		params := &stripe.CheckoutSessionParams{}
		params.AddExpand("payment_intent.latest_charge")
		params.AddExpand("line_items")

		sess, err := s.client.GetCheckoutSession(ctx, id, params)
		if err != nil {
			return models.SessionSnapshot{}, processor.MapError("retrieve session", err)
		}

		return models.SessionSnapshot{
			ID:            sess.ID,
			AmountTotal:   sess.AmountTotal,
			Currency:      string(sess.Currency),
			PaymentStatus: string(sess.PaymentStatus),
			PaymentMethod: processor.CardSummary(sess),
		}, nil
	})
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	return v.(models.SessionSnapshot), nil
}
