package webhook

import (
	"encoding/json"
	"fmt"
	"sync"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	apperrors "github.com/brightmove/checkout/internal/errors"
	"github.com/brightmove/checkout/internal/logger"
	"github.com/brightmove/checkout/internal/metrics"
	"github.com/brightmove/checkout/pkg/utils"
)

// State is the verification state of a received webhook delivery
type State int

const (
	StateUnverified State = iota
	StateVerified
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateVerified:
		return "verified"
	case StateRejected:
		return "rejected"
	default:
		return "unverified"
	}
}

// EventCheckoutSessionCompleted is the only event type acted on. It is the
// authoritative confirmation that payment completed; the success redirect
// alone proves nothing, since a buyer can reach that URL by hand.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// Event is a verified, typed processor event
type Event struct {
	ID      string
	Type    string
	Session *stripe.CheckoutSession
}

// Verifier authenticates webhook deliveries against the shared signing secret.
// Verification runs over the exact raw body bytes; a re-serialized payload
// would not match the signature.
type Verifier struct {
	secret string
}

// NewVerifier creates a verifier with the configured signing secret. An empty
// secret means every delivery is rejected rather than silently trusted.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify checks the signature header against the raw payload and, on success,
// parses the business event. The returned state is Verified or Rejected;
// Rejected deliveries must not trigger any business action and must be
// answered with a client error so the processor retries the delivery.
func (v *Verifier) Verify(payload []byte, sigHeader string) (State, *Event, error) {
	if v.secret == "" {
		return StateRejected, nil, apperrors.ErrSecretNotConfigured
	}

	stripeEvent, err := webhook.ConstructEvent(payload, sigHeader, v.secret)
	if err != nil {
		return StateRejected, nil, fmt.Errorf("%w: %v", apperrors.ErrSignatureRejected, err)
	}

	ev := &Event{ID: stripeEvent.ID, Type: string(stripeEvent.Type)}
	if ev.Type == EventCheckoutSessionCompleted {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
			return StateRejected, nil, fmt.Errorf("%w: malformed session payload: %v", apperrors.ErrSignatureRejected, err)
		}
		ev.Session = &sess
	}
	return StateVerified, ev, nil
}

// maxSeenEvents bounds the replay-suppression set
const maxSeenEvents = 4096

// Processor consumes verified events. Consumption is idempotent: replaying a
// delivery the processor has already handled logs and acks without re-running
// the completion action. The seen set is keyed by event id, the same key any
// future persistence would have to de-duplicate on.
type Processor struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// NewProcessor creates an event processor
func NewProcessor() *Processor {
	return &Processor{seen: make(map[string]struct{})}
}

// Process handles a verified event. Only checkout.session.completed carries a
// business action today; other event types are logged and acknowledged.
func (p *Processor) Process(ev *Event) error {
	if ev.Type != EventCheckoutSessionCompleted {
		logger.Debug("Ignoring webhook event", "event_id", ev.ID, "type", ev.Type)
		metrics.RecordWebhookEvent(ev.Type, "ignored")
		return nil
	}

	if p.markSeen(ev.ID) {
		logger.Info("Webhook event replayed, already handled", "event_id", ev.ID)
		metrics.RecordWebhookEvent(ev.Type, "replayed")
		return nil
	}

	sess := ev.Session
	orderRef := ""
	amount := int64(0)
	status := ""
	if sess != nil {
		orderRef = sess.ClientReferenceID
		amount = sess.AmountTotal
		status = string(sess.PaymentStatus)
	}
	logger.Info("Checkout session completed",
		"event_id", ev.ID,
		"order_reference", orderRef,
		"amount", utils.FormatPence(amount),
		"payment_status", status,
	)
	metrics.RecordWebhookEvent(ev.Type, "processed")
	return nil
}

// markSeen records the event id and reports whether it was already present
func (p *Processor) markSeen(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.seen[id]; ok {
		return true
	}
	p.seen[id] = struct{}{}
	p.order = append(p.order, id)
	if len(p.order) > maxSeenEvents {
		delete(p.seen, p.order[0])
		p.order = p.order[1:]
	}
	return false
}
