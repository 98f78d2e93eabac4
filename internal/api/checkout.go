package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/brightmove/checkout/internal/errors"
	"github.com/brightmove/checkout/internal/logger"
	"github.com/brightmove/checkout/internal/metrics"
	"github.com/brightmove/checkout/internal/models"
	"github.com/brightmove/checkout/internal/webhook"
)

// maxWebhookBody caps the raw payload read for signature verification
const maxWebhookBody = 1 << 16

// createCheckoutSession prices the order and mints a hosted payment session
func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Package             string  `json:"package"`
		ViewingAddonEnabled bool    `json:"viewingAddonEnabled"`
		ViewingAddonAmount  float64 `json:"viewingAddonAmount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	req := models.CheckoutRequest{Package: models.Package(body.Package)}
	if body.ViewingAddonEnabled {
		req.Addon = &models.AddonSelection{Enabled: true, Amount: body.ViewingAddonAmount}
	}

	order, err := h.pricing.Resolve(req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidPackage):
			h.writeErrorResponse(w, r, http.StatusBadRequest, "Invalid package selection")
		case errors.Is(err, apperrors.ErrInvalidAddonAmount):
			h.writeErrorResponse(w, r, http.StatusBadRequest, "Viewing add-on amount must be greater than zero")
		default:
			h.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
		}
		metrics.RecordCheckoutSession("rejected")
		return
	}

	created, err := h.checkout.CreateSession(ctx, order)
	if err != nil {
		// Full detail server-side, opaque failure to the buyer
		logger.WithContext(ctx).Error("Failed to create checkout session",
			"error", err,
			"package", order.Metadata[models.MetaKeyPackage],
		)
		metrics.RecordCheckoutSession("processor_error")
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	logger.WithContext(ctx).Info("Checkout session created",
		"order_reference", created.OrderReference,
		"package", order.Metadata[models.MetaKeyPackage],
		"total_pence", order.Total(),
	)
	metrics.RecordCheckoutSession("created")
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"url": created.URL})
}

// getSession returns the processor's current view of a session for display
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	if sessionID == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "session ID is required")
		return
	}

	snap, err := h.checkout.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.RecordSessionLookup("not_found")
			h.writeErrorResponse(w, r, http.StatusNotFound, "Session not found")
			return
		}
		logger.WithContext(ctx).Error("Failed to retrieve session", "error", err, "session_id", sessionID)
		metrics.RecordSessionLookup("processor_error")
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve session")
		return
	}

	metrics.RecordSessionLookup("ok")
	h.writeJSONResponse(w, http.StatusOK, snap)
}

// stripeWebhook receives asynchronous processor events. The body is read raw,
// byte for byte, before any decoding: the signature covers the exact payload.
func (h *Handler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "unable to read request body")
		return
	}

	state, event, err := h.verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
	if state != webhook.StateVerified {
		// Rejected loudly with a client error so the processor's delivery
		// retries stay engaged. The reason is logged, never swallowed.
		logger.WithContext(ctx).Warn("Webhook delivery rejected", "error", err)
		metrics.RecordWebhookEvent("unknown", "rejected")
		h.writeErrorResponse(w, r, http.StatusBadRequest, "webhook verification failed")
		return
	}

	if err := h.events.Process(event); err != nil {
		logger.WithContext(ctx).Error("Webhook processing failed", "error", err, "event_id", event.ID)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]bool{"received": true})
}
