package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	stripe "github.com/stripe/stripe-go/v76"

	"github.com/brightmove/checkout/internal/checkout"
	"github.com/brightmove/checkout/internal/logger"
	"github.com/brightmove/checkout/internal/models"
	"github.com/brightmove/checkout/internal/pricing"
	"github.com/brightmove/checkout/internal/webhook"
)

func postJSON(r *chi.Mux, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCheckoutSession_ClassicNoAddon(t *testing.T) {
	mock := &mockProcessor{
		createResult: &stripe.CheckoutSession{URL: "https://checkout.stripe.com/pay/cs_test_abc"},
	}
	r := newTestRouter(mock)

	w := postJSON(r, "/api/create-checkout-session", `{"package":"classic"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["url"] != "https://checkout.stripe.com/pay/cs_test_abc" {
		t.Errorf("url = %q", resp["url"])
	}

	p := mock.createParams
	if len(p.LineItems) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(p.LineItems))
	}
	li := p.LineItems[0]
	if stripe.StringValue(li.PriceData.ProductData.Name) != "Classic Package" ||
		stripe.Int64Value(li.PriceData.UnitAmount) != 95000 ||
		stripe.Int64Value(li.Quantity) != 1 {
		t.Errorf("unexpected line item: %+v", li)
	}

	if p.Metadata[models.MetaKeyPackage] != "classic" {
		t.Errorf("metadata package = %q", p.Metadata[models.MetaKeyPackage])
	}
	if p.Metadata[models.MetaKeyAddonEnabled] != "false" {
		t.Errorf("metadata addon enabled = %q", p.Metadata[models.MetaKeyAddonEnabled])
	}
	if p.Metadata[models.MetaKeyAddonAmount] != "0" {
		t.Errorf("metadata addon amount = %q", p.Metadata[models.MetaKeyAddonAmount])
	}
}

func TestCreateCheckoutSession_PremierWithAddon(t *testing.T) {
	mock := &mockProcessor{
		createResult: &stripe.CheckoutSession{URL: "https://checkout.stripe.com/pay/cs_test_def"},
	}
	r := newTestRouter(mock)

	w := postJSON(r, "/api/create-checkout-session",
		`{"package":"premier","viewingAddonEnabled":true,"viewingAddonAmount":49.99}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	p := mock.createParams
	if len(p.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(p.LineItems))
	}
	if stripe.StringValue(p.LineItems[0].PriceData.ProductData.Name) != "Premier Package" ||
		stripe.Int64Value(p.LineItems[0].PriceData.UnitAmount) != 125000 {
		t.Errorf("unexpected package line item: %+v", p.LineItems[0])
	}
	if stripe.StringValue(p.LineItems[1].PriceData.ProductData.Name) != "Viewing add-on" ||
		stripe.Int64Value(p.LineItems[1].PriceData.UnitAmount) != 4999 {
		t.Errorf("unexpected add-on line item: %+v", p.LineItems[1])
	}
	if p.Metadata[models.MetaKeyAddonEnabled] != "true" || p.Metadata[models.MetaKeyAddonAmount] != "49.99" {
		t.Errorf("unexpected metadata: %v", p.Metadata)
	}
}

func TestCreateCheckoutSession_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Unknown package", `{"package":"luxury"}`},
		{"Missing package", `{}`},
		{"Zero add-on amount", `{"package":"classic","viewingAddonEnabled":true,"viewingAddonAmount":0}`},
		{"Negative add-on amount", `{"package":"classic","viewingAddonEnabled":true,"viewingAddonAmount":-5}`},
		{"Malformed json", `{"package":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockProcessor{
				createResult: &stripe.CheckoutSession{URL: "https://example.com"},
			}
			r := newTestRouter(mock)

			w := postJSON(r, "/api/create-checkout-session", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}

			var resp map[string]interface{}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if _, ok := resp["error"]; !ok {
				t.Error("expected error field in response body")
			}

			// Input errors never reach the processor
			if mock.createCalls != 0 {
				t.Errorf("processor called %d times, want 0", mock.createCalls)
			}
		})
	}
}

func TestCreateCheckoutSession_ProcessorFailure(t *testing.T) {
	mock := &mockProcessor{
		createErr: &stripe.Error{HTTPStatusCode: http.StatusUnauthorized, Msg: "Invalid API Key provided: sk_test_xyz"},
	}
	r := newTestRouter(mock)

	w := postJSON(r, "/api/create-checkout-session", `{"package":"classic"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	// Processor detail stays server-side
	if strings.Contains(w.Body.String(), "sk_test") {
		t.Error("response body leaks processor error detail")
	}
}

func TestGetSession_Paid(t *testing.T) {
	mock := &mockProcessor{
		getResult: &stripe.CheckoutSession{
			ID:            "cs_test_123",
			AmountTotal:   129999,
			Currency:      stripe.CurrencyGBP,
			PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			PaymentIntent: &stripe.PaymentIntent{
				LatestCharge: &stripe.Charge{
					PaymentMethodDetails: &stripe.ChargePaymentMethodDetails{
						Card: &stripe.ChargePaymentMethodDetailsCard{Brand: "mastercard", Last4: "5100"},
					},
				},
			},
		},
	}
	r := newTestRouter(mock)

	req := httptest.NewRequest("GET", "/api/session/cs_test_123", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var snap models.SessionSnapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.AmountTotal != 129999 || snap.PaymentStatus != "paid" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.PaymentMethod == nil || snap.PaymentMethod.Brand != "mastercard" || snap.PaymentMethod.Last4 != "5100" {
		t.Errorf("unexpected payment method: %+v", snap.PaymentMethod)
	}
}

func TestGetSession_UnknownID(t *testing.T) {
	mock := &mockProcessor{
		getErr: &stripe.Error{Code: stripe.ErrorCodeResourceMissing, HTTPStatusCode: http.StatusNotFound},
	}
	r := newTestRouter(mock)

	req := httptest.NewRequest("GET", "/api/session/unknown-id", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetSession_ProcessorFailure(t *testing.T) {
	mock := &mockProcessor{
		getErr: &stripe.Error{HTTPStatusCode: http.StatusInternalServerError, Msg: "something went wrong"},
	}
	r := newTestRouter(mock)

	req := httptest.NewRequest("GET", "/api/session/cs_test_123", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

// signedHeader builds a Stripe-Signature header over the exact payload bytes
func signedHeader(payload []byte, secret string, timestamp int64) string {
	msg := fmt.Sprintf("%d.%s", timestamp, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func webhookPayload(eventID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"api_version": "2023-10-16",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_123",
				"object": "checkout.session",
				"client_reference_id": "order-ref-1",
				"amount_total": 95000,
				"payment_status": "paid"
			}
		}
	}`, eventID))
}

func TestStripeWebhook_ValidSignature(t *testing.T) {
	r := newTestRouter(&mockProcessor{})

	payload := webhookPayload("evt_api_1")
	req := httptest.NewRequest("POST", "/api/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signedHeader(payload, testWebhookSecret, time.Now().Unix()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp["received"] {
		t.Error("expected received=true")
	}
}

// invalid signature should return 400
func TestStripeWebhook_InvalidSignature(t *testing.T) {
	r := newTestRouter(&mockProcessor{})

	req := httptest.NewRequest("POST", "/api/webhooks/stripe", strings.NewReader("{}"))
	req.Header.Set("Stripe-Signature", "invalid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestStripeWebhook_MissingSecret(t *testing.T) {
	logger.Init("error", "text")

	// A handler wired without a signing secret rejects every delivery
	resolver := pricing.NewResolver(pricing.DefaultCatalog())
	svc := checkout.NewService(&mockProcessor{}, "http://localhost:5173", 5*time.Second)
	h := NewHandler(resolver, svc, webhook.NewVerifier(""), webhook.NewProcessor(), "v", "b", "c")
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	payload := webhookPayload("evt_api_2")
	req := httptest.NewRequest("POST", "/api/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signedHeader(payload, testWebhookSecret, time.Now().Unix()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestStripeWebhook_ReplayAcksWithoutReprocessing(t *testing.T) {
	r := newTestRouter(&mockProcessor{})

	payload := webhookPayload("evt_api_replay")
	header := signedHeader(payload, testWebhookSecret, time.Now().Unix())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/webhooks/stripe", strings.NewReader(string(payload)))
		req.Header.Set("Stripe-Signature", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d, want 200", i+1, w.Code)
		}
	}
}
