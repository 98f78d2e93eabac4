package sdk

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/create-checkout-session" || r.Method != "POST" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["package"] != "classic" {
			t.Errorf("package = %v", body["package"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"url": "https://checkout.stripe.com/pay/cs_1"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	url, err := c.CreateCheckoutSession("classic", false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://checkout.stripe.com/pay/cs_1" {
		t.Errorf("url = %q", url)
	}
}

func TestCreateCheckoutSession_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Bad Request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.CreateCheckoutSession("luxury", false, 0); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/session/cs_test_123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "cs_test_123",
			"amount_total":   95000,
			"currency":       "gbp",
			"payment_status": "paid",
			"payment_method": map[string]string{"brand": "visa", "last4": "4242"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	details, err := c.Session("cs_test_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.AmountTotal != 95000 || details.PaymentStatus != "paid" {
		t.Errorf("unexpected details: %+v", details)
	}
	if details.PaymentMethod == nil || details.PaymentMethod.Last4 != "4242" {
		t.Errorf("unexpected payment method: %+v", details.PaymentMethod)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New("")
	if c.BaseURL != "http://localhost:8080" {
		t.Errorf("default base url = %q", c.BaseURL)
	}
	if c.HTTP == nil {
		t.Error("expected default http client")
	}

	c = New("https://api.example.com/")
	if c.BaseURL != "https://api.example.com" {
		t.Errorf("trimmed base url = %q", c.BaseURL)
	}
}
