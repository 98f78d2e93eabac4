package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Client is a minimal API client for the checkout service
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: http.DefaultClient}
}

// CheckoutSessionResponse is the reply to a create-checkout-session call
type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

// SessionDetails is the display snapshot of a checkout session
type SessionDetails struct {
	ID            string `json:"id"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	PaymentStatus string `json:"payment_status"`
	PaymentMethod *struct {
		Brand string `json:"brand"`
		Last4 string `json:"last4"`
	} `json:"payment_method,omitempty"`
}

// CreateCheckoutSession starts a hosted checkout for the given package and
// returns the redirect URL the buyer should be forwarded to
func (c *Client) CreateCheckoutSession(pkg string, addonEnabled bool, addonAmount float64) (string, error) {
	body := map[string]interface{}{
		"package":             pkg,
		"viewingAddonEnabled": addonEnabled,
		"viewingAddonAmount":  addonAmount,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/api/create-checkout-session", strings.NewReader(string(payload)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create checkout session: unexpected status %d", resp.StatusCode)
	}

	var out CheckoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// Session fetches the display snapshot for a session id
func (c *Client) Session(id string) (*SessionDetails, error) {
	resp, err := c.HTTP.Get(c.BaseURL + "/api/session/" + url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get session: unexpected status %d", resp.StatusCode)
	}

	var out SessionDetails
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports whether the service answers its health endpoint
func (c *Client) Health() error {
	resp, err := c.HTTP.Get(c.BaseURL + "/health")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health: unexpected status %d", resp.StatusCode)
	}
	return nil
}
