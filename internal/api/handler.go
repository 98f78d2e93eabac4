package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightmove/checkout/internal/checkout"
	"github.com/brightmove/checkout/internal/pricing"
	"github.com/brightmove/checkout/internal/webhook"
)

// Handler handles HTTP requests for the API
type Handler struct {
	pricing   *pricing.Resolver
	checkout  *checkout.Service
	verifier  *webhook.Verifier
	events    *webhook.Processor
	version   string
	buildTime string
	gitCommit string
	startTime time.Time
}

// NewHandler creates a new API handler
func NewHandler(resolver *pricing.Resolver, svc *checkout.Service, verifier *webhook.Verifier, events *webhook.Processor, version, buildTime, gitCommit string) *Handler {
	return &Handler{
		pricing:   resolver,
		checkout:  svc,
		verifier:  verifier,
		events:    events,
		version:   version,
		buildTime: buildTime,
		gitCommit: gitCommit,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/create-checkout-session", h.createCheckoutSession)
		r.Get("/session/{id}", h.getSession)

		// The webhook handler consumes the raw body itself; no body-parsing
		// middleware may run ahead of it or the signature check breaks.
		r.Post("/webhooks/stripe", h.stripeWebhook)
	})

	// Operational endpoints
	r.Get("/health", h.healthHandler)
	r.Get("/version", h.versionHandler)
}

// healthHandler provides basic health check
func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"version":   h.version,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// versionHandler returns version information
func (h *Handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"version":    h.version,
		"build_time": h.buildTime,
		"git_commit": h.gitCommit,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (h *Handler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes a standardized error response
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: r.Header.Get("X-Request-ID"),
	}

	h.writeJSONResponse(w, statusCode, response)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
