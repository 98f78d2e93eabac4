package metrics

import (
	"net/http"
	"time"
)

// Metrics interface for dependency injection
type Metrics interface {
	RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration)
	RecordCheckoutSession(outcome string)
	RecordSessionLookup(outcome string)
	RecordWebhookEvent(eventType, outcome string)
	Handler() http.Handler
}

// NoOpMetrics provides a no-op implementation
type NoOpMetrics struct{}

func (m *NoOpMetrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
}
func (m *NoOpMetrics) RecordCheckoutSession(outcome string)         {}
func (m *NoOpMetrics) RecordSessionLookup(outcome string)           {}
func (m *NoOpMetrics) RecordWebhookEvent(eventType, outcome string) {}
func (m *NoOpMetrics) Handler() http.Handler                        { return http.NotFoundHandler() }

// Global metrics instance
var globalMetrics Metrics = &NoOpMetrics{}

// Init initializes metrics (no-op for now, can be extended with Prometheus)
func Init() {
	// Keep the no-op implementation until a metrics backend is chosen
}

// SetMetrics swaps the global implementation; used by tests
func SetMetrics(m Metrics) {
	if m == nil {
		m = &NoOpMetrics{}
	}
	globalMetrics = m
}

// Handler returns the metrics handler
func Handler() http.Handler {
	return globalMetrics.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	globalMetrics.RecordHTTPRequest(method, endpoint, statusCode, duration)
}

// RecordCheckoutSession records the outcome of a session-creation attempt
func RecordCheckoutSession(outcome string) {
	globalMetrics.RecordCheckoutSession(outcome)
}

// RecordSessionLookup records the outcome of a session status read
func RecordSessionLookup(outcome string) {
	globalMetrics.RecordSessionLookup(outcome)
}

// RecordWebhookEvent records a webhook delivery by type and outcome
func RecordWebhookEvent(eventType, outcome string) {
	globalMetrics.RecordWebhookEvent(eventType, outcome)
}
