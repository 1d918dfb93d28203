package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics counts inbound payment-notification outcomes. Orphaned
// deliveries (no local payment for the order code) and post-signature
// failures are the signals operators alert on.
type WebhookMetrics struct {
	processed        *prometheus.CounterVec
	duplicates       *prometheus.CounterVec
	invalidSignature *prometheus.CounterVec
	orphaned         *prometheus.CounterVec
	failures         *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_processed_total",
		Help: "Webhook deliveries that resulted in a state transition.",
	}, []string{"provider"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_duplicate_total",
		Help: "Webhook deliveries suppressed by the idempotency store.",
	}, []string{"provider"})
	invalidSignature := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_invalid_signature_total",
		Help: "Webhook deliveries rejected for a bad signature.",
	}, []string{"provider"})
	orphaned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_orphaned_total",
		Help: "Webhook deliveries with no matching local payment.",
	}, []string{"provider"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_failure_total",
		Help: "Webhook deliveries that failed after signature verification.",
	}, []string{"provider"})
	reg.MustRegister(processed, duplicates, invalidSignature, orphaned, failures)
	return &WebhookMetrics{
		processed:        processed,
		duplicates:       duplicates,
		invalidSignature: invalidSignature,
		orphaned:         orphaned,
		failures:         failures,
	}
}

// IncProcessed increments the processed counter for the named provider.
func (m *WebhookMetrics) IncProcessed(provider string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncDuplicate increments the duplicate-delivery counter.
func (m *WebhookMetrics) IncDuplicate(provider string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncInvalidSignature increments the rejected-signature counter.
func (m *WebhookMetrics) IncInvalidSignature(provider string) {
	if m == nil || m.invalidSignature == nil {
		return
	}
	m.invalidSignature.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncOrphaned increments the no-local-payment counter.
func (m *WebhookMetrics) IncOrphaned(provider string) {
	if m == nil || m.orphaned == nil {
		return
	}
	m.orphaned.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncFailure increments the post-signature failure counter.
func (m *WebhookMetrics) IncFailure(provider string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(provider)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
