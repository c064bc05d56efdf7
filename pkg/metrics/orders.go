package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics tracks the order lifecycle: transitions, rejected
// transitions and webhook settlement outcomes.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
}

// NewOrderMetrics registers order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions by from/to status.",
	}, []string{"from", "to"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_rejected_total",
		Help: "Disallowed transition attempts by from/to status.",
	}, []string{"from", "to"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment webhook events by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(transitions, rejected, webhooks)
	return &OrderMetrics{
		transitions: transitions,
		rejected:    rejected,
		webhooks:    webhooks,
	}
}

// ObserveTransition records a committed status transition.
func (m *OrderMetrics) ObserveTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveRejectedTransition records a refused transition attempt.
func (m *OrderMetrics) ObserveRejectedTransition(from, to string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveWebhook records a webhook outcome (settled, duplicate, failed).
func (m *OrderMetrics) ObserveWebhook(outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(outcome)).Inc()
}
