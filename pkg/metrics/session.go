package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics records cart-session protocol activity.
type SessionMetrics struct {
	sessionsStarted prometheus.Counter
	messages        *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	salesRecorded   prometheus.Counter
	publishFailures prometheus.Counter
}

// NewSessionMetrics registers the session metrics on the provided registerer.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	if reg == nil {
		return &SessionMetrics{}
	}
	sessionsStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sessions_started_total",
		Help: "Cart sessions started by the operator.",
	})
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_messages_total",
		Help: "Inbound cart messages by filter result.",
	}, []string{"result"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Classified checkout outcomes.",
	}, []string{"outcome"})
	salesRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sales_recorded_total",
		Help: "Sale records persisted.",
	})
	publishFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "status_publish_failures_total",
		Help: "Best-effort payment-status publishes that failed.",
	})
	reg.MustRegister(sessionsStarted, messages, outcomes, salesRecorded, publishFailures)
	return &SessionMetrics{
		sessionsStarted: sessionsStarted,
		messages:        messages,
		outcomes:        outcomes,
		salesRecorded:   salesRecorded,
		publishFailures: publishFailures,
	}
}

// IncSessionStarted counts a new cart session.
func (m *SessionMetrics) IncSessionStarted() {
	if m == nil || m.sessionsStarted == nil {
		return
	}
	m.sessionsStarted.Inc()
}

// IncMessage counts an inbound cart message by filter result.
func (m *SessionMetrics) IncMessage(result string) {
	if m == nil || m.messages == nil {
		return
	}
	m.messages.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncOutcome counts a classified checkout outcome.
func (m *SessionMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncSaleRecorded counts a persisted sale.
func (m *SessionMetrics) IncSaleRecorded() {
	if m == nil || m.salesRecorded == nil {
		return
	}
	m.salesRecorded.Inc()
}

// IncPublishFailure counts a failed payment-status publish.
func (m *SessionMetrics) IncPublishFailure() {
	if m == nil || m.publishFailures == nil {
		return
	}
	m.publishFailures.Inc()
}

func normalizeLabel(label string) string {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" {
		return "unknown"
	}
	return label
}
