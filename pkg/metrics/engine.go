// Package metrics exports the engine's prometheus instruments: checkout
// outcomes, register close classifications and pricing latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/registra-pos/registra-backend/pkg/enums"
)

// EngineMetrics records pricing and reconciliation outcomes. It satisfies
// the Recorder interfaces of the sales and register services. A nil receiver
// or an unregistered instance records nothing.
type EngineMetrics struct {
	salesCommitted  prometheus.Counter
	salesVoided     prometheus.Counter
	salesRejected   *prometheus.CounterVec
	registerCloses  *prometheus.CounterVec
	confirmDuration prometheus.Histogram
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	salesCommitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sales_committed_total",
		Help: "Committed sales.",
	})
	salesVoided := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sales_voided_total",
		Help: "Voided sales.",
	})
	salesRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_rejected_total",
		Help: "Rejected sale confirmations by error code.",
	}, []string{"reason"})
	registerCloses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "register_closes_total",
		Help: "Register session closes by reconciliation classification.",
	}, []string{"classification"})
	confirmDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sale_confirm_duration_seconds",
		Help:    "Duration of sale confirmation in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(salesCommitted, salesVoided, salesRejected, registerCloses, confirmDuration)
	return &EngineMetrics{
		salesCommitted:  salesCommitted,
		salesVoided:     salesVoided,
		salesRejected:   salesRejected,
		registerCloses:  registerCloses,
		confirmDuration: confirmDuration,
	}
}

// SaleCommitted increments the committed sales counter.
func (m *EngineMetrics) SaleCommitted() {
	if m == nil || m.salesCommitted == nil {
		return
	}
	m.salesCommitted.Inc()
}

// SaleVoided increments the voided sales counter.
func (m *EngineMetrics) SaleVoided() {
	if m == nil || m.salesVoided == nil {
		return
	}
	m.salesVoided.Inc()
}

// SaleRejected increments the rejection counter for the reason.
func (m *EngineMetrics) SaleRejected(reason string) {
	if m == nil || m.salesRejected == nil {
		return
	}
	m.salesRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// SessionClosed increments the close counter for the classification.
func (m *EngineMetrics) SessionClosed(classification enums.BalanceClassification) {
	if m == nil || m.registerCloses == nil {
		return
	}
	m.registerCloses.WithLabelValues(normalizeLabel(classification.String())).Inc()
}

// ObserveConfirmDuration records how long a confirmation took.
func (m *EngineMetrics) ObserveConfirmDuration(duration time.Duration) {
	if m == nil || m.confirmDuration == nil {
		return
	}
	m.confirmDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
