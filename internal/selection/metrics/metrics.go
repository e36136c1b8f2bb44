package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for draws and replacements. All methods are nil-safe.
type Metrics struct {
	// Allocation outcomes: "success" or an error kind
	Allocations *prometheus.CounterVec

	// Replacement outcomes: "success" or an error kind
	Replacements *prometheus.CounterVec

	// Experts seated by category
	ExpertsDrawn *prometheus.CounterVec

	// End-to-end latency of service operations
	OperationLatency *prometheus.HistogramVec

	// Audit events the publisher refused
	AuditEmitFailures prometheus.Counter
}

// New registers the selection metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Allocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewdraw_selection_allocations_total",
			Help: "Total allocation requests by outcome",
		}, []string{"outcome"}),

		Replacements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewdraw_selection_replacements_total",
			Help: "Total replacement requests by outcome",
		}, []string{"outcome"}),

		ExpertsDrawn: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewdraw_selection_experts_drawn_total",
			Help: "Total experts seated by initial draws, by category",
		}, []string{"category"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reviewdraw_selection_operation_duration_seconds",
			Help:    "Duration of selection operations including store round trips",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}), // operation: "allocate", "replace"

		AuditEmitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "reviewdraw_selection_audit_emit_failures_total",
			Help: "Audit events that could not be handed to the publisher",
		}),
	}
}

func (m *Metrics) IncAllocation(outcome string) {
	if m != nil {
		m.Allocations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncReplacement(outcome string) {
	if m != nil {
		m.Replacements.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) AddExpertsDrawn(category string, n int) {
	if m != nil && n > 0 {
		m.ExpertsDrawn.WithLabelValues(category).Add(float64(n))
	}
}

func (m *Metrics) ObserveLatency(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) IncAuditEmitFailure() {
	if m != nil {
		m.AuditEmitFailures.Inc()
	}
}
