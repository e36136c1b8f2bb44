package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit delivery. All methods are nil-safe.
type Metrics struct {
	Delivered             prometheus.Counter
	BufferDropped         prometheus.Counter
	CircuitBreakerDropped prometheus.Counter
	PersistFailures       prometheus.Counter
	CircuitBreakerState   prometheus.Gauge
	QueueDepth            prometheus.Gauge
}

// NewMetrics registers audit delivery metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Delivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "reviewdraw_audit_delivered_total",
			Help: "Total number of audit events accepted by the sink",
		}),
		BufferDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "reviewdraw_audit_buffer_dropped_total",
			Help: "Total number of audit events dropped because the async buffer was full",
		}),
		CircuitBreakerDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "reviewdraw_audit_circuit_breaker_dropped_total",
			Help: "Total number of audit events dropped while the sink circuit was open",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "reviewdraw_audit_persist_failures_total",
			Help: "Total number of audit sink write failures",
		}),
		CircuitBreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reviewdraw_audit_circuit_breaker_state",
			Help: "Current sink circuit state (0=closed/healthy, 1=open/unhealthy)",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reviewdraw_audit_queue_depth",
			Help: "Audit events waiting in the async buffer",
		}),
	}
}

func (m *Metrics) IncDelivered() {
	if m != nil {
		m.Delivered.Inc()
	}
}

func (m *Metrics) IncBufferDropped() {
	if m != nil {
		m.BufferDropped.Inc()
	}
}

func (m *Metrics) IncCircuitBreakerDropped() {
	if m != nil {
		m.CircuitBreakerDropped.Inc()
	}
}

func (m *Metrics) IncPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

// SetCircuitBreakerState sets the circuit gauge.
func (m *Metrics) SetCircuitBreakerState(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreakerState.Set(1)
	} else {
		m.CircuitBreakerState.Set(0)
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}
