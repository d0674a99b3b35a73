package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for delinquency actions.
type Metrics struct {
	ActionsAccepted    *prometheus.CounterVec
	ActionsRejected    *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	OutboxPublished    prometheus.Counter
	OutboxFailures     prometheus.Counter
	BreakerState       prometheus.Gauge
}

// New registers the delinquency metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActionsAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arrears_delinquency_actions_accepted_total",
			Help: "Delinquency actions appended to a loan timeline, by action",
		}, []string{"action"}),
		ActionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arrears_delinquency_actions_rejected_total",
			Help: "Rule violations reported for rejected delinquency actions, by kind",
		}, []string{"kind"}),
		ValidationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arrears_delinquency_validation_duration_seconds",
			Help:    "Duration of delinquency action validation",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "arrears_outbox_published_total",
			Help: "Outbox events published to Kafka",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "arrears_outbox_publish_failures_total",
			Help: "Outbox publish attempts that failed",
		}),
		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arrears_outbox_circuit_breaker_state",
			Help: "Outbox circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncAccepted(action string) {
	m.ActionsAccepted.WithLabelValues(action).Inc()
}

// IncRejected counts each violated kind once.
func (m *Metrics) IncRejected(kinds ...string) {
	for _, k := range kinds {
		m.ActionsRejected.WithLabelValues(k).Inc()
	}
}

// ObserveValidation records validation time. Call with time.Now() taken before validating.
func (m *Metrics) ObserveValidation(start time.Time) {
	m.ValidationDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncOutboxPublished() {
	m.OutboxPublished.Inc()
}

func (m *Metrics) IncOutboxFailure() {
	m.OutboxFailures.Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.BreakerState.Set(1)
		return
	}
	m.BreakerState.Set(0)
}
