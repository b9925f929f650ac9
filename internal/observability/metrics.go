package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors of the planner service. A nil
// *Metrics records nothing.
type Metrics struct {
	PlansTotal         *prometheus.CounterVec
	AgentRunsTotal     *prometheus.CounterVec
	AgentDuration      *prometheus.HistogramVec
	ExtractionFailures *prometheus.CounterVec
	PlansInFlight      prometheus.Gauge
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PlansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outing_plans_total",
				Help: "Total number of plan requests by outcome",
			},
			[]string{"outcome"},
		),
		AgentRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outing_agent_runs_total",
				Help: "Total number of agent invocations by agent and answering source",
			},
			[]string{"agent", "origin"},
		),
		AgentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "outing_agent_duration_seconds",
				Help:    "Duration of agent invocations in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"agent"},
		),
		ExtractionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outing_extraction_failures_total",
				Help: "Total number of failed or empty live extractions by source",
			},
			[]string{"source"},
		),
		PlansInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "outing_plans_in_flight",
				Help: "Number of plan requests currently being served",
			},
		),
	}
}

func (m *Metrics) ObservePlan(outcome string) {
	if m == nil {
		return
	}
	m.PlansTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAgent(agent, origin string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AgentRunsTotal.WithLabelValues(agent, origin).Inc()
	m.AgentDuration.WithLabelValues(agent).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveExtractionFailure(source string) {
	if m == nil {
		return
	}
	m.ExtractionFailures.WithLabelValues(source).Inc()
}

// TrackPlan bumps the in-flight gauge and returns the matching decrement.
func (m *Metrics) TrackPlan() func() {
	if m == nil {
		return func() {}
	}
	m.PlansInFlight.Inc()
	return m.PlansInFlight.Dec
}
