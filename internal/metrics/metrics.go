package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service counters. A nil *Metrics is valid and records
// nothing, so tests and library callers can pass nil.
type Metrics struct {
	flowsStarted prometheus.Counter
	flowOutcomes *prometheus.CounterVec
	submissions  *prometheus.CounterVec
	pollQueries  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		flowsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "terminalflow_flows_started_total",
			Help: "Payment flows opened by operators.",
		}),
		flowOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "terminalflow_flow_outcomes_total",
			Help: "Closed payment flows by final outcome.",
		}, []string{"outcome"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "terminalflow_submissions_total",
			Help: "Payment intent submissions by result.",
		}, []string{"result"}),
		pollQueries: factory.NewCounter(prometheus.CounterOpts{
			Name: "terminalflow_poll_queries_total",
			Help: "Intent status queries issued while polling.",
		}),
	}
}

func (m *Metrics) IncFlowStarted() {
	if m == nil {
		return
	}
	m.flowsStarted.Inc()
}

func (m *Metrics) IncFlowOutcome(outcome string) {
	if m == nil {
		return
	}
	m.flowOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncSubmission(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) IncPollQuery() {
	if m == nil {
		return
	}
	m.pollQueries.Inc()
}
