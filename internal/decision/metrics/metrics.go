package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision pipeline.
type Metrics struct {
	// Stage latencies: "rules", "score", "explanation"
	StageLatency *prometheus.HistogramVec

	// Decision outcomes by outcome and primary reason class
	DecisionOutcome *prometheus.CounterVec

	// Overall pipeline latency
	EvaluateLatency prometheus.Histogram

	// Score lookups that came back unavailable
	ScoreUnavailable prometheus.Counter
}

// New creates a Metrics instance with all decision pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credex_decision_stage_duration_seconds",
			Help:    "Duration of pipeline stages by stage name",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stage"}),

		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credex_decision_outcomes_total",
			Help: "Total decision outcomes by outcome and reason",
		}, []string{"outcome", "reason"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "credex_decision_evaluate_duration_seconds",
			Help:    "Duration of full pipeline evaluation including persistence",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		ScoreUnavailable: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credex_decision_score_unavailable_total",
			Help: "Total evaluations that ran without an ML score",
		}),
	}
}

// ObserveStageLatency records the duration of one pipeline stage.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(outcome, reason string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(outcome, reason).Inc()
	}
}

// ObserveEvaluateLatency records the total pipeline duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// IncrementScoreUnavailable records an evaluation that fell back to rules-only.
func (m *Metrics) IncrementScoreUnavailable() {
	if m != nil {
		m.ScoreUnavailable.Inc()
	}
}
