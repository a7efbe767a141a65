package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for override adjudication.
type Metrics struct {
	// Adjudications by result ("accepted", "rejected") and caller role
	Adjudications *prometheus.CounterVec
}

// New creates a Metrics instance with all override metrics registered.
func New() *Metrics {
	return &Metrics{
		Adjudications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credex_override_adjudications_total",
			Help: "Total override adjudications by result and caller role",
		}, []string{"result", "role"}),
	}
}

// IncrementAdjudication records one adjudication outcome.
func (m *Metrics) IncrementAdjudication(result, role string) {
	if m != nil {
		m.Adjudications.WithLabelValues(result, role).Inc()
	}
}
