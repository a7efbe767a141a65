// Package metrics holds the process-wide HTTP metrics. Domain counters live
// next to their services; this package only covers the transport layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP provides request-level observability for the router.
type HTTP struct {
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// NewHTTP creates and registers the HTTP metrics.
func NewHTTP() *HTTP {
	return &HTTP{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credex_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "status"}),

		RequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "credex_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		}),
	}
}

// Middleware instruments each request. Nil-safe so the router can be built
// without metrics in tests.
func (m *HTTP) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			m.RequestDuration.
				WithLabelValues(r.Method, strconv.Itoa(recorder.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
