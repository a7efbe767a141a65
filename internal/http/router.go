// Package httpapi assembles the HTTP surface: middleware chain, versioned API
// routes, and the operational endpoints.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	decisionhandler "credex/internal/decision/handler"
	overridehandler "credex/internal/override/handler"
	"credex/internal/platform/metrics"
	"credex/internal/platform/middleware"
	whatifhandler "credex/internal/whatif/handler"
	"credex/pkg/platform/httputil"
)

// Handlers collects the per-module handlers mounted under /v1.
type Handlers struct {
	Decision *decisionhandler.Handler
	WhatIf   *whatifhandler.Handler
	Override *overridehandler.Handler
}

// HealthChecker reports readiness of one backing dependency.
type HealthChecker func() error

// NewRouter wires the full HTTP surface. Everything under /v1 requires a
// valid bearer token; /healthz and /metrics stay open for probes and scrapes.
func NewRouter(h Handlers, validator middleware.JWTValidator, logger *slog.Logger, health map[string]HealthChecker, httpMetrics *metrics.HTTP) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(httpMetrics.Middleware())
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth(health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.RequireAuth(validator, logger))
		v1.Use(middleware.RequireRoleForWrites(logger, "admin", "credit_officer"))
		h.Decision.Register(v1)
		h.WhatIf.Register(v1)
		h.Override.Register(v1)
	})

	return r
}

// handleHealth runs each dependency check and reports per-dependency status.
func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		detail := make(map[string]string, len(checks)+1)
		detail["status"] = "ok"
		for name, check := range checks {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				detail["status"] = "degraded"
				detail[name] = err.Error()
				continue
			}
			detail[name] = "ok"
		}
		httputil.WriteJSON(w, status, detail)
	}
}
