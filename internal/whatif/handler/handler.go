package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credex/internal/application"
	"credex/internal/decision"
	"credex/internal/whatif"
	"credex/pkg/platform/httputil"
	"credex/pkg/requestcontext"
)

// Service defines the interface for simulation operations.
type Service interface {
	Simulate(ctx context.Context, app application.Application, deltas map[string]application.Value, opts decision.AssessOptions) (whatif.Result, error)
	SimulateBatch(ctx context.Context, app application.Application, scenarios []whatif.Scenario, opts decision.AssessOptions) ([]whatif.BatchResult, error)
}

// Handler wires what-if endpoints to the simulator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a what-if handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts what-if endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/whatif/simulate", h.HandleSimulate)
	r.Post("/whatif/batch", h.HandleBatch)
}

// HandleSimulate handles POST /whatif/simulate requests.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SimulateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Simulate(ctx, req.ParsedApplication(), req.Changes, req.AssessOptions())
	if err != nil {
		h.logger.ErrorContext(ctx, "simulation failed",
			"request_id", requestID,
			"application_id", req.ApplicationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "simulation returned",
		"request_id", requestID,
		"application_id", req.ApplicationID,
		"direction", result.Diff.Direction,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleBatch handles POST /whatif/batch requests.
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[BatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	results, err := h.service.SimulateBatch(ctx, req.ParsedApplication(), req.ParsedScenarios(), req.AssessOptions())
	if err != nil {
		h.logger.ErrorContext(ctx, "batch simulation failed",
			"request_id", requestID,
			"application_id", req.ApplicationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch simulation returned",
		"request_id", requestID,
		"application_id", req.ApplicationID,
		"scenarios", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromBatch(results))
}
