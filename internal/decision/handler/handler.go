package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credex/internal/application"
	"credex/internal/decision"
	id "credex/pkg/domain"
	dErrors "credex/pkg/domain-errors"
	"credex/pkg/platform/httputil"
	"credex/pkg/requestcontext"
)

// Service defines the interface for decision operations.
type Service interface {
	Evaluate(ctx context.Context, app application.Application, opts decision.AssessOptions) (decision.Bundle, error)
	Get(ctx context.Context, decisionID id.DecisionID) (decision.Bundle, error)
	List(ctx context.Context, filter decision.Filter) ([]decision.Bundle, error)
	Stats(ctx context.Context, since, until time.Time) (decision.Stats, error)
}

// Handler wires decision endpoints to the decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a decision handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts decision endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/decisions/evaluate", h.HandleEvaluate)
	r.Get("/decisions", h.HandleList)
	r.Get("/decisions/{decisionID}", h.HandleGet)
	r.Get("/stats", h.HandleStats)
}

// HandleEvaluate handles POST /decisions/evaluate requests.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	bundle, err := h.service.Evaluate(ctx, req.ParsedApplication(), req.AssessOptions())
	if err != nil {
		h.logger.ErrorContext(ctx, "decision evaluation failed",
			"request_id", requestID,
			"application_id", req.ApplicationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "decision returned",
		"request_id", requestID,
		"decision_id", bundle.Decision.ID.String(),
		"outcome", bundle.Decision.Outcome.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromBundle(bundle))
}

// HandleGet handles GET /decisions/{decisionID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	decisionID, err := id.ParseDecisionID(chi.URLParam(r, "decisionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid decision id"))
		return
	}

	bundle, err := h.service.Get(ctx, decisionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromBundle(bundle))
}

// HandleList handles GET /decisions requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bundles, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "decision list failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := ListResponse{Decisions: make([]DecisionResponse, 0, len(bundles))}
	for _, bundle := range bundles {
		out.Decisions = append(out.Decisions, FromBundle(bundle))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleStats handles GET /stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	since, until, err := parseWindow(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	stats, err := h.service.Stats(ctx, since, until)
	if err != nil {
		h.logger.ErrorContext(ctx, "decision stats failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromStats(stats))
}
