package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"credex/internal/decision"
	"credex/internal/override"
	id "credex/pkg/domain"
	dErrors "credex/pkg/domain-errors"
	"credex/pkg/platform/httputil"
	"credex/pkg/requestcontext"
)

// Service defines the interface for override operations.
type Service interface {
	Adjudicate(ctx context.Context, req override.Request) (override.Record, error)
	GetByDecision(ctx context.Context, decisionID id.DecisionID) (override.Record, error)
	List(ctx context.Context, limit, offset int) ([]override.Record, error)
}

// Handler wires override endpoints to the adjudicator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an override handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts override endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/decisions/{decisionID}/override", h.HandleOverride)
	r.Get("/decisions/{decisionID}/override", h.HandleGet)
	r.Get("/overrides", h.HandleList)
}

// HandleOverride handles POST /decisions/{decisionID}/override requests.
func (h *Handler) HandleOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	decisionID, err := id.ParseDecisionID(chi.URLParam(r, "decisionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid decision id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[OverrideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Adjudicate(ctx, override.Request{
		DecisionID:    decisionID,
		NewOutcome:    decision.Outcome(req.NewOutcome),
		ReasonCode:    override.ReasonCode(req.ReasonCode),
		Justification: req.Justification,
		ApproverID:    id.ActorID(req.ApproverID),
		ApproverRole:  override.Role(req.ApproverRole),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromRecord(record))
}

// HandleGet handles GET /decisions/{decisionID}/override requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	decisionID, err := id.ParseDecisionID(chi.URLParam(r, "decisionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid decision id"))
		return
	}

	record, err := h.service.GetByDecision(ctx, decisionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleList handles GET /overrides requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := 50, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 500"))
			return
		}
		limit = parsed
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "offset must be non-negative"))
			return
		}
		offset = parsed
	}

	records, err := h.service.List(ctx, limit, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "override list failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := ListResponse{Overrides: make([]OverrideResponse, 0, len(records))}
	for _, record := range records {
		out.Overrides = append(out.Overrides, FromRecord(record))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
