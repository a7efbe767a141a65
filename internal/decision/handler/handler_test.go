package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"credex/internal/application"
	"credex/internal/decision"
	id "credex/pkg/domain"
	dErrors "credex/pkg/domain-errors"
)

type fakeService struct {
	evaluateFn func(ctx context.Context, app application.Application, opts decision.AssessOptions) (decision.Bundle, error)
	getFn      func(ctx context.Context, decisionID id.DecisionID) (decision.Bundle, error)
	listFn     func(ctx context.Context, filter decision.Filter) ([]decision.Bundle, error)
	statsFn    func(ctx context.Context, since, until time.Time) (decision.Stats, error)
}

func (f *fakeService) Evaluate(ctx context.Context, app application.Application, opts decision.AssessOptions) (decision.Bundle, error) {
	return f.evaluateFn(ctx, app, opts)
}

func (f *fakeService) Get(ctx context.Context, decisionID id.DecisionID) (decision.Bundle, error) {
	return f.getFn(ctx, decisionID)
}

func (f *fakeService) List(ctx context.Context, filter decision.Filter) ([]decision.Bundle, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeService) Stats(ctx context.Context, since, until time.Time) (decision.Stats, error) {
	return f.statsFn(ctx, since, until)
}

type HandlerSuite struct {
	suite.Suite
	service *fakeService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.service = &fakeService{}
	s.router = chi.NewRouter()
	New(s.service, slog.Default()).Register(s.router)
}

func (s *HandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func sampleBundle() decision.Bundle {
	return decision.Bundle{Decision: decision.Decision{
		ID:             id.NewDecisionID(),
		ApplicationID:  id.ApplicationID("APP-1"),
		Outcome:        decision.OutcomeApproved,
		Confidence:     0.95,
		PrimaryReason:  decision.ReasonMLScore,
		Factors:        []string{"debt_to_income"},
		ModelVersion:   "model-v1",
		RuleSetVersion: "v1",
		CreatedAt:      time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC),
	}}
}

func (s *HandlerSuite) TestEvaluate() {
	s.Run("valid request returns 201", func() {
		bundle := sampleBundle()
		s.service.evaluateFn = func(_ context.Context, app application.Application, opts decision.AssessOptions) (decision.Bundle, error) {
			s.Equal(id.ApplicationID("APP-1"), app.ID)
			dti, ok := app.Number("debt_to_income")
			s.True(ok)
			s.Equal(0.4, dti)
			s.Equal([]string{"en"}, opts.Languages)
			return bundle, nil
		}

		rec := s.do(http.MethodPost, "/decisions/evaluate", map[string]any{
			"application_id": "APP-1",
			"attributes":     map[string]any{"debt_to_income": 0.4},
			"languages":      []string{"en"},
		})

		s.Equal(http.StatusCreated, rec.Code)
		var out DecisionResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Equal(bundle.Decision.ID.String(), out.ID)
		s.Equal("approved", out.Outcome)
		s.Equal([]string{"debt_to_income"}, out.ContributingFactors)
	})

	s.Run("malformed json returns 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/decisions/evaluate", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusBadRequest, rec.Code)
		var out map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Equal("bad_request", out["error"])
	})

	s.Run("missing application id returns 400", func() {
		rec := s.do(http.MethodPost, "/decisions/evaluate", map[string]any{
			"attributes": map[string]any{"debt_to_income": 0.4},
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("invalid style returns 400", func() {
		rec := s.do(http.MethodPost, "/decisions/evaluate", map[string]any{
			"application_id": "APP-1",
			"attributes":     map[string]any{"debt_to_income": 0.4},
			"style":          "poetic",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("service validation error propagates", func() {
		s.service.evaluateFn = func(context.Context, application.Application, decision.AssessOptions) (decision.Bundle, error) {
			return decision.Bundle{}, dErrors.New(dErrors.CodeValidation, `rule R1: attribute "x": attribute is missing`)
		}

		rec := s.do(http.MethodPost, "/decisions/evaluate", map[string]any{
			"application_id": "APP-1",
			"attributes":     map[string]any{"debt_to_income": 0.4},
		})
		s.Equal(http.StatusBadRequest, rec.Code)
		var out map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Equal("validation_error", out["error"])
		s.Contains(out["error_description"], "attribute is missing")
	})
}

func (s *HandlerSuite) TestGet() {
	s.Run("found", func() {
		bundle := sampleBundle()
		s.service.getFn = func(_ context.Context, decisionID id.DecisionID) (decision.Bundle, error) {
			s.Equal(bundle.Decision.ID, decisionID)
			return bundle, nil
		}

		rec := s.do(http.MethodGet, "/decisions/"+bundle.Decision.ID.String(), nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("invalid id returns 400", func() {
		rec := s.do(http.MethodGet, "/decisions/not-a-uuid", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown id returns 404", func() {
		s.service.getFn = func(context.Context, id.DecisionID) (decision.Bundle, error) {
			return decision.Bundle{}, dErrors.New(dErrors.CodeNotFound, "decision not found")
		}

		rec := s.do(http.MethodGet, "/decisions/"+id.NewDecisionID().String(), nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestList() {
	s.Run("passes filters through", func() {
		s.service.listFn = func(_ context.Context, filter decision.Filter) ([]decision.Bundle, error) {
			s.Equal(id.ApplicationID("APP-1"), filter.ApplicationID)
			s.Equal(decision.OutcomeRejected, filter.Outcome)
			s.Equal(25, filter.Limit)
			s.Equal(5, filter.Offset)
			return []decision.Bundle{sampleBundle()}, nil
		}

		rec := s.do(http.MethodGet, "/decisions?application_id=APP-1&outcome=rejected&limit=25&offset=5", nil)
		s.Equal(http.StatusOK, rec.Code)

		var out ListResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Len(out.Decisions, 1)
	})

	s.Run("default limit is 50", func() {
		s.service.listFn = func(_ context.Context, filter decision.Filter) ([]decision.Bundle, error) {
			s.Equal(50, filter.Limit)
			return nil, nil
		}

		rec := s.do(http.MethodGet, "/decisions", nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("rejects bad outcome", func() {
		rec := s.do(http.MethodGet, "/decisions?outcome=escalated", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects out-of-range limit", func() {
		rec := s.do(http.MethodGet, "/decisions?limit=1000", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestStats() {
	s.Run("returns aggregates", func() {
		s.service.statsFn = func(_ context.Context, since, until time.Time) (decision.Stats, error) {
			s.True(since.IsZero())
			s.True(until.IsZero())
			return decision.Stats{
				Total:     3,
				ByOutcome: map[decision.Outcome]int64{decision.OutcomeApproved: 2, decision.OutcomeRejected: 1},
				ByReason:  map[string]int64{decision.ReasonMLScore: 3},
			}, nil
		}

		rec := s.do(http.MethodGet, "/stats", nil)
		s.Equal(http.StatusOK, rec.Code)

		var out StatsResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Equal(int64(3), out.Total)
		s.Equal(int64(2), out.ByOutcome["approved"])
	})

	s.Run("parses the window", func() {
		since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		until := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
		s.service.statsFn = func(_ context.Context, gotSince, gotUntil time.Time) (decision.Stats, error) {
			s.True(gotSince.Equal(since))
			s.True(gotUntil.Equal(until))
			return decision.Stats{}, nil
		}

		target := fmt.Sprintf("/stats?since=%s&until=%s",
			since.Format(time.RFC3339), until.Format(time.RFC3339))
		rec := s.do(http.MethodGet, target, nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("rejects inverted window", func() {
		rec := s.do(http.MethodGet, "/stats?since=2026-08-31T00:00:00Z&until=2026-08-01T00:00:00Z", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
