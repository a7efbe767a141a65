package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"credex/internal/decision"
	"credex/internal/override"
	id "credex/pkg/domain"
	dErrors "credex/pkg/domain-errors"
)

type fakeAdjudicator struct {
	adjudicateFn func(ctx context.Context, req override.Request) (override.Record, error)
	getFn        func(ctx context.Context, decisionID id.DecisionID) (override.Record, error)
	listFn       func(ctx context.Context, limit, offset int) ([]override.Record, error)
}

func (f *fakeAdjudicator) Adjudicate(ctx context.Context, req override.Request) (override.Record, error) {
	return f.adjudicateFn(ctx, req)
}

func (f *fakeAdjudicator) GetByDecision(ctx context.Context, decisionID id.DecisionID) (override.Record, error) {
	return f.getFn(ctx, decisionID)
}

func (f *fakeAdjudicator) List(ctx context.Context, limit, offset int) ([]override.Record, error) {
	return f.listFn(ctx, limit, offset)
}

type OverrideHandlerSuite struct {
	suite.Suite
	service *fakeAdjudicator
	router  chi.Router
}

func TestOverrideHandlerSuite(t *testing.T) {
	suite.Run(t, new(OverrideHandlerSuite))
}

func (s *OverrideHandlerSuite) SetupTest() {
	s.service = &fakeAdjudicator{}
	s.router = chi.NewRouter()
	New(s.service, slog.Default()).Register(s.router)
}

func (s *OverrideHandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
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

func sampleRecord(decisionID id.DecisionID) override.Record {
	return override.Record{
		ID:              id.NewOverrideID(),
		DecisionID:      decisionID,
		OriginalOutcome: decision.OutcomeRejected,
		NewOutcome:      decision.OutcomeApproved,
		ReasonCode:      override.ReasonAdditionalDocumentation,
		Justification:   strings.Repeat("documents provided ", 10),
		ActorID:         id.ActorID("officer-1"),
		ActorRole:       override.RoleCreditOfficer,
		CreatedAt:       time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
}

func (s *OverrideHandlerSuite) TestOverride() {
	decisionID := id.NewDecisionID()
	body := map[string]any{
		"new_outcome":   "approved",
		"reason_code":   "additional_documentation",
		"justification": strings.Repeat("documents provided ", 10),
	}

	s.Run("accepted override returns 201", func() {
		record := sampleRecord(decisionID)
		s.service.adjudicateFn = func(_ context.Context, req override.Request) (override.Record, error) {
			s.Equal(decisionID, req.DecisionID)
			s.Equal(decision.OutcomeApproved, req.NewOutcome)
			s.Equal(override.ReasonAdditionalDocumentation, req.ReasonCode)
			return record, nil
		}

		rec := s.do(http.MethodPost, "/decisions/"+decisionID.String()+"/override", body)
		s.Equal(http.StatusCreated, rec.Code)

		var out OverrideResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Equal(record.ID.String(), out.ID)
		s.Equal("approved", out.NewOutcome)
		s.Equal("credit_officer", out.ActorRole)
	})

	s.Run("approver fields pass through to the adjudicator", func() {
		countersigned := map[string]any{
			"new_outcome":   "approved",
			"reason_code":   "additional_documentation",
			"justification": strings.Repeat("documents provided ", 10),
			"approver_id":   "admin-7",
			"approver_role": "admin",
		}
		record := sampleRecord(decisionID)
		record.ApproverID = id.ActorID("admin-7")
		record.ApproverRole = override.RoleAdmin
		s.service.adjudicateFn = func(_ context.Context, req override.Request) (override.Record, error) {
			s.Equal(id.ActorID("admin-7"), req.ApproverID)
			s.Equal(override.RoleAdmin, req.ApproverRole)
			return record, nil
		}

		rec := s.do(http.MethodPost, "/decisions/"+decisionID.String()+"/override", countersigned)
		s.Equal(http.StatusCreated, rec.Code)

		var out OverrideResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Equal("admin-7", out.ApproverID)
		s.Equal("admin", out.ApproverRole)
	})

	s.Run("approver without role returns 400", func() {
		bad := map[string]any{
			"new_outcome":   "approved",
			"reason_code":   "additional_documentation",
			"justification": strings.Repeat("documents provided ", 10),
			"approver_id":   "admin-7",
		}
		rec := s.do(http.MethodPost, "/decisions/"+decisionID.String()+"/override", bad)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("invalid decision id returns 400", func() {
		rec := s.do(http.MethodPost, "/decisions/not-a-uuid/override", body)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown reason code returns 400", func() {
		bad := map[string]any{
			"new_outcome":   "approved",
			"reason_code":   "because",
			"justification": "x",
		}
		rec := s.do(http.MethodPost, "/decisions/"+decisionID.String()+"/override", bad)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("policy refusal maps to 403", func() {
		s.service.adjudicateFn = func(context.Context, override.Request) (override.Record, error) {
			return override.Record{}, dErrors.New(dErrors.CodeForbidden, "override requires admin approval, caller is credit_officer")
		}

		rec := s.do(http.MethodPost, "/decisions/"+decisionID.String()+"/override", body)
		s.Equal(http.StatusForbidden, rec.Code)

		var out map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Contains(out["error_description"], "admin approval")
	})

	s.Run("second override maps to 409", func() {
		s.service.adjudicateFn = func(context.Context, override.Request) (override.Record, error) {
			return override.Record{}, dErrors.New(dErrors.CodeConflict, "decision already overridden")
		}

		rec := s.do(http.MethodPost, "/decisions/"+decisionID.String()+"/override", body)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *OverrideHandlerSuite) TestGet() {
	decisionID := id.NewDecisionID()

	s.Run("found", func() {
		s.service.getFn = func(_ context.Context, gotID id.DecisionID) (override.Record, error) {
			s.Equal(decisionID, gotID)
			return sampleRecord(decisionID), nil
		}

		rec := s.do(http.MethodGet, "/decisions/"+decisionID.String()+"/override", nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("no override returns 404", func() {
		s.service.getFn = func(context.Context, id.DecisionID) (override.Record, error) {
			return override.Record{}, dErrors.New(dErrors.CodeNotFound, "no override for decision")
		}

		rec := s.do(http.MethodGet, "/decisions/"+decisionID.String()+"/override", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *OverrideHandlerSuite) TestList() {
	s.Run("defaults", func() {
		s.service.listFn = func(_ context.Context, limit, offset int) ([]override.Record, error) {
			s.Equal(50, limit)
			s.Equal(0, offset)
			return []override.Record{sampleRecord(id.NewDecisionID())}, nil
		}

		rec := s.do(http.MethodGet, "/overrides", nil)
		s.Equal(http.StatusOK, rec.Code)

		var out ListResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Len(out.Overrides, 1)
	})

	s.Run("explicit paging", func() {
		s.service.listFn = func(_ context.Context, limit, offset int) ([]override.Record, error) {
			s.Equal(10, limit)
			s.Equal(20, offset)
			return nil, nil
		}

		rec := s.do(http.MethodGet, "/overrides?limit=10&offset=20", nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("rejects bad limit", func() {
		rec := s.do(http.MethodGet, "/overrides?limit=0", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
