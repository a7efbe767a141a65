package decision

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "credex/pkg/domain"
	"credex/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	base  time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.base = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newBundle(appID string, outcome Outcome, reason string, createdAt time.Time) Bundle {
	return Bundle{Decision: Decision{
		ID:             id.NewDecisionID(),
		ApplicationID:  id.ApplicationID(appID),
		Outcome:        outcome,
		Confidence:     0.9,
		PrimaryReason:  reason,
		Factors:        []string{"debt_to_income"},
		RuleSetVersion: "v1",
		CreatedAt:      createdAt,
	}}
}

func (s *InMemoryStoreSuite) TestSaveAndGet() {
	bundle := s.newBundle("APP-1", OutcomeApproved, ReasonMLScore, s.base)
	s.Require().NoError(s.store.Save(s.ctx, bundle))

	got, err := s.store.Get(s.ctx, bundle.Decision.ID)
	s.Require().NoError(err)
	s.Equal(bundle.Decision, got.Decision)
}

func (s *InMemoryStoreSuite) TestSaveRejectsDuplicateID() {
	bundle := s.newBundle("APP-1", OutcomeApproved, ReasonMLScore, s.base)
	s.Require().NoError(s.store.Save(s.ctx, bundle))

	err := s.store.Save(s.ctx, bundle)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestGetUnknownID() {
	_, err := s.store.Get(s.ctx, id.NewDecisionID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListOrderingAndFilters() {
	oldest := s.newBundle("APP-1", OutcomeApproved, ReasonMLScore, s.base)
	middle := s.newBundle("APP-2", OutcomeRejected, "R003", s.base.Add(time.Hour))
	newest := s.newBundle("APP-1", OutcomeReview, ReasonMixedSignal, s.base.Add(2*time.Hour))
	for _, b := range []Bundle{oldest, middle, newest} {
		s.Require().NoError(s.store.Save(s.ctx, b))
	}

	s.Run("newest first", func() {
		got, err := s.store.List(s.ctx, Filter{})
		s.Require().NoError(err)
		s.Require().Len(got, 3)
		s.Equal(newest.Decision.ID, got[0].Decision.ID)
		s.Equal(middle.Decision.ID, got[1].Decision.ID)
		s.Equal(oldest.Decision.ID, got[2].Decision.ID)
	})

	s.Run("filter by application", func() {
		got, err := s.store.List(s.ctx, Filter{ApplicationID: "APP-1"})
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(newest.Decision.ID, got[0].Decision.ID)
		s.Equal(oldest.Decision.ID, got[1].Decision.ID)
	})

	s.Run("filter by outcome", func() {
		got, err := s.store.List(s.ctx, Filter{Outcome: OutcomeRejected})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(middle.Decision.ID, got[0].Decision.ID)
	})

	s.Run("time window", func() {
		got, err := s.store.List(s.ctx, Filter{
			Since: s.base.Add(30 * time.Minute),
			Until: s.base.Add(90 * time.Minute),
		})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(middle.Decision.ID, got[0].Decision.ID)
	})

	s.Run("offset and limit", func() {
		got, err := s.store.List(s.ctx, Filter{Offset: 1, Limit: 1})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(middle.Decision.ID, got[0].Decision.ID)
	})

	s.Run("offset past the end", func() {
		got, err := s.store.List(s.ctx, Filter{Offset: 10})
		s.Require().NoError(err)
		s.Empty(got)
	})
}

func (s *InMemoryStoreSuite) TestStats() {
	s.Require().NoError(s.store.Save(s.ctx, s.newBundle("APP-1", OutcomeApproved, ReasonMLScore, s.base)))
	s.Require().NoError(s.store.Save(s.ctx, s.newBundle("APP-2", OutcomeApproved, ReasonMLScore, s.base.Add(time.Hour))))
	s.Require().NoError(s.store.Save(s.ctx, s.newBundle("APP-3", OutcomeRejected, "R003", s.base.Add(2*time.Hour))))

	s.Run("whole history", func() {
		stats, err := s.store.Stats(s.ctx, time.Time{}, time.Time{})
		s.Require().NoError(err)
		s.Equal(int64(3), stats.Total)
		s.Equal(int64(2), stats.ByOutcome[OutcomeApproved])
		s.Equal(int64(1), stats.ByOutcome[OutcomeRejected])
		s.Equal(int64(2), stats.ByReason[ReasonMLScore])
		s.Equal(int64(1), stats.ByReason["R003"])
	})

	s.Run("windowed", func() {
		stats, err := s.store.Stats(s.ctx, s.base.Add(30*time.Minute), s.base.Add(90*time.Minute))
		s.Require().NoError(err)
		s.Equal(int64(1), stats.Total)
	})
}
