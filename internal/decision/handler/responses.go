package handler

import (
	"time"

	"credex/internal/decision"
	"credex/internal/explanation"
)

// DecisionResponse is the HTTP shape of one decision with its explanation.
type DecisionResponse struct {
	ID                   string                   `json:"id"`
	ApplicationID        string                   `json:"application_id"`
	Outcome              string                   `json:"outcome"`
	Confidence           float64                  `json:"confidence"`
	PrimaryReason        string                   `json:"primary_reason"`
	ContributingFactors  []string                 `json:"contributing_factors"`
	ModelVersion         string                   `json:"model_version,omitempty"`
	RuleSetVersion       string                   `json:"ruleset_version"`
	CreatedAt            time.Time                `json:"created_at"`
	Explanation          *explanation.Explanation `json:"explanation,omitempty"`
}

// ListResponse is the HTTP response for GET /decisions.
type ListResponse struct {
	Decisions []DecisionResponse `json:"decisions"`
}

// StatsResponse is the HTTP response for GET /stats.
type StatsResponse struct {
	Total     int64            `json:"total"`
	ByOutcome map[string]int64 `json:"by_outcome"`
	ByReason  map[string]int64 `json:"by_reason"`
}

// FromBundle converts a domain bundle to an HTTP response.
func FromBundle(bundle decision.Bundle) DecisionResponse {
	factors := bundle.Decision.Factors
	if factors == nil {
		factors = []string{}
	}
	return DecisionResponse{
		ID:                  bundle.Decision.ID.String(),
		ApplicationID:       bundle.Decision.ApplicationID.String(),
		Outcome:             bundle.Decision.Outcome.String(),
		Confidence:          bundle.Decision.Confidence,
		PrimaryReason:       bundle.Decision.PrimaryReason,
		ContributingFactors: factors,
		ModelVersion:        bundle.Decision.ModelVersion,
		RuleSetVersion:      bundle.Decision.RuleSetVersion,
		CreatedAt:           bundle.Decision.CreatedAt,
		Explanation:         bundle.Explanation,
	}
}

// FromStats converts domain stats to an HTTP response.
func FromStats(stats decision.Stats) StatsResponse {
	byOutcome := make(map[string]int64, len(stats.ByOutcome))
	for outcome, count := range stats.ByOutcome {
		byOutcome[outcome.String()] = count
	}
	if stats.ByReason == nil {
		stats.ByReason = map[string]int64{}
	}
	return StatsResponse{
		Total:     stats.Total,
		ByOutcome: byOutcome,
		ByReason:  stats.ByReason,
	}
}
