package handler

import (
	"credex/internal/decision"
	"credex/internal/explanation"
	"credex/internal/whatif"
)

// RunResponse is one pipeline pass within a simulation. Simulated runs are
// never persisted, so there is no decision ID.
type RunResponse struct {
	Outcome        string                   `json:"outcome"`
	Confidence     float64                  `json:"confidence"`
	PrimaryReason  string                   `json:"primary_reason"`
	TriggeredRules []string                 `json:"triggered_rules"`
	RiskScore      *float64                 `json:"risk_score,omitempty"`
	RiskBand       string                   `json:"risk_band,omitempty"`
	Explanation    *explanation.Explanation `json:"explanation,omitempty"`
}

// SimulateResponse is the HTTP response for POST /whatif/simulate.
type SimulateResponse struct {
	Baseline RunResponse `json:"baseline"`
	Modified RunResponse `json:"modified"`
	Diff     whatif.Diff `json:"diff"`
}

// BatchResponse is the HTTP response for POST /whatif/batch.
type BatchResponse struct {
	Results []BatchEntryResponse `json:"results"`
}

// BatchEntryResponse is one scenario's simulation outcome.
type BatchEntryResponse struct {
	Scenario string      `json:"scenario"`
	Baseline RunResponse `json:"baseline"`
	Modified RunResponse `json:"modified"`
	Diff     whatif.Diff `json:"diff"`
}

// FromResult converts a domain simulation result to an HTTP response.
func FromResult(result whatif.Result) SimulateResponse {
	return SimulateResponse{
		Baseline: fromAssessment(result.Baseline),
		Modified: fromAssessment(result.Modified),
		Diff:     result.Diff,
	}
}

// FromBatch converts batch results to an HTTP response, preserving order.
func FromBatch(results []whatif.BatchResult) BatchResponse {
	out := BatchResponse{Results: make([]BatchEntryResponse, 0, len(results))}
	for _, entry := range results {
		out.Results = append(out.Results, BatchEntryResponse{
			Scenario: entry.Scenario,
			Baseline: fromAssessment(entry.Result.Baseline),
			Modified: fromAssessment(entry.Result.Modified),
			Diff:     entry.Result.Diff,
		})
	}
	return out
}

func fromAssessment(a decision.Assessment) RunResponse {
	run := RunResponse{
		Outcome:        a.Decision.Outcome.String(),
		Confidence:     a.Decision.Confidence,
		PrimaryReason:  a.Decision.PrimaryReason,
		TriggeredRules: a.RuleResult.TriggeredIDs(),
		Explanation:    a.Explanation,
	}
	if a.Score != nil {
		score := a.Score.RiskScore
		run.RiskScore = &score
		run.RiskBand = string(a.Score.RiskBand)
	}
	return run
}
