// Package whatif answers "what would change" questions: it re-runs the
// decision pipeline against hypothetical attribute changes and diffs the two
// outcomes. Nothing a simulation does is ever persisted as a decision.
package whatif

import (
	"fmt"

	"credex/internal/application"
	"credex/internal/decision"
	"credex/internal/scoring"
)

// Direction summarizes the applicant-facing effect of the modification.
type Direction string

const (
	DirectionImproved  Direction = "improved"
	DirectionWorsened  Direction = "worsened"
	DirectionUnchanged Direction = "unchanged"
)

// Scenario is one named set of attribute deltas to simulate.
type Scenario struct {
	Name   string
	Deltas map[string]application.Value
}

// Diff is the structured comparison between the baseline and modified runs.
type Diff struct {
	DecisionChanged   bool             `json:"decision_changed"`
	Direction         Direction        `json:"direction"`
	ConfidenceDelta   float64          `json:"confidence_delta"`
	NewlyTriggered    []string         `json:"newly_triggered"`
	NoLongerTriggered []string         `json:"no_longer_triggered"`
	RiskBandChanged   bool             `json:"risk_band_changed"`
	RiskBandFrom      scoring.RiskBand `json:"risk_band_from,omitempty"`
	RiskBandTo        scoring.RiskBand `json:"risk_band_to,omitempty"`
	ImpactSummary     string           `json:"impact_summary"`
}

// Result pairs both full assessments with their diff.
type Result struct {
	Baseline decision.Assessment
	Modified decision.Assessment
	Diff     Diff
}

// BatchResult is the outcome of one named scenario.
type BatchResult struct {
	Scenario string
	Result   Result
}

// VersionMismatchError reports that the two pipeline runs did not share the
// same rule catalog or model version, which would make the diff meaningless.
type VersionMismatchError struct {
	Kind     string // "catalog" or "model"
	Baseline string
	Modified string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("simulation runs used different %s versions: %q vs %q",
		e.Kind, e.Baseline, e.Modified)
}
