// Package decision merges the rule evaluation with the ML score into one
// final, immutable decision, and orchestrates the full pipeline around it.
package decision

import (
	"time"

	"credex/internal/explanation"
	"credex/internal/rules"
	"credex/internal/scoring"
	id "credex/pkg/domain"
)

// Outcome is the final disposition of an application.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	OutcomeReview   Outcome = "review"
)

// IsValid checks if the outcome is one of the supported values.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeApproved, OutcomeRejected, OutcomeReview:
		return true
	}
	return false
}

func (o Outcome) String() string { return string(o) }

// Well-known primary reasons when no single rule drives the outcome.
const (
	ReasonMLScore          = "ml_score"
	ReasonMixedSignal      = "mixed_signal"
	ReasonScoreUnavailable = "score_unavailable"
)

// Decision is immutable once produced. Re-evaluations (what-if, override
// follow-ups) always create a new Decision; nothing mutates one in place.
type Decision struct {
	ID             id.DecisionID
	ApplicationID  id.ApplicationID
	Outcome        Outcome
	Confidence     float64
	PrimaryReason  string // rule ID, or one of the well-known reasons
	Factors        []string
	ModelVersion   string // empty when the score was unavailable
	RuleSetVersion string
	CreatedAt      time.Time
}

// Bundle pairs a decision with the explanation generated alongside it.
// Explanations have no independent lifecycle.
type Bundle struct {
	Decision    Decision
	Explanation *explanation.Explanation
}

// Assessment is one full pipeline pass without persistence. The what-if
// simulator runs two of these and diffs them.
type Assessment struct {
	Decision    Decision
	Explanation *explanation.Explanation
	RuleResult  rules.EvalResult
	Score       *scoring.Result // nil when unavailable
}
