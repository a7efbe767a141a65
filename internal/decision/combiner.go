package decision

import (
	"math"
	"sort"

	"credex/internal/rules"
	"credex/internal/scoring"
)

// maxScoreFactors caps how many score features join the contributing factors
// after the triggered rule names.
const maxScoreFactors = 3

// Combine resolves the rule evaluation and the ML score into one outcome.
// Pure function of its inputs. Precedence, in order:
//
//  1. A critical rule always wins, regardless of the score.
//  2. A reject rule of any severity rejects; a high-severity review rule
//     forces review.
//  3. With no overriding rule and no score, the application goes to review.
//  4. Otherwise the score's risk band drives the outcome. Any triggered rule
//     of medium or higher severity, whatever its action, blocks a band
//     approval or rejection and sends the application to review instead.
func Combine(res rules.EvalResult, score *scoring.Result, bands scoring.Bands) (Outcome, float64, string, []string) {
	factors := contributingFactors(res, score)

	if res.HighestSeverity == rules.SeverityCritical {
		outcome := outcomeForAction(*res.RuleAction)
		if outcome == OutcomeApproved {
			outcome = OutcomeReview
		}
		return outcome, 1.0, res.PrimaryRule.ID, factors
	}

	if res.RuleAction != nil && *res.RuleAction == rules.ActionReject {
		return OutcomeRejected, confidenceForSeverity(res.HighestSeverity), res.PrimaryRule.ID, factors
	}

	if res.RuleAction != nil && *res.RuleAction == rules.ActionReview && res.HighestSeverity == rules.SeverityHigh {
		return OutcomeReview, 0.8, res.PrimaryRule.ID, factors
	}

	if score == nil {
		return OutcomeReview, 0.5, ReasonScoreUnavailable, factors
	}

	band := bands.BandFor(score.RiskScore)
	rulePull := res.HasSeverityAtLeast(rules.SeverityMedium)

	switch {
	case band == scoring.BandLow && !rulePull:
		return OutcomeApproved, clampConfidence(0.5 + 0.5*(1-score.RiskScore)), ReasonMLScore, factors
	case band == scoring.BandMedium || rulePull:
		return OutcomeReview, 0.5, ReasonMixedSignal, factors
	default:
		return OutcomeRejected, clampConfidence(0.5 + 0.5*score.RiskScore), ReasonMLScore, factors
	}
}

func outcomeForAction(action rules.Action) Outcome {
	switch action {
	case rules.ActionApprove:
		return OutcomeApproved
	case rules.ActionReject:
		return OutcomeRejected
	default:
		return OutcomeReview
	}
}

// confidenceForSeverity maps a reject rule's severity to confidence. Critical
// is handled earlier at 1.0.
func confidenceForSeverity(s rules.Severity) float64 {
	switch s {
	case rules.SeverityHigh:
		return 0.9
	case rules.SeverityMedium:
		return 0.6
	default:
		return 0.5
	}
}

func clampConfidence(c float64) float64 {
	return math.Min(1.0, math.Max(0.0, c))
}

// contributingFactors lists triggered rule names in catalog order, followed by
// the strongest score features by absolute contribution, deduplicated.
func contributingFactors(res rules.EvalResult, score *scoring.Result) []string {
	factors := make([]string, 0, len(res.Triggered)+maxScoreFactors)
	seen := make(map[string]bool, len(res.Triggered)+maxScoreFactors)

	for _, rule := range res.Triggered {
		if !seen[rule.Name] {
			seen[rule.Name] = true
			factors = append(factors, rule.Name)
		}
	}

	if score != nil {
		top := make([]scoring.Contribution, len(score.Contributions))
		copy(top, score.Contributions)
		sort.SliceStable(top, func(i, j int) bool {
			ai, aj := math.Abs(top[i].Value), math.Abs(top[j].Value)
			if ai != aj {
				return ai > aj
			}
			return top[i].Feature < top[j].Feature
		})
		added := 0
		for _, c := range top {
			if added == maxScoreFactors {
				break
			}
			if seen[c.Feature] {
				continue
			}
			seen[c.Feature] = true
			factors = append(factors, c.Feature)
			added++
		}
	}

	return factors
}
