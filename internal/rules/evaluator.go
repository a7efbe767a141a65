package rules

import (
	"errors"
	"fmt"

	"credex/internal/application"
)

// EvaluationError reports a rule condition that could not be resolved against
// the application: a referenced attribute is missing or has the wrong type.
// The whole evaluation fails; rules are never silently skipped.
type EvaluationError struct {
	RuleID    string
	Attribute string
	Reason    string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("rule %s: attribute %q: %s", e.RuleID, e.Attribute, e.Reason)
}

// EvalResult is the outcome of evaluating one catalog against one application.
// Triggered preserves catalog order; downstream tie-breaks depend on it.
type EvalResult struct {
	Triggered       []Rule
	HighestSeverity Severity // empty when nothing triggered
	RuleAction      *Action  // nil means "defer to score"
	PrimaryRule     *Rule    // highest-severity triggered rule, first on tie
	CatalogVersion  string
}

// TriggeredIDs returns the IDs of triggered rules in catalog order.
func (r EvalResult) TriggeredIDs() []string {
	ids := make([]string, len(r.Triggered))
	for i, rule := range r.Triggered {
		ids[i] = rule.ID
	}
	return ids
}

// HasSeverityAtLeast reports whether any triggered rule has severity rank >=
// the given severity.
func (r EvalResult) HasSeverityAtLeast(s Severity) bool {
	for _, rule := range r.Triggered {
		if rule.Severity.Rank() >= s.Rank() {
			return true
		}
	}
	return false
}

// Evaluate runs every catalog rule against the application in catalog order.
// Pure function of its inputs: no side effects, safe for concurrent use, and
// idempotent for identical inputs.
func Evaluate(app application.Application, catalog *Catalog) (EvalResult, error) {
	result := EvalResult{CatalogVersion: catalog.Version}

	for i := range catalog.Rules {
		rule := catalog.Rules[i]
		ok, err := rule.Condition.Eval(app)
		if err != nil {
			var attrErr *attributeError
			if errors.As(err, &attrErr) {
				return EvalResult{}, &EvaluationError{
					RuleID:    rule.ID,
					Attribute: attrErr.attribute,
					Reason:    attrErr.reason,
				}
			}
			return EvalResult{}, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		if !ok {
			continue
		}

		result.Triggered = append(result.Triggered, rule)
		if result.PrimaryRule == nil || rule.Severity.Rank() > result.PrimaryRule.Severity.Rank() {
			result.PrimaryRule = &catalog.Rules[i]
		}
	}

	if result.PrimaryRule != nil {
		result.HighestSeverity = result.PrimaryRule.Severity
		action := result.PrimaryRule.Action
		result.RuleAction = &action
	}

	return result, nil
}
