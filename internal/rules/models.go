// Package rules holds the versioned business-rule catalog and its evaluator.
// The catalog is data-only: conditions are restricted comparison/combinator
// trees, never executable expressions, so the rule set stays auditable.
package rules

import (
	"fmt"
)

// Severity is the priority tier of a rule. It governs whether a rule can
// override the ML score and whether a human may override the decision.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ParseSeverity validates a severity string.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.IsValid() {
		return "", fmt.Errorf("invalid severity %q", s)
	}
	return sev, nil
}

// IsValid checks if the severity is one of the supported tiers.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Rank orders severities: critical > high > medium > low. Zero for unknown.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

func (s Severity) String() string { return string(s) }

// Action is what a triggered rule asks the combiner to do.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionReview  Action = "review"
)

// IsValid checks if the action is one of the supported values.
func (a Action) IsValid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionReview:
		return true
	}
	return false
}

func (a Action) String() string { return string(a) }

// Rule is one declarative business rule. Reason and Recommendation are maps
// from BCP-47 language tag to localized text; templates may reference
// {attribute} and {threshold}, substituted from the condition at explanation
// time.
type Rule struct {
	ID              string            `yaml:"id"`
	Name            string            `yaml:"name"`
	Condition       Condition         `yaml:"condition"`
	Severity        Severity          `yaml:"severity"`
	Action          Action            `yaml:"action"`
	OverrideAllowed bool              `yaml:"override_allowed"`
	Reason          map[string]string `yaml:"reason"`
	Recommendation  map[string]string `yaml:"recommendation"`
	PolicyRef       string            `yaml:"policy_ref"`
}

// Validate enforces per-rule invariants. Critical rules must not be
// overridable: a human may never undo a hard regulatory stop.
func (r Rule) Validate(languages []string) error {
	if r.ID == "" {
		return fmt.Errorf("rule has no id")
	}
	if r.Name == "" {
		return fmt.Errorf("rule %s: name is required", r.ID)
	}
	if !r.Severity.IsValid() {
		return fmt.Errorf("rule %s: invalid severity %q", r.ID, r.Severity)
	}
	if !r.Action.IsValid() {
		return fmt.Errorf("rule %s: invalid action %q", r.ID, r.Action)
	}
	if r.Severity == SeverityCritical && r.OverrideAllowed {
		return fmt.Errorf("rule %s: critical rules cannot be overridable", r.ID)
	}
	if r.Severity == SeverityCritical && r.Action == ActionApprove {
		return fmt.Errorf("rule %s: critical rules cannot approve", r.ID)
	}
	if err := r.Condition.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	for _, lang := range languages {
		if r.Reason[lang] == "" {
			return fmt.Errorf("rule %s: missing reason text for language %q", r.ID, lang)
		}
	}
	return nil
}
