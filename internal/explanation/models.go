// Package explanation turns a decision, its triggered rules, and the score
// breakdown into structured, localized explanations with policy citations.
// Synthesis is deterministic: identical inputs produce byte-identical output,
// and the only timestamp is supplied by the caller.
package explanation

import (
	"context"
	"time"
)

// Style selects the register of the summary sentence.
type Style string

const (
	StyleShort    Style = "short"
	StyleFormal   Style = "formal"
	StyleAdvisory Style = "advisory"
)

// IsValid checks if the style is one of the supported values.
func (s Style) IsValid() bool {
	switch s {
	case StyleShort, StyleFormal, StyleAdvisory:
		return true
	}
	return false
}

// Direction tags a feature contribution's effect on risk.
type Direction string

const (
	DirectionIncreasesRisk Direction = "increases_risk"
	DirectionDecreasesRisk Direction = "decreases_risk"
)

// Contribution is one feature's effect on the risk score, tagged with its
// direction. Positive impact increases risk.
type Contribution struct {
	Feature   string    `json:"feature"`
	Impact    float64   `json:"impact"`
	Direction Direction `json:"direction"`
}

// Localized is the per-language portion of an explanation.
type Localized struct {
	Summary         string   `json:"summary"`
	Details         []string `json:"details"`
	Recommendations []string `json:"recommendations"`
}

// Explanation is derived entirely from its decision, rule result, and score;
// it has no independent lifecycle and is stored alongside its decision.
type Explanation struct {
	Languages     map[string]Localized `json:"languages"`
	Citations     []string             `json:"citations"`
	Contributions []Contribution       `json:"contributions"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// PolicyRetriever is the port to the policy citation collaborator.
type PolicyRetriever interface {
	CitationsFor(ctx context.Context, refs []string) ([]string, error)
}

// PolicyRetrieverFunc adapts a function to the PolicyRetriever interface.
type PolicyRetrieverFunc func(ctx context.Context, refs []string) ([]string, error)

func (f PolicyRetrieverFunc) CitationsFor(ctx context.Context, refs []string) ([]string, error) {
	return f(ctx, refs)
}

// StaticPolicyRetriever resolves citations from a fixed mapping, preserving
// input order and skipping unknown tags.
type StaticPolicyRetriever map[string]string

func (r StaticPolicyRetriever) CitationsFor(_ context.Context, refs []string) ([]string, error) {
	citations := make([]string, 0, len(refs))
	for _, ref := range refs {
		if citation, ok := r[ref]; ok {
			citations = append(citations, citation)
		}
	}
	return citations, nil
}
