package explanation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"

	"credex/internal/rules"
	"credex/internal/scoring"
	pstrings "credex/pkg/platform/strings"
)

// DefaultTopContributions is the default N for the feature breakdown.
const DefaultTopContributions = 5

// Input is the decision summary the synthesizer needs. Kept narrow so the
// decision package can depend on this one without a cycle.
type Input struct {
	Outcome       string
	PrimaryReason string
	Confidence    float64
	RiskBand      scoring.RiskBand // empty when the score was unavailable
}

// Options control one synthesis call.
type Options struct {
	Languages   []string // requested BCP-47 tags; empty means all supported
	Style       Style
	GeneratedAt time.Time // supplied by the caller; never read from the clock
}

// Synthesizer renders explanations for decisions. Safe for concurrent use.
type Synthesizer struct {
	policies  PolicyRetriever
	topN      int
	supported []language.Tag
	matcher   language.Matcher
}

// New builds a synthesizer for the given supported language tags.
func New(policies PolicyRetriever, topN int, supportedLanguages []string) (*Synthesizer, error) {
	if policies == nil {
		return nil, fmt.Errorf("policy retriever is required")
	}
	if topN <= 0 {
		topN = DefaultTopContributions
	}
	supportedLanguages = pstrings.DedupeAndTrim(supportedLanguages)
	if len(supportedLanguages) == 0 {
		return nil, fmt.Errorf("at least one supported language is required")
	}

	tags := make([]language.Tag, 0, len(supportedLanguages))
	for _, lang := range supportedLanguages {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("unsupported language tag %q: %w", lang, err)
		}
		tags = append(tags, tag)
	}

	return &Synthesizer{
		policies:  policies,
		topN:      topN,
		supported: tags,
		matcher:   language.NewMatcher(tags),
	}, nil
}

// Explain renders the explanation for one decision. Deterministic: identical
// inputs produce identical output.
func (s *Synthesizer) Explain(ctx context.Context, in Input, res rules.EvalResult, score *scoring.Result, opts Options) (*Explanation, error) {
	style := opts.Style
	if style == "" {
		style = StyleFormal
	}
	if !style.IsValid() {
		return nil, fmt.Errorf("invalid explanation style %q", style)
	}

	langs, err := s.resolveLanguages(opts.Languages)
	if err != nil {
		return nil, err
	}

	out := &Explanation{
		Languages:   make(map[string]Localized, len(langs)),
		GeneratedAt: opts.GeneratedAt,
	}

	for _, lang := range langs {
		out.Languages[lang] = s.localize(lang, in, res, style)
	}

	out.Contributions = topContributions(score, s.topN)

	citations, err := s.policies.CitationsFor(ctx, uniquePolicyRefs(res))
	if err != nil {
		return nil, fmt.Errorf("policy citation lookup: %w", err)
	}
	out.Citations = citations

	return out, nil
}

// resolveLanguages maps requested tags onto the supported set. Unknown or
// unparseable requests match to the closest supported language rather than
// failing, so a caller asking for en-US still gets English.
func (s *Synthesizer) resolveLanguages(requested []string) ([]string, error) {
	requested = pstrings.DedupeAndTrim(requested)
	if len(requested) == 0 {
		out := make([]string, len(s.supported))
		for i, tag := range s.supported {
			out[i] = tag.String()
		}
		return out, nil
	}

	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, req := range requested {
		tag, err := language.Parse(req)
		if err != nil {
			return nil, fmt.Errorf("invalid language tag %q", req)
		}
		_, index, _ := s.matcher.Match(tag)
		resolved := s.supported[index].String()
		if !seen[resolved] {
			seen[resolved] = true
			out = append(out, resolved)
		}
	}
	return out, nil
}

func (s *Synthesizer) localize(lang string, in Input, res rules.EvalResult, style Style) Localized {
	loc := Localized{
		Summary:         summarize(lang, in, style),
		Details:         make([]string, 0, len(res.Triggered)),
		Recommendations: []string{},
	}

	for _, rule := range res.Triggered {
		attribute, threshold, _ := rule.Condition.PrimaryLeaf()
		if reason := localizedText(rule.Reason, lang); reason != "" {
			loc.Details = append(loc.Details, renderRuleText(reason, attribute, threshold))
		}
		if rule.Action == rules.ActionReject || rule.Action == rules.ActionReview {
			if rec := localizedText(rule.Recommendation, lang); rec != "" {
				loc.Recommendations = append(loc.Recommendations, renderRuleText(rec, attribute, threshold))
			}
		}
	}

	return loc
}

func summarize(lang string, in Input, style Style) string {
	outcomes, ok := summaryTemplates[lang]
	if !ok {
		outcomes = summaryTemplates["en"]
	}
	styles, ok := outcomes[in.Outcome]
	if !ok {
		return in.Outcome
	}
	template := styles[style]
	band := string(in.RiskBand)
	if band == "" {
		band = "unknown"
	}
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, band)
	}
	return template
}

// localizedText picks the text for a language, falling back to English so a
// partially-translated catalog still explains itself.
func localizedText(texts map[string]string, lang string) string {
	if text, ok := texts[lang]; ok {
		return text
	}
	return texts["en"]
}

// topContributions selects the top-N contributions by absolute magnitude,
// tagging each with its risk direction. Ties break by feature name so output
// stays byte-identical across calls.
func topContributions(score *scoring.Result, topN int) []Contribution {
	if score == nil || len(score.Contributions) == 0 {
		return []Contribution{}
	}

	sorted := make([]scoring.Contribution, len(score.Contributions))
	copy(sorted, score.Contributions)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := math.Abs(sorted[i].Value), math.Abs(sorted[j].Value)
		if ai != aj {
			return ai > aj
		}
		return sorted[i].Feature < sorted[j].Feature
	})

	if len(sorted) > topN {
		sorted = sorted[:topN]
	}

	out := make([]Contribution, len(sorted))
	for i, c := range sorted {
		direction := DirectionIncreasesRisk
		if c.Value < 0 {
			direction = DirectionDecreasesRisk
		}
		out[i] = Contribution{Feature: c.Feature, Impact: c.Value, Direction: direction}
	}
	return out
}

// uniquePolicyRefs returns each triggered rule's policy tag once, in trigger
// order.
func uniquePolicyRefs(res rules.EvalResult) []string {
	seen := make(map[string]bool, len(res.Triggered))
	refs := make([]string, 0, len(res.Triggered))
	for _, rule := range res.Triggered {
		if rule.PolicyRef == "" || seen[rule.PolicyRef] {
			continue
		}
		seen[rule.PolicyRef] = true
		refs = append(refs, rule.PolicyRef)
	}
	return refs
}
