package whatif

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"credex/internal/application"
	"credex/internal/decision"
	"credex/internal/rules"
	"credex/internal/scoring"
	pkgerrors "credex/pkg/domain-errors"
	"credex/pkg/platform/audit"
	"credex/pkg/requestcontext"
)

// maxBatchScenarios bounds one batch request.
const maxBatchScenarios = 20

// Pipeline is the slice of the decision service the simulator needs: a
// persistence-free pass pinned to one catalog snapshot.
type Pipeline interface {
	AssessWith(ctx context.Context, app application.Application, catalog *rules.Catalog, opts decision.AssessOptions) (decision.Assessment, error)
	Catalog() *rules.Catalog
}

// Simulator runs paired pipeline passes and diffs them.
type Simulator struct {
	pipeline Pipeline
	auditor  audit.Publisher
	logger   *slog.Logger
}

type Option func(*Simulator)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Simulator) { s.auditor = publisher }
}

func NewSimulator(pipeline Pipeline, opts ...Option) *Simulator {
	s := &Simulator{
		pipeline: pipeline,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate runs the pipeline for the baseline application and for a copy with
// the deltas applied, then diffs the two. Both passes share one catalog
// snapshot and one clock reading, so a concurrent hot reload cannot split the
// pair.
func (s *Simulator) Simulate(ctx context.Context, app application.Application, deltas map[string]application.Value, opts decision.AssessOptions) (Result, error) {
	if len(deltas) == 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one attribute change is required")
	}

	catalog := s.pipeline.Catalog()
	ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))
	modified := app.Apply(deltas)

	var baseline, changed decision.Assessment

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.pipeline.AssessWith(gctx, app, catalog, opts)
		if err != nil {
			return fmt.Errorf("baseline run: %w", err)
		}
		baseline = a
		return nil
	})
	g.Go(func() error {
		a, err := s.pipeline.AssessWith(gctx, modified, catalog, opts)
		if err != nil {
			return fmt.Errorf("modified run: %w", err)
		}
		changed = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if err := checkVersions(baseline, changed); err != nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeConflict, err.Error())
	}

	result := Result{
		Baseline: baseline,
		Modified: changed,
		Diff:     diff(baseline, changed, deltas),
	}

	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Timestamp:     requestcontext.Now(ctx),
			Action:        audit.EventSimulationRun,
			ApplicationID: app.ID,
			ActorID:       requestcontext.ActorID(ctx),
			RequestID:     requestcontext.RequestID(ctx),
			Outcome:       string(result.Diff.Direction),
		})
	}

	s.logger.InfoContext(ctx, "simulation completed",
		"application_id", app.ID.String(),
		"changes", len(deltas),
		"direction", result.Diff.Direction,
		"request_id", requestcontext.RequestID(ctx),
	)

	return result, nil
}

// SimulateBatch runs each named scenario independently against the baseline.
// Scenarios do not compound; each one applies to the original application.
func (s *Simulator) SimulateBatch(ctx context.Context, app application.Application, scenarios []Scenario, opts decision.AssessOptions) ([]BatchResult, error) {
	if len(scenarios) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one scenario is required")
	}
	if len(scenarios) > maxBatchScenarios {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("at most %d scenarios per batch", maxBatchScenarios))
	}

	results := make([]BatchResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		result, err := s.Simulate(ctx, app, scenario.Deltas, opts)
		if err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeOf(err),
				fmt.Sprintf("scenario %q failed", scenario.Name))
		}
		results = append(results, BatchResult{Scenario: scenario.Name, Result: result})
	}
	return results, nil
}

// checkVersions rejects pairs that did not run on identical versions. The
// catalog is pinned, so a mismatch there means a programming error; the model
// version can genuinely drift when the scorer is redeployed mid-pair.
func checkVersions(baseline, modified decision.Assessment) error {
	if baseline.Decision.RuleSetVersion != modified.Decision.RuleSetVersion {
		return &VersionMismatchError{
			Kind:     "catalog",
			Baseline: baseline.Decision.RuleSetVersion,
			Modified: modified.Decision.RuleSetVersion,
		}
	}
	if baseline.Decision.ModelVersion != "" && modified.Decision.ModelVersion != "" &&
		baseline.Decision.ModelVersion != modified.Decision.ModelVersion {
		return &VersionMismatchError{
			Kind:     "model",
			Baseline: baseline.Decision.ModelVersion,
			Modified: modified.Decision.ModelVersion,
		}
	}
	return nil
}

func diff(baseline, modified decision.Assessment, deltas map[string]application.Value) Diff {
	d := Diff{
		DecisionChanged:   baseline.Decision.Outcome != modified.Decision.Outcome,
		ConfidenceDelta:   modified.Decision.Confidence - baseline.Decision.Confidence,
		NewlyTriggered:    ruleDifference(modified.RuleResult, baseline.RuleResult),
		NoLongerTriggered: ruleDifference(baseline.RuleResult, modified.RuleResult),
	}
	d.Direction = direction(baseline.Decision.Outcome, modified.Decision.Outcome)

	baseBand := riskBand(baseline)
	modBand := riskBand(modified)
	if baseBand != modBand {
		d.RiskBandChanged = true
		d.RiskBandFrom = baseBand
		d.RiskBandTo = modBand
	}

	d.ImpactSummary = impactSummary(d, baseline, modified, deltas)
	return d
}

// ruleDifference returns IDs triggered in a but not in b, in a's order.
func ruleDifference(a, b rules.EvalResult) []string {
	inB := make(map[string]bool, len(b.Triggered))
	for _, rule := range b.Triggered {
		inB[rule.ID] = true
	}
	out := []string{}
	for _, rule := range a.Triggered {
		if !inB[rule.ID] {
			out = append(out, rule.ID)
		}
	}
	return out
}

// outcomeRank orders outcomes from the applicant's perspective.
func outcomeRank(o decision.Outcome) int {
	switch o {
	case decision.OutcomeApproved:
		return 2
	case decision.OutcomeReview:
		return 1
	default:
		return 0
	}
}

func direction(from, to decision.Outcome) Direction {
	switch {
	case outcomeRank(to) > outcomeRank(from):
		return DirectionImproved
	case outcomeRank(to) < outcomeRank(from):
		return DirectionWorsened
	default:
		return DirectionUnchanged
	}
}

func riskBand(a decision.Assessment) scoring.RiskBand {
	if a.Score == nil {
		return ""
	}
	return a.Score.RiskBand
}

func impactSummary(d Diff, baseline, modified decision.Assessment, deltas map[string]application.Value) string {
	changed := make([]string, 0, len(deltas))
	for name := range deltas {
		changed = append(changed, name)
	}
	sort.Strings(changed)

	var b strings.Builder
	fmt.Fprintf(&b, "Changing %s", strings.Join(changed, ", "))
	if d.DecisionChanged {
		fmt.Fprintf(&b, " would change the decision from %s to %s",
			baseline.Decision.Outcome, modified.Decision.Outcome)
	} else {
		fmt.Fprintf(&b, " would not change the %s decision", baseline.Decision.Outcome)
	}
	if d.RiskBandChanged {
		fmt.Fprintf(&b, " and move the risk band from %s to %s", d.RiskBandFrom, d.RiskBandTo)
	}
	b.WriteString(".")
	return b.String()
}
