package decision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"credex/internal/application"
	"credex/internal/explanation"
	"credex/internal/rules"
	"credex/internal/scoring"
	id "credex/pkg/domain"
	pkgerrors "credex/pkg/domain-errors"
	"credex/pkg/platform/audit"
	"credex/pkg/platform/sentinel"
	"credex/pkg/requestcontext"
)

// Recorder is the metrics port for the decision pipeline.
type Recorder interface {
	ObserveStageLatency(stage string, d time.Duration)
	IncrementOutcome(outcome, reason string)
	ObserveEvaluateLatency(d time.Duration)
	IncrementScoreUnavailable()
}

// AssessOptions shape one pipeline pass.
type AssessOptions struct {
	Languages []string
	Style     explanation.Style
}

// Service runs the full pipeline: rule evaluation and scoring in parallel,
// conflict resolution, explanation synthesis, then persistence and audit.
type Service struct {
	catalogs *rules.Provider
	scorer   scoring.Scorer
	synth    *explanation.Synthesizer
	store    Store
	bands    scoring.Bands
	auditor  audit.Publisher
	logger   *slog.Logger
	metrics  Recorder
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(metrics Recorder) Option {
	return func(s *Service) { s.metrics = metrics }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func NewService(
	catalogs *rules.Provider,
	scorer scoring.Scorer,
	synth *explanation.Synthesizer,
	store Store,
	bands scoring.Bands,
	opts ...Option,
) *Service {
	s := &Service{
		catalogs: catalogs,
		scorer:   scorer,
		synth:    synth,
		store:    store,
		bands:    bands,
		logger:   slog.Default(),
		tracer:   otel.Tracer("credex/decision"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess runs one pipeline pass without persisting anything. The what-if
// simulator calls this twice against the same catalog snapshot.
func (s *Service) Assess(ctx context.Context, app application.Application, opts AssessOptions) (Assessment, error) {
	return s.assess(ctx, app, s.catalogs.Current(), opts)
}

// AssessWith runs one pass against an explicit catalog snapshot, so paired
// runs cannot straddle a hot reload.
func (s *Service) AssessWith(ctx context.Context, app application.Application, catalog *rules.Catalog, opts AssessOptions) (Assessment, error) {
	return s.assess(ctx, app, catalog, opts)
}

// Catalog exposes the current catalog snapshot.
func (s *Service) Catalog() *rules.Catalog {
	return s.catalogs.Current()
}

func (s *Service) assess(ctx context.Context, app application.Application, catalog *rules.Catalog, opts AssessOptions) (Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "decision.assess",
		trace.WithAttributes(attribute.String("application.id", app.ID.String())))
	defer span.End()

	now := requestcontext.Now(ctx)

	var (
		ruleResult rules.EvalResult
		score      *scoring.Result
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		result, err := rules.Evaluate(app, catalog)
		if s.metrics != nil {
			s.metrics.ObserveStageLatency("rules", time.Since(start))
		}
		if err != nil {
			return err
		}
		ruleResult = result
		return nil
	})

	// A failed score is degraded service, not a failed decision. The combiner
	// falls back to rules plus manual review.
	g.Go(func() error {
		start := time.Now()
		result, err := s.scorer.Score(gctx, app)
		if s.metrics != nil {
			s.metrics.ObserveStageLatency("score", time.Since(start))
		}
		if err != nil {
			if s.metrics != nil {
				s.metrics.IncrementScoreUnavailable()
			}
			s.logger.WarnContext(gctx, "score unavailable, continuing rules-only",
				"application_id", app.ID.String(),
				"request_id", requestcontext.RequestID(gctx),
				"error", err,
			)
			return nil
		}
		score = result
		return nil
	})

	if err := g.Wait(); err != nil {
		var evalErr *rules.EvaluationError
		if errors.As(err, &evalErr) {
			return Assessment{}, pkgerrors.New(pkgerrors.CodeValidation, evalErr.Error())
		}
		return Assessment{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "rule evaluation failed")
	}

	outcome, confidence, reason, factors := Combine(ruleResult, score, s.bands)

	d := Decision{
		ID:             id.NewDecisionID(),
		ApplicationID:  app.ID,
		Outcome:        outcome,
		Confidence:     confidence,
		PrimaryReason:  reason,
		Factors:        factors,
		RuleSetVersion: catalog.Version,
		CreatedAt:      now,
	}
	if score != nil {
		d.ModelVersion = score.ModelVersion
	}

	start := time.Now()
	var band scoring.RiskBand
	if score != nil {
		band = s.bands.BandFor(score.RiskScore)
	}
	expl, err := s.synth.Explain(ctx, explanation.Input{
		Outcome:       outcome.String(),
		PrimaryReason: reason,
		Confidence:    confidence,
		RiskBand:      band,
	}, ruleResult, score, explanation.Options{
		Languages:   opts.Languages,
		Style:       opts.Style,
		GeneratedAt: now,
	})
	if s.metrics != nil {
		s.metrics.ObserveStageLatency("explanation", time.Since(start))
	}
	if err != nil {
		return Assessment{}, pkgerrors.New(pkgerrors.CodeBadRequest, err.Error())
	}

	span.SetAttributes(
		attribute.String("decision.outcome", outcome.String()),
		attribute.String("decision.reason", reason),
	)

	return Assessment{
		Decision:    d,
		Explanation: expl,
		RuleResult:  ruleResult,
		Score:       score,
	}, nil
}

// Evaluate runs the pipeline and persists the resulting decision bundle.
func (s *Service) Evaluate(ctx context.Context, app application.Application, opts AssessOptions) (Bundle, error) {
	start := time.Now()

	assessment, err := s.Assess(ctx, app, opts)
	if err != nil {
		return Bundle{}, err
	}

	bundle := Bundle{Decision: assessment.Decision, Explanation: assessment.Explanation}
	if err := s.store.Save(ctx, bundle); err != nil {
		return Bundle{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to persist decision")
	}

	if s.metrics != nil {
		s.metrics.IncrementOutcome(bundle.Decision.Outcome.String(), bundle.Decision.PrimaryReason)
		s.metrics.ObserveEvaluateLatency(time.Since(start))
	}

	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Timestamp:     bundle.Decision.CreatedAt,
			Action:        audit.EventDecisionMade,
			ApplicationID: bundle.Decision.ApplicationID,
			DecisionID:    bundle.Decision.ID.String(),
			ActorID:       requestcontext.ActorID(ctx),
			RequestID:     requestcontext.RequestID(ctx),
			Outcome:       bundle.Decision.Outcome.String(),
			Reason:        bundle.Decision.PrimaryReason,
		})
	}

	s.logger.InfoContext(ctx, "decision evaluated",
		"decision_id", bundle.Decision.ID.String(),
		"application_id", bundle.Decision.ApplicationID.String(),
		"outcome", bundle.Decision.Outcome.String(),
		"reason", bundle.Decision.PrimaryReason,
		"ruleset_version", bundle.Decision.RuleSetVersion,
		"request_id", requestcontext.RequestID(ctx),
	)

	return bundle, nil
}

// Get fetches one persisted decision bundle.
func (s *Service) Get(ctx context.Context, decisionID id.DecisionID) (Bundle, error) {
	bundle, err := s.store.Get(ctx, decisionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Bundle{}, pkgerrors.New(pkgerrors.CodeNotFound, "decision not found")
		}
		return Bundle{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to load decision")
	}
	return bundle, nil
}

// List returns persisted decisions matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Bundle, error) {
	bundles, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list decisions")
	}
	return bundles, nil
}

// Stats aggregates decision counts over an optional window.
func (s *Service) Stats(ctx context.Context, since, until time.Time) (Stats, error) {
	stats, err := s.store.Stats(ctx, since, until)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to aggregate decision stats")
	}
	return stats, nil
}

// ReloadCatalog parses and swaps in a new catalog version, emitting an audit
// event on success.
func (s *Service) ReloadCatalog(ctx context.Context, data []byte) (*rules.Catalog, error) {
	catalog, err := rules.ParseCatalog(data)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeValidation, fmt.Sprintf("catalog rejected: %v", err))
	}
	previous, err := s.catalogs.Swap(catalog)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, err.Error())
	}

	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Action:    audit.EventCatalogReloaded,
			ActorID:   requestcontext.ActorID(ctx),
			RequestID: requestcontext.RequestID(ctx),
			Outcome:   catalog.Version,
		})
	}

	s.logger.InfoContext(ctx, "rule catalog reloaded",
		"version", catalog.Version,
		"previous_version", previous,
		"rules", len(catalog.Rules),
		"request_id", requestcontext.RequestID(ctx),
	)

	return catalog, nil
}
