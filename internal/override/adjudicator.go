package override

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"credex/internal/decision"
	"credex/internal/rules"
	id "credex/pkg/domain"
	pkgerrors "credex/pkg/domain-errors"
	"credex/pkg/platform/audit"
	"credex/pkg/platform/sentinel"
	"credex/pkg/requestcontext"
)

// DefaultMinJustification is the minimum justification length in runes.
const DefaultMinJustification = 100

// DecisionReader is the slice of the decision service the adjudicator needs.
type DecisionReader interface {
	Get(ctx context.Context, decisionID id.DecisionID) (decision.Bundle, error)
	Catalog() *rules.Catalog
}

// Store persists override records, enforcing at most one per decision.
type Store interface {
	Save(ctx context.Context, record Record) error
	GetByDecision(ctx context.Context, decisionID id.DecisionID) (Record, error)
	List(ctx context.Context, limit, offset int) ([]Record, error)
}

// Recorder is the metrics port for override adjudication.
type Recorder interface {
	IncrementAdjudication(result, role string)
}

// roleCeiling is the highest rule severity each role may override.
// Critical is absent on purpose; no role clears it.
var roleCeiling = map[Role]rules.Severity{
	RoleCreditOfficer: rules.SeverityMedium,
	RoleAdmin:         rules.SeverityHigh,
}

// Adjudicator applies the override policy and records accepted overrides.
type Adjudicator struct {
	decisions        DecisionReader
	store            Store
	minJustification int
	auditor          audit.Publisher
	logger           *slog.Logger
	metrics          Recorder
}

type Option func(*Adjudicator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adjudicator) { a.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(a *Adjudicator) { a.auditor = publisher }
}

func WithMetrics(metrics Recorder) Option {
	return func(a *Adjudicator) { a.metrics = metrics }
}

func WithMinJustification(minimum int) Option {
	return func(a *Adjudicator) {
		if minimum > 0 {
			a.minJustification = minimum
		}
	}
}

func NewAdjudicator(decisions DecisionReader, store Store, opts ...Option) *Adjudicator {
	a := &Adjudicator{
		decisions:        decisions,
		store:            store,
		minJustification: DefaultMinJustification,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Adjudicate validates an override request against the policy and, when it
// passes, records it. Refusals are audited as security events.
func (a *Adjudicator) Adjudicate(ctx context.Context, req Request) (Record, error) {
	bundle, err := a.decisions.Get(ctx, req.DecisionID)
	if err != nil {
		return Record{}, err
	}

	actor := requestcontext.ActorID(ctx)
	role, err := ParseRole(requestcontext.ActorRole(ctx))
	if err != nil {
		return Record{}, pkgerrors.New(pkgerrors.CodeForbidden, "caller has no recognized role")
	}

	if err := a.check(bundle, req, actor, role); err != nil {
		a.rejected(ctx, bundle, actor, role, err)
		return Record{}, err
	}

	record := Record{
		ID:              id.NewOverrideID(),
		DecisionID:      req.DecisionID,
		OriginalOutcome: bundle.Decision.Outcome,
		NewOutcome:      req.NewOutcome,
		ReasonCode:      req.ReasonCode,
		Justification:   req.Justification,
		ActorID:         actor,
		ActorRole:       role,
		ApproverID:      req.ApproverID,
		ApproverRole:    req.ApproverRole,
		CreatedAt:       requestcontext.Now(ctx),
	}

	if err := a.store.Save(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Record{}, pkgerrors.New(pkgerrors.CodeConflict, "decision already overridden")
		}
		return Record{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to persist override")
	}

	if a.metrics != nil {
		a.metrics.IncrementAdjudication("accepted", role.String())
	}
	if a.auditor != nil {
		_ = a.auditor.Emit(ctx, audit.Event{
			Timestamp:     record.CreatedAt,
			Action:        audit.EventDecisionOverridden,
			ApplicationID: bundle.Decision.ApplicationID,
			DecisionID:    record.DecisionID.String(),
			ActorID:       actor,
			RequestID:     requestcontext.RequestID(ctx),
			Outcome:       record.NewOutcome.String(),
			Reason:        string(record.ReasonCode),
		})
	}

	a.logger.InfoContext(ctx, "decision overridden",
		"override_id", record.ID.String(),
		"decision_id", record.DecisionID.String(),
		"from", record.OriginalOutcome.String(),
		"to", record.NewOutcome.String(),
		"role", role.String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	return record, nil
}

// GetByDecision fetches the override for a decision, if any.
func (a *Adjudicator) GetByDecision(ctx context.Context, decisionID id.DecisionID) (Record, error) {
	record, err := a.store.GetByDecision(ctx, decisionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, pkgerrors.New(pkgerrors.CodeNotFound, "no override for decision")
		}
		return Record{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to load override")
	}
	return record, nil
}

// List returns recorded overrides, newest first.
func (a *Adjudicator) List(ctx context.Context, limit, offset int) ([]Record, error) {
	records, err := a.store.List(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list overrides")
	}
	return records, nil
}

// check applies the override policy in order: outcome sanity, justification
// length, role permission, then rule severity with the approver gate.
func (a *Adjudicator) check(bundle decision.Bundle, req Request, actor id.ActorID, role Role) error {
	if !req.NewOutcome.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "new_outcome must be one of approved, rejected, review")
	}
	if req.NewOutcome == bundle.Decision.Outcome {
		return pkgerrors.New(pkgerrors.CodeValidation, "new outcome matches the existing outcome")
	}
	if !req.ReasonCode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unrecognized reason code")
	}
	if !req.ApproverID.IsEmpty() && !req.ApproverRole.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "approver_role must accompany approver_id")
	}

	if length := utf8.RuneCountInString(req.Justification); length < a.minJustification {
		err := &InsufficientJustificationError{Length: length, Minimum: a.minJustification}
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	ceiling, allowed := roleCeiling[role]
	if !allowed {
		err := &NotAllowedError{Reason: "role " + role.String() + " cannot override decisions"}
		return pkgerrors.New(pkgerrors.CodeForbidden, err.Error())
	}

	rule, ok := a.decisions.Catalog().RuleByID(bundle.Decision.PrimaryReason)
	if !ok {
		// Score-driven decisions carry no rule, so no severity gate applies.
		return nil
	}

	if rule.Severity == rules.SeverityCritical || !rule.OverrideAllowed {
		err := &NotAllowedError{Reason: "rule " + rule.ID + " is not overridable"}
		return pkgerrors.New(pkgerrors.CodeForbidden, err.Error())
	}
	if rule.Severity.Rank() > ceiling.Rank() {
		if req.ApproverID.IsEmpty() {
			err := &ApprovalRequiredError{Role: role, Required: RoleAdmin}
			return pkgerrors.New(pkgerrors.CodeForbidden, err.Error())
		}
		if req.ApproverID == actor {
			err := &NotAllowedError{Reason: "actor cannot approve their own override"}
			return pkgerrors.New(pkgerrors.CodeForbidden, err.Error())
		}
		approverCeiling, ok := roleCeiling[req.ApproverRole]
		if !ok || rule.Severity.Rank() > approverCeiling.Rank() {
			err := &NotAllowedError{Reason: "approver role " + req.ApproverRole.String() +
				" cannot approve a " + rule.Severity.String() + " severity override"}
			return pkgerrors.New(pkgerrors.CodeForbidden, err.Error())
		}
	}
	return nil
}

func (a *Adjudicator) rejected(ctx context.Context, bundle decision.Bundle, actor id.ActorID, role Role, cause error) {
	if a.metrics != nil {
		a.metrics.IncrementAdjudication("rejected", role.String())
	}
	if a.auditor != nil {
		_ = a.auditor.Emit(ctx, audit.Event{
			Timestamp:     requestcontext.Now(ctx),
			Action:        audit.EventOverrideRejected,
			ApplicationID: bundle.Decision.ApplicationID,
			DecisionID:    bundle.Decision.ID.String(),
			ActorID:       actor,
			RequestID:     requestcontext.RequestID(ctx),
			Outcome:       bundle.Decision.Outcome.String(),
			Reason:        pkgerrors.MessageOf(cause),
		})
	}
	a.logger.WarnContext(ctx, "override rejected",
		"decision_id", bundle.Decision.ID.String(),
		"role", role.String(),
		"error", cause,
		"request_id", requestcontext.RequestID(ctx),
	)
}
