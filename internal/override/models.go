// Package override adjudicates human requests to change an automated
// decision. Overrides never mutate the decision record; an accepted override
// is its own immutable record pointing at the decision it supersedes.
package override

import (
	"fmt"
	"time"

	"credex/internal/decision"
	id "credex/pkg/domain"
)

// Role is the authenticated actor's role, carried in the JWT role claim.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleCreditOfficer Role = "credit_officer"
	RoleAuditor       Role = "auditor"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return role, nil
}

// IsValid checks if the role is one of the supported values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCreditOfficer, RoleAuditor:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ReasonCode classifies why a human is overriding the automated outcome.
type ReasonCode string

const (
	ReasonAdditionalDocumentation ReasonCode = "additional_documentation"
	ReasonDataCorrection          ReasonCode = "data_correction"
	ReasonPolicyException         ReasonCode = "policy_exception"
	ReasonHardshipConsideration   ReasonCode = "hardship_consideration"
	ReasonOther                   ReasonCode = "other"
)

// IsValid checks if the reason code is one of the supported values.
func (c ReasonCode) IsValid() bool {
	switch c {
	case ReasonAdditionalDocumentation, ReasonDataCorrection,
		ReasonPolicyException, ReasonHardshipConsideration, ReasonOther:
		return true
	}
	return false
}

// Record is one accepted override. Immutable once written; a decision can be
// overridden at most once. ApproverID and ApproverRole are empty unless a
// countersignature was part of the adjudication.
type Record struct {
	ID              id.OverrideID
	DecisionID      id.DecisionID
	OriginalOutcome decision.Outcome
	NewOutcome      decision.Outcome
	ReasonCode      ReasonCode
	Justification   string
	ActorID         id.ActorID
	ActorRole       Role
	ApproverID      id.ActorID
	ApproverRole    Role
	CreatedAt       time.Time
}

// Request is one adjudication attempt. ApproverID and ApproverRole carry an
// optional countersignature for overrides above the actor's severity ceiling.
type Request struct {
	DecisionID    id.DecisionID
	NewOutcome    decision.Outcome
	ReasonCode    ReasonCode
	Justification string
	ApproverID    id.ActorID
	ApproverRole  Role
}

// NotAllowedError reports an override that no role may perform, or that the
// caller's role may not perform.
type NotAllowedError struct {
	Reason string
}

func (e *NotAllowedError) Error() string {
	return "override not allowed: " + e.Reason
}

// ApprovalRequiredError reports an override that exceeds the caller's
// severity ceiling and arrived without a countersigning approver.
type ApprovalRequiredError struct {
	Role     Role
	Required Role
}

func (e *ApprovalRequiredError) Error() string {
	return fmt.Sprintf("override requires %s approval, caller is %s", e.Required, e.Role)
}

// InsufficientJustificationError reports a justification below the minimum
// length the audit trail demands.
type InsufficientJustificationError struct {
	Length  int
	Minimum int
}

func (e *InsufficientJustificationError) Error() string {
	return fmt.Sprintf("justification must be at least %d characters, got %d", e.Minimum, e.Length)
}
