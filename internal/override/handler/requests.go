package handler

import (
	"strings"

	"credex/internal/decision"
	"credex/internal/override"
	dErrors "credex/pkg/domain-errors"
)

// maxJustification caps the stored justification text.
const maxJustification = 4000

// OverrideRequest is the HTTP request body for POST /decisions/{id}/override.
// The approver fields carry an optional countersignature for overrides above
// the caller's severity ceiling.
type OverrideRequest struct {
	NewOutcome    string `json:"new_outcome"`
	ReasonCode    string `json:"reason_code"`
	Justification string `json:"justification"`
	ApproverID    string `json:"approver_id,omitempty"`
	ApproverRole  string `json:"approver_role,omitempty"`
}

// Validate validates the request. Policy checks (role, severity, minimum
// justification length) belong to the adjudicator; this only rejects
// malformed input.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *OverrideRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.NewOutcome = strings.TrimSpace(r.NewOutcome)
	if r.NewOutcome == "" {
		return dErrors.New(dErrors.CodeValidation, "new_outcome is required")
	}
	if !decision.Outcome(r.NewOutcome).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "new_outcome must be one of approved, rejected, review")
	}

	r.ReasonCode = strings.TrimSpace(r.ReasonCode)
	if r.ReasonCode == "" {
		return dErrors.New(dErrors.CodeValidation, "reason_code is required")
	}
	if !override.ReasonCode(r.ReasonCode).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unrecognized reason_code")
	}

	r.Justification = strings.TrimSpace(r.Justification)
	if r.Justification == "" {
		return dErrors.New(dErrors.CodeValidation, "justification is required")
	}
	if len(r.Justification) > maxJustification {
		return dErrors.New(dErrors.CodeValidation, "justification is too long")
	}

	r.ApproverID = strings.TrimSpace(r.ApproverID)
	r.ApproverRole = strings.TrimSpace(r.ApproverRole)
	if r.ApproverID != "" && !override.Role(r.ApproverRole).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "approver_role must accompany approver_id")
	}
	if r.ApproverID == "" && r.ApproverRole != "" {
		return dErrors.New(dErrors.CodeValidation, "approver_id must accompany approver_role")
	}

	return nil
}
