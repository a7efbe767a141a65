package handler

import (
	"time"

	"credex/internal/override"
)

// OverrideResponse is the HTTP shape of one override record.
type OverrideResponse struct {
	ID              string    `json:"id"`
	DecisionID      string    `json:"decision_id"`
	OriginalOutcome string    `json:"original_outcome"`
	NewOutcome      string    `json:"new_outcome"`
	ReasonCode      string    `json:"reason_code"`
	Justification   string    `json:"justification"`
	ActorID         string    `json:"actor_id"`
	ActorRole       string    `json:"actor_role"`
	ApproverID      string    `json:"approver_id,omitempty"`
	ApproverRole    string    `json:"approver_role,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListResponse is the HTTP response for GET /overrides.
type ListResponse struct {
	Overrides []OverrideResponse `json:"overrides"`
}

// FromRecord converts a domain record to an HTTP response.
func FromRecord(record override.Record) OverrideResponse {
	return OverrideResponse{
		ID:              record.ID.String(),
		DecisionID:      record.DecisionID.String(),
		OriginalOutcome: record.OriginalOutcome.String(),
		NewOutcome:      record.NewOutcome.String(),
		ReasonCode:      string(record.ReasonCode),
		Justification:   record.Justification,
		ActorID:         record.ActorID.String(),
		ActorRole:       record.ActorRole.String(),
		ApproverID:      record.ApproverID.String(),
		ApproverRole:    record.ApproverRole.String(),
		CreatedAt:       record.CreatedAt,
	}
}
