// Package audit captures the actions the platform must be able to account
// for: decisions made, overrides adjudicated, catalogs reloaded. Events are
// transport-agnostic so stores and sinks can fan out.
package audit

import (
	"time"

	id "credex/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// Credit decisions and overrides require tamper-proof storage and long
	// retention under fair-lending rules.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring,
	// e.g. rejected override attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Category      EventCategory
	Timestamp     time.Time
	Action        AuditEvent
	ApplicationID id.ApplicationID
	DecisionID    string
	ActorID       id.ActorID
	RequestID     string
	Outcome       string
	Reason        string
}

// AuditEvent names an auditable action.
type AuditEvent string

const (
	EventDecisionMade       AuditEvent = "decision_made"
	EventDecisionOverridden AuditEvent = "decision_overridden"
	EventOverrideRejected   AuditEvent = "override_rejected"
	EventCatalogReloaded    AuditEvent = "catalog_reloaded"
	EventSimulationRun      AuditEvent = "simulation_run"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventDecisionMade:       CategoryCompliance,
	EventDecisionOverridden: CategoryCompliance,
	EventOverrideRejected:   CategorySecurity,
	EventCatalogReloaded:    CategoryOperations,
	EventSimulationRun:      CategoryOperations,
}

// CategoryFor returns the category for an event, defaulting to operations.
func CategoryFor(event AuditEvent) EventCategory {
	if c, ok := eventCategories[event]; ok {
		return c
	}
	return CategoryOperations
}
