// Package domain holds the identifier types shared across modules.
//
// IDs are small typed wrappers so services cannot accidentally mix, say, a
// decision ID with an override ID. Entity IDs are UUID-backed; caller-owned
// identifiers (application references, actor subjects) stay strings.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ApplicationID is the caller-supplied reference for a credit application.
type ApplicationID string

// ParseApplicationID validates a caller-supplied application reference.
func ParseApplicationID(s string) (ApplicationID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyID
	}
	if len(s) > 64 {
		return "", ErrIDTooLong
	}
	return ApplicationID(s), nil
}

func (a ApplicationID) String() string { return string(a) }
func (a ApplicationID) IsEmpty() bool  { return a == "" }

// DecisionID identifies one immutable decision record.
type DecisionID struct{ uuid.UUID }

// NewDecisionID returns a fresh random decision ID.
func NewDecisionID() DecisionID { return DecisionID{uuid.New()} }

// ParseDecisionID parses a decision ID from its string form.
func ParseDecisionID(s string) (DecisionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DecisionID{}, err
	}
	return DecisionID{u}, nil
}

func (d DecisionID) IsNil() bool { return d.UUID == uuid.Nil }

// OverrideID identifies one override record.
type OverrideID struct{ uuid.UUID }

// NewOverrideID returns a fresh random override ID.
func NewOverrideID() OverrideID { return OverrideID{uuid.New()} }

func (o OverrideID) IsNil() bool { return o.UUID == uuid.Nil }

// ActorID is the authenticated subject performing an action (JWT sub claim).
type ActorID string

func (a ActorID) String() string { return string(a) }
func (a ActorID) IsEmpty() bool  { return a == "" }
