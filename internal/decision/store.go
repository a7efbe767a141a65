package decision

import (
	"context"
	"time"

	id "credex/pkg/domain"
)

// Filter narrows a decision listing. Zero values mean "no constraint".
type Filter struct {
	ApplicationID id.ApplicationID
	Outcome       Outcome
	Since         time.Time
	Until         time.Time
	Limit         int
	Offset        int
}

// Stats aggregates decisions over an optional time window.
type Stats struct {
	Total     int64             `json:"total"`
	ByOutcome map[Outcome]int64 `json:"by_outcome"`
	ByReason  map[string]int64  `json:"by_reason"`
}

// Store persists decisions together with their explanations. Decisions are
// append-only; there is no update or delete.
type Store interface {
	Save(ctx context.Context, bundle Bundle) error
	Get(ctx context.Context, decisionID id.DecisionID) (Bundle, error)
	List(ctx context.Context, filter Filter) ([]Bundle, error)
	Stats(ctx context.Context, since, until time.Time) (Stats, error)
}
