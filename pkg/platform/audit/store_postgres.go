package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	id "credex/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL. Events are append-only;
// there is no update or delete path.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	seq             BIGSERIAL PRIMARY KEY,
	category        TEXT NOT NULL,
	action          TEXT NOT NULL,
	application_id  TEXT NOT NULL DEFAULT '',
	decision_id     TEXT NOT NULL DEFAULT '',
	actor_id        TEXT NOT NULL DEFAULT '',
	request_id      TEXT NOT NULL DEFAULT '',
	outcome         TEXT NOT NULL DEFAULT '',
	reason          TEXT NOT NULL DEFAULT '',
	occurred_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_category ON audit_events (category, seq);
`

// EnsureSchema creates the audit_events table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_events
			(category, action, application_id, decision_id, actor_id, request_id, outcome, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(event.Category),
		string(event.Action),
		event.ApplicationID.String(),
		event.DecisionID,
		event.ActorID.String(),
		event.RequestID,
		event.Outcome,
		event.Reason,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, category EventCategory) ([]Event, error) {
	query := `
		SELECT category, action, application_id, decision_id, actor_id, request_id, outcome, reason, occurred_at
		FROM audit_events`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, string(category))
	}
	query += ` ORDER BY seq`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event                Event
			cat, action          string
			applicationID, actor string
		)
		if err := rows.Scan(&cat, &action, &applicationID, &event.DecisionID, &actor,
			&event.RequestID, &event.Outcome, &event.Reason, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = EventCategory(cat)
		event.Action = AuditEvent(action)
		event.ApplicationID = id.ApplicationID(applicationID)
		event.ActorID = id.ActorID(actor)
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
