package override

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"credex/internal/decision"
	id "credex/pkg/domain"
	"credex/pkg/platform/sentinel"
)

// PostgresStore persists override records in PostgreSQL. The unique index on
// decision_id enforces at most one override per decision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed override store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const overrideSchema = `
CREATE TABLE IF NOT EXISTS overrides (
	id                UUID PRIMARY KEY,
	decision_id       UUID NOT NULL UNIQUE,
	original_outcome  TEXT NOT NULL,
	new_outcome       TEXT NOT NULL,
	reason_code       TEXT NOT NULL,
	justification     TEXT NOT NULL,
	actor_id          TEXT NOT NULL,
	actor_role        TEXT NOT NULL,
	approver_id       TEXT NOT NULL DEFAULT '',
	approver_role     TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the overrides table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, overrideSchema); err != nil {
		return fmt.Errorf("ensure override schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, record Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO overrides
			(id, decision_id, original_outcome, new_outcome, reason_code,
			 justification, actor_id, actor_role, approver_id, approver_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		record.ID.UUID,
		record.DecisionID.UUID,
		record.OriginalOutcome.String(),
		record.NewOutcome.String(),
		string(record.ReasonCode),
		record.Justification,
		record.ActorID.String(),
		record.ActorRole.String(),
		record.ApproverID.String(),
		record.ApproverRole.String(),
		record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save override: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByDecision(ctx context.Context, decisionID id.DecisionID) (Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, decision_id, original_outcome, new_outcome, reason_code,
		       justification, actor_id, actor_role, approver_id, approver_role, created_at
		FROM overrides
		WHERE decision_id = $1
	`, decisionID.UUID)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("get override: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, decision_id, original_outcome, new_outcome, reason_code,
		       justification, actor_id, actor_role, approver_id, approver_role, created_at
		FROM overrides
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		overrideID   uuid.UUID
		decisionID   uuid.UUID
		original     string
		updated      string
		reason       string
		actorID      string
		actorRole    string
		approverID   string
		approverRole string
		record       Record
	)
	err := row.Scan(
		&overrideID,
		&decisionID,
		&original,
		&updated,
		&reason,
		&record.Justification,
		&actorID,
		&actorRole,
		&approverID,
		&approverRole,
		&record.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}

	record.ID = id.OverrideID{UUID: overrideID}
	record.DecisionID = id.DecisionID{UUID: decisionID}
	record.OriginalOutcome = decision.Outcome(original)
	record.NewOutcome = decision.Outcome(updated)
	record.ReasonCode = ReasonCode(reason)
	record.ActorID = id.ActorID(actorID)
	record.ActorRole = Role(actorRole)
	record.ApproverID = id.ActorID(approverID)
	record.ApproverRole = Role(approverRole)
	return record, nil
}
