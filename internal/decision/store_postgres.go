package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"credex/internal/explanation"
	id "credex/pkg/domain"
	"credex/pkg/platform/sentinel"
)

// PostgresStore persists decision bundles in PostgreSQL. The explanation is
// stored as JSONB next to its decision; the two share a lifecycle.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed decision store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const decisionSchema = `
CREATE TABLE IF NOT EXISTS decisions (
	id               UUID PRIMARY KEY,
	application_id   TEXT NOT NULL,
	outcome          TEXT NOT NULL,
	confidence       DOUBLE PRECISION NOT NULL,
	primary_reason   TEXT NOT NULL,
	factors          JSONB NOT NULL DEFAULT '[]',
	model_version    TEXT NOT NULL DEFAULT '',
	ruleset_version  TEXT NOT NULL,
	explanation      JSONB,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_application_id ON decisions (application_id);
CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions (created_at DESC);
`

// EnsureSchema creates the decisions table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, decisionSchema); err != nil {
		return fmt.Errorf("ensure decision schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, bundle Bundle) error {
	factors, err := json.Marshal(bundle.Decision.Factors)
	if err != nil {
		return fmt.Errorf("marshal decision factors: %w", err)
	}
	var expl []byte
	if bundle.Explanation != nil {
		expl, err = json.Marshal(bundle.Explanation)
		if err != nil {
			return fmt.Errorf("marshal explanation: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO decisions
			(id, application_id, outcome, confidence, primary_reason, factors,
			 model_version, ruleset_version, explanation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		bundle.Decision.ID.UUID,
		bundle.Decision.ApplicationID.String(),
		string(bundle.Decision.Outcome),
		bundle.Decision.Confidence,
		bundle.Decision.PrimaryReason,
		factors,
		bundle.Decision.ModelVersion,
		bundle.Decision.RuleSetVersion,
		expl,
		bundle.Decision.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save decision: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, decisionID id.DecisionID) (Bundle, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, application_id, outcome, confidence, primary_reason, factors,
		       model_version, ruleset_version, explanation, created_at
		FROM decisions
		WHERE id = $1
	`, decisionID.UUID)

	bundle, err := scanBundle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bundle{}, sentinel.ErrNotFound
		}
		return Bundle{}, fmt.Errorf("get decision: %w", err)
	}
	return bundle, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Bundle, error) {
	var (
		where []string
		args  []any
	)
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ApplicationID != "" {
		where = append(where, "application_id = "+arg(filter.ApplicationID.String()))
	}
	if filter.Outcome != "" {
		where = append(where, "outcome = "+arg(string(filter.Outcome)))
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= "+arg(filter.Since))
	}
	if !filter.Until.IsZero() {
		where = append(where, "created_at <= "+arg(filter.Until))
	}

	query := `
		SELECT id, application_id, outcome, confidence, primary_reason, factors,
		       model_version, ruleset_version, explanation, created_at
		FROM decisions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	bundles := make([]Bundle, 0)
	for rows.Next() {
		bundle, err := scanBundle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		bundles = append(bundles, bundle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return bundles, nil
}

func (s *PostgresStore) Stats(ctx context.Context, since, until time.Time) (Stats, error) {
	var (
		where []string
		args  []any
	)
	if !since.IsZero() {
		args = append(args, since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !until.IsZero() {
		args = append(args, until)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := "SELECT outcome, primary_reason, COUNT(*) FROM decisions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY outcome, primary_reason"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return Stats{}, fmt.Errorf("decision stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{
		ByOutcome: make(map[Outcome]int64),
		ByReason:  make(map[string]int64),
	}
	for rows.Next() {
		var (
			outcome string
			reason  string
			count   int64
		)
		if err := rows.Scan(&outcome, &reason, &count); err != nil {
			return Stats{}, fmt.Errorf("scan decision stats: %w", err)
		}
		stats.Total += count
		stats.ByOutcome[Outcome(outcome)] += count
		stats.ByReason[reason] += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("decision stats: %w", err)
	}
	return stats, nil
}

func scanBundle(row pgx.Row) (Bundle, error) {
	var (
		decisionID uuid.UUID
		appID      string
		outcome    string
		factors    []byte
		expl       []byte
		bundle     Bundle
	)
	err := row.Scan(
		&decisionID,
		&appID,
		&outcome,
		&bundle.Decision.Confidence,
		&bundle.Decision.PrimaryReason,
		&factors,
		&bundle.Decision.ModelVersion,
		&bundle.Decision.RuleSetVersion,
		&expl,
		&bundle.Decision.CreatedAt,
	)
	if err != nil {
		return Bundle{}, err
	}

	bundle.Decision.ID = id.DecisionID{UUID: decisionID}
	bundle.Decision.ApplicationID = id.ApplicationID(appID)
	bundle.Decision.Outcome = Outcome(outcome)
	if err := json.Unmarshal(factors, &bundle.Decision.Factors); err != nil {
		return Bundle{}, fmt.Errorf("unmarshal decision factors: %w", err)
	}
	if len(expl) > 0 {
		var e explanation.Explanation
		if err := json.Unmarshal(expl, &e); err != nil {
			return Bundle{}, fmt.Errorf("unmarshal explanation: %w", err)
		}
		bundle.Explanation = &e
	}
	return bundle, nil
}
