package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// LedgerRepository is the audit trail of decisions and feedback, written by
// the worker from the event stream.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *LedgerRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026040702)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS loan_decisions (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	approved_amount_thb BIGINT NOT NULL,
	income_cap_thb BIGINT NOT NULL,
	bike_cap_thb BIGINT NOT NULL,
	limiting_factor TEXT NOT NULL,
	name_match_score DOUBLE PRECISION NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS loan_feedback (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_loan_decisions_session ON loan_decisions(session_id);
CREATE INDEX IF NOT EXISTS idx_loan_decisions_occurred ON loan_decisions(occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_loan_feedback_session ON loan_feedback(session_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *LedgerRepository) InsertDecision(ctx context.Context, event domain.DecisionEvent) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO loan_decisions (
	session_id, approved_amount_thb, income_cap_thb, bike_cap_thb, limiting_factor, name_match_score, occurred_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		event.SessionID, event.ApprovedAmountTHB, event.IncomeCapTHB, event.BikeCapTHB,
		string(event.LimitingFactor), event.NameMatchScore, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (r *LedgerRepository) InsertFeedback(ctx context.Context, event domain.FeedbackEvent) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO loan_feedback (session_id, kind, occurred_at) VALUES ($1,$2,$3)
`,
		event.SessionID, string(event.Kind), event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}
