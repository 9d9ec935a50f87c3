// Package postgres persists the attempt ledger, review cards, and concept
// mastery rows in PostgreSQL for the hosted worker mode. The local CLI
// mode uses the sqlite package instead.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
    id            UUID PRIMARY KEY,
    exercise_id   TEXT NOT NULL,
    lesson_id     TEXT NOT NULL,
    module_id     TEXT NOT NULL,
    variant       TEXT NOT NULL,
    submitted     TEXT,
    correct       BOOLEAN NOT NULL,
    grade         SMALLINT NOT NULL,
    time_spent_ms BIGINT NOT NULL DEFAULT 0,
    concepts      TEXT[] NOT NULL DEFAULT '{}',
    diagnostics   JSONB,
    created_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_exercise ON attempts(exercise_id, created_at);
CREATE INDEX IF NOT EXISTS idx_attempts_concepts ON attempts USING GIN(concepts);

CREATE TABLE IF NOT EXISTS review_cards (
    exercise_id    TEXT PRIMARY KEY,
    stability      DOUBLE PRECISION NOT NULL,
    difficulty     DOUBLE PRECISION NOT NULL,
    elapsed_days   DOUBLE PRECISION NOT NULL DEFAULT 0,
    scheduled_days DOUBLE PRECISION NOT NULL DEFAULT 0,
    reps           INTEGER NOT NULL DEFAULT 0,
    lapses         INTEGER NOT NULL DEFAULT 0,
    state          TEXT NOT NULL,
    due            TIMESTAMPTZ NOT NULL,
    last_review    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_review_cards_due ON review_cards(due);

CREATE TABLE IF NOT EXISTS concept_mastery (
    concept    TEXT PRIMARY KEY,
    level      TEXT NOT NULL,
    streak     INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL
);
`

// Connect opens a connection pool and ensures the schema exists.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pool, nil
}
