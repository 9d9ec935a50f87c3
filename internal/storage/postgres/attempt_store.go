package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codedrill/drill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sqlc-dev/pqtype"
)

// AttemptStore implements the append-only attempt ledger using PostgreSQL.
type AttemptStore struct {
	pool *pgxpool.Pool
}

// NewAttemptStore creates a new PostgreSQL attempt store.
func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

// Append persists one attempt.
func (s *AttemptStore) Append(ctx context.Context, a *domain.Attempt) error {
	diagnostics := pqtype.NullRawMessage{}
	if len(a.Diagnostics) > 0 {
		raw, err := json.Marshal(a.Diagnostics)
		if err != nil {
			return fmt.Errorf("marshal diagnostics: %w", err)
		}
		diagnostics = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	query := `
		INSERT INTO attempts (id, exercise_id, lesson_id, module_id, variant,
			submitted, correct, grade, time_spent_ms, concepts, diagnostics, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.pool.Exec(ctx, query,
		a.ID, a.ExerciseID, a.LessonID, a.ModuleID, string(a.Variant),
		a.Submitted, a.Correct, int16(a.Grade), a.TimeSpentMs, a.Concepts,
		diagnostics, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// ListByExercise returns an exercise's attempts oldest first.
func (s *AttemptStore) ListByExercise(ctx context.Context, exerciseID string) ([]domain.Attempt, error) {
	query := `
		SELECT id, exercise_id, lesson_id, module_id, variant, submitted,
			correct, grade, time_spent_ms, concepts, diagnostics, created_at
		FROM attempts WHERE exercise_id = $1 ORDER BY created_at ASC
	`
	rows, err := s.pool.Query(ctx, query, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// ListByConcept returns all attempts tagged with a concept, oldest first.
func (s *AttemptStore) ListByConcept(ctx context.Context, concept string) ([]domain.Attempt, error) {
	query := `
		SELECT id, exercise_id, lesson_id, module_id, variant, submitted,
			correct, grade, time_spent_ms, concepts, diagnostics, created_at
		FROM attempts WHERE $1 = ANY(concepts) ORDER BY created_at ASC
	`
	rows, err := s.pool.Query(ctx, query, concept)
	if err != nil {
		return nil, fmt.Errorf("list attempts by concept: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// Recent returns the newest attempts, most recent first.
func (s *AttemptStore) Recent(ctx context.Context, limit int) ([]domain.Attempt, error) {
	query := `
		SELECT id, exercise_id, lesson_id, module_id, variant, submitted,
			correct, grade, time_spent_ms, concepts, diagnostics, created_at
		FROM attempts ORDER BY created_at DESC LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent attempts: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// Count returns the total number of recorded attempts.
func (s *AttemptStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM attempts").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func scanAttempts(rows pgx.Rows) ([]domain.Attempt, error) {
	var attempts []domain.Attempt
	for rows.Next() {
		var (
			a           domain.Attempt
			variant     string
			grade       int16
			diagnostics pqtype.NullRawMessage
		)
		err := rows.Scan(&a.ID, &a.ExerciseID, &a.LessonID, &a.ModuleID, &variant,
			&a.Submitted, &a.Correct, &grade, &a.TimeSpentMs, &a.Concepts,
			&diagnostics, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Variant = domain.Variant(variant)
		a.Grade = domain.Grade(grade)
		if diagnostics.Valid {
			if err := json.Unmarshal(diagnostics.RawMessage, &a.Diagnostics); err != nil {
				return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
			}
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
