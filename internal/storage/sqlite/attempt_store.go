package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codedrill/drill/internal/domain"
	"github.com/google/uuid"
)

// AttemptStore implements the append-only attempt ledger backed by SQLite.
type AttemptStore struct {
	db *DB
}

// NewAttemptStore creates a new SQLite-backed attempt store.
func NewAttemptStore(db *DB) *AttemptStore {
	return &AttemptStore{db: db}
}

// Append persists one attempt. Attempts are never updated or deleted.
func (s *AttemptStore) Append(ctx context.Context, a *domain.Attempt) error {
	concepts, err := json.Marshal(a.Concepts)
	if err != nil {
		return fmt.Errorf("marshal concepts: %w", err)
	}
	var diagnostics []byte
	if len(a.Diagnostics) > 0 {
		diagnostics, err = json.Marshal(a.Diagnostics)
		if err != nil {
			return fmt.Errorf("marshal diagnostics: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, exercise_id, lesson_id, module_id, variant,
			submitted, correct, grade, time_spent_ms, concepts, diagnostics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.ExerciseID, a.LessonID, a.ModuleID, string(a.Variant),
		a.Submitted, a.Correct, int(a.Grade), a.TimeSpentMs, string(concepts),
		nullString(diagnostics), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// ListByExercise returns an exercise's attempts oldest first, the order
// the scheduler replays them in.
func (s *AttemptStore) ListByExercise(ctx context.Context, exerciseID string) ([]domain.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exercise_id, lesson_id, module_id, variant, submitted,
			correct, grade, time_spent_ms, concepts, diagnostics, created_at
		FROM attempts WHERE exercise_id = ? ORDER BY created_at ASC`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// ListByConcept returns all attempts tagged with a concept, oldest first.
// Concepts are stored as a JSON array; the LIKE match narrows the scan and
// the decoded tags confirm it.
func (s *AttemptStore) ListByConcept(ctx context.Context, concept string) ([]domain.Attempt, error) {
	pattern := fmt.Sprintf(`%%%q%%`, concept)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exercise_id, lesson_id, module_id, variant, submitted,
			correct, grade, time_spent_ms, concepts, diagnostics, created_at
		FROM attempts WHERE concepts LIKE ? ORDER BY created_at ASC`, pattern)
	if err != nil {
		return nil, fmt.Errorf("list attempts by concept: %w", err)
	}
	defer rows.Close()

	attempts, err := scanAttempts(rows)
	if err != nil {
		return nil, err
	}
	filtered := attempts[:0]
	for _, a := range attempts {
		for _, c := range a.Concepts {
			if c == concept {
				filtered = append(filtered, a)
				break
			}
		}
	}
	return filtered, nil
}

// Recent returns the newest attempts, most recent first.
func (s *AttemptStore) Recent(ctx context.Context, limit int) ([]domain.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exercise_id, lesson_id, module_id, variant, submitted,
			correct, grade, time_spent_ms, concepts, diagnostics, created_at
		FROM attempts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent attempts: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// Count returns the total number of recorded attempts.
func (s *AttemptStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attempts").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func scanAttempts(rows *sql.Rows) ([]domain.Attempt, error) {
	var attempts []domain.Attempt
	for rows.Next() {
		var (
			a           domain.Attempt
			id          string
			variant     string
			grade       int
			concepts    string
			diagnostics sql.NullString
			createdAt   time.Time
		)
		err := rows.Scan(&id, &a.ExerciseID, &a.LessonID, &a.ModuleID, &variant,
			&a.Submitted, &a.Correct, &grade, &a.TimeSpentMs, &concepts,
			&diagnostics, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}

		a.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse attempt id: %w", err)
		}
		a.Variant = domain.Variant(variant)
		a.Grade = domain.Grade(grade)
		a.CreatedAt = createdAt
		if err := json.Unmarshal([]byte(concepts), &a.Concepts); err != nil {
			return nil, fmt.Errorf("unmarshal concepts: %w", err)
		}
		if diagnostics.Valid && diagnostics.String != "" {
			if err := json.Unmarshal([]byte(diagnostics.String), &a.Diagnostics); err != nil {
				return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
			}
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func nullString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
