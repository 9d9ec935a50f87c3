package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codedrill/drill/internal/domain"
)

// CardStore persists review cards in SQLite, one row per exercise.
type CardStore struct {
	db *DB
}

// NewCardStore creates a new SQLite-backed review card store.
func NewCardStore(db *DB) *CardStore {
	return &CardStore{db: db}
}

// Save upserts a card. The engine serializes updates per exercise, so
// last write wins is safe here.
func (s *CardStore) Save(ctx context.Context, c *domain.ReviewCard) error {
	var lastReview any
	if !c.LastReview.IsZero() {
		lastReview = c.LastReview
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_cards (exercise_id, stability, difficulty, elapsed_days,
			scheduled_days, reps, lapses, state, due, last_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(exercise_id) DO UPDATE SET
			stability=excluded.stability,
			difficulty=excluded.difficulty,
			elapsed_days=excluded.elapsed_days,
			scheduled_days=excluded.scheduled_days,
			reps=excluded.reps,
			lapses=excluded.lapses,
			state=excluded.state,
			due=excluded.due,
			last_review=excluded.last_review`,
		c.ExerciseID, c.Stability, c.Difficulty, c.ElapsedDays,
		c.ScheduledDays, c.Reps, c.Lapses, string(c.State), c.Due, lastReview,
	)
	if err != nil {
		return fmt.Errorf("upsert card: %w", err)
	}
	return nil
}

// Get retrieves a card by exercise ID.
func (s *CardStore) Get(ctx context.Context, exerciseID string) (*domain.ReviewCard, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT exercise_id, stability, difficulty, elapsed_days, scheduled_days,
			reps, lapses, state, due, last_review
		FROM review_cards WHERE exercise_id = ?`, exerciseID)
	return scanCard(row)
}

// Due returns cards with due <= now, earliest first. A limit of 0 means
// no limit.
func (s *CardStore) Due(ctx context.Context, now time.Time, limit int) ([]domain.ReviewCard, error) {
	query := `
		SELECT exercise_id, stability, difficulty, elapsed_days, scheduled_days,
			reps, lapses, state, due, last_review
		FROM review_cards WHERE due <= ? AND state != 'new' ORDER BY due ASC`
	args := []any{now}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list due cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.ReviewCard
	for rows.Next() {
		c, err := scanCardRow(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// DueCount returns the size of the due set at a point in time.
func (s *CardStore) DueCount(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM review_cards WHERE due <= ? AND state != 'new'", now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count due cards: %w", err)
	}
	return n, nil
}

type cardScanner interface {
	Scan(dest ...any) error
}

func scanCard(row *sql.Row) (*domain.ReviewCard, error) {
	c, err := scanCardFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanCardRow(rows *sql.Rows) (*domain.ReviewCard, error) {
	return scanCardFrom(rows)
}

func scanCardFrom(sc cardScanner) (*domain.ReviewCard, error) {
	var (
		c          domain.ReviewCard
		state      string
		lastReview sql.NullTime
	)
	err := sc.Scan(&c.ExerciseID, &c.Stability, &c.Difficulty, &c.ElapsedDays,
		&c.ScheduledDays, &c.Reps, &c.Lapses, &state, &c.Due, &lastReview)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan card: %w", err)
	}
	c.State = domain.CardState(state)
	if lastReview.Valid {
		c.LastReview = lastReview.Time
	}
	return &c, nil
}
