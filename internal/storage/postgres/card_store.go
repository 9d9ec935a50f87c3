package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codedrill/drill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CardStore persists review cards in PostgreSQL, one row per exercise.
type CardStore struct {
	pool *pgxpool.Pool
}

// NewCardStore creates a new PostgreSQL review card store.
func NewCardStore(pool *pgxpool.Pool) *CardStore {
	return &CardStore{pool: pool}
}

// Save upserts a card.
func (s *CardStore) Save(ctx context.Context, c *domain.ReviewCard) error {
	var lastReview *time.Time
	if !c.LastReview.IsZero() {
		lastReview = &c.LastReview
	}
	query := `
		INSERT INTO review_cards (exercise_id, stability, difficulty, elapsed_days,
			scheduled_days, reps, lapses, state, due, last_review)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (exercise_id) DO UPDATE SET
			stability = EXCLUDED.stability,
			difficulty = EXCLUDED.difficulty,
			elapsed_days = EXCLUDED.elapsed_days,
			scheduled_days = EXCLUDED.scheduled_days,
			reps = EXCLUDED.reps,
			lapses = EXCLUDED.lapses,
			state = EXCLUDED.state,
			due = EXCLUDED.due,
			last_review = EXCLUDED.last_review
	`
	_, err := s.pool.Exec(ctx, query,
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
	query := `
		SELECT exercise_id, stability, difficulty, elapsed_days, scheduled_days,
			reps, lapses, state, due, last_review
		FROM review_cards WHERE exercise_id = $1
	`
	c, err := scanCard(s.pool.QueryRow(ctx, query, exerciseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCardNotFound
	}
	return c, err
}

// Due returns cards with due <= now, earliest first. A limit of 0 means
// no limit.
func (s *CardStore) Due(ctx context.Context, now time.Time, limit int) ([]domain.ReviewCard, error) {
	query := `
		SELECT exercise_id, stability, difficulty, elapsed_days, scheduled_days,
			reps, lapses, state, due, last_review
		FROM review_cards WHERE due <= $1 AND state != 'new' ORDER BY due ASC
	`
	args := []any{now}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list due cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.ReviewCard
	for rows.Next() {
		c, err := scanCard(rows)
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
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM review_cards WHERE due <= $1 AND state != 'new'", now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count due cards: %w", err)
	}
	return n, nil
}

func scanCard(row pgx.Row) (*domain.ReviewCard, error) {
	var (
		c          domain.ReviewCard
		state      string
		lastReview *time.Time
	)
	err := row.Scan(&c.ExerciseID, &c.Stability, &c.Difficulty, &c.ElapsedDays,
		&c.ScheduledDays, &c.Reps, &c.Lapses, &state, &c.Due, &lastReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan card: %w", err)
	}
	c.State = domain.CardState(state)
	if lastReview != nil {
		c.LastReview = *lastReview
	}
	return &c, nil
}
