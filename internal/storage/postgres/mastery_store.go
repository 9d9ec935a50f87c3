package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/codedrill/drill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MasteryStore persists concept mastery rows in PostgreSQL.
type MasteryStore struct {
	pool *pgxpool.Pool
}

// NewMasteryStore creates a new PostgreSQL mastery store.
func NewMasteryStore(pool *pgxpool.Pool) *MasteryStore {
	return &MasteryStore{pool: pool}
}

// Save upserts a mastery row.
func (s *MasteryStore) Save(ctx context.Context, m *domain.ConceptMastery) error {
	query := `
		INSERT INTO concept_mastery (concept, level, streak, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (concept) DO UPDATE SET
			level = EXCLUDED.level,
			streak = EXCLUDED.streak,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query, m.Concept, string(m.Level), m.Streak, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert mastery: %w", err)
	}
	return nil
}

// Get retrieves the mastery row for a concept.
func (s *MasteryStore) Get(ctx context.Context, concept string) (*domain.ConceptMastery, error) {
	var (
		m     domain.ConceptMastery
		level string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT concept, level, streak, updated_at
		FROM concept_mastery WHERE concept = $1`, concept).
		Scan(&m.Concept, &level, &m.Streak, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConceptNotFound
		}
		return nil, fmt.Errorf("scan mastery: %w", err)
	}
	m.Level = domain.MasteryLevel(level)
	return &m, nil
}

// List returns all mastery rows ordered by concept.
func (s *MasteryStore) List(ctx context.Context) ([]domain.ConceptMastery, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT concept, level, streak, updated_at
		FROM concept_mastery ORDER BY concept ASC`)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	defer rows.Close()

	var all []domain.ConceptMastery
	for rows.Next() {
		var (
			m     domain.ConceptMastery
			level string
		)
		if err := rows.Scan(&m.Concept, &level, &m.Streak, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mastery: %w", err)
		}
		m.Level = domain.MasteryLevel(level)
		all = append(all, m)
	}
	return all, rows.Err()
}
