package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codedrill/drill/internal/domain"
)

// MasteryStore persists concept mastery rows in SQLite, one per concept.
type MasteryStore struct {
	db *DB
}

// NewMasteryStore creates a new SQLite-backed mastery store.
func NewMasteryStore(db *DB) *MasteryStore {
	return &MasteryStore{db: db}
}

// Save upserts a mastery row.
func (s *MasteryStore) Save(ctx context.Context, m *domain.ConceptMastery) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO concept_mastery (concept, level, streak, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(concept) DO UPDATE SET
			level=excluded.level,
			streak=excluded.streak,
			updated_at=excluded.updated_at`,
		m.Concept, string(m.Level), m.Streak, m.UpdatedAt,
	)
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
	err := s.db.QueryRowContext(ctx, `
		SELECT concept, level, streak, updated_at
		FROM concept_mastery WHERE concept = ?`, concept).
		Scan(&m.Concept, &level, &m.Streak, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConceptNotFound
		}
		return nil, fmt.Errorf("scan mastery: %w", err)
	}
	m.Level = domain.MasteryLevel(level)
	return &m, nil
}

// List returns all mastery rows ordered by concept.
func (s *MasteryStore) List(ctx context.Context) ([]domain.ConceptMastery, error) {
	rows, err := s.db.QueryContext(ctx, `
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
