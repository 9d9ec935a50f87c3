package engine

import (
	"context"
	"time"

	"github.com/codedrill/drill/internal/domain"
)

// AttemptStore is the append-only attempt ledger.
type AttemptStore interface {
	Append(ctx context.Context, a *domain.Attempt) error
	ListByExercise(ctx context.Context, exerciseID string) ([]domain.Attempt, error)
	ListByConcept(ctx context.Context, concept string) ([]domain.Attempt, error)
	Recent(ctx context.Context, limit int) ([]domain.Attempt, error)
	Count(ctx context.Context) (int, error)
}

// CardStore persists one review card per exercise.
type CardStore interface {
	Get(ctx context.Context, exerciseID string) (*domain.ReviewCard, error)
	Save(ctx context.Context, c *domain.ReviewCard) error
	Due(ctx context.Context, now time.Time, limit int) ([]domain.ReviewCard, error)
	DueCount(ctx context.Context, now time.Time) (int, error)
}

// MasteryStore persists one mastery row per concept.
type MasteryStore interface {
	Get(ctx context.Context, concept string) (*domain.ConceptMastery, error)
	Save(ctx context.Context, m *domain.ConceptMastery) error
	List(ctx context.Context) ([]domain.ConceptMastery, error)
}
