// Package engine orchestrates one submission through the full pipeline:
// evaluate, append to the ledger, update concept mastery, reschedule the
// exercise's review card. It also answers the due-set queries the
// surrounding app needs.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codedrill/drill/internal/domain"
	"github.com/codedrill/drill/internal/evaluate"
	"github.com/codedrill/drill/internal/mastery"
	"github.com/codedrill/drill/internal/review"
	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/google/uuid"
)

// Registry resolves exercise definitions by ID.
type Registry interface {
	GetExercise(id string) (*domain.Exercise, error)
}

// Config holds engine configuration.
type Config struct {
	// MaxConcurrentRuns caps sandbox executions in flight across all
	// exercises. Default 3.
	MaxConcurrentRuns int
	// MasteryStreak is the consecutive-correct threshold for mastering a
	// concept. Default 3.
	MasteryStreak int
	// Scheduler configures the review scheduler.
	Scheduler review.Config
	Logger    *slog.Logger
}

// Engine wires the evaluator, ledger, mastery tracker, and scheduler
// together. All state lives in the stores; the engine itself only holds
// in-flight bookkeeping.
type Engine struct {
	registry  Registry
	evaluator *evaluate.Evaluator
	attempts  AttemptStore
	cards     CardStore
	mastery   MasteryStore

	scheduler *review.Scheduler
	tracker   *mastery.Tracker
	bulkhead  bulkhead.Bulkhead[*evaluate.Result]
	logger    *slog.Logger
	now       func() time.Time

	// One pending evaluation per exercise; a newer submission for the
	// same exercise cancels the older one.
	mu       sync.Mutex
	nextGen  uint64
	inflight map[string]inflightRun

	cardLocks    *keyedMutex
	conceptLocks *keyedMutex
}

// New creates an engine. The scheduler parameters are validated here so a
// bad configuration fails at startup, not mid-session.
func New(cfg Config, registry Registry, evaluator *evaluate.Evaluator,
	attempts AttemptStore, cards CardStore, masteryStore MasteryStore) (*Engine, error) {

	scheduler, err := review.NewScheduler(cfg.Scheduler)
	if err != nil {
		return nil, fmt.Errorf("configure scheduler: %w", err)
	}

	maxRuns := cfg.MaxConcurrentRuns
	if maxRuns <= 0 {
		maxRuns = 3
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		registry:  registry,
		evaluator: evaluator,
		attempts:  attempts,
		cards:     cards,
		mastery:   masteryStore,
		scheduler: scheduler,
		tracker:   mastery.NewTracker(cfg.MasteryStreak),
		bulkhead: bulkhead.New[*evaluate.Result](bulkhead.Config{
			MaxConcurrent: maxRuns,
			MaxQueue:      maxRuns * 2,
			QueueTimeout:  30 * time.Second,
		}),
		logger:       logger,
		now:          time.Now,
		inflight:     make(map[string]inflightRun),
		cardLocks:    newKeyedMutex(),
		conceptLocks: newKeyedMutex(),
	}, nil
}

type inflightRun struct {
	cancel context.CancelFunc
	gen    uint64
}

// SubmitResult is everything one submission changed.
type SubmitResult struct {
	Attempt domain.Attempt
	Outcome *evaluate.Result
	Card    domain.ReviewCard
	Mastery []domain.ConceptMastery
}

// Submit evaluates a submission and applies its outcome to the ledger,
// the concept mastery rows, and the exercise's review card. If a newer
// submission for the same exercise arrives while this one is still
// evaluating, this one is abandoned and returns ErrEvaluationSuperseded.
func (e *Engine) Submit(ctx context.Context, exerciseID string, sub *domain.Submission) (*SubmitResult, error) {
	ex, err := e.registry.GetExercise(exerciseID)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if prior, ok := e.inflight[exerciseID]; ok {
		prior.cancel()
	}
	e.nextGen++
	gen := e.nextGen
	e.inflight[exerciseID] = inflightRun{cancel: cancel, gen: gen}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		// Only clear our own entry; a newer submission may have replaced it.
		if current, ok := e.inflight[exerciseID]; ok && current.gen == gen {
			delete(e.inflight, exerciseID)
		}
		e.mu.Unlock()
	}()

	outcome, err := e.bulkhead.Execute(runCtx, func(ctx context.Context) (*evaluate.Result, error) {
		return e.evaluator.Evaluate(ctx, ex, sub)
	})
	if err != nil {
		if runCtx.Err() != nil && ctx.Err() == nil {
			return nil, domain.ErrEvaluationSuperseded
		}
		return nil, fmt.Errorf("evaluate %s: %w", exerciseID, err)
	}

	now := e.now()
	attempt := domain.Attempt{
		ID:          uuid.New(),
		ExerciseID:  ex.ID,
		LessonID:    ex.LessonID,
		ModuleID:    ex.ModuleID,
		Variant:     ex.Variant,
		Submitted:   encodeSubmission(ex.Variant, sub),
		Correct:     outcome.Correct,
		Grade:       outcome.Grade,
		TimeSpentMs: sub.ElapsedMs,
		Concepts:    ex.Concepts,
		Diagnostics: outcome.Diagnostics,
		CreatedAt:   now,
	}
	if err := e.attempts.Append(ctx, &attempt); err != nil {
		return nil, fmt.Errorf("append attempt: %w", err)
	}

	result := &SubmitResult{Attempt: attempt, Outcome: outcome}

	for _, concept := range ex.Concepts {
		m, err := e.applyMastery(ctx, concept, outcome.Correct, now)
		if err != nil {
			return nil, err
		}
		result.Mastery = append(result.Mastery, m)
	}

	card, err := e.applyReview(ctx, ex.ID, outcome.Grade, now)
	if err != nil {
		return nil, err
	}
	result.Card = card

	e.logger.Info("attempt recorded",
		slog.String("exercise_id", ex.ID),
		slog.Bool("correct", outcome.Correct),
		slog.Int("grade", int(outcome.Grade)),
		slog.String("card_state", string(card.State)))

	return result, nil
}

// applyMastery folds one outcome into a concept's mastery row under that
// concept's lock.
func (e *Engine) applyMastery(ctx context.Context, concept string, correct bool, now time.Time) (domain.ConceptMastery, error) {
	unlock := e.conceptLocks.Lock(concept)
	defer unlock()

	m, err := e.mastery.Get(ctx, concept)
	if errors.Is(err, domain.ErrConceptNotFound) {
		m = domain.NewConceptMastery(concept)
	} else if err != nil {
		return domain.ConceptMastery{}, fmt.Errorf("load mastery %s: %w", concept, err)
	}

	updated := e.tracker.Apply(*m, correct, now)
	if err := e.mastery.Save(ctx, &updated); err != nil {
		return domain.ConceptMastery{}, fmt.Errorf("save mastery %s: %w", concept, err)
	}
	return updated, nil
}

// applyReview folds one grade into an exercise's review card under that
// card's lock.
func (e *Engine) applyReview(ctx context.Context, exerciseID string, grade domain.Grade, now time.Time) (domain.ReviewCard, error) {
	unlock := e.cardLocks.Lock(exerciseID)
	defer unlock()

	card, err := e.cards.Get(ctx, exerciseID)
	if errors.Is(err, domain.ErrCardNotFound) {
		card = domain.NewReviewCard(exerciseID)
	} else if err != nil {
		return domain.ReviewCard{}, fmt.Errorf("load card %s: %w", exerciseID, err)
	}

	updated := e.scheduler.Review(*card, grade, now)
	if err := e.cards.Save(ctx, &updated); err != nil {
		return domain.ReviewCard{}, fmt.Errorf("save card %s: %w", exerciseID, err)
	}
	return updated, nil
}

// Due returns the cards whose due timestamp has passed, earliest first.
func (e *Engine) Due(ctx context.Context, limit int) ([]domain.ReviewCard, error) {
	return e.cards.Due(ctx, e.now(), limit)
}

// DueCount returns the size of the due set.
func (e *Engine) DueCount(ctx context.Context) (int, error) {
	return e.cards.DueCount(ctx, e.now())
}

// Stats summarizes ledger and mastery state.
type Stats struct {
	TotalAttempts int
	DueCount      int
	MasteryLevels map[domain.MasteryLevel]int
}

// Stats reports overall progress counters.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	total, err := e.attempts.Count(ctx)
	if err != nil {
		return nil, err
	}
	due, err := e.cards.DueCount(ctx, e.now())
	if err != nil {
		return nil, err
	}
	rows, err := e.mastery.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalAttempts: total,
		DueCount:      due,
		MasteryLevels: make(map[domain.MasteryLevel]int),
	}
	for _, m := range rows {
		stats.MasteryLevels[m.Level]++
	}
	return stats, nil
}

// MasteryRows returns all concept mastery rows.
func (e *Engine) MasteryRows(ctx context.Context) ([]domain.ConceptMastery, error) {
	return e.mastery.List(ctx)
}

// RebuildCard reconstructs an exercise's card from its attempt history
// and persists the result. The ledger is the source of truth; the card is
// derived state.
func (e *Engine) RebuildCard(ctx context.Context, exerciseID string) (domain.ReviewCard, error) {
	unlock := e.cardLocks.Lock(exerciseID)
	defer unlock()

	attempts, err := e.attempts.ListByExercise(ctx, exerciseID)
	if err != nil {
		return domain.ReviewCard{}, err
	}
	card := e.scheduler.Replay(exerciseID, attempts)
	if err := e.cards.Save(ctx, &card); err != nil {
		return domain.ReviewCard{}, fmt.Errorf("save rebuilt card %s: %w", exerciseID, err)
	}
	return card, nil
}

// RebuildMastery reconstructs a concept's mastery row from its attempt
// history and persists the result.
func (e *Engine) RebuildMastery(ctx context.Context, concept string) (domain.ConceptMastery, error) {
	unlock := e.conceptLocks.Lock(concept)
	defer unlock()

	attempts, err := e.attempts.ListByConcept(ctx, concept)
	if err != nil {
		return domain.ConceptMastery{}, err
	}
	m := e.tracker.Replay(concept, attempts)
	if err := e.mastery.Save(ctx, &m); err != nil {
		return domain.ConceptMastery{}, fmt.Errorf("save rebuilt mastery %s: %w", concept, err)
	}
	return m, nil
}

// encodeSubmission flattens the variant-specific artifact for the ledger.
// Write submissions store the code verbatim; the others store JSON.
func encodeSubmission(variant domain.Variant, sub *domain.Submission) string {
	if variant == domain.VariantWrite {
		return sub.Code
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return ""
	}
	return string(data)
}
