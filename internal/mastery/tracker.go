// Package mastery folds per-concept attempt outcomes into a discrete
// mastery level. The transition rule lives here and nowhere else, so
// content authoring, the engine, and tests share one definition of
// "mastered".
package mastery

import (
	"time"

	"github.com/codedrill/drill/internal/domain"
)

// DefaultStreak is the number of consecutive correct attempts, counted
// since the last lapse, required to reach mastered.
const DefaultStreak = 3

// Tracker applies the mastery state machine:
//
//	not-started -> practicing  on the first attempt
//	practicing  -> mastered    after a streak of correct attempts
//	mastered    -> practicing  on any incorrect attempt (a lapse)
//
// An incorrect attempt always resets the streak but never demotes below
// practicing.
type Tracker struct {
	streak int
}

// NewTracker creates a tracker with the given streak threshold; values
// below 1 fall back to DefaultStreak.
func NewTracker(streak int) *Tracker {
	if streak < 1 {
		streak = DefaultStreak
	}
	return &Tracker{streak: streak}
}

// Apply folds one attempt outcome into the concept's mastery row and
// returns the updated row. The input is not mutated.
func (t *Tracker) Apply(m domain.ConceptMastery, correct bool, now time.Time) domain.ConceptMastery {
	if m.Level == domain.MasteryNotStarted || m.Level == "" {
		m.Level = domain.MasteryPracticing
		m.Streak = 0
	}

	if correct {
		m.Streak++
		if m.Level == domain.MasteryPracticing && m.Streak >= t.streak {
			m.Level = domain.MasteryMastered
		}
	} else {
		m.Streak = 0
		if m.Level == domain.MasteryMastered {
			m.Level = domain.MasteryPracticing
		}
	}

	m.UpdatedAt = now
	return m
}

// Replay rebuilds a concept's mastery from its attempt history, in
// chronological order. Only the correctness of each attempt matters.
func (t *Tracker) Replay(concept string, attempts []domain.Attempt) domain.ConceptMastery {
	m := *domain.NewConceptMastery(concept)
	for _, a := range attempts {
		m = t.Apply(m, a.Correct, a.CreatedAt)
	}
	return m
}
