package domain

import (
	"fmt"
	"time"
)

// CardState is the scheduling stage of a review card.
type CardState string

const (
	StateNew        CardState = "new"        // created, never reviewed
	StateLearning   CardState = "learning"   // in the initial learning phase
	StateReview     CardState = "review"     // graduated into the long-term cycle
	StateRelearning CardState = "relearning" // lapsed, recovering
)

// IsValid reports whether s is a known card state.
func (s CardState) IsValid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	}
	return false
}

// ReviewCard is the per-exercise memory state owned by the review
// scheduler. One card per exercise; created on the first attempt and
// never deleted. Invariants: Stability > 0, Difficulty in [1,10],
// Reps >= Lapses, and Due is after LastReview once reviewed.
type ReviewCard struct {
	ExerciseID    string    `json:"exercise_id"`
	Stability     float64   `json:"stability"`  // days until retention decays to target
	Difficulty    float64   `json:"difficulty"` // intrinsic hardness, [1,10]
	ElapsedDays   float64   `json:"elapsed_days"`
	ScheduledDays float64   `json:"scheduled_days"`
	Reps          int       `json:"reps"`
	Lapses        int       `json:"lapses"`
	State         CardState `json:"state"`
	Due           time.Time `json:"due"`
	LastReview    time.Time `json:"last_review"`
}

// NewReviewCard creates a card for an exercise that has never been
// attempted. Due is zero until the first review schedules it.
func NewReviewCard(exerciseID string) *ReviewCard {
	return &ReviewCard{
		ExerciseID: exerciseID,
		State:      StateNew,
	}
}

// CheckInvariants reports the first violated card invariant, or nil.
// A violation is a programming defect in the scheduler, not learner data.
func (c *ReviewCard) CheckInvariants() error {
	if c.State != StateNew && c.Stability <= 0 {
		return fmt.Errorf("card %s: stability %f not positive", c.ExerciseID, c.Stability)
	}
	if c.State != StateNew && (c.Difficulty < 1 || c.Difficulty > 10) {
		return fmt.Errorf("card %s: difficulty %f outside [1,10]", c.ExerciseID, c.Difficulty)
	}
	if c.Reps < c.Lapses {
		return fmt.Errorf("card %s: reps %d < lapses %d", c.ExerciseID, c.Reps, c.Lapses)
	}
	if !c.LastReview.IsZero() && c.Due.Before(c.LastReview) {
		return fmt.Errorf("card %s: due %s before last review %s", c.ExerciseID, c.Due, c.LastReview)
	}
	if !c.State.IsValid() {
		return fmt.Errorf("card %s: invalid state %q", c.ExerciseID, c.State)
	}
	return nil
}
