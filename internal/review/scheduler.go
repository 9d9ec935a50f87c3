package review

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/codedrill/drill/internal/domain"
)

const (
	minStability = 0.001

	// maxRecallRetention floors the modeled forgetting on a successful
	// review so consolidation is strictly positive even for a review
	// moments after the last one.
	maxRecallRetention = 0.99
)

// Config configures a Scheduler. Zero values take defaults.
type Config struct {
	Params           Params  `json:"params"`
	DesiredRetention float64 `json:"desired_retention"` // zero -> 0.9
	MaximumInterval  int     `json:"maximum_interval"`  // days, zero -> 365
}

// Scheduler owns the review-card state transitions. It is stateless
// itself: Review is a pure function of (card, grade, now), so callers may
// share one Scheduler across goroutines.
type Scheduler struct {
	params           Params
	desiredRetention float64
	maximumInterval  int
	decay            float64
	factor           float64
}

// NewScheduler creates a Scheduler, validating parameters and retention.
func NewScheduler(cfg Config) (*Scheduler, error) {
	params := cfg.Params
	if params == (Params{}) {
		params = DefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	dr := cfg.DesiredRetention
	if dr == 0 {
		dr = 0.9
	}
	if dr <= 0 || dr >= 1 {
		return nil, fmt.Errorf("%w: desired retention %f outside (0, 1)", domain.ErrInvalidParameters, dr)
	}

	maxIvl := cfg.MaximumInterval
	if maxIvl == 0 {
		maxIvl = 365
	}
	if maxIvl < 1 {
		return nil, fmt.Errorf("%w: maximum interval %d must be at least 1 day", domain.ErrInvalidParameters, maxIvl)
	}

	decay := -params.Decay
	return &Scheduler{
		params:           params,
		desiredRetention: dr,
		maximumInterval:  maxIvl,
		decay:            decay,
		factor:           math.Pow(0.9, 1.0/decay) - 1.0,
	}, nil
}

// Review folds one graded attempt into the card and returns the updated
// card. The input card is not mutated. State moves along
// new -> learning -> review, review -> relearning on a lapse, and
// relearning -> review on recovery; a card never returns to new.
func (s *Scheduler) Review(card domain.ReviewCard, grade domain.Grade, now time.Time) domain.ReviewCard {
	if !grade.IsValid() {
		// A bad grade is a programming defect upstream; treat it as the
		// most conservative outcome rather than corrupting the card.
		slog.Warn("invalid grade, treating as again", "exercise_id", card.ExerciseID, "grade", int(grade))
		grade = domain.GradeAgain
	}

	c := card

	var elapsed float64
	if !c.LastReview.IsZero() {
		elapsed = now.Sub(c.LastReview).Hours() / 24.0
		if elapsed < 0 {
			elapsed = 0
		}
	}
	prevScheduled := c.ScheduledDays

	if c.State == domain.StateNew {
		c.Stability = s.params.InitialStability[grade]
		c.Difficulty = s.params.InitialDifficulty[grade]
		c.State = domain.StateLearning
	} else {
		r := s.retrievability(elapsed, c.Stability)
		if grade == domain.GradeAgain {
			c.Stability = s.nextForgetStability(c.Difficulty, c.Stability, r)
		} else {
			c.Stability = s.nextRecallStability(c.Difficulty, c.Stability, r, grade)
		}
		c.Difficulty = s.nextDifficulty(c.Difficulty, grade)

		switch c.State {
		case domain.StateLearning, domain.StateRelearning:
			// Graduate once the card survived a full scheduled interval
			// without a lapse.
			if grade != domain.GradeAgain && elapsed >= prevScheduled {
				c.State = domain.StateReview
			}
		case domain.StateReview:
			if grade == domain.GradeAgain {
				c.State = domain.StateRelearning
			}
		}
	}

	c.Stability = s.clampStability(c.ExerciseID, c.Stability)
	c.Difficulty = s.clampDifficulty(c.ExerciseID, c.Difficulty)

	days := s.nextInterval(c.Stability)
	c.ScheduledDays = float64(days)
	c.ElapsedDays = elapsed
	c.Reps++
	if grade == domain.GradeAgain {
		c.Lapses++
	}
	c.LastReview = now
	c.Due = now.Add(time.Duration(days) * 24 * time.Hour)

	if err := c.CheckInvariants(); err != nil {
		// Clamping above should make this unreachable; flag loudly if not.
		slog.Error("review card invariant violation after update", "error", err)
	}

	return c
}

// Replay rebuilds a card's scheduling state from its attempt history.
// Attempts must be in chronological order.
func (s *Scheduler) Replay(exerciseID string, attempts []domain.Attempt) domain.ReviewCard {
	card := *domain.NewReviewCard(exerciseID)
	for _, a := range attempts {
		card = s.Review(card, a.Grade, a.CreatedAt)
	}
	return card
}

// Retrievability returns the modeled probability the exercise is still
// recalled at the given time. Zero for a never-reviewed card.
func (s *Scheduler) Retrievability(card domain.ReviewCard, now time.Time) float64 {
	if card.LastReview.IsZero() || card.Stability <= 0 {
		return 0
	}
	elapsed := now.Sub(card.LastReview).Hours() / 24.0
	if elapsed < 0 {
		elapsed = 0
	}
	return s.retrievability(elapsed, card.Stability)
}

// retrievability computes R(t, S) = (1 + factor * t/S) ^ decay.
func (s *Scheduler) retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+s.factor*elapsedDays/stability, s.decay)
}

// nextInterval computes the days until retention would fall to the
// desired target, clamped to [1, maximumInterval].
func (s *Scheduler) nextInterval(stability float64) int {
	ivl := stability / s.factor * (math.Pow(s.desiredRetention, 1.0/s.decay) - 1)
	days := int(math.Round(ivl))
	if days < 1 {
		days = 1
	}
	if days > s.maximumInterval {
		days = s.maximumInterval
	}
	return days
}

// nextRecallStability grows stability after a successful review. Growth
// increases with grade (hard < good < easy), shrinks as difficulty rises,
// and is strictly positive.
func (s *Scheduler) nextRecallStability(d, stability, r float64, grade domain.Grade) float64 {
	if r > maxRecallRetention {
		r = maxRecallRetention
	}
	modifier := 1.0
	switch grade {
	case domain.GradeHard:
		modifier = s.params.HardPenalty
	case domain.GradeEasy:
		modifier = s.params.EasyBonus
	}
	growth := math.Exp(s.params.GrowthScale) *
		(11 - d) *
		math.Pow(stability, -s.params.StabilityPower) *
		(math.Exp((1-r)*s.params.RetrievabilityGain) - 1) *
		modifier
	return stability * (1 + growth)
}

// nextForgetStability shrinks stability after a lapse. The result is
// always strictly below the pre-lapse stability.
func (s *Scheduler) nextForgetStability(d, stability, r float64) float64 {
	long := s.params.LapseScale *
		math.Pow(d, -s.params.LapseDifficultyPower) *
		(math.Pow(stability+1, s.params.LapseStabilityPower) - 1) *
		math.Exp((1-r)*s.params.LapseRetrievabilityGain)
	return math.Min(long, stability*s.params.LapseFloor)
}

// nextDifficulty drifts difficulty by a bounded, damped step: up for
// again/hard, unchanged for good, down for easy, then reverts slightly
// toward the easy baseline.
func (s *Scheduler) nextDifficulty(d float64, grade domain.Grade) float64 {
	delta := s.params.DifficultyStep * float64(int(domain.GradeGood)-int(grade))
	damped := d + (10-d)*delta/9
	baseline := s.params.InitialDifficulty[domain.GradeEasy]
	return s.params.MeanReversion*baseline + (1-s.params.MeanReversion)*damped
}

// clampStability defends the strictly-positive invariant at the boundary.
func (s *Scheduler) clampStability(exerciseID string, stability float64) float64 {
	if math.IsNaN(stability) || stability < minStability {
		slog.Warn("clamping invalid stability", "exercise_id", exerciseID, "stability", stability)
		return minStability
	}
	return stability
}

// clampDifficulty defends the [1,10] domain at the boundary.
func (s *Scheduler) clampDifficulty(exerciseID string, d float64) float64 {
	if math.IsNaN(d) {
		slog.Warn("clamping NaN difficulty", "exercise_id", exerciseID)
		return 5
	}
	if d < 1 {
		return 1
	}
	if d > 10 {
		return 10
	}
	return d
}
