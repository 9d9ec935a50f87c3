// Package review schedules exercise reviews with a memory-decay model in
// the FSRS family: each card carries a stability (days until retention
// falls to the target) and a difficulty (intrinsic hardness) which every
// graded attempt updates, and the next due date is the point where the
// forgetting curve crosses the desired retention.
package review

import (
	"fmt"
	"math"

	"github.com/codedrill/drill/internal/domain"
)

// Params are the scheduler's numeric constants. They are configuration,
// not hard-coded truth: any value set passing Validate and the
// monotonicity properties (growth ordered by grade, shrink on lapse)
// is a legal tuning.
type Params struct {
	// InitialStability seeds a card's stability on its first attempt,
	// indexed by grade (again..easy).
	InitialStability [4]float64 `json:"initial_stability"`

	// InitialDifficulty seeds difficulty on the first attempt, by grade.
	InitialDifficulty [4]float64 `json:"initial_difficulty"`

	// DifficultyStep scales the per-review difficulty drift. Grades
	// below good push difficulty up, easy pulls it down.
	DifficultyStep float64 `json:"difficulty_step"`

	// MeanReversion pulls difficulty slowly toward the easy baseline so
	// old mistakes are not held against a card forever.
	MeanReversion float64 `json:"mean_reversion"`

	// GrowthScale is the base stability-growth exponent for successful
	// reviews (applied as e^GrowthScale).
	GrowthScale float64 `json:"growth_scale"`

	// StabilityPower damps growth for already-stable cards (S^-power).
	StabilityPower float64 `json:"stability_power"`

	// RetrievabilityGain amplifies growth when a card was recalled close
	// to the forgetting threshold.
	RetrievabilityGain float64 `json:"retrievability_gain"`

	// HardPenalty (< 1) and EasyBonus (> 1) order growth by grade.
	HardPenalty float64 `json:"hard_penalty"`
	EasyBonus   float64 `json:"easy_bonus"`

	// Lapse* parameters shape the post-lapse stability, which is always
	// strictly below the pre-lapse stability.
	LapseScale              float64 `json:"lapse_scale"`
	LapseDifficultyPower    float64 `json:"lapse_difficulty_power"`
	LapseStabilityPower     float64 `json:"lapse_stability_power"`
	LapseRetrievabilityGain float64 `json:"lapse_retrievability_gain"`

	// LapseFloor caps post-lapse stability at LapseFloor * S, keeping the
	// reduction multiplicative.
	LapseFloor float64 `json:"lapse_floor"`

	// Decay is the forgetting-curve exponent magnitude: retention decays
	// as (1 + factor * t/S)^-Decay.
	Decay float64 `json:"decay"`
}

// DefaultParams returns the stock tuning. The absolute values matter less
// than the orderings the tests pin down.
func DefaultParams() Params {
	return Params{
		InitialStability:        [4]float64{0.4, 1.2, 3.1, 7.2},
		InitialDifficulty:       [4]float64{8.2, 6.8, 5.3, 3.9},
		DifficultyStep:          0.9,
		MeanReversion:           0.05,
		GrowthScale:             1.6,
		StabilityPower:          0.18,
		RetrievabilityGain:      0.9,
		HardPenalty:             0.55,
		EasyBonus:               1.7,
		LapseScale:              1.4,
		LapseDifficultyPower:    0.25,
		LapseStabilityPower:     0.45,
		LapseRetrievabilityGain: 1.3,
		LapseFloor:              0.7,
		Decay:                   0.5,
	}
}

// paramBound is a closed interval a parameter must fall in.
type paramBound struct {
	name    string
	lo, hi  float64
	valueOf func(Params) float64
}

var paramBounds = []paramBound{
	{"difficulty_step", 0.01, 4, func(p Params) float64 { return p.DifficultyStep }},
	{"mean_reversion", 0, 0.75, func(p Params) float64 { return p.MeanReversion }},
	{"growth_scale", 0.1, 4.5, func(p Params) float64 { return p.GrowthScale }},
	{"stability_power", 0, 0.8, func(p Params) float64 { return p.StabilityPower }},
	{"retrievability_gain", 0.01, 3.5, func(p Params) float64 { return p.RetrievabilityGain }},
	{"hard_penalty", 0.01, 0.99, func(p Params) float64 { return p.HardPenalty }},
	{"easy_bonus", 1.01, 6, func(p Params) float64 { return p.EasyBonus }},
	{"lapse_scale", 0.01, 5, func(p Params) float64 { return p.LapseScale }},
	{"lapse_difficulty_power", 0, 0.9, func(p Params) float64 { return p.LapseDifficultyPower }},
	{"lapse_stability_power", 0.01, 0.99, func(p Params) float64 { return p.LapseStabilityPower }},
	{"lapse_retrievability_gain", 0, 4, func(p Params) float64 { return p.LapseRetrievabilityGain }},
	{"lapse_floor", 0.1, 0.95, func(p Params) float64 { return p.LapseFloor }},
	{"decay", 0.1, 0.8, func(p Params) float64 { return p.Decay }},
}

// Validate checks every parameter against its bounds.
func (p Params) Validate() error {
	for i, s := range p.InitialStability {
		if s < 0.001 || s > 100 {
			return fmt.Errorf("%w: initial_stability[%d] = %f, bounds [0.001, 100]", domain.ErrInvalidParameters, i, s)
		}
	}
	for i := 1; i < len(p.InitialStability); i++ {
		if p.InitialStability[i] <= p.InitialStability[i-1] {
			return fmt.Errorf("%w: initial_stability must increase with grade", domain.ErrInvalidParameters)
		}
	}
	for i, d := range p.InitialDifficulty {
		if d < 1 || d > 10 {
			return fmt.Errorf("%w: initial_difficulty[%d] = %f, bounds [1, 10]", domain.ErrInvalidParameters, i, d)
		}
	}
	for _, b := range paramBounds {
		v := b.valueOf(p)
		if math.IsNaN(v) || v < b.lo || v > b.hi {
			return fmt.Errorf("%w: %s = %f, bounds [%f, %f]", domain.ErrInvalidParameters, b.name, v, b.lo, b.hi)
		}
	}
	return nil
}
