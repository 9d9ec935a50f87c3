package evaluate

import "github.com/codedrill/drill/internal/domain"

// Time thresholds relative to the exercise's declared expected solve
// time. Finishing under the fast fraction earns "easy"; running past the
// generous multiple demotes a clean solve to "hard".
const (
	fastFraction     = 0.5
	generousMultiple = 3.0
)

// mapGrade converts a correctness verdict plus effort signals into the
// four-valued outcome grade the review scheduler consumes:
//
//	0 again — incorrect, or correct only after exhausting every hint
//	1 hard  — correct but needed a hint or well over the expected time
//	2 good  — correct, no hints, normal time
//	3 easy  — correct, no hints, well under the expected time
func mapGrade(ex *domain.Exercise, sub *domain.Submission, correct bool) domain.Grade {
	if !correct {
		return domain.GradeAgain
	}
	if len(ex.Hints) > 0 && sub.HintsUsed >= len(ex.Hints) {
		return domain.GradeAgain
	}
	if sub.HintsUsed > 0 {
		return domain.GradeHard
	}

	expected := float64(ex.ExpectedSeconds)
	if expected <= 0 {
		return domain.GradeGood
	}
	elapsed := float64(sub.ElapsedMs) / 1000.0
	switch {
	case elapsed > expected*generousMultiple:
		return domain.GradeHard
	case elapsed < expected*fastFraction:
		return domain.GradeEasy
	default:
		return domain.GradeGood
	}
}
