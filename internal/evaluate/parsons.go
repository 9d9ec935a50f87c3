package evaluate

import (
	"fmt"

	"github.com/codedrill/drill/internal/domain"
)

// evaluateParsons checks a submitted block ordering against the reference
// solution. Including any distractor block fails the submission even when
// the remaining order is right; otherwise the diagnostic names the first
// position where the order diverges.
func evaluateParsons(spec *domain.ParsonsSpec, sub *domain.Submission) *Result {
	res := &Result{}

	distractors := make(map[string]bool)
	for _, b := range spec.Blocks {
		if b.Distractor {
			distractors[b.ID] = true
		}
	}

	for pos, id := range sub.Order {
		if distractors[id] {
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf(
				"The block at position %d does not belong in the solution.", pos+1))
			return res
		}
	}

	if len(sub.Order) != len(spec.SolutionOrder) {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf(
			"Your solution uses %d blocks, but the correct solution uses %d.",
			len(sub.Order), len(spec.SolutionOrder)))
		return res
	}

	for pos, want := range spec.SolutionOrder {
		if sub.Order[pos] != want {
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf(
				"The block at position %d is in the wrong place.", pos+1))
			return res
		}
	}

	res.Correct = true
	return res
}
