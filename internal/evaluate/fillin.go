package evaluate

import (
	"fmt"
	"strings"

	"github.com/codedrill/drill/internal/domain"
)

// evaluateFillIn checks each blank independently so hints can target the
// specific blanks that are wrong. Matching trims surrounding whitespace
// always and folds case unless the blank declares itself case sensitive.
// Overall correctness requires every blank to match.
func evaluateFillIn(spec *domain.FillInSpec, sub *domain.Submission) *Result {
	res := &Result{Correct: true}

	for i, blank := range spec.Blanks {
		pos := i + 1
		got, filled := sub.Blanks[pos]
		if !filled || strings.TrimSpace(got) == "" {
			res.Correct = false
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("Blank %d is empty.", pos))
			continue
		}
		if !blankMatches(blank, got) {
			res.Correct = false
			diag := fmt.Sprintf("Blank %d is incorrect.", pos)
			if blank.Hint != "" {
				diag = fmt.Sprintf("Blank %d is incorrect. Hint: %s", pos, blank.Hint)
			}
			res.Diagnostics = append(res.Diagnostics, diag)
		}
	}

	return res
}

func blankMatches(blank domain.Blank, got string) bool {
	want := strings.TrimSpace(blank.Answer)
	got = strings.TrimSpace(got)
	if blank.CaseSensitive {
		return got == want
	}
	return strings.EqualFold(got, want)
}
