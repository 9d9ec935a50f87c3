package evaluate

import (
	"fmt"

	"github.com/codedrill/drill/internal/domain"
)

// evaluateTrace requires an exact match of the claimed variable bindings
// and declared output at every step of the reference trace. There is no
// partial credit: the first divergence fails the whole submission, and
// the diagnostic points at that exact step so a hint can target it.
func evaluateTrace(spec *domain.TraceSpec, sub *domain.Submission) *Result {
	res := &Result{}

	if len(sub.Trace) != len(spec.Steps) {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf(
			"Your trace has %d steps, but the code executes %d steps.",
			len(sub.Trace), len(spec.Steps)))
		return res
	}

	for i, want := range spec.Steps {
		got := sub.Trace[i]
		if diag, ok := compareStep(i, want, got); !ok {
			res.Diagnostics = append(res.Diagnostics, diag)
			return res
		}
	}

	res.Correct = true
	return res
}

// compareStep checks one claimed step against the reference. Step indices
// in diagnostics are 1-based; learners count from one.
func compareStep(i int, want, got domain.TraceStep) (string, bool) {
	step := i + 1
	if got.Line != want.Line {
		return fmt.Sprintf("Step %d: expected line %d to execute, but you chose line %d.",
			step, want.Line, got.Line), false
	}
	if len(got.Vars) != len(want.Vars) {
		return fmt.Sprintf("Step %d: expected %d variable(s), but you listed %d.",
			step, len(want.Vars), len(got.Vars)), false
	}
	for name, wantVal := range want.Vars {
		gotVal, ok := got.Vars[name]
		if !ok {
			return fmt.Sprintf("Step %d: variable %q is missing from your answer.", step, name), false
		}
		if gotVal != wantVal {
			return fmt.Sprintf("Step %d: variable %q should be %s, but you said %s.",
				step, name, wantVal, gotVal), false
		}
	}
	if got.Output != want.Output {
		if want.Output == "" {
			return fmt.Sprintf("Step %d: this line prints nothing, but you said it prints %q.",
				step, got.Output), false
		}
		return fmt.Sprintf("Step %d: this line prints %q, but you said %q.",
			step, want.Output, got.Output), false
	}
	return "", true
}
