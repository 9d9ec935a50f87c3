// Package evaluate determines correctness and an outcome grade for a
// learner submission, polymorphic over the four exercise variants. The
// trace, parsons and fill-in variants are checked purely in memory; the
// write variant executes learner code through a sandbox.Runner, one run
// per declared test case.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codedrill/drill/internal/diagnose"
	"github.com/codedrill/drill/internal/domain"
	"github.com/codedrill/drill/internal/sandbox"
)

// TestResult is the outcome of one write-variant test case.
type TestResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"` // friendly or raw failure detail
	TimedOut bool   `json:"timed_out,omitempty"`
}

// Result is the evaluator's verdict on one submission.
type Result struct {
	Correct     bool         `json:"correct"`
	Grade       domain.Grade `json:"grade"`
	Diagnostics []string     `json:"diagnostics,omitempty"`
	TestResults []TestResult `json:"test_results,omitempty"` // write variant only

	// Misconfigured marks a content bug in the exercise definition, as
	// opposed to a learner mistake. The result is always incorrect.
	Misconfigured bool `json:"misconfigured,omitempty"`
}

// Evaluator checks submissions against exercise definitions. The runner
// is only consulted for write exercises; the other three variants never
// execute code.
type Evaluator struct {
	runner sandbox.Runner
	logger *slog.Logger
}

// NewEvaluator creates an evaluator backed by the given sandbox runner.
func NewEvaluator(runner sandbox.Runner, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{runner: runner, logger: logger}
}

// Evaluate checks the submission against the exercise and maps the
// outcome to a grade. A malformed exercise definition fails closed: the
// result is incorrect, flagged as misconfigured, and carries a triage
// diagnostic instead of guessing at the learner's intent.
func (e *Evaluator) Evaluate(ctx context.Context, ex *domain.Exercise, sub *domain.Submission) (*Result, error) {
	if err := ex.Validate(); err != nil {
		e.logger.Error("exercise definition rejected",
			slog.String("exercise_id", ex.ID),
			slog.String("error", err.Error()))
		return &Result{
			Correct:       false,
			Grade:         domain.GradeAgain,
			Misconfigured: true,
			Diagnostics:   []string{"This exercise is misconfigured. Please report it so we can fix it."},
		}, nil
	}

	var res *Result
	switch ex.Variant {
	case domain.VariantTrace:
		res = evaluateTrace(ex.Trace, sub)
	case domain.VariantParsons:
		res = evaluateParsons(ex.Parsons, sub)
	case domain.VariantFillIn:
		res = evaluateFillIn(ex.FillIn, sub)
	case domain.VariantWrite:
		var err error
		res, err = e.evaluateWrite(ctx, ex, sub)
		if err != nil {
			return nil, err
		}
	default:
		// Validate already rejects unknown variants.
		return nil, fmt.Errorf("evaluate %s: unhandled variant %q", ex.ID, ex.Variant)
	}

	res.Grade = mapGrade(ex, sub, res.Correct)
	return res, nil
}

// evaluateWrite runs the submission once per declared test case. Test
// assertion failures do not stop the run: the learner should see every
// failing test, not just the first. Two conditions do stop it early: a
// sandbox start failure (nothing else can run either) and a timeout (an
// infinite loop in the submission would stall every remaining test the
// same way).
func (e *Evaluator) evaluateWrite(ctx context.Context, ex *domain.Exercise, sub *domain.Submission) (*Result, error) {
	spec := ex.Write
	timeout := sandbox.DefaultTimeout
	if spec.TimeoutMs > 0 {
		timeout = time.Duration(spec.TimeoutMs) * time.Millisecond
	}

	res := &Result{TestResults: make([]TestResult, 0, len(spec.Tests))}
	allPassed := true

	for _, tc := range spec.Tests {
		code := buildTestProgram(sub.Code, tc.Check)

		run, err := e.runner.Run(ctx, code, timeout)
		if err != nil {
			if errors.Is(err, domain.ErrSandboxUnavailable) {
				e.logger.Error("sandbox unavailable",
					slog.String("exercise_id", ex.ID),
					slog.String("error", err.Error()))
				res.Correct = false
				res.Diagnostics = append(res.Diagnostics,
					"We could not run your code right now. This is not a problem with your solution; please try again.")
				return res, nil
			}
			// Cancellation or another caller-side failure.
			return nil, fmt.Errorf("run test %q: %w", tc.Name, err)
		}

		tr := TestResult{Name: tc.Name, Output: run.Stdout}
		switch {
		case run.TimedOut:
			tr.TimedOut = true
			tr.Error = "Your code took too long to finish. Check for a loop that never ends."
			allPassed = false
			res.TestResults = append(res.TestResults, tr)
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("%s: %s", tc.Name, tr.Error))
			res.Correct = false
			return res, nil
		case run.OK():
			tr.Passed = true
		default:
			allPassed = false
			if friendly, ok := diagnose.Translate(run.Stderr); ok {
				tr.Error = friendly
			} else {
				tr.Error = run.Stderr
			}
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("%s: %s", tc.Name, tr.Error))
		}
		res.TestResults = append(res.TestResults, tr)
	}

	res.Correct = allPassed
	return res, nil
}

// buildTestProgram appends one check to the submission so both run in a
// single interpreter invocation.
func buildTestProgram(code, check string) string {
	return code + "\n\n" + check + "\n"
}
