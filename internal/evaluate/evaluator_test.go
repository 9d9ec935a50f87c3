package evaluate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/codedrill/drill/internal/domain"
	"github.com/codedrill/drill/internal/sandbox"
)

// fakeRunner scripts sandbox outcomes per submitted program, keyed by a
// substring of the code, without spawning processes.
type fakeRunner struct {
	results map[string]*sandbox.RunResult
	err     error
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, code string, _ time.Duration) (*sandbox.RunResult, error) {
	f.calls = append(f.calls, code)
	if f.err != nil {
		return nil, f.err
	}
	for key, res := range f.results {
		if strings.Contains(code, key) {
			return res, nil
		}
	}
	zero := 0
	return &sandbox.RunResult{ExitCode: &zero}, nil
}

func exitResult(code int, stderr string) *sandbox.RunResult {
	return &sandbox.RunResult{ExitCode: &code, Stderr: stderr}
}

func traceExercise() *domain.Exercise {
	return &domain.Exercise{
		ID:              "python-v1/loops/trace-sum",
		Variant:         domain.VariantTrace,
		ExpectedSeconds: 60,
		Trace: &domain.TraceSpec{
			Code: "total = 0\nfor n in [1, 2]:\n    total += n",
			Steps: []domain.TraceStep{
				{Line: 1, Vars: map[string]string{"total": "0"}},
				{Line: 3, Vars: map[string]string{"total": "1", "n": "1"}},
				{Line: 3, Vars: map[string]string{"total": "3", "n": "2"}},
			},
		},
	}
}

func TestEvaluateTrace_ExactMatch(t *testing.T) {
	ex := traceExercise()
	sub := &domain.Submission{Trace: ex.Trace.Steps, ElapsedMs: 45_000}

	ev := NewEvaluator(&fakeRunner{}, nil)
	res, err := ev.Evaluate(context.Background(), ex, sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Correct {
		t.Fatalf("exact reference trace marked incorrect: %v", res.Diagnostics)
	}
	if res.Grade != domain.GradeGood && res.Grade != domain.GradeEasy {
		t.Errorf("Grade = %d; want good or easy", res.Grade)
	}
}

func TestEvaluateTrace_SingleWrongValue(t *testing.T) {
	ex := traceExercise()

	// Copy the reference and flip one binding at step 2.
	claimed := make([]domain.TraceStep, len(ex.Trace.Steps))
	for i, s := range ex.Trace.Steps {
		vars := make(map[string]string, len(s.Vars))
		for k, v := range s.Vars {
			vars[k] = v
		}
		claimed[i] = domain.TraceStep{Line: s.Line, Vars: vars, Output: s.Output}
	}
	claimed[1].Vars["total"] = "2"

	ev := NewEvaluator(&fakeRunner{}, nil)
	res, err := ev.Evaluate(context.Background(), ex, &domain.Submission{Trace: claimed})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Correct {
		t.Fatal("altered trace marked correct")
	}
	if len(res.Diagnostics) != 1 || !strings.Contains(res.Diagnostics[0], "Step 2") {
		t.Errorf("diagnostic should point at step 2, got %v", res.Diagnostics)
	}
	if res.Grade != domain.GradeAgain {
		t.Errorf("Grade = %d; want again", res.Grade)
	}
}

func TestEvaluateTrace_LengthMismatch(t *testing.T) {
	ex := traceExercise()
	sub := &domain.Submission{Trace: ex.Trace.Steps[:2]}

	ev := NewEvaluator(&fakeRunner{}, nil)
	res, err := ev.Evaluate(context.Background(), ex, sub)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Correct {
		t.Fatal("short trace marked correct")
	}
}

func parsonsExercise() *domain.Exercise {
	return &domain.Exercise{
		ID:      "python-v1/loops/build-loop",
		Variant: domain.VariantParsons,
		Parsons: &domain.ParsonsSpec{
			Blocks: []domain.CodeBlock{
				{ID: "b1", Code: "total = 0"},
				{ID: "b2", Code: "for n in nums:"},
				{ID: "b3", Code: "    total += n"},
				{ID: "d1", Code: "    total =+ n", Distractor: true},
			},
			SolutionOrder: []string{"b1", "b2", "b3"},
		},
	}
}

func TestEvaluateParsons_CorrectOrder(t *testing.T) {
	ev := NewEvaluator(&fakeRunner{}, nil)
	res, err := ev.Evaluate(context.Background(), parsonsExercise(),
		&domain.Submission{Order: []string{"b1", "b2", "b3"}})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Correct {
		t.Errorf("reference order marked incorrect: %v", res.Diagnostics)
	}
}

func TestEvaluateParsons_DistractorIncluded(t *testing.T) {
	// Reference order with a distractor inserted anywhere must fail.
	orders := [][]string{
		{"d1", "b1", "b2", "b3"},
		{"b1", "b2", "d1", "b3"},
		{"b1", "b2", "b3", "d1"},
	}
	ev := NewEvaluator(&fakeRunner{}, nil)
	for _, order := range orders {
		res, err := ev.Evaluate(context.Background(), parsonsExercise(), &domain.Submission{Order: order})
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if res.Correct {
			t.Errorf("order %v includes a distractor but was marked correct", order)
		}
	}
}

func TestEvaluateParsons_WrongPosition(t *testing.T) {
	ev := NewEvaluator(&fakeRunner{}, nil)
	res, err := ev.Evaluate(context.Background(), parsonsExercise(),
		&domain.Submission{Order: []string{"b2", "b1", "b3"}})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Correct {
		t.Fatal("swapped order marked correct")
	}
	if len(res.Diagnostics) == 0 || !strings.Contains(res.Diagnostics[0], "position 1") {
		t.Errorf("diagnostic should name the first diverging position, got %v", res.Diagnostics)
	}
}

func fillInExercise() *domain.Exercise {
	return &domain.Exercise{
		ID:      "python-v1/strings/fill-upper",
		Variant: domain.VariantFillIn,
		FillIn: &domain.FillInSpec{
			Template: "name.{{1}}() + {{2}}",
			Blanks: []domain.Blank{
				{Answer: "upper"},
				{Answer: "'!'", CaseSensitive: true, Hint: "string literals keep their quotes"},
			},
		},
	}
}

func TestEvaluateFillIn(t *testing.T) {
	tests := []struct {
		name        string
		blanks      map[int]string
		wantCorrect bool
		wantDiags   int
	}{
		{"all correct", map[int]string{1: "upper", 2: "'!'"}, true, 0},
		{"case folded", map[int]string{1: "UPPER", 2: "'!'"}, true, 0},
		{"whitespace trimmed", map[int]string{1: " upper ", 2: "'!'"}, true, 0},
		{"case sensitive blank wrong", map[int]string{1: "upper", 2: "'!'x"}, false, 1},
		{"both wrong", map[int]string{1: "lower", 2: "oops"}, false, 2},
		{"one missing", map[int]string{1: "upper"}, false, 1},
	}

	ev := NewEvaluator(&fakeRunner{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ev.Evaluate(context.Background(), fillInExercise(),
				&domain.Submission{Blanks: tt.blanks})
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if res.Correct != tt.wantCorrect {
				t.Errorf("Correct = %v; want %v (%v)", res.Correct, tt.wantCorrect, res.Diagnostics)
			}
			if len(res.Diagnostics) != tt.wantDiags {
				t.Errorf("got %d diagnostics, want %d: %v", len(res.Diagnostics), tt.wantDiags, res.Diagnostics)
			}
		})
	}
}

func TestEvaluateFillIn_HintInDiagnostic(t *testing.T) {
	ev := NewEvaluator(&fakeRunner{}, nil)
	res, err := ev.Evaluate(context.Background(), fillInExercise(),
		&domain.Submission{Blanks: map[int]string{1: "upper", 2: "!"}})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Correct {
		t.Fatal("wrong blank marked correct")
	}
	if !strings.Contains(res.Diagnostics[0], "string literals keep their quotes") {
		t.Errorf("diagnostic should carry the blank's hint, got %q", res.Diagnostics[0])
	}
}

func writeExercise() *domain.Exercise {
	return &domain.Exercise{
		ID:              "python-v1/functions/add",
		Variant:         domain.VariantWrite,
		ExpectedSeconds: 120,
		Write: &domain.WriteSpec{
			Starter: "def add(a, b):\n    pass",
			Tests: []domain.TestCase{
				{Name: "adds two and three", Check: "assert add(2, 3) == 5"},
				{Name: "adds negatives", Check: "assert add(-1, -2) == -3"},
			},
		},
	}
}

func TestEvaluateWrite_AllTestsPass(t *testing.T) {
	runner := &fakeRunner{}
	ev := NewEvaluator(runner, nil)

	res, err := ev.Evaluate(context.Background(), writeExercise(),
		&domain.Submission{Code: "def add(a, b):\n    return a + b", ElapsedMs: 90_000})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Correct {
		t.Fatalf("passing submission marked incorrect: %v", res.Diagnostics)
	}
	if len(res.TestResults) != 2 {
		t.Fatalf("got %d test results, want 2", len(res.TestResults))
	}
	for _, tr := range res.TestResults {
		if !tr.Passed {
			t.Errorf("test %q not marked passed", tr.Name)
		}
	}
	if len(runner.calls) != 2 {
		t.Errorf("runner invoked %d times, want once per test", len(runner.calls))
	}
}

func TestEvaluateWrite_FailingAssertionRunsAllTests(t *testing.T) {
	runner := &fakeRunner{results: map[string]*sandbox.RunResult{
		// Both checks fail for a subtracting add: the learner must see both.
		"assert add(2, 3) == 5":    exitResult(1, "Traceback (most recent call last):\n  File \"main.py\", line 4, in <module>\nAssertionError"),
		"assert add(-1, -2) == -3": exitResult(1, "Traceback (most recent call last):\n  File \"main.py\", line 4, in <module>\nAssertionError"),
	}}
	ev := NewEvaluator(runner, nil)

	res, err := ev.Evaluate(context.Background(), writeExercise(),
		&domain.Submission{Code: "def add(a, b):\n    return a - b"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Correct {
		t.Fatal("failing submission marked correct")
	}
	if len(res.TestResults) != 2 {
		t.Fatalf("got %d test results, want all tests to run: %v", len(res.TestResults), res.TestResults)
	}
	found := false
	for _, d := range res.Diagnostics {
		if strings.Contains(d, "adds two and three") {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics should name the failing test, got %v", res.Diagnostics)
	}
	if res.Grade != domain.GradeAgain {
		t.Errorf("Grade = %d; want again", res.Grade)
	}
}

func TestEvaluateWrite_RuntimeErrorTranslated(t *testing.T) {
	runner := &fakeRunner{results: map[string]*sandbox.RunResult{
		"assert": exitResult(1, "Traceback (most recent call last):\n  File \"main.py\", line 2, in add\nZeroDivisionError: division by zero"),
	}}
	ev := NewEvaluator(runner, nil)

	res, err := ev.Evaluate(context.Background(), writeExercise(),
		&domain.Submission{Code: "def add(a, b):\n    return a / 0"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Correct {
		t.Fatal("crashing submission marked correct")
	}
	for _, tr := range res.TestResults {
		if strings.Contains(tr.Error, "Traceback") {
			t.Errorf("raw traceback surfaced instead of friendly message: %q", tr.Error)
		}
		if !strings.Contains(tr.Error, "divide") {
			t.Errorf("expected a divide-by-zero translation, got %q", tr.Error)
		}
	}
}

func TestEvaluateWrite_TimeoutStopsRemainingTests(t *testing.T) {
	runner := &fakeRunner{results: map[string]*sandbox.RunResult{
		"assert add(2, 3) == 5": {TimedOut: true, Stdout: "partial"},
	}}
	ev := NewEvaluator(runner, nil)

	res, err := ev.Evaluate(context.Background(), writeExercise(),
		&domain.Submission{Code: "while True:\n    pass"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Correct {
		t.Fatal("timed-out submission marked correct")
	}
	if len(res.TestResults) != 1 {
		t.Fatalf("timeout should stop further tests, got %d results", len(res.TestResults))
	}
	if !res.TestResults[0].TimedOut {
		t.Error("test result not flagged as timed out")
	}
	if !strings.Contains(res.Diagnostics[0], "too long") {
		t.Errorf("timeout diagnostic missing, got %v", res.Diagnostics)
	}
	if len(runner.calls) != 1 {
		t.Errorf("runner invoked %d times after a timeout, want 1", len(runner.calls))
	}
}

func TestEvaluateWrite_SandboxUnavailable(t *testing.T) {
	runner := &fakeRunner{err: domain.ErrSandboxUnavailable}
	ev := NewEvaluator(runner, nil)

	res, err := ev.Evaluate(context.Background(), writeExercise(),
		&domain.Submission{Code: "def add(a, b):\n    return a + b"})
	if err != nil {
		t.Fatalf("infrastructure failure should not surface as an error: %v", err)
	}
	if res.Correct {
		t.Fatal("submission marked correct when nothing ran")
	}
	if len(res.Diagnostics) == 0 || !strings.Contains(res.Diagnostics[0], "could not run your code") {
		t.Errorf("expected a generic retry-safe message, got %v", res.Diagnostics)
	}
	if len(runner.calls) != 1 {
		t.Errorf("runner invoked %d times after a start failure, want 1", len(runner.calls))
	}
}

func TestEvaluateWrite_CancellationPropagates(t *testing.T) {
	runner := &fakeRunner{err: context.Canceled}
	ev := NewEvaluator(runner, nil)

	_, err := ev.Evaluate(context.Background(), writeExercise(),
		&domain.Submission{Code: "def add(a, b):\n    return a + b"})
	if err == nil {
		t.Fatal("expected cancellation to propagate as an error")
	}
}

func TestEvaluate_MisconfiguredExerciseFailsClosed(t *testing.T) {
	ex := &domain.Exercise{
		ID:      "python-v1/broken/no-trace",
		Variant: domain.VariantTrace, // payload missing
	}
	ev := NewEvaluator(&fakeRunner{}, nil)

	res, err := ev.Evaluate(context.Background(), ex, &domain.Submission{})
	if err != nil {
		t.Fatalf("content bugs should not surface as errors: %v", err)
	}
	if res.Correct {
		t.Fatal("misconfigured exercise marked correct")
	}
	if !res.Misconfigured {
		t.Error("result not flagged as misconfigured")
	}
	if res.Grade != domain.GradeAgain {
		t.Errorf("Grade = %d; want again", res.Grade)
	}
}

func TestMapGrade(t *testing.T) {
	ex := &domain.Exercise{
		ExpectedSeconds: 100,
		Hints:           []string{"h1", "h2"},
	}

	tests := []struct {
		name    string
		correct bool
		hints   int
		elapsed int64 // ms
		want    domain.Grade
	}{
		{"incorrect", false, 0, 10_000, domain.GradeAgain},
		{"all hints exhausted", true, 2, 80_000, domain.GradeAgain},
		{"one hint", true, 1, 80_000, domain.GradeHard},
		{"slow but clean", true, 0, 400_000, domain.GradeHard},
		{"normal time", true, 0, 80_000, domain.GradeGood},
		{"fast", true, 0, 30_000, domain.GradeEasy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &domain.Submission{HintsUsed: tt.hints, ElapsedMs: tt.elapsed}
			if got := mapGrade(ex, sub, tt.correct); got != tt.want {
				t.Errorf("mapGrade = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestMapGrade_NoExpectedTime(t *testing.T) {
	ex := &domain.Exercise{}
	sub := &domain.Submission{ElapsedMs: 1}
	if got := mapGrade(ex, sub, true); got != domain.GradeGood {
		t.Errorf("mapGrade without an expected time = %d; want good", got)
	}
}
