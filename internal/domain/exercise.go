package domain

import "fmt"

// Variant identifies the exercise archetype. The set is closed: every
// evaluator switch over Variant must handle all four cases.
type Variant string

const (
	VariantTrace   Variant = "trace"
	VariantParsons Variant = "parsons"
	VariantFillIn  Variant = "fillin"
	VariantWrite   Variant = "write"
)

// IsValid reports whether v is one of the four known variants.
func (v Variant) IsValid() bool {
	switch v {
	case VariantTrace, VariantParsons, VariantFillIn, VariantWrite:
		return true
	}
	return false
}

// Difficulty represents exercise difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Exercise is an immutable exercise definition, authored as content and
// never mutated at runtime. Exactly one of the variant payloads is set,
// matching Variant.
type Exercise struct {
	ID              string     `json:"id"` // slug: "python-v1/loops/sum-list"
	LessonID        string     `json:"lesson_id"`
	ModuleID        string     `json:"module_id"`
	Prompt          string     `json:"prompt"`
	Concepts        []string   `json:"concepts"` // concept tags, e.g. "loops"
	Hints           []string   `json:"hints"`    // revealed progressively, in order
	Difficulty      Difficulty `json:"difficulty"`
	ExpectedSeconds int        `json:"expected_seconds"` // typical solve time for this difficulty

	Variant Variant      `json:"variant"`
	Trace   *TraceSpec   `json:"trace,omitempty"`
	Parsons *ParsonsSpec `json:"parsons,omitempty"`
	FillIn  *FillInSpec  `json:"fillin,omitempty"`
	Write   *WriteSpec   `json:"write,omitempty"`
}

// TraceStep is one step of a precomputed reference trace: the variable
// bindings after the line executed, plus any output the line produced.
type TraceStep struct {
	Line   int               `json:"line"`
	Vars   map[string]string `json:"vars"`
	Output string            `json:"output,omitempty"`
}

// TraceSpec holds the reference trace for a trace exercise.
type TraceSpec struct {
	Code  string      `json:"code"`
	Steps []TraceStep `json:"steps"`
}

// CodeBlock is one draggable block in a parsons exercise. Distractor
// blocks belong to the shuffled pool but never to the solution.
type CodeBlock struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Distractor bool   `json:"distractor,omitempty"`
}

// ParsonsSpec holds the block pool and reference order for a parsons exercise.
type ParsonsSpec struct {
	Blocks        []CodeBlock `json:"blocks"`
	SolutionOrder []string    `json:"solution_order"`
}

// Blank is one fill-in slot with its reference answer. Matching always
// trims surrounding whitespace; case folding is per blank.
type Blank struct {
	Answer        string `json:"answer"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
	Hint          string `json:"hint,omitempty"`
}

// FillInSpec holds the template and blanks for a fill-in exercise.
type FillInSpec struct {
	Template string  `json:"template"` // blanks marked as {{1}}, {{2}}, ...
	Blanks   []Blank `json:"blanks"`
}

// TestCase is one named check for a write exercise. Check is a Python
// expression statement appended to the submission, typically an assert.
type TestCase struct {
	Name  string `json:"name"`
	Check string `json:"check"`
}

// WriteSpec holds the starter code and test checks for a write exercise.
type WriteSpec struct {
	Starter   string     `json:"starter,omitempty"`
	Tests     []TestCase `json:"tests"`
	TimeoutMs int        `json:"timeout_ms,omitempty"` // per test, 0 means engine default
}

// Validate checks that the definition is internally consistent: the
// variant is known and the matching payload is present and non-trivial.
// An exercise failing validation is a content bug, not a learner error.
func (e *Exercise) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMisconfiguredExercise)
	}
	if !e.Variant.IsValid() {
		return fmt.Errorf("%w: %s: unknown variant %q", ErrMisconfiguredExercise, e.ID, e.Variant)
	}
	switch e.Variant {
	case VariantTrace:
		if e.Trace == nil || len(e.Trace.Steps) == 0 {
			return fmt.Errorf("%w: %s: trace exercise has no reference trace", ErrMisconfiguredExercise, e.ID)
		}
	case VariantParsons:
		if e.Parsons == nil || len(e.Parsons.SolutionOrder) == 0 {
			return fmt.Errorf("%w: %s: parsons exercise has no solution order", ErrMisconfiguredExercise, e.ID)
		}
		pool := make(map[string]bool, len(e.Parsons.Blocks))
		for _, b := range e.Parsons.Blocks {
			pool[b.ID] = true
		}
		for _, id := range e.Parsons.SolutionOrder {
			if !pool[id] {
				return fmt.Errorf("%w: %s: solution references unknown block %q", ErrMisconfiguredExercise, e.ID, id)
			}
		}
	case VariantFillIn:
		if e.FillIn == nil || len(e.FillIn.Blanks) == 0 {
			return fmt.Errorf("%w: %s: fill-in exercise has no blanks", ErrMisconfiguredExercise, e.ID)
		}
	case VariantWrite:
		if e.Write == nil || len(e.Write.Tests) == 0 {
			return fmt.Errorf("%w: %s: write exercise has no tests", ErrMisconfiguredExercise, e.ID)
		}
	}
	return nil
}
