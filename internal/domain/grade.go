package domain

import (
	"encoding"
	"fmt"
)

// Grade is the outcome of one attempt, fed into the review scheduler.
// It maps directly to the spaced-repetition ratings again/hard/good/easy.
type Grade int

const (
	GradeAgain Grade = iota // incorrect, or correct only after exhausting all hints
	GradeHard               // correct but used hints or well over expected time
	GradeGood               // correct, no hints, normal time
	GradeEasy               // correct, no hints, well under expected time
)

var gradeNames = [...]string{
	GradeAgain: "again",
	GradeHard:  "hard",
	GradeGood:  "good",
	GradeEasy:  "easy",
}

var gradeByName = map[string]Grade{
	"again": GradeAgain,
	"hard":  GradeHard,
	"good":  GradeGood,
	"easy":  GradeEasy,
}

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Grade(0)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
)

// IsValid reports whether g is a valid grade (again through easy).
func (g Grade) IsValid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

// String returns the grade name. For invalid values it returns "Grade(n)".
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	v, ok := gradeByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidGrade, text)
	}
	*g = v
	return nil
}
