package domain

import "time"

// MasteryLevel is the discrete mastery stage of one concept.
type MasteryLevel string

const (
	MasteryNotStarted MasteryLevel = "not-started"
	MasteryPracticing MasteryLevel = "practicing"
	MasteryMastered   MasteryLevel = "mastered"
)

// ConceptMastery is the per-concept mastery row. Concept is the unique
// key; only the mastery tracker mutates it. Streak counts consecutive
// correct attempts since the last lapse and is the tracker's working
// state between attempts.
type ConceptMastery struct {
	Concept   string       `json:"concept"`
	Level     MasteryLevel `json:"level"`
	Streak    int          `json:"streak"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewConceptMastery returns the initial row for a concept nobody has
// practiced yet.
func NewConceptMastery(concept string) *ConceptMastery {
	return &ConceptMastery{
		Concept: concept,
		Level:   MasteryNotStarted,
	}
}
