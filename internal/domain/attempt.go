package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one evaluation event. Attempts are append-only: once written
// to the ledger they are never updated or deleted. The mastery tracker and
// the review scheduler consume the attempt stream as their sole input.
type Attempt struct {
	ID          uuid.UUID `json:"id"`
	ExerciseID  string    `json:"exercise_id"`
	LessonID    string    `json:"lesson_id"`
	ModuleID    string    `json:"module_id"`
	Variant     Variant   `json:"variant"`
	Submitted   string    `json:"submitted,omitempty"` // code or serialized selections
	Correct     bool      `json:"correct"`
	Grade       Grade     `json:"grade"`
	TimeSpentMs int64     `json:"time_spent_ms"`
	Concepts    []string  `json:"concepts"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
