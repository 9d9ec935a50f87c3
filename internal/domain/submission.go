package domain

// Submission is a learner's answer to an exercise. The populated field
// depends on the exercise variant; HintsUsed and ElapsedMs feed the
// grade mapping.
type Submission struct {
	// Trace: claimed variable-state snapshots, one per executed step.
	Trace []TraceStep `json:"trace,omitempty"`

	// Parsons: ordering of code-block ids drawn from the shuffled pool.
	Order []string `json:"order,omitempty"`

	// FillIn: blank position (1-based) -> filled text.
	Blanks map[int]string `json:"blanks,omitempty"`

	// Write: free-form code.
	Code string `json:"code,omitempty"`

	HintsUsed int   `json:"hints_used"`
	ElapsedMs int64 `json:"elapsed_ms"`
}
