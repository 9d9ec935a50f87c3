package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/codedrill/drill/internal/domain"
)

// cmdSubmit evaluates an answer and updates mastery and review state
func cmdSubmit(args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	file := fs.String("file", "", "read a write-variant solution from this file ('-' for stdin)")
	answer := fs.String("answer", "", "JSON answer for trace/parsons/fillin variants")
	hints := fs.Int("hints", 0, "number of hints used")
	elapsed := fs.Duration("elapsed", 0, "time spent on the exercise (e.g., 90s)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("exercise ID required (e.g., python-v1/loops/sum-list)")
	}
	exerciseID := fs.Arg(0)

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ex, err := app.registry.GetExercise(exerciseID)
	if err != nil {
		return err
	}

	sub, err := buildSubmission(ex, *file, *answer)
	if err != nil {
		return err
	}
	sub.HintsUsed = *hints
	sub.ElapsedMs = elapsed.Milliseconds()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := app.engine.Submit(ctx, exerciseID, sub)
	if err != nil {
		return err
	}

	printSubmitResult(result.Outcome.Correct, result.Outcome.Grade.String(),
		result.Outcome.Diagnostics, result.Card.Due)
	for _, m := range result.Mastery {
		fmt.Printf("  %s: %s (streak %d)\n", m.Concept, m.Level, m.Streak)
	}
	return nil
}

// buildSubmission assembles the variant-appropriate submission from the
// command-line inputs.
func buildSubmission(ex *domain.Exercise, file, answer string) (*domain.Submission, error) {
	if ex.Variant == domain.VariantWrite {
		if file == "" {
			return nil, fmt.Errorf("write exercises need --file (use '-' for stdin)")
		}
		code, err := readSource(file)
		if err != nil {
			return nil, err
		}
		return &domain.Submission{Code: code}, nil
	}

	if answer == "" {
		return nil, fmt.Errorf("%s exercises need --answer with a JSON payload", ex.Variant)
	}
	var sub domain.Submission
	if err := json.Unmarshal([]byte(answer), &sub); err != nil {
		return nil, fmt.Errorf("parse --answer: %w", err)
	}
	return &sub, nil
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func printSubmitResult(correct bool, grade string, diagnostics []string, due time.Time) {
	if correct {
		fmt.Printf("✓ Correct (%s)\n", grade)
	} else {
		fmt.Printf("✗ Not quite (%s)\n", grade)
	}
	for _, d := range diagnostics {
		fmt.Printf("  %s\n", d)
	}
	if !due.IsZero() {
		fmt.Printf("\nNext review: %s\n", due.Format("2006-01-02"))
	}
}
