package main

import (
	"fmt"
	"strings"
)

// cmdExercise browses loaded content
func cmdExercise(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Exercise commands:

  drill exercise list                    List lessons and exercises
  drill exercise info <module/lesson/slug>  Show exercise details`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdExerciseList()
	case "info":
		if len(args) < 2 {
			return fmt.Errorf("exercise ID required (e.g., python-v1/loops/sum-list)")
		}
		return cmdExerciseInfo(args[1])
	default:
		return fmt.Errorf("unknown exercise command: %s", args[0])
	}
}

func cmdExerciseList() error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	lessons := app.registry.ListLessons()
	if len(lessons) == 0 {
		fmt.Printf("No lessons found under %s\n", app.cfg.Exercises.Path)
		return nil
	}

	for _, lesson := range lessons {
		fmt.Printf("%s/%s — %s\n", lesson.ModuleID, lesson.ID, lesson.Title)
		exercises, err := app.registry.ListLessonExercises(lesson.ModuleID, lesson.ID)
		if err != nil {
			return err
		}
		for _, ex := range exercises {
			fmt.Printf("  %-40s %-8s %s\n", ex.ID, ex.Variant, ex.Difficulty)
		}
		fmt.Println()
	}

	stats := app.registry.Stats()
	fmt.Printf("%d lessons, %d exercises\n", stats.LessonCount, stats.ExerciseCount)
	return nil
}

func cmdExerciseInfo(id string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ex, err := app.registry.GetExercise(id)
	if err != nil {
		return err
	}

	fmt.Printf("Exercise: %s\n\n", ex.ID)
	fmt.Printf("Variant:    %s\n", ex.Variant)
	fmt.Printf("Difficulty: %s\n", ex.Difficulty)
	fmt.Printf("Concepts:   %s\n", strings.Join(ex.Concepts, ", "))
	if ex.ExpectedSeconds > 0 {
		fmt.Printf("Expected:   ~%ds\n", ex.ExpectedSeconds)
	}
	fmt.Printf("Hints:      %d available\n", len(ex.Hints))
	fmt.Printf("\n%s\n", ex.Prompt)

	switch ex.Variant {
	case "write":
		if ex.Write.Starter != "" {
			fmt.Printf("\nStarter code:\n%s\n", ex.Write.Starter)
		}
		fmt.Printf("\nTests: %d\n", len(ex.Write.Tests))
	case "fillin":
		fmt.Printf("\nTemplate:\n%s\n", ex.FillIn.Template)
	case "parsons":
		fmt.Printf("\nBlocks: %d\n", len(ex.Parsons.Blocks))
	case "trace":
		fmt.Printf("\nCode:\n%s\n", ex.Trace.Code)
		fmt.Printf("\nSteps to trace: %d\n", len(ex.Trace.Steps))
	}

	return nil
}
