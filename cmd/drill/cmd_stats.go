package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/codedrill/drill/internal/domain"
)

// cmdStats shows progress statistics
func cmdStats(args []string) error {
	subCmd := "overview"
	if len(args) > 0 {
		subCmd = args[0]
	}

	switch subCmd {
	case "overview", "":
		return cmdStatsOverview()
	case "mastery":
		return cmdStatsMastery()
	default:
		return fmt.Errorf("unknown stats command: %s (valid: overview, mastery)", subCmd)
	}
}

func cmdStatsOverview() error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	stats, err := app.engine.Stats(ctx)
	if err != nil {
		return err
	}
	content := app.registry.Stats()

	fmt.Println("Progress Overview")
	fmt.Println("=================")
	fmt.Printf("Exercises available: %d\n", content.ExerciseCount)
	fmt.Printf("Total attempts:      %d\n", stats.TotalAttempts)
	fmt.Printf("Due for review:      %d\n", stats.DueCount)

	fmt.Println("\nConcepts:")
	fmt.Printf("  mastered:    %d\n", stats.MasteryLevels[domain.MasteryMastered])
	fmt.Printf("  practicing:  %d\n", stats.MasteryLevels[domain.MasteryPracticing])
	fmt.Printf("  not started: %d\n", stats.MasteryLevels[domain.MasteryNotStarted])
	return nil
}

func cmdStatsMastery() error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	rows, err := app.engine.MasteryRows(context.Background())
	if err != nil {
		return err
	}

	fmt.Println("Concept Mastery")
	fmt.Println("===============")

	if len(rows) == 0 {
		fmt.Println("No concepts tracked yet. Start practicing!")
		return nil
	}

	threshold := app.cfg.Review.MasteryStreak
	if threshold < 1 {
		threshold = 3
	}
	for _, row := range rows {
		progress := float64(row.Streak) / float64(threshold)
		if row.Level == domain.MasteryMastered {
			progress = 1
		}
		bar := renderProgressBar(progress, 20)
		fmt.Printf("%-20s %s %-11s streak %d\n", row.Concept, bar, row.Level, row.Streak)
	}
	return nil
}

// cmdDue lists the exercises whose review is due
func cmdDue(args []string) error {
	fs := flag.NewFlagSet("due", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum cards to show (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	cards, err := app.engine.Due(ctx, *limit)
	if err != nil {
		return err
	}
	total, err := app.engine.DueCount(ctx)
	if err != nil {
		return err
	}

	if total == 0 {
		fmt.Println("Nothing due. Come back later!")
		return nil
	}

	fmt.Printf("%d due for review\n\n", total)
	now := time.Now()
	for _, card := range cards {
		overdue := now.Sub(card.Due)
		fmt.Printf("  %-40s %-10s due %s (%s overdue)\n",
			card.ExerciseID, card.State, card.Due.Format("2006-01-02"), formatDays(overdue))
	}
	return nil
}

func formatDays(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days < 1 {
		return "<1d"
	}
	return fmt.Sprintf("%dd", days)
}
