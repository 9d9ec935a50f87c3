package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/codedrill/drill/internal/config"
	"github.com/codedrill/drill/internal/storage/sqlite"
)

// cmdInit initializes drill for first-time use
func cmdInit() error {
	fmt.Println("Drill - First-Time Setup")
	fmt.Println("========================")
	fmt.Println()

	dir, err := config.EnsureDrillDir()
	if err != nil {
		return fmt.Errorf("create drill directory: %w", err)
	}
	fmt.Printf("✓ Directory %s\n", dir)

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.SaveLocalConfig(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println("✓ Config written")

	if err := os.MkdirAll(cfg.Exercises.Path, 0o755); err != nil {
		return fmt.Errorf("create exercises directory: %w", err)
	}
	fmt.Printf("✓ Exercises directory %s\n", cfg.Exercises.Path)

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	fmt.Printf("✓ Database %s\n", cfg.Database.Path)

	fmt.Println("\nSetup complete. Add exercise YAML under the exercises")
	fmt.Println("directory and run 'drill exercise list' to get started.")
	return nil
}

// cmdDoctor checks system requirements
func cmdDoctor() error {
	fmt.Println("Checking system requirements...")

	allGood := true

	fmt.Print("Directory: ")
	dir, err := config.DrillDir()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Println("✗ not created (run 'drill init')")
		allGood = false
	} else {
		fmt.Printf("✓ %s\n", dir)
	}

	fmt.Print("Config:    ")
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else {
		fmt.Println("✓ loaded")
	}

	if cfg != nil {
		fmt.Print("Sandbox:   ")
		switch cfg.Sandbox.Backend {
		case "docker":
			if _, err := exec.LookPath("docker"); err != nil {
				fmt.Println("✗ docker not found in PATH")
				allGood = false
			} else {
				fmt.Printf("✓ docker (image %s)\n", cfg.Sandbox.Image)
			}
		default:
			if _, err := exec.LookPath("python3"); err != nil {
				fmt.Println("✗ python3 not found in PATH")
				allGood = false
			} else {
				fmt.Println("✓ python3 subprocess")
			}
		}

		fmt.Print("Exercises: ")
		if _, err := os.Stat(cfg.Exercises.Path); os.IsNotExist(err) {
			fmt.Printf("✗ %s does not exist\n", cfg.Exercises.Path)
			allGood = false
		} else {
			fmt.Printf("✓ %s\n", cfg.Exercises.Path)
		}

		fmt.Print("Database:  ")
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			fmt.Printf("✗ %v\n", err)
			allGood = false
		} else {
			version, err := db.Version()
			db.Close()
			if err != nil {
				fmt.Printf("✗ %v\n", err)
				allGood = false
			} else {
				fmt.Printf("✓ schema version %d\n", version)
			}
		}
	}

	fmt.Println()
	if allGood {
		fmt.Println("All checks passed! ✓")
	} else {
		fmt.Println("Some checks failed. Please fix the issues above.")
	}

	return nil
}

// cmdConfig shows current configuration
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Drill Configuration")

	fmt.Println("Database:")
	fmt.Printf("  path: %s\n", cfg.Database.Path)

	fmt.Println("\nExercises:")
	fmt.Printf("  path: %s\n", cfg.Exercises.Path)

	fmt.Println("\nSandbox:")
	fmt.Printf("  backend: %s\n", cfg.Sandbox.Backend)
	fmt.Printf("  image: %s\n", cfg.Sandbox.Image)
	fmt.Printf("  timeout_ms: %d\n", cfg.Sandbox.TimeoutMs)
	fmt.Printf("  memory_mb: %d\n", cfg.Sandbox.MemoryMB)
	fmt.Printf("  cpu_limit: %g\n", cfg.Sandbox.CPULimit)

	fmt.Println("\nReview:")
	fmt.Printf("  desired_retention: %g\n", cfg.Review.DesiredRetention)
	fmt.Printf("  mastery_streak: %d\n", cfg.Review.MasteryStreak)
	return nil
}

// cmdRebuild recomputes derived state from the attempt ledger
func cmdRebuild(args []string) error {
	fs := flag.NewFlagSet("rebuild", flag.ContinueOnError)
	card := fs.String("card", "", "exercise ID whose review card to rebuild")
	concept := fs.String("concept", "", "concept whose mastery row to rebuild")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *card == "" && *concept == "" {
		return fmt.Errorf("pass --card <exercise-id> or --concept <concept>")
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if *card != "" {
		rebuilt, err := app.engine.RebuildCard(ctx, *card)
		if err != nil {
			return err
		}
		fmt.Printf("Rebuilt card %s: state=%s reps=%d due=%s\n",
			rebuilt.ExerciseID, rebuilt.State, rebuilt.Reps, rebuilt.Due.Format("2006-01-02"))
	}
	if *concept != "" {
		rebuilt, err := app.engine.RebuildMastery(ctx, *concept)
		if err != nil {
			return err
		}
		fmt.Printf("Rebuilt mastery %s: level=%s streak=%d\n",
			rebuilt.Concept, rebuilt.Level, rebuilt.Streak)
	}
	return nil
}
