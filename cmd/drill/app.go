package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/codedrill/drill/internal/config"
	"github.com/codedrill/drill/internal/engine"
	"github.com/codedrill/drill/internal/evaluate"
	"github.com/codedrill/drill/internal/exercise"
	"github.com/codedrill/drill/internal/review"
	"github.com/codedrill/drill/internal/sandbox"
	"github.com/codedrill/drill/internal/storage/sqlite"
)

// app bundles everything a command needs: config, an open database, the
// loaded exercise registry, and a wired engine.
type app struct {
	cfg      *config.LocalConfig
	db       *sqlite.DB
	registry *exercise.Registry
	engine   *engine.Engine
}

// openApp loads the local config and wires the full local stack. Callers
// must Close it.
func openApp() (*app, error) {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if _, err := config.EnsureDrillDir(); err != nil {
		return nil, err
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	registry := exercise.NewRegistry(exercise.NewLoader(cfg.Exercises.Path))
	if err := registry.Load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load exercises: %w", err)
	}

	runner, err := buildRunner(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	eng, err := engine.New(engine.Config{
		MasteryStreak: cfg.Review.MasteryStreak,
		Scheduler: review.Config{
			DesiredRetention: cfg.Review.DesiredRetention,
		},
		Logger: logger,
	}, registry, evaluate.NewEvaluator(runner, logger),
		sqlite.NewAttemptStore(db), sqlite.NewCardStore(db), sqlite.NewMasteryStore(db))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	return &app{cfg: cfg, db: db, registry: registry, engine: eng}, nil
}

func buildRunner(cfg *config.LocalConfig) (sandbox.Runner, error) {
	switch cfg.Sandbox.Backend {
	case "docker":
		return sandbox.NewDockerRunner(sandbox.DockerConfig{
			Image:    cfg.Sandbox.Image,
			MemoryMB: cfg.Sandbox.MemoryMB,
			CPULimit: cfg.Sandbox.CPULimit,
		})
	case "subprocess", "":
		return sandbox.NewSubprocessRunner(), nil
	default:
		return nil, fmt.Errorf("unknown sandbox backend %q (valid: subprocess, docker)", cfg.Sandbox.Backend)
	}
}

func (a *app) Close() error {
	return a.db.Close()
}
