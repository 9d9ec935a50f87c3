package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codedrill/drill/internal/config"
	"github.com/codedrill/drill/internal/domain"
	"github.com/codedrill/drill/internal/engine"
	"github.com/codedrill/drill/internal/evaluate"
	"github.com/codedrill/drill/internal/exercise"
	"github.com/codedrill/drill/internal/queue"
	"github.com/codedrill/drill/internal/review"
	"github.com/codedrill/drill/internal/sandbox"
	"github.com/codedrill/drill/internal/storage/postgres"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("starting drilld", "version", Version, "sandbox", cfg.SandboxBackend)

	ctx := context.Background()
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	registry := exercise.NewRegistry(exercise.NewLoader(cfg.ExercisesPath))
	if err := registry.Load(); err != nil {
		return fmt.Errorf("load exercises: %w", err)
	}
	content := registry.Stats()
	slog.Info("exercises loaded", "lessons", content.LessonCount, "exercises", content.ExerciseCount)

	runner, err := buildRunner(cfg)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Config{
		MaxConcurrentRuns: cfg.MaxConcurrentRuns,
		MasteryStreak:     cfg.MasteryStreak,
		Scheduler: review.Config{
			DesiredRetention: cfg.DesiredRetention,
		},
		Logger: logger,
	}, registry, evaluate.NewEvaluator(runner, logger),
		postgres.NewAttemptStore(pool), postgres.NewCardStore(pool), postgres.NewMasteryStore(pool))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	conn, err := queue.NewConnection(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("connect queue: %w", err)
	}
	defer conn.Close()

	consumer := queue.NewConsumer(conn, evalHandler(eng), queue.ConsumerConfig{
		Workers: cfg.WorkerCount,
	})
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig.String())

	consumer.Stop()
	slog.Info("daemon stopped")
	return nil
}

// evalHandler runs one queued job through the engine and maps the outcome
// onto a queue result.
func evalHandler(eng *engine.Engine) queue.JobHandler {
	return func(ctx context.Context, job *queue.EvalJob) (*queue.EvalResult, error) {
		res, err := eng.Submit(ctx, job.ExerciseID, &job.Submission)
		if err != nil {
			if errors.Is(err, domain.ErrEvaluationSuperseded) {
				return &queue.EvalResult{
					Status:      "superseded",
					CompletedAt: time.Now(),
				}, nil
			}
			return nil, err
		}

		return &queue.EvalResult{
			Status:      "completed",
			Correct:     res.Outcome.Correct,
			Grade:       res.Outcome.Grade,
			Diagnostics: res.Outcome.Diagnostics,
			CardDue:     res.Card.Due,
			CardState:   string(res.Card.State),
			CompletedAt: time.Now(),
		}, nil
	}
}

func buildRunner(cfg *config.Config) (sandbox.Runner, error) {
	switch cfg.SandboxBackend {
	case "docker":
		return sandbox.NewDockerRunner(sandbox.DockerConfig{
			Image:    cfg.SandboxImage,
			MemoryMB: cfg.SandboxMemoryMB,
			CPULimit: cfg.SandboxCPULimit,
		})
	case "subprocess":
		return sandbox.NewSubprocessRunner(), nil
	default:
		return nil, fmt.Errorf("unknown sandbox backend %q", cfg.SandboxBackend)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
