package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/codedrill/drill/internal/domain"
)

// SubprocessRunner executes learner code in a child python3 process.
// The child runs in its own process group so that anything it spawns is
// killed along with it on timeout or cancellation.
type SubprocessRunner struct {
	interpreter string
	maxOutput   int
}

// SubprocessOption customizes a SubprocessRunner.
type SubprocessOption func(*SubprocessRunner)

// WithInterpreter overrides the interpreter binary (default "python3").
func WithInterpreter(path string) SubprocessOption {
	return func(r *SubprocessRunner) { r.interpreter = path }
}

// NewSubprocessRunner creates a runner backed by a local interpreter.
func NewSubprocessRunner(opts ...SubprocessOption) *SubprocessRunner {
	r := &SubprocessRunner{
		interpreter: "python3",
		maxOutput:   MaxOutputBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether the interpreter can be found on this host.
func (r *SubprocessRunner) Available() bool {
	_, err := exec.LookPath(r.interpreter)
	return err == nil
}

// Run executes the snippet with a wall-clock timeout. On expiry the whole
// process group is killed and the result carries TimedOut with whatever
// partial output was captured. Context cancellation also terminates the
// child; in that case Run returns the context error.
func (r *SubprocessRunner) Run(ctx context.Context, code string, timeout time.Duration) (*RunResult, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tmpDir, err := os.MkdirTemp("", "drill-run-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	scriptPath := filepath.Join(tmpDir, "main.py")
	if err := os.WriteFile(scriptPath, []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("write snippet: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := newLimitedBuffer(r.maxOutput)
	stderr := newLimitedBuffer(r.maxOutput)

	// Not CommandContext: the group is killed by hand so grandchildren
	// cannot survive the parent.
	cmd := exec.Command(r.interpreter, scriptPath)
	cmd.Dir = tmpDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = []string{"PATH=" + os.Getenv("PATH"), "PYTHONIOENCODING=utf-8"}
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: interpreter %q not found: %v", domain.ErrSandboxUnavailable, r.interpreter, err)
		}
		return nil, fmt.Errorf("%w: start interpreter: %v", domain.ErrSandboxUnavailable, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-runCtx.Done():
		killProcessGroup(cmd)
		<-done // reap; guarantees no lingering child
		res := &RunResult{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: time.Since(start),
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			res.TimedOut = true
			slog.Debug("sandbox run timed out", "timeout", timeout, "duration", res.Duration)
			return res, nil
		}
		// Caller went away; best-effort termination already happened.
		return res, ctx.Err()

	case <-done:
		exit := cmd.ProcessState.ExitCode()
		return &RunResult{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: &exit,
			Duration: time.Since(start),
		}, nil
	}
}

var _ Runner = (*SubprocessRunner)(nil)
