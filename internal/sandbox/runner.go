package sandbox

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds a single execution when the exercise does not
	// declare its own limit.
	DefaultTimeout = 5 * time.Second
	// MaxOutputBytes caps each captured stream. Learner code printing in a
	// loop must not exhaust host memory.
	MaxOutputBytes = 64 * 1024
)

// RunResult is the outcome of executing learner code in isolation.
type RunResult struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode *int          `json:"exit_code"` // nil when the process was killed
	TimedOut bool          `json:"timed_out"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the process ran to completion with exit status zero.
func (r *RunResult) OK() bool {
	return !r.TimedOut && r.ExitCode != nil && *r.ExitCode == 0
}

// Runner executes a learner-submitted snippet in a separate process.
// Implementations must guarantee that a crash or infinite loop in the
// snippet cannot affect the caller, and that no child process outlives
// the call. A start failure (missing interpreter, unreachable container
// daemon) is reported as an error wrapping domain.ErrSandboxUnavailable,
// distinct from a normal non-zero exit.
type Runner interface {
	Run(ctx context.Context, code string, timeout time.Duration) (*RunResult, error)
}

// limitedBuffer collects at most max bytes and silently discards the rest.
type limitedBuffer struct {
	buf       []byte
	max       int
	truncated bool
}

func newLimitedBuffer(max int) *limitedBuffer {
	return &limitedBuffer{max: max}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	remaining := b.max - len(b.buf)
	if remaining > 0 {
		if len(p) > remaining {
			b.buf = append(b.buf, p[:remaining]...)
			b.truncated = true
		} else {
			b.buf = append(b.buf, p...)
		}
	} else if len(p) > 0 {
		b.truncated = true
	}
	// Report full consumption so the child never sees a write error.
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	if b.truncated {
		return string(b.buf) + "\n... [output truncated]"
	}
	return string(b.buf)
}
