//go:build unix

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/codedrill/drill/internal/domain"
)

func newTestRunner(t *testing.T) *SubprocessRunner {
	t.Helper()
	r := NewSubprocessRunner()
	if !r.Available() {
		t.Skip("python3 not available on this host")
	}
	return r
}

func TestSubprocessRunner_Run_CapturesStdout(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), `print("hello")`, 5*time.Second)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("OK() = false; stderr = %q", res.Stderr)
	}
	if got := strings.TrimSpace(res.Stdout); got != "hello" {
		t.Errorf("Stdout = %q; want %q", got, "hello")
	}
	if res.Stderr != "" {
		t.Errorf("Stderr = %q; want empty", res.Stderr)
	}
}

func TestSubprocessRunner_Run_SeparatesStreams(t *testing.T) {
	r := newTestRunner(t)

	code := "import sys\nprint(\"out\")\nprint(\"err\", file=sys.stderr)\n"
	res, err := r.Run(context.Background(), code, 5*time.Second)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(res.Stdout, "out") {
		t.Errorf("Stdout = %q; want to contain %q", res.Stdout, "out")
	}
	if !strings.Contains(res.Stderr, "err") {
		t.Errorf("Stderr = %q; want to contain %q", res.Stderr, "err")
	}
	if strings.Contains(res.Stdout, "err") {
		t.Errorf("Stdout = %q; stderr leaked into stdout", res.Stdout)
	}
}

func TestSubprocessRunner_Run_NonZeroExit(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), "1/0", 5*time.Second)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.OK() {
		t.Fatal("OK() = true for a crashing snippet")
	}
	if res.ExitCode == nil || *res.ExitCode == 0 {
		t.Errorf("ExitCode = %v; want non-zero", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "ZeroDivisionError") {
		t.Errorf("Stderr = %q; want a ZeroDivisionError traceback", res.Stderr)
	}
}

func TestSubprocessRunner_Run_Timeout(t *testing.T) {
	r := newTestRunner(t)

	start := time.Now()
	res, err := r.Run(context.Background(), "while True:\n    pass\n", 500*time.Millisecond)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut = false; want true")
	}
	if res.ExitCode != nil {
		t.Errorf("ExitCode = %d; want nil for a killed process", *res.ExitCode)
	}
	if elapsed > 5*time.Second {
		t.Errorf("Run() took %s; timeout not enforced", elapsed)
	}
}

func TestSubprocessRunner_Run_TimeoutLeavesNoProcess(t *testing.T) {
	r := newTestRunner(t)

	// The sleeper writes its own pid first so the test can probe it.
	code := "import os, time\nprint(os.getpid(), flush=True)\nwhile True:\n    time.sleep(1)\n"
	res, err := r.Run(context.Background(), code, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.TimedOut {
		t.Fatal("TimedOut = false; want true")
	}

	var pid int
	if _, err := fmt.Sscan(strings.TrimSpace(res.Stdout), &pid); err != nil {
		t.Fatalf("could not parse child pid from %q: %v", res.Stdout, err)
	}

	// Signal 0 probes existence without sending anything.
	if err := syscall.Kill(pid, 0); err == nil {
		t.Errorf("process %d still alive after timeout", pid)
	}
}

func TestSubprocessRunner_Run_PartialOutputOnTimeout(t *testing.T) {
	r := newTestRunner(t)

	code := "print(\"before the loop\", flush=True)\nwhile True:\n    pass\n"
	res, err := r.Run(context.Background(), code, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(res.Stdout, "before the loop") {
		t.Errorf("Stdout = %q; want partial output captured before timeout", res.Stdout)
	}
}

func TestSubprocessRunner_Run_Cancellation(t *testing.T) {
	r := newTestRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	_, err := r.Run(ctx, "while True:\n    pass\n", 30*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v; want context.Canceled", err)
	}
}

func TestSubprocessRunner_Run_MissingInterpreter(t *testing.T) {
	r := NewSubprocessRunner(WithInterpreter("definitely-not-a-python"))

	_, err := r.Run(context.Background(), `print("hi")`, time.Second)
	if !errors.Is(err, domain.ErrSandboxUnavailable) {
		t.Errorf("Run() error = %v; want ErrSandboxUnavailable", err)
	}
}

func TestSubprocessRunner_Run_TruncatesRunawayOutput(t *testing.T) {
	r := newTestRunner(t)

	code := "for _ in range(100000):\n    print(\"x\" * 80)\n"
	res, err := r.Run(context.Background(), code, 10*time.Second)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Stdout) > MaxOutputBytes+64 {
		t.Errorf("Stdout length = %d; want capped near %d", len(res.Stdout), MaxOutputBytes)
	}
	if !strings.Contains(res.Stdout, "[output truncated]") {
		t.Error("Stdout missing truncation marker")
	}
}
