// Package exec provides an interface for bounded external command execution.
package exec

import (
	"context"
	"fmt"
	osexec "os/exec"
	"time"
)

// Runner defines the interface for running external commands.
// This abstraction allows stubbing command execution in tests.
type Runner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// RunTimeout executes a command with an upper bound on wall-clock time.
	// On expiry the process is killed and ErrTimeout is returned alongside
	// any output captured so far.
	RunTimeout(ctx context.Context, timeout time.Duration, workDir string, name string, args ...string) (output []byte, err error)

	// Available reports whether the named binary can be found in PATH.
	Available(name string) bool
}

// ErrTimeout is returned when a command exceeds its time budget.
var ErrTimeout = fmt.Errorf("command timed out")

// SystemRunner implements Runner using os/exec.
type SystemRunner struct{}

// NewRunner creates a new SystemRunner.
func NewRunner() *SystemRunner {
	return &SystemRunner{}
}

// Run executes a command and returns combined stdout/stderr output.
func (r *SystemRunner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	return cmd.CombinedOutput()
}

// RunTimeout executes a command with a deadline layered on the parent context.
func (r *SystemRunner) RunTimeout(ctx context.Context, timeout time.Duration, workDir string, name string, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := r.Run(runCtx, workDir, name, args...)
	if runCtx.Err() == context.DeadlineExceeded {
		return out, ErrTimeout
	}
	return out, err
}

// Available reports whether the named binary is on PATH.
func (r *SystemRunner) Available(name string) bool {
	_, err := osexec.LookPath(name)
	return err == nil
}

// Verify SystemRunner implements Runner at compile time.
var _ Runner = (*SystemRunner)(nil)
