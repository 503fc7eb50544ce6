// Package executor runs generated experiment code in a bounded subprocess
// and captures its output for the solver loop.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agentlaboratory/agentlab/internal/exec"
)

const (
	// DefaultTimeout bounds a single execution.
	DefaultTimeout = 2 * time.Minute
	// DefaultMaxOutput caps captured output fed back to the model.
	DefaultMaxOutput = 8000
	// errPrefix marks execution failures in output returned to the model.
	errPrefix = "[CODE EXECUTION ERROR]"
)

// Result holds the outcome of one code execution.
type Result struct {
	// Output is the combined stdout/stderr, capped at MaxOutput bytes.
	Output string
	// OK is true when the process exited cleanly.
	OK bool
	// TimedOut is true when the time budget expired.
	TimedOut bool
}

// Feedback renders the result the way the solver presents it to the model:
// plain output on success, a tagged error message on failure.
func (r Result) Feedback() string {
	switch {
	case r.TimedOut:
		return fmt.Sprintf("%s execution exceeded the time limit. Partial output:\n%s", errPrefix, r.Output)
	case !r.OK:
		return fmt.Sprintf("%s %s", errPrefix, r.Output)
	default:
		return r.Output
	}
}

// Executor runs code snippets through an interpreter.
type Executor struct {
	runner      exec.Runner
	interpreter string
	fileExt     string
	timeout     time.Duration
	maxOutput   int
}

// Option configures an Executor.
type Option func(*Executor)

// WithRunner overrides the command runner (used in tests).
func WithRunner(r exec.Runner) Option {
	return func(e *Executor) { e.runner = r }
}

// WithInterpreter sets the interpreter binary and source file extension.
func WithInterpreter(bin, ext string) Option {
	return func(e *Executor) {
		e.interpreter = bin
		e.fileExt = ext
	}
}

// WithTimeout sets the execution time budget.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithMaxOutput caps the captured output size in bytes.
func WithMaxOutput(n int) Option {
	return func(e *Executor) { e.maxOutput = n }
}

// New creates an Executor. The default interpreter is python3.
func New(opts ...Option) *Executor {
	e := &Executor{
		runner:      exec.NewRunner(),
		interpreter: "python3",
		fileExt:     ".py",
		timeout:     DefaultTimeout,
		maxOutput:   DefaultMaxOutput,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available reports whether the configured interpreter is installed.
func (e *Executor) Available() bool {
	return e.runner.Available(e.interpreter)
}

// Run writes code to a temp file under workDir and executes it with the
// configured interpreter. The returned error covers infrastructure
// failures only; program failures are reported through the Result.
func (e *Executor) Run(ctx context.Context, workDir, code string) (Result, error) {
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return Result{}, fmt.Errorf("create work directory: %w", err)
	}

	f, err := os.CreateTemp(workDir, "snippet-*"+e.fileExt)
	if err != nil {
		return Result{}, fmt.Errorf("create snippet file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(code); err != nil {
		f.Close()
		return Result{}, fmt.Errorf("write snippet: %w", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("close snippet: %w", err)
	}

	out, runErr := e.runner.RunTimeout(ctx, e.timeout, workDir, e.interpreter, filepath.Base(path))

	res := Result{Output: truncateOutput(string(out), e.maxOutput)}
	switch {
	case errors.Is(runErr, exec.ErrTimeout):
		res.TimedOut = true
	case runErr != nil:
		// Exit failure: the error detail is already in the combined output.
		if res.Output == "" {
			res.Output = runErr.Error()
		}
	default:
		res.OK = true
	}
	return res, nil
}

// truncateOutput keeps the head and tail of oversized output, which is where
// tracebacks and final metrics live.
func truncateOutput(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	head := max / 2
	tail := max - head
	return s[:head] + "\n... (output truncated) ...\n" + s[len(s)-tail:]
}
