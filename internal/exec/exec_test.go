package exec

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesOutput(t *testing.T) {
	r := NewRunner()
	out, err := r.Run(context.Background(), "", "sh", "-c", "echo hello && echo oops >&2")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "hello") || !strings.Contains(s, "oops") {
		t.Errorf("Run() output = %q, want both stdout and stderr", s)
	}
}

func TestRunWorkDir(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner()
	out, err := r.Run(context.Background(), dir, "pwd")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(string(out), dir) {
		t.Errorf("Run(pwd) in %s = %q", dir, out)
	}
}

func TestRunTimeout(t *testing.T) {
	r := NewRunner()
	start := time.Now()
	_, err := r.RunTimeout(context.Background(), 100*time.Millisecond, "", "sleep", "5")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("RunTimeout() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("RunTimeout() took %v, should have been killed quickly", elapsed)
	}
}

func TestAvailable(t *testing.T) {
	r := NewRunner()
	if !r.Available("sh") {
		t.Error("Available(sh) = false, want true")
	}
	if r.Available("definitely-not-a-binary-xyz") {
		t.Error("Available(nonexistent) = true, want false")
	}
}
