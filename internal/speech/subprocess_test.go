package speech

import (
	"context"
	"strings"
	"testing"
	"time"
)

// TestSubprocessRunWithStdin tests that stdin reaches the child intact.
func TestSubprocessRunWithStdin(t *testing.T) {
	proc := NewSubprocess(5 * time.Second)

	out, err := proc.RunWithStdin(context.Background(), "hello stdin", "cat")
	if err != nil {
		t.Fatalf("RunWithStdin(cat): %v", err)
	}
	if string(out) != "hello stdin" {
		t.Errorf("got %q, want %q", out, "hello stdin")
	}
}

// TestSubprocessTimeout tests that slow processes are killed.
func TestSubprocessTimeout(t *testing.T) {
	proc := NewSubprocess(100 * time.Millisecond)

	start := time.Now()
	_, err := proc.RunWithStdin(context.Background(), "", "sleep", "5")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %v, want about 100ms", elapsed)
	}
}

// TestSubprocessCancellation tests context cancellation mid-run.
func TestSubprocessCancellation(t *testing.T) {
	proc := NewSubprocess(10 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := proc.RunWithStdin(ctx, "", "sleep", "5")
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !strings.Contains(err.Error(), "canceled") {
		t.Errorf("error %q does not mention cancellation", err)
	}
}

// TestSubprocessMissingBinary tests the failure path for absent tools.
func TestSubprocessMissingBinary(t *testing.T) {
	proc := NewSubprocess(time.Second)

	if _, err := proc.RunWithStdin(context.Background(), "", "definitely-not-a-binary-xyzzy"); err == nil {
		t.Fatal("expected error for missing binary")
	}

	if _, err := LookPath("definitely-not-a-binary-xyzzy"); err == nil {
		t.Fatal("LookPath found a binary that should not exist")
	}
}

// TestSubprocessStderrInError tests that child stderr is surfaced.
func TestSubprocessStderrInError(t *testing.T) {
	proc := NewSubprocess(5 * time.Second)

	_, err := proc.RunWithStdin(context.Background(), "", "sh", "-c", "echo engine blew up >&2; exit 3")
	if err == nil {
		t.Fatal("expected error from failing child")
	}
	if !strings.Contains(err.Error(), "engine blew up") {
		t.Errorf("error %q does not include child stderr", err)
	}
}
