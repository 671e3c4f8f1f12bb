package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Subprocess runs external synthesizer binaries for engines that wrap a
// command-line tool. Stdin is attached before the process starts, which
// avoids racing the child for the pipe.
type Subprocess struct {
	defaultTimeout time.Duration
}

// NewSubprocess creates a subprocess runner with the given default timeout.
func NewSubprocess(timeout time.Duration) *Subprocess {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Subprocess{defaultTimeout: timeout}
}

// RunWithStdin executes a command feeding input on stdin and returns its
// stdout. The context bounds the process; without a deadline the runner's
// default timeout applies.
func (s *Subprocess) RunWithStdin(ctx context.Context, input, name string, args ...string) ([]byte, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaultTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s timed out", name)
		}
		return nil, fmt.Errorf("%s canceled: %w", name, ctx.Err())
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}

	return stdout.Bytes(), nil
}

// LookPath reports whether the binary is on PATH, returning its location.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return path, nil
}
