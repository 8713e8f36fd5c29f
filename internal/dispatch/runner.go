package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// CommandRunner executes one invocation synchronously.
// The exec-backed implementation is replaced with a recording fake in tests.
type CommandRunner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExecRunner runs invocations as child processes.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns an ExecRunner wired to the process's own streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run spawns the invocation and waits for it to exit. The child inherits
// the parent environment with the invocation's variables appended, so a
// record field always wins over a stale ambient value.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args...)
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Dir = inv.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with code %d", inv.Binary, exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run %s: %w", inv.Binary, err)
	}
	return nil
}
