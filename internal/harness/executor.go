// internal/harness/executor.go
// Package: harness
package harness

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// TimeoutExitCode is the status coreutils timeout exits with after killing
// its child.
const TimeoutExitCode = 124

// Executor runs one rendered command and returns its combined output.
type Executor interface {
	Execute(ctx context.Context, command string) (Result, error)
}

// waitDelay bounds how long a cancelled command's grandchildren may keep
// the output pipe open.
const waitDelay = 2 * time.Second

// ShellExecutor runs commands through a POSIX shell.
type ShellExecutor struct {
	Shell string
}

// Execute blocks until the command exits. A non-zero exit status is not an
// error: whatever the command printed is still returned for extraction.
func (s ShellExecutor) Execute(ctx context.Context, command string) (Result, error) {
	shell := s.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.WaitDelay = waitDelay
	out, err := cmd.CombinedOutput()
	res := Result{Output: string(out)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		if errors.Is(err, exec.ErrWaitDelay) && ctx.Err() == nil {
			// a background child outlived the command; keep what was captured
			res.ExitCode = cmd.ProcessState.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}
