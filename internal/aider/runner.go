package aider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// RawResult holds everything a child process emitted on its standard
// streams, plus its exit status. Ephemeral: consumed immediately by
// the reconciler.
type RawResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// StartError reports that the child process could not be started at
// all — executable missing, permission denied. Distinct from ExitError
// because the caller's remediation differs (install aider vs. read the
// diagnostic).
type StartError struct {
	Command string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Command, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// ExitError reports a nonzero exit from the child process. Stderr is
// the user-visible diagnostic.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("exited with code %d", e.Code)
	}
	return fmt.Sprintf("exited with code %d: %s", e.Code, msg)
}

// Runner executes one external command to completion. The interface
// exists so the reconciler can be tested against a scripted fake
// without spawning processes.
type Runner interface {
	Run(ctx context.Context, command string, args []string, dir string) (RawResult, error)
}

// ExecRunner runs commands with os/exec, accumulating both standard
// streams in memory until the process exits. One attempt, no retries:
// a failed aider run may have already edited files or committed, so
// retrying could duplicate its side effects.
type ExecRunner struct{}

// Run spawns the command in dir and waits for it. On nonzero exit it
// returns *ExitError; if the process could not start it returns
// *StartError.
func (ExecRunner) Run(ctx context.Context, command string, args []string, dir string) (RawResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return RawResult{}, &ExitError{
				Code:   exitErr.ExitCode(),
				Stderr: stderr.String(),
			}
		}
		return RawResult{}, &StartError{Command: command, Err: err}
	}

	return RawResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}, nil
}
