package aider

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func requirePOSIXShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test requires a POSIX shell")
	}
}

func TestExecRunner_CapturesStdoutAndStderr(t *testing.T) {
	requirePOSIXShell(t)

	got, err := ExecRunner{}.Run(context.Background(), "/bin/sh",
		[]string{"-c", "echo out; echo err >&2"}, t.TempDir())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", got.ExitCode)
	}
	if strings.TrimSpace(got.Stdout) != "out" {
		t.Errorf("Stdout = %q, want out", got.Stdout)
	}
	if strings.TrimSpace(got.Stderr) != "err" {
		t.Errorf("Stderr = %q, want err", got.Stderr)
	}
}

func TestExecRunner_RunsInGivenDir(t *testing.T) {
	requirePOSIXShell(t)
	dir := t.TempDir()

	got, err := ExecRunner{}.Run(context.Background(), "/bin/sh", []string{"-c", "pwd"}, dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Resolve symlinks: t.TempDir is often under a symlinked /tmp on macOS.
	wantResolved, _ := filepath.EvalSymlinks(dir)
	gotDir := strings.TrimSpace(got.Stdout)
	gotResolved, _ := filepath.EvalSymlinks(gotDir)
	if gotResolved != wantResolved && gotDir != dir {
		t.Errorf("pwd = %q, want %q", gotDir, dir)
	}
}

func TestExecRunner_NonzeroExitIsExitError(t *testing.T) {
	requirePOSIXShell(t)

	_, err := ExecRunner{}.Run(context.Background(), "/bin/sh",
		[]string{"-c", "echo command not found >&2; exit 1"}, t.TempDir())

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("Code = %d, want 1", exitErr.Code)
	}
	if !strings.Contains(exitErr.Stderr, "command not found") {
		t.Errorf("Stderr = %q, want captured diagnostic", exitErr.Stderr)
	}
	if !strings.Contains(exitErr.Error(), "command not found") {
		t.Errorf("Error() = %q, want stderr in the message", exitErr.Error())
	}
}

func TestExecRunner_MissingExecutableIsStartError(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(),
		filepath.Join(t.TempDir(), "no-such-binary"), nil, t.TempDir())

	var startErr *StartError
	if !errors.As(err, &startErr) {
		t.Fatalf("err = %v, want *StartError", err)
	}
}

func TestExitError_MessageWithoutStderr(t *testing.T) {
	e := &ExitError{Code: 2}
	if got := e.Error(); got != "exited with code 2" {
		t.Errorf("Error() = %q", got)
	}
}
