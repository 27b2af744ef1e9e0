package aider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeRunner scripts the child process: onRun simulates the external
// writer's side effects (appending to the conversation log), and the
// scripted result/err stand in for the process outcome.
type fakeRunner struct {
	result RawResult
	err    error
	onRun  func(dir string)

	mu    sync.Mutex
	calls int
}

func (f *fakeRunner) Run(ctx context.Context, command string, args []string, dir string) (RawResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.onRun != nil {
		f.onRun(dir)
	}
	return f.result, f.err
}

func testTailer() *Tailer {
	return &Tailer{Min: time.Millisecond, Max: 50 * time.Millisecond, Poll: time.Millisecond}
}

// setupRepo creates a temp dir with a .git marker so it resolves as
// its own root.
func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("setup: mkdir .git: %v", err)
	}
	return dir
}

func appendLog(t *testing.T, dir, text string) {
	t.Helper()
	path := filepath.Join(dir, HistoryFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("append log: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

// --- Outcomes ---

func TestExecute_SummaryAppendedDuringRun(t *testing.T) {
	dir := setupRepo(t)
	appendLog(t, dir, "older conversation\n")

	runner := &fakeRunner{onRun: func(d string) {
		appendLog(t, dir, "#### do it\n\nDone.\n<summary>\nCreated app.py with a CLI entry point.\n</summary>\n")
	}}
	r := NewReconciler(runner, testTailer(), nil)

	got, err := r.Execute(context.Background(), Request{Command: "aider", Dir: dir})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !got.Succeeded {
		t.Error("Succeeded = false, want true")
	}
	if got.Summary != "Created app.py with a CLI entry point." {
		t.Errorf("Summary = %q", got.Summary)
	}
	if got.ErrorText != "" {
		t.Errorf("ErrorText = %q, want empty", got.ErrorText)
	}
}

func TestExecute_WindowExcludesPreexistingText(t *testing.T) {
	dir := setupRepo(t)
	// The prior conversation already holds a summary; it must not leak
	// into this invocation's window.
	appendLog(t, dir, "<summary>stale result from last run</summary>\n")

	runner := &fakeRunner{onRun: func(d string) {
		appendLog(t, dir, "no marker this time\n")
	}}
	r := NewReconciler(runner, testTailer(), nil)

	got, err := r.Execute(context.Background(), Request{Command: "aider", Dir: dir})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got.Succeeded {
		t.Errorf("Succeeded = true from stale pre-window text (Summary=%q)", got.Summary)
	}
}

func TestExecute_ZeroExitWithLoggedTracebackFails(t *testing.T) {
	dir := setupRepo(t)

	runner := &fakeRunner{onRun: func(d string) {
		appendLog(t, dir, "Traceback (most recent call last):\n  File \"x\"\nValueError: x is not defined\n")
	}}
	r := NewReconciler(runner, testTailer(), nil)

	got, err := r.Execute(context.Background(), Request{Command: "aider", Dir: dir})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got.Succeeded {
		t.Error("Succeeded = true, want false: exit-code success is not semantic success")
	}
	if got.ErrorText == "" {
		t.Error("ErrorText empty, want extracted error signal")
	}
}

func TestExecute_NoLogFileYieldsNoOutcome(t *testing.T) {
	dir := setupRepo(t)

	r := NewReconciler(&fakeRunner{}, testTailer(), nil)

	got, err := r.Execute(context.Background(), Request{Command: "aider", Dir: dir})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got.Succeeded || got.Summary != "" || got.ErrorText != "" {
		t.Errorf("Result = %+v, want empty no-outcome result", got)
	}
}

// --- Process failure propagation ---

func TestExecute_PropagatesExitError(t *testing.T) {
	dir := setupRepo(t)

	runner := &fakeRunner{err: &ExitError{Code: 1, Stderr: "command not found"}}
	r := NewReconciler(runner, testTailer(), nil)

	_, err := r.Execute(context.Background(), Request{Command: "aider", Dir: dir})

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exitErr.Stderr != "command not found" {
		t.Errorf("Stderr = %q", exitErr.Stderr)
	}
}

func TestExecute_PropagatesStartError(t *testing.T) {
	dir := setupRepo(t)

	runner := &fakeRunner{err: &StartError{Command: "aider", Err: os.ErrNotExist}}
	r := NewReconciler(runner, testTailer(), nil)

	_, err := r.Execute(context.Background(), Request{Command: "aider", Dir: dir})

	var startErr *StartError
	if !errors.As(err, &startErr) {
		t.Fatalf("err = %v, want *StartError", err)
	}
}

// --- Per-root serialization ---

func TestExecute_SerializesInvocationsSharingARoot(t *testing.T) {
	dir := setupRepo(t)

	var mu sync.Mutex
	active := 0
	maxActive := 0

	runner := &fakeRunner{onRun: func(d string) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
	}}
	r := NewReconciler(runner, testTailer(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Execute(context.Background(), Request{Command: "aider", Dir: dir})
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent invocations for one root = %d, want 1", maxActive)
	}
}

func TestExecute_DistinctRootsDoNotShareALock(t *testing.T) {
	a := setupRepo(t)
	b := setupRepo(t)

	r := NewReconciler(&fakeRunner{}, testTailer(), nil)

	la := r.lockFor(ResolveRoot(a))
	lb := r.lockFor(ResolveRoot(b))
	if la == lb {
		t.Error("distinct roots resolved to the same lock")
	}
	if again := r.lockFor(ResolveRoot(a)); again != la {
		t.Error("same root resolved to a different lock on second lookup")
	}
}
