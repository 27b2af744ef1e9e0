package aider

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// --- ResolveRoot ---

func TestResolveRoot_FindsGitDirAbove(t *testing.T) {
	tmp := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmp, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}
	nested := filepath.Join(tmp, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	got := ResolveRoot(nested)
	if got != tmp {
		t.Errorf("ResolveRoot = %s, want %s", got, tmp)
	}
}

func TestResolveRoot_GitFileCountsAsMarker(t *testing.T) {
	// Worktrees have a .git file, not a directory.
	tmp := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmp, ".git"), []byte("gitdir: elsewhere\n"), 0o644); err != nil {
		t.Fatalf("write .git file: %v", err)
	}

	got := ResolveRoot(tmp)
	if got != tmp {
		t.Errorf("ResolveRoot = %s, want %s", got, tmp)
	}
}

func TestResolveRoot_NoMarkerFallsBackToDir(t *testing.T) {
	tmp := t.TempDir()
	nested := filepath.Join(tmp, "sub")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got := ResolveRoot(nested)
	if got != nested {
		t.Errorf("ResolveRoot = %s, want the starting dir %s", got, nested)
	}
}

func TestHistoryPath(t *testing.T) {
	tmp := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmp, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}
	nested := filepath.Join(tmp, "pkg")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got := HistoryPath(nested)
	want := filepath.Join(tmp, HistoryFileName)
	if got != want {
		t.Errorf("HistoryPath = %s, want %s", got, want)
	}
}

// --- PreSize ---

func TestPreSize_MissingFileIsZero(t *testing.T) {
	got := PreSize(filepath.Join(t.TempDir(), "absent.md"))
	if got != 0 {
		t.Errorf("PreSize = %d, want 0 for missing file", got)
	}
}

func TestPreSize_ReportsByteLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got := PreSize(path); got != 10 {
		t.Errorf("PreSize = %d, want 10", got)
	}
}

// --- ReadWindow ---

func TestReadWindow_ReturnsAppendedSuffix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")
	if err := os.WriteFile(path, []byte("before|after"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := ReadWindow(path, int64(len("before|")))
	if got != "after" {
		t.Errorf("ReadWindow = %q, want %q", got, "after")
	}
}

func TestReadWindow_MissingFileIsEmpty(t *testing.T) {
	got := ReadWindow(filepath.Join(t.TempDir(), "absent.md"), 0)
	if got != "" {
		t.Errorf("ReadWindow = %q, want empty", got)
	}
}

func TestReadWindow_ShrunkenFileIsEmpty(t *testing.T) {
	// The file was rotated or truncated externally: preSize now points
	// past the end. Recoverable, not an error.
	path := filepath.Join(t.TempDir(), "log.md")
	if err := os.WriteFile(path, []byte("short"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := ReadWindow(path, 100)
	if got != "" {
		t.Errorf("ReadWindow = %q, want empty when file shrank below preSize", got)
	}
}

func TestReadWindow_PreSizeAtExactEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")
	if err := os.WriteFile(path, []byte("12345"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := ReadWindow(path, 5)
	if got != "" {
		t.Errorf("ReadWindow = %q, want empty when nothing was appended", got)
	}
}

// --- Settle ---

func TestSettle_ReturnsOnQuiescentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")
	if err := os.WriteFile(path, []byte("stable"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tailer := &Tailer{Min: time.Millisecond, Max: 500 * time.Millisecond, Poll: 5 * time.Millisecond}

	start := time.Now()
	tailer.Settle(path)
	elapsed := time.Since(start)

	if elapsed >= tailer.Max {
		t.Errorf("Settle took %v, want early return before Max on a quiescent file", elapsed)
	}
}

func TestSettle_MissingFileDoesNotBlockUntilMax(t *testing.T) {
	tailer := &Tailer{Min: time.Millisecond, Max: 500 * time.Millisecond, Poll: 5 * time.Millisecond}

	start := time.Now()
	tailer.Settle(filepath.Join(t.TempDir(), "absent.md"))
	elapsed := time.Since(start)

	if elapsed >= tailer.Max {
		t.Errorf("Settle took %v on a missing file, want early return", elapsed)
	}
}
