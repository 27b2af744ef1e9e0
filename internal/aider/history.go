// Package aider runs the aider CLI as a child process and reconciles
// its two output channels — the process's stdout/stderr pipes and the
// append-only conversation log it writes to the repository root — into
// a single result record.
//
// The pipes are unreliable on their own: aider truncates and streams
// partial output, so the authoritative record of what it did is the
// text it appended to .aider.chat.history.md during the invocation.
// The package measures the log file before spawning, waits for the
// external writer to quiesce after exit, reads the newly appended
// window, and classifies it for a completion marker or an error
// signature.
package aider

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// HistoryFileName is the conversation log aider maintains at the
// repository root.
const HistoryFileName = ".aider.chat.history.md"

// ResolveRoot walks up from dir looking for a .git entry (a directory
// in a normal checkout, a file in a worktree) and returns the first
// directory that has one. If none is found, dir itself is returned —
// aider behaves the same way when run outside a repository.
func ResolveRoot(dir string) string {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current
		}

		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

// HistoryPath returns the conversation log path for the repository
// containing dir.
func HistoryPath(dir string) string {
	return filepath.Join(ResolveRoot(dir), HistoryFileName)
}

// PreSize returns the log file's current byte length, captured before
// the child process starts. A missing file is 0. Any other stat
// failure also degrades to 0 with a warning: log tailing is
// best-effort and must never abort an otherwise-viable invocation.
func PreSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARNING: aider: stat %s: %v", path, err)
		}
		return 0
	}
	return info.Size()
}

// ReadWindow re-reads the log file and returns the suffix appended
// since preSize was captured. If the file is missing, unreadable, or
// shrank below preSize (rotated or truncated externally), the window
// is empty — a recoverable condition, not an error.
func ReadWindow(path string, preSize int64) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARNING: aider: read %s: %v", path, err)
		}
		return ""
	}
	if preSize < 0 || preSize >= int64(len(data)) {
		return ""
	}
	return string(data[preSize:])
}

// Tailer waits for the external writer to finish flushing the log
// after the child process exits. Process exit and file flush are not
// synchronized, so the wait is adaptive: poll the file's size and
// mtime until two consecutive samples agree, bounded below by Min
// (never faster than a fixed settling delay would have been) and
// above by Max. This narrows the flush race; it cannot close it.
type Tailer struct {
	Min  time.Duration
	Max  time.Duration
	Poll time.Duration
}

// NewTailer returns a Tailer with the default settle bounds.
func NewTailer() *Tailer {
	return &Tailer{
		Min:  100 * time.Millisecond,
		Max:  2 * time.Second,
		Poll: 50 * time.Millisecond,
	}
}

type fileSample struct {
	size    int64
	modTime time.Time
	exists  bool
}

func sampleFile(path string) fileSample {
	info, err := os.Stat(path)
	if err != nil {
		return fileSample{}
	}
	return fileSample{size: info.Size(), modTime: info.ModTime(), exists: true}
}

// Settle blocks until the file at path looks quiescent or Max elapses.
func (t *Tailer) Settle(path string) {
	deadline := time.Now().Add(t.Max)
	time.Sleep(t.Min)

	prev := sampleFile(path)
	for time.Now().Before(deadline) {
		time.Sleep(t.Poll)
		cur := sampleFile(path)
		if cur == prev {
			return
		}
		prev = cur
	}
}
