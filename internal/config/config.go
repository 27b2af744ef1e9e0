// Package config loads per-repository server settings.
//
// Settings live in an optional .aider-mcp.json at the repository root.
// A missing file means defaults; a malformed file is an error the tool
// surfaces rather than silently ignoring.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/aider-tools/aider-mcp/internal/aider"
)

// FileName is the per-repository settings file.
const FileName = ".aider-mcp.json"

// PatternSpec is one user-configured error signature: a label plus an
// uncompiled regular expression. User patterns extend the built-in
// dialect set; built-ins keep priority.
type PatternSpec struct {
	Label  string `json:"label"`
	Regexp string `json:"regexp"`
}

// Settings holds everything a repository can customize.
type Settings struct {
	// Model is passed to aider as --model when set.
	Model string `json:"model,omitempty"`
	// ExtraArgs are appended to every aider invocation.
	ExtraArgs []string `json:"extra_args,omitempty"`
	// ErrorPatterns extend the classifier's error signatures.
	ErrorPatterns []PatternSpec `json:"error_patterns,omitempty"`
	// SettleMaxMS caps the post-exit wait for the log writer to
	// quiesce. 0 keeps the default.
	SettleMaxMS int `json:"settle_max_ms,omitempty"`
}

// CompilePatterns compiles ErrorPatterns for the classifier. An
// invalid expression is an error — a silently dropped pattern would
// make error classification look broken with no explanation.
func (s Settings) CompilePatterns() ([]aider.Pattern, error) {
	out := make([]aider.Pattern, 0, len(s.ErrorPatterns))
	for _, spec := range s.ErrorPatterns {
		if spec.Regexp == "" {
			return nil, fmt.Errorf("config: error pattern %q has no regexp", spec.Label)
		}
		re, err := regexp.Compile(spec.Regexp)
		if err != nil {
			return nil, fmt.Errorf("config: error pattern %q: %w", spec.Label, err)
		}
		out = append(out, aider.Pattern{Label: spec.Label, Re: re})
	}
	return out, nil
}

// Path returns the settings file location for a repository root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Store abstracts settings loading so tools can be tested without
// touching the filesystem.
type Store interface {
	Load(root string) (Settings, error)
}

// FileStore reads settings from the repository's .aider-mcp.json.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Load reads the settings for root. A missing file yields zero-value
// Settings and no error.
func (FileStore) Load(root string) (Settings, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("config: reading %s: %w", Path(root), err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config: parsing %s: %w", Path(root), err)
	}
	return s, nil
}
