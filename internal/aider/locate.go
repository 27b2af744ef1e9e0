package aider

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// lookPath is a package-level var to allow test injection.
var lookPath = exec.LookPath

// installLocations are probed in order before falling back to PATH.
// These cover pipx/pip --user installs and the common Homebrew
// prefixes, where aider usually lands but which MCP hosts often launch
// without in their PATH.
func installLocations() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".local", "bin", "aider"),
		"/usr/local/bin/aider",
		"/opt/homebrew/bin/aider",
	}
}

// Locate finds the aider executable: fixed install locations first,
// then the ambient search path. The returned error carries install
// guidance suitable for showing to the user.
func Locate() (string, error) {
	for _, candidate := range installLocations() {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 == 0 {
			continue
		}
		return candidate, nil
	}

	if path, err := lookPath("aider"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf(
		"aider not found in the usual install locations or PATH — install it with: python -m pip install aider-install && aider-install",
	)
}
