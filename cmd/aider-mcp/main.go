// aider-mcp: an MCP server wrapping the aider coding assistant.
//
// Exposes aider to any MCP host (Claude Code, Cursor, VS Code Copilot,
// OpenCode) as tools that run aider against a local repository and
// report its results reliably, recovered from aider's conversation log
// rather than its truncated stdout.
//
// Usage:
//
//	aider-mcp serve    # Start MCP server (stdio transport)
//	aider-mcp update   # Update to the latest version
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/aider-tools/aider-mcp/internal/server"
	"github.com/aider-tools/aider-mcp/internal/updater"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "update":
		runUpdate()
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("aider-mcp v%s\n", mcpserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := mcpserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Background version check — prints to stderr so it doesn't
	// interfere with MCP's stdio transport on stdout.
	go checkForUpdates()

	// The stdio server runs until the host closes the pipe; an
	// interrupt just lets the deferred cleanup run.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cleanup()
		os.Exit(0)
	}()

	return server.ServeStdio(s)
}

// checkForUpdates runs a non-blocking version check and prints a
// notice to stderr if an update is available. Best-effort — network
// failures are silently ignored.
func checkForUpdates() {
	result := updater.CheckVersion(mcpserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  Update available: v%s → v%s\n"+
				"  Run: aider-mcp update\n"+
				"  Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

// runUpdate performs a self-update to the latest version.
func runUpdate() {
	fmt.Fprintf(os.Stderr, "Checking for updates...\n")

	result := updater.CheckVersion(mcpserver.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "Already at the latest version (v%s)\n", result.CurrentVersion)
		return
	}

	fmt.Fprintf(os.Stderr, "New version available: v%s → v%s\nDownloading...\n",
		result.CurrentVersion, result.LatestVersion)

	if err := updater.SelfUpdate(mcpserver.Version); err != nil {
		fmt.Fprintf(os.Stderr, "Update failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\n  You can download manually from:\n  %s\n", result.ReleaseURL)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Updated to v%s. Restart aider-mcp to use the new version.\n", result.LatestVersion)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `aider-mcp v%s — MCP server for the aider coding assistant

Usage:
  aider-mcp serve    Start the MCP server (stdio transport)
  aider-mcp update   Update to the latest version

Requires aider to be installed (https://aider.chat).

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "aider": {
        "command": "aider-mcp",
        "args": ["serve"]
      }
    }
  }
`, mcpserver.Version)
}
