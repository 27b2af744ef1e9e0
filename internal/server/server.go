// Package server wires all MCP components and creates the server
// instance.
//
// This is the composition root: it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"log"

	"github.com/aider-tools/aider-mcp/internal/aider"
	"github.com/aider-tools/aider-mcp/internal/config"
	"github.com/aider-tools/aider-mcp/internal/docs"
	"github.com/aider-tools/aider-mcp/internal/history"
	"github.com/aider-tools/aider-mcp/internal/prompts"
	"github.com/aider-tools/aider-mcp/internal/resources"
	"github.com/aider-tools/aider-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
//
// The returned cleanup function closes the history store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if history init failed.
func New() (*server.MCPServer, func(), error) {
	// --- Shared dependencies ---

	settings := config.NewFileStore()
	reconciler := aider.NewReconciler(nil, nil, nil)

	// History is best-effort: if the store can't open (read-only home,
	// corrupted db), the server still serves invocations, just without
	// recording them.
	cleanup := noop
	store, err := history.New(history.DefaultConfig())
	if err != nil {
		log.Printf("WARNING: server: invocation history unavailable: %v", err)
		store = nil
	} else {
		cleanup = func() {
			if err := store.Close(); err != nil {
				log.Printf("WARNING: server: closing history store: %v", err)
			}
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"aider-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	var rec tools.Recorder
	if store != nil {
		rec = store
	}

	codeTool := tools.NewCodeTool(reconciler, settings, rec)
	s.AddTool(codeTool.Definition(), codeTool.Handle)

	askTool := tools.NewAskTool(reconciler, settings, rec)
	s.AddTool(askTool.Definition(), askTool.Handle)

	statusTool := tools.NewStatusTool(nil)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	if historyTool := tools.NewHistoryTool(store); historyTool != nil {
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)
	s.AddResource(resourceHandler.RecentResource(), resourceHandler.HandleRecent)
	s.AddResource(docs.UsageResource(), docs.HandleUsage)

	// --- Register prompts ---

	taskPrompt := prompts.NewTaskPrompt()
	s.AddPrompt(taskPrompt.Definition(), taskPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	return s, cleanup, nil
}

func noop() {}

// serverInstructions is shown to the host model when it connects.
func serverInstructions() string {
	return `This server delegates coding tasks to the aider CLI running against a local repository.

Use aider_code for changes (one specific task per call, name the files aider should edit), aider_ask for questions about the code, aider_status to verify the install, and aider_history to review past runs.

Results come from aider's own conversation log, not its truncated stdout. Every call ends in one of four states: a summary from aider (task done), an error aider reported (task NOT done, even though the process exited cleanly), no recognizable outcome (inspect the repository), or a process failure. Never retry a failed call automatically — a partial run may already have edited or committed files.`
}
