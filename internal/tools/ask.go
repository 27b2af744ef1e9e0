package tools

import (
	"context"

	"github.com/aider-tools/aider-mcp/internal/aider"
	"github.com/aider-tools/aider-mcp/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// AskTool handles the aider_ask MCP tool: question mode — aider reads
// the repository but edits nothing.
type AskTool struct {
	exec   Executor
	store  config.Store
	rec    Recorder
	locate func() (string, error)
}

// NewAskTool creates an AskTool. rec may be nil (no history).
func NewAskTool(exec Executor, store config.Store, rec Recorder) *AskTool {
	return &AskTool{exec: exec, store: store, rec: rec, locate: aider.Locate}
}

// Definition returns the MCP tool definition for registration.
func (t *AskTool) Definition() mcp.Tool {
	return mcp.NewTool("aider_ask",
		mcp.WithDescription(
			"Ask the aider coding assistant a question about this repository without "+
				"letting it edit anything (aider's ask chat mode). Returns aider's answer "+
				"recovered from its conversation log.",
		),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The question for aider, e.g. 'how does the retry logic work?'"),
		),
		mcp.WithString("dir",
			mcp.Description("Working directory for the invocation. Defaults to the server's working directory."),
		),
		mcp.WithString("model",
			mcp.Description("Model override passed to aider as --model."),
		),
	)
}

// Handle processes the aider_ask tool call.
func (t *AskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt := req.GetString("prompt", "")
	if prompt == "" {
		return mcp.NewToolResultError("'prompt' is required"), nil
	}

	return runAider(ctx, runParams{
		exec:    t.exec,
		store:   t.store,
		rec:     t.rec,
		locate:  t.locate,
		prompt:  prompt,
		model:   req.GetString("model", ""),
		dir:     req.GetString("dir", ""),
		askMode: true,
	})
}
