package tools

import (
	"context"
	"time"

	"github.com/aider-tools/aider-mcp/internal/aider"
	"github.com/aider-tools/aider-mcp/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// CodeTool handles the aider_code MCP tool: run aider with a
// natural-language instruction and an optional set of editable files.
type CodeTool struct {
	exec   Executor
	store  config.Store
	rec    Recorder
	locate func() (string, error)
}

// NewCodeTool creates a CodeTool. rec may be nil (no history).
func NewCodeTool(exec Executor, store config.Store, rec Recorder) *CodeTool {
	return &CodeTool{exec: exec, store: store, rec: rec, locate: aider.Locate}
}

// Definition returns the MCP tool definition for registration.
func (t *CodeTool) Definition() mcp.Tool {
	return mcp.NewTool("aider_code",
		mcp.WithDescription(
			"Run the aider coding assistant on this repository with a natural-language "+
				"instruction. Aider edits the given files (and commits when configured to), "+
				"then this tool reports aider's own summary of what it did, an error it "+
				"reported, or that it produced no recognizable outcome.",
		),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The instruction for aider, e.g. 'add a --verbose flag to the CLI'"),
		),
		mcp.WithString("files",
			mcp.Description("Space-separated file paths aider may edit, relative to dir"),
		),
		mcp.WithString("dir",
			mcp.Description("Working directory for the invocation. Defaults to the server's working directory."),
		),
		mcp.WithString("model",
			mcp.Description("Model override passed to aider as --model. Defaults to the repository's configured model."),
		),
	)
}

// Handle processes the aider_code tool call.
func (t *CodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt := req.GetString("prompt", "")
	if prompt == "" {
		return mcp.NewToolResultError("'prompt' is required"), nil
	}
	files := splitFiles(req.GetString("files", ""))
	model := req.GetString("model", "")

	return runAider(ctx, runParams{
		exec:    t.exec,
		store:   t.store,
		rec:     t.rec,
		locate:  t.locate,
		prompt:  prompt,
		files:   files,
		model:   model,
		dir:     req.GetString("dir", ""),
		askMode: false,
	})
}

// runParams bundles what one invocation needs; shared by aider_code
// and aider_ask, which differ only in chat mode and editable files.
type runParams struct {
	exec    Executor
	store   config.Store
	rec     Recorder
	locate  func() (string, error)
	prompt  string
	files   []string
	model   string
	dir     string
	askMode bool
}

func runAider(ctx context.Context, p runParams) (*mcp.CallToolResult, error) {
	dir, err := resolveDir(p.dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	root := aider.ResolveRoot(dir)

	command, err := p.locate()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	settings, err := p.store.Load(root)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	extraPatterns, err := settings.CompilePatterns()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	request := aider.Request{
		Command:       command,
		Args:          buildArgs(settings, p.prompt, p.model, p.files, p.askMode),
		Dir:           dir,
		ExtraPatterns: extraPatterns,
		SettleMax:     time.Duration(settings.SettleMaxMS) * time.Millisecond,
	}

	start := time.Now()
	res, runErr := p.exec.Execute(ctx, request)
	record(p.rec, start, dir, root, p.prompt, res, runErr)

	if runErr != nil {
		// Spawn failures and nonzero exits are reported, not retried: a
		// partially completed run may already have edited or committed
		// files, and a retry would duplicate that.
		return mcp.NewToolResultText(formatRunError(runErr)), nil
	}
	return mcp.NewToolResultText(formatResult(res)), nil
}
