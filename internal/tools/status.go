package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/aider-tools/aider-mcp/internal/aider"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the aider_status MCP tool: report whether aider
// is installed, its version, and where the conversation log for a
// directory resolves to.
type StatusTool struct {
	runner aider.Runner
	locate func() (string, error)
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(runner aider.Runner) *StatusTool {
	if runner == nil {
		runner = aider.ExecRunner{}
	}
	return &StatusTool{runner: runner, locate: aider.Locate}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("aider_status",
		mcp.WithDescription(
			"Check the aider installation: executable path, version, the resolved "+
				"repository root for a directory, and the conversation log location and size.",
		),
		mcp.WithString("dir",
			mcp.Description("Directory to resolve the repository root for. Defaults to the server's working directory."),
		),
	)
}

// Handle processes the aider_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := resolveDir(req.GetString("dir", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	root := aider.ResolveRoot(dir)
	logPath := aider.HistoryPath(dir)
	logSize := aider.PreSize(logPath)

	var b strings.Builder
	b.WriteString("# Aider Status\n\n")

	command, locErr := t.locate()
	if locErr != nil {
		fmt.Fprintf(&b, "**Installed:** no\n\n%v\n", locErr)
		return mcp.NewToolResultText(b.String()), nil
	}

	fmt.Fprintf(&b, "**Installed:** yes\n**Executable:** `%s`\n", command)

	if raw, err := t.runner.Run(ctx, command, []string{"--version"}, dir); err != nil {
		fmt.Fprintf(&b, "**Version:** unknown (%v)\n", err)
	} else {
		fmt.Fprintf(&b, "**Version:** %s\n", strings.TrimSpace(raw.Stdout))
	}

	fmt.Fprintf(&b, "**Repository root:** `%s`\n", root)
	fmt.Fprintf(&b, "**Conversation log:** `%s` (%d bytes)\n", logPath, logSize)

	return mcp.NewToolResultText(b.String()), nil
}
