package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/aider-tools/aider-mcp/internal/history"
	"github.com/mark3labs/mcp-go/mcp"
)

// HistoryTool handles the aider_history MCP tool: query past
// invocations from the sqlite store.
type HistoryTool struct {
	store *history.Store
}

// NewHistoryTool creates a HistoryTool. Returns nil if store is nil —
// the server skips registration when history is unavailable.
func NewHistoryTool(store *history.Store) *HistoryTool {
	if store == nil {
		return nil
	}
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("aider_history",
		mcp.WithDescription(
			"Query past aider invocations: when they ran, what was asked, and how "+
				"they ended (summary, error, no outcome, or process failure).",
		),
		mcp.WithString("query",
			mcp.Description("Text filter matched against prompts, summaries, and error messages"),
		),
		mcp.WithString("status",
			mcp.Description("Outcome filter"),
			mcp.Enum("summary", "error", "no-outcome", "failed"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of records to return. Defaults to 20."),
		),
	)
}

// Handle processes the aider_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := history.SearchOptions{
		Query:  req.GetString("query", ""),
		Status: history.Status(req.GetString("status", "")),
		Limit:  int(req.GetFloat("limit", 20)),
	}

	recs, err := t.store.Search(opts)
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}

	if len(recs) == 0 {
		return mcp.NewToolResultText("No matching invocations recorded."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Aider Invocations (%d)\n\n", len(recs))
	b.WriteString("| When (UTC) | Status | Prompt | Outcome |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range recs {
		outcome := r.Summary
		if outcome == "" {
			outcome = r.ErrorText
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			r.StartedAt, r.Status, cell(r.Prompt, 60), cell(outcome, 80))
	}

	return mcp.NewToolResultText(b.String()), nil
}

// cell makes text safe and short for a markdown table cell.
func cell(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	if len(s) > max {
		s = s[:max] + "…"
	}
	return s
}
