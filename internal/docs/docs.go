// Package docs serves embedded documentation as MCP resources.
package docs

import (
	"context"
	"embed"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

//go:embed usage.md
var files embed.FS

// UsageResource returns the MCP resource definition for the usage guide.
func UsageResource() mcp.Resource {
	return mcp.NewResource(
		"aider://docs/usage",
		"Aider MCP Usage Guide",
		mcp.WithResourceDescription("How to delegate tasks to aider through this server and interpret the results"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleUsage returns the embedded usage guide.
func HandleUsage(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := files.ReadFile("usage.md")
	if err != nil {
		return nil, fmt.Errorf("reading embedded usage doc: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     string(data),
		},
	}, nil
}
