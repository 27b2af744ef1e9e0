package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the aider-status MCP prompt.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("aider-status",
		mcp.WithPromptDescription(
			"Check that aider is installed and see how recent invocations went.",
		),
	)
}

// Handle processes the aider-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Aider installation and recent runs",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `aider_status` to check the aider installation, " +
						"then `aider_history` for the most recent invocations.\n\n" +
						"Summarize:\n" +
						"1. Whether aider is ready to use (and how to install it if not)\n" +
						"2. How the last few runs ended, flagging any failures or error signals\n" +
						"3. Anything in the recent errors that suggests a configuration problem (auth, quota, model name)",
				),
			},
		},
	}, nil
}
