// Package prompts implements the MCP prompt templates.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// TaskPrompt handles the aider-task MCP prompt.
// It instructs the host model to delegate a coding task to aider well.
type TaskPrompt struct{}

// NewTaskPrompt creates a TaskPrompt.
func NewTaskPrompt() *TaskPrompt {
	return &TaskPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *TaskPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("aider-task",
		mcp.WithPromptDescription(
			"Delegate a coding task to aider. Helps phrase the instruction, "+
				"pick the files aider should edit, and interpret the result.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("What you want aider to do"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the aider-task prompt request.
func (p *TaskPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := req.Params.Arguments["task"]

	return &mcp.GetPromptResult{
		Description: "Delegate a task to aider",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want aider to handle this task:\n\n" + task + "\n\n" +
						"Please:\n" +
						"1. Identify the files aider will need to edit and pass them in the `files` argument\n" +
						"2. Call `aider_code` with a single, specific instruction (one task per call)\n" +
						"3. If the result reports an error or no summary, tell me what happened and whether the repository may have been partially changed\n" +
						"4. Do not retry a failed call automatically — a partial run may already have committed changes",
				),
			},
		},
	}, nil
}
