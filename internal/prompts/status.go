package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the membank-status MCP prompt.
// It instructs the AI to read and present the current session state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("membank-status",
		mcp.WithPromptDescription(
			"Check the current memory-bank session. "+
				"Shows the workflow mode, complexity level, design component "+
				"checklist, and what to do next.",
		),
	)
}

// Handle processes the membank-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Memory-Bank Session Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `bank_status` to check my memory-bank session.\n\n" +
						"Then:\n" +
						"1. Show me the current mode and complexity in a clear, visual format\n" +
						"2. List any unresolved design components\n" +
						"3. Tell me exactly which command to run next\n" +
						"4. If the session is ready for implementation, summarize the task checklist",
				),
			},
		},
	}, nil
}
