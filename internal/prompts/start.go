// Package prompts implements MCP prompt handlers for the memory-bank
// workflow.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the membank-start MCP prompt.
// It guides the AI to classify a task and begin the workflow.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("membank-start",
		mcp.WithPromptDescription(
			"Start a memory-bank workflow for a task. "+
				"This walks you from complexity classification (VAN) through "+
				"planning, design decisions, and implementation.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("What you want to build or fix"),
		),
	)
}

// Handle processes the membank-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := "the task I describe next"
	if args := req.Params.Arguments; args != nil {
		if t, ok := args["task"]; ok && t != "" {
			task = t
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start memory-bank workflow: %s", task),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to work on: %s\n\n"+
						"Please:\n"+
						"1. Judge the task's complexity (1 = quick fix, 2 = simple enhancement, "+
						"3 = intermediate feature, 4 = complex system)\n"+
						"2. Run `bank_run` with command='VAN', description=the task, and your complexity rating\n"+
						"3. If the run ends in PLAN, rerun with command='PLAN' — for level 3-4 tasks, "+
						"include a components array naming the parts that need design decisions\n"+
						"4. Record each design decision with `bank_decide` after reading the guidance\n"+
						"5. When the session is ready for implementation, run IMPLEMENT and build the tasks\n\n"+
						"Keep me posted on the mode transitions as they happen.",
					task,
				)),
			},
		},
	}, nil
}
