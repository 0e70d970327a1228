package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/membanklabs/membank/internal/workflow"
)

// StatusTool handles the bank_status MCP tool — a read-only view of the
// current session.
type StatusTool struct {
	store workflow.Store
}

// NewStatusTool creates a StatusTool with the given session store.
func NewStatusTool(store workflow.Store) *StatusTool {
	return &StatusTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_status",
		mcp.WithDescription(
			"Show the current memory-bank session: mode, complexity, design "+
				"component checklist, and artifact sizes. Read-only.",
		),
	)
}

// Handle processes the bank_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRoot, err := workflow.FindProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}
	session, err := t.store.Load(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Memory-Bank Session\n\n")
	fmt.Fprintf(&b, "**Mode:** %s\n", session.Mode)
	if session.Complexity.Valid() {
		fmt.Fprintf(&b, "**Complexity:** level %d\n", int(session.Complexity))
	} else {
		b.WriteString("**Complexity:** not classified yet — run VAN\n")
	}
	ready := "no"
	if session.ReadyForImplementation {
		ready = "yes"
	}
	fmt.Fprintf(&b, "**Ready for implementation:** %s\n", ready)
	fmt.Fprintf(&b, "**Updated:** %s\n\n", session.UpdatedAt)

	b.WriteString("## Design Components\n\n")
	b.WriteString(renderComponents(session.Components))
	b.WriteString("\n## Artifacts\n\n")
	artifacts := []struct {
		file    string
		content string
	}{
		{workflow.TasksFile, session.Artifacts.Tasks},
		{workflow.ActiveContextFile, session.Artifacts.ActiveContext},
		{workflow.ProgressFile, session.Artifacts.Progress},
	}
	for _, a := range artifacts {
		state := "empty"
		if n := len(strings.TrimSpace(a.content)); n > 0 {
			state = fmt.Sprintf("%d bytes", n)
		}
		fmt.Fprintf(&b, "- `memory-bank/%s` — %s\n", a.file, state)
	}

	return mcp.NewToolResultText(b.String()), nil
}
